// internal/media/hls.go
package media

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/grafov/m3u8"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

const (
	defaultSegmentBuffer = 3
	maxManifestBytes     = 4 << 20
	maxSegmentBytes      = 64 << 20
)

var (
	errNoVariants   = errors.New("master playlist has no variants")
	errNoSegments   = errors.New("media playlist has no segments")
	errNestedMaster = errors.New("variant resolves to another master playlist")
)

// Segment is one fetched media segment.
type Segment struct {
	Sequence uint64
	Duration float64
	URI      string
	Data     []byte
}

// Stream is a running fallback engine instance feeding segments in order.
type Stream struct {
	URL      string
	Duration float64
	Segments <-chan Segment

	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Close stops the feeder and waits for it to exit.
func (s *Stream) Close() {
	s.cancel()
	<-s.done
}

// Err returns the error that stopped the feeder early, if any.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Stream) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Engine is the HLS fallback engine for elements without native support.
// It picks the highest bandwidth variant of a master playlist and feeds the
// media segments with bounded read-ahead.
type Engine struct {
	client *http.Client
	buffer int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithSegmentBuffer sets how many fetched segments may wait for the element.
func WithSegmentBuffer(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.buffer = n
		}
	}
}

// NewEngine creates an engine. A nil client uses a client with a 30s timeout.
func NewEngine(client *http.Client, opts ...EngineOption) *Engine {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	e := &Engine{client: client, buffer: defaultSegmentBuffer}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start fetches and parses the manifest, then starts feeding segments.
// The stream stops when ctx is cancelled or Close is called.
func (e *Engine) Start(ctx context.Context, manifestURL string) (*Stream, error) {
	list, base, err := e.resolveMedia(ctx, manifestURL)
	if err != nil {
		return nil, err
	}

	segments := lo.Filter(list.Segments, func(s *m3u8.MediaSegment, _ int) bool {
		return s != nil
	})
	if len(segments) == 0 {
		return nil, errNoSegments
	}
	duration := lo.SumBy(segments, func(s *m3u8.MediaSegment) float64 {
		return s.Duration
	})

	sctx, cancel := context.WithCancel(ctx)
	ch := make(chan Segment, e.buffer)
	s := &Stream{
		URL:      base.String(),
		Duration: duration,
		Segments: ch,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go e.feed(sctx, s, ch, base, segments)
	return s, nil
}

func (e *Engine) feed(ctx context.Context, s *Stream, ch chan<- Segment, base *url.URL, segments []*m3u8.MediaSegment) {
	defer close(s.done)
	defer close(ch)

	for _, seg := range segments {
		ref, err := base.Parse(seg.URI)
		if err != nil {
			s.setErr(fmt.Errorf("segment %d uri: %w", seg.SeqId, err))
			return
		}
		data, err := e.get(ctx, ref.String(), maxSegmentBytes)
		if err != nil {
			if ctx.Err() == nil {
				log.WithError(err).WithField("segment", ref.String()).Warn("segment fetch failed")
				s.setErr(err)
			}
			return
		}
		select {
		case ch <- Segment{Sequence: seg.SeqId, Duration: seg.Duration, URI: ref.String(), Data: data}:
		case <-ctx.Done():
			return
		}
	}
}

func (e *Engine) resolveMedia(ctx context.Context, manifestURL string) (*m3u8.MediaPlaylist, *url.URL, error) {
	pl, listType, base, err := e.fetchPlaylist(ctx, manifestURL)
	if err != nil {
		return nil, nil, err
	}
	if listType == m3u8.MEDIA {
		return pl.(*m3u8.MediaPlaylist), base, nil
	}

	master := pl.(*m3u8.MasterPlaylist)
	variants := lo.Filter(master.Variants, func(v *m3u8.Variant, _ int) bool {
		return v != nil && v.URI != ""
	})
	if len(variants) == 0 {
		return nil, nil, errNoVariants
	}
	best := lo.MaxBy(variants, func(a, b *m3u8.Variant) bool {
		return a.Bandwidth > b.Bandwidth
	})

	ref, err := base.Parse(best.URI)
	if err != nil {
		return nil, nil, fmt.Errorf("variant uri: %w", err)
	}
	pl, listType, base, err = e.fetchPlaylist(ctx, ref.String())
	if err != nil {
		return nil, nil, err
	}
	if listType != m3u8.MEDIA {
		return nil, nil, errNestedMaster
	}
	return pl.(*m3u8.MediaPlaylist), base, nil
}

func (e *Engine) fetchPlaylist(ctx context.Context, rawURL string) (m3u8.Playlist, m3u8.ListType, *url.URL, error) {
	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("parse manifest url: %w", err)
	}
	data, err := e.get(ctx, rawURL, maxManifestBytes)
	if err != nil {
		return nil, 0, nil, err
	}
	pl, listType, err := m3u8.DecodeFrom(bufio.NewReader(bytes.NewReader(data)), false)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("decode manifest: %w", err)
	}
	return pl, listType, base, nil
}

func (e *Engine) get(ctx context.Context, rawURL string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, rawURL)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}
