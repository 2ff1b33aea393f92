// internal/media/mock.go
package media

import (
	"sync"

	"github.com/llehouerou/tapdeck/internal/playlist"
)

// Mock is a test double for Element. It never raises notifications on its
// own; tests drive them with Emit.
type Mock struct {
	mu        sync.Mutex
	nativeHLS bool
	loadErr   error
	playErr   error
	notify    Notify
	loads     []string
	attached  []*Stream
	playCalls int
	pauses    int
	seeks     []float64
	volume    float64
	rate      float64
	position  float64
	duration  float64
	paused    bool
}

// NewMock creates a paused mock element without native HLS support.
func NewMock() *Mock {
	return &Mock{paused: true, volume: 1, rate: 1}
}

func (m *Mock) CanPlayNative(src string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nativeHLS || !playlist.IsManifestURL(src)
}

func (m *Mock) Load(src string, notify Notify) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads = append(m.loads, src)
	if m.loadErr != nil {
		return m.loadErr
	}
	m.notify = notify
	m.position = 0
	m.paused = true
	return nil
}

func (m *Mock) Attach(stream *Stream, notify Notify) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attached = append(m.attached, stream)
	m.notify = notify
	m.position = 0
	m.duration = stream.Duration
	m.paused = true
	return nil
}

func (m *Mock) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playCalls++
	if m.playErr != nil {
		return m.playErr
	}
	m.paused = false
	return nil
}

func (m *Mock) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauses++
	m.paused = true
}

func (m *Mock) Seek(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seeks = append(m.seeks, seconds)
	m.position = seconds
}

func (m *Mock) SetVolume(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = v
}

func (m *Mock) SetPlaybackRate(r float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rate = r
}

func (m *Mock) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *Mock) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *Mock) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

// Test helpers

// SetNativeHLS makes CanPlayNative accept manifests.
func (m *Mock) SetNativeHLS(native bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nativeHLS = native
}

// SetLoadError makes subsequent Load calls fail.
func (m *Mock) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

// SetPlayError makes subsequent Play calls fail.
func (m *Mock) SetPlayError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playErr = err
}

// Emit delivers ev through the notify callback of the latest load.
func (m *Mock) Emit(ev ElementEvent) {
	m.mu.Lock()
	notify := m.notify
	if ev.Type == EventLoadedMetadata {
		m.duration = ev.Value
	}
	m.mu.Unlock()
	if notify != nil {
		notify(ev)
	}
}

// LoadCalls returns the sources passed to Load.
func (m *Mock) LoadCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.loads...)
}

// Attached returns the streams passed to Attach.
func (m *Mock) Attached() []*Stream {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Stream(nil), m.attached...)
}

func (m *Mock) PlayCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playCalls
}

func (m *Mock) PauseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauses
}

func (m *Mock) SeekCalls() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.seeks...)
}

func (m *Mock) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *Mock) Rate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rate
}

// Verify Mock implements Element at compile time.
var _ Element = (*Mock)(nil)
