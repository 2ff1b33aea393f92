package cli

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/llehouerou/tapdeck/internal/analytics"
	"github.com/llehouerou/tapdeck/internal/app"
	"github.com/llehouerou/tapdeck/internal/backend"
	"github.com/llehouerou/tapdeck/internal/bus"
	"github.com/llehouerou/tapdeck/internal/config"
	"github.com/llehouerou/tapdeck/internal/logging"
	"github.com/llehouerou/tapdeck/internal/media"
	"github.com/llehouerou/tapdeck/internal/metrics"
	"github.com/llehouerou/tapdeck/internal/mpris"
	"github.com/llehouerou/tapdeck/internal/notify"
	"github.com/llehouerou/tapdeck/internal/playback"
	"github.com/llehouerou/tapdeck/internal/playlist"
	"github.com/llehouerou/tapdeck/internal/playlists"
	"github.com/llehouerou/tapdeck/internal/state"
)

const mediaTimeout = 30 * time.Second

// runPlayer starts the terminal player.
func runPlayer(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	closeLog, err := logging.Setup(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	if !cfg.HasBackendConfig() {
		return errNoBackend
	}

	kv, err := openState(cfg)
	if err != nil {
		return err
	}
	defer kv.Close()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	m := metrics.New()
	b := bus.New(m)
	client := backend.NewClient(cfg.Backend.URL, cfg.Backend.APIKey)

	tracker := analytics.NewTracker(client, m)
	defer tracker.Close()
	log.WithField("session", tracker.SessionID()).Info("tapdeck starting")

	orders := newOrderManager(cfg, client, kv, m)
	orders.Load(ctx)

	pb := cfg.GetPlaybackConfig()
	engine := media.NewEngine(&http.Client{Timeout: mediaTimeout})
	controllers := make([]*playback.Controller, 0, len(playlist.Kinds))
	for _, kind := range playlist.Kinds {
		el := media.NewSimulated(media.WithFallbackDuration(pb.FallbackTrackSeconds))
		defer el.Close()

		ctrl := playback.New(kind, playback.NewStore(kv, kind), media.NewAdapter(el, engine), playback.Options{
			TrackDelay:        pb.TrackDelay(),
			ResumeMinPosition: pb.ResumeMinSeconds,
			ResumeWindow:      pb.ResumeWindow(),
			Recorder:          tracker,
			Metrics:           m,
		})
		defer ctrl.Close()

		sub, err := b.Subscribe(kind)
		if err != nil {
			return err
		}
		defer sub.Close()
		if err := ctrl.Listen(sub); err != nil {
			return err
		}
		controllers = append(controllers, ctrl)
	}

	if mp, err := mpris.New(controllers[0], b); err != nil {
		log.WithError(err).Warn("media keys unavailable")
	} else {
		defer mp.Close()
	}

	if cfg.Metrics.Listen != "" {
		go func() {
			if err := m.Serve(ctx, cfg.Metrics.Listen, nil); err != nil {
				log.WithError(err).Warn("metrics listener stopped")
			}
		}()
	}

	notifier, err := notify.New()
	if err != nil {
		log.WithError(err).Debug("desktop notifications unavailable")
		notifier = notify.Nop()
	}

	p := tea.NewProgram(app.New(ctx, app.Deps{
		Controllers: controllers,
		Bus:         b,
		Orders:      orders,
		Tracks:      client,
		Notifier:    notifier,
	}), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

// newOrderManager builds the playlist order manager over the backend when
// one is given, or over the local tier only.
func newOrderManager(cfg *config.Config, client *backend.Client, kv state.Interface, m *metrics.Metrics) *playlists.Manager {
	var opts []playlists.Option
	if m != nil {
		opts = append(opts, playlists.WithObserver(m))
	}
	if d := cfg.Playlists.PrimaryRetry(); d > 0 {
		opts = append(opts, playlists.WithPrimaryRetry(d))
	}
	if client == nil {
		return playlists.NewManager(nil, kv, cfg.UserID, opts...)
	}
	return playlists.NewManager(client, kv, cfg.UserID, opts...)
}
