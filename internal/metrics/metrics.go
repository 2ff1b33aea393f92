package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the playback core.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	intentsTotal    *prometheus.CounterVec
	trackChanges    *prometheus.CounterVec
	unplayableTotal *prometheus.CounterVec
	busDroppedTotal *prometheus.CounterVec
	sleepFiredTotal *prometheus.CounterVec
	orderDowngrades prometheus.Counter
	orderSaves      *prometheus.CounterVec
	analyticsFailed prometheus.Counter
	playing         *prometheus.GaugeVec
	requestsTotal   prometheus.Counter
}

// New creates and registers the metrics.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		intentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tapdeck_intents_total",
			Help: "Playback intents handled, by media kind and intent",
		}, []string{"kind", "intent"}),
		trackChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tapdeck_track_changes_total",
			Help: "Tracks loaded, by media kind",
		}, []string{"kind"}),
		unplayableTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tapdeck_unplayable_sources_total",
			Help: "Sources that could not be played, by media kind",
		}, []string{"kind"}),
		busDroppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tapdeck_bus_dropped_total",
			Help: "Intents published without a subscriber able to take them",
		}, []string{"kind"}),
		sleepFiredTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tapdeck_sleep_timer_fired_total",
			Help: "Sleep timers that paused playback",
		}, []string{"kind"}),
		orderDowngrades: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tapdeck_order_tier_downgrades_total",
			Help: "Switches of the playlist order store to the local tier",
		}),
		orderSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tapdeck_order_saves_total",
			Help: "Playlist order saves, by tier and result",
		}, []string{"tier", "result"}),
		analyticsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tapdeck_analytics_failures_total",
			Help: "Analytics events that could not be delivered",
		}),
		playing: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tapdeck_playing",
			Help: "1 while the player of a media kind is playing",
		}, []string{"kind"}),
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tapdeck_metrics_requests_total",
			Help: "Requests served by the metrics listener",
		}),
	}

	registry.MustRegister(
		m.intentsTotal,
		m.trackChanges,
		m.unplayableTotal,
		m.busDroppedTotal,
		m.sleepFiredTotal,
		m.orderDowngrades,
		m.orderSaves,
		m.analyticsFailed,
		m.playing,
		m.requestsTotal,
	)
	return m
}

// Intent counts a handled playback intent.
func (m *Metrics) Intent(kind, intent string) {
	if m == nil {
		return
	}
	m.intentsTotal.WithLabelValues(kind, intent).Inc()
}

// TrackChanged counts a track load.
func (m *Metrics) TrackChanged(kind string) {
	if m == nil {
		return
	}
	m.trackChanges.WithLabelValues(kind).Inc()
}

// Unplayable counts a source that could not be played.
func (m *Metrics) Unplayable(kind string) {
	if m == nil {
		return
	}
	m.unplayableTotal.WithLabelValues(kind).Inc()
}

// BusDropped counts an intent dropped by the sync bus.
func (m *Metrics) BusDropped(kind string) {
	if m == nil {
		return
	}
	m.busDroppedTotal.WithLabelValues(kind).Inc()
}

// SleepFired counts a sleep timer reaching zero.
func (m *Metrics) SleepFired(kind string) {
	if m == nil {
		return
	}
	m.sleepFiredTotal.WithLabelValues(kind).Inc()
}

// OrderDowngraded counts a switch to the local order tier.
func (m *Metrics) OrderDowngraded() {
	if m == nil {
		return
	}
	m.orderDowngrades.Inc()
}

// OrderSaved counts a playlist order save attempt.
func (m *Metrics) OrderSaved(tier string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.orderSaves.WithLabelValues(tier, result).Inc()
}

// AnalyticsFailed counts an undelivered analytics event.
func (m *Metrics) AnalyticsFailed() {
	if m == nil {
		return
	}
	m.analyticsFailed.Inc()
}

// SetPlaying sets the playing gauge of a media kind.
func (m *Metrics) SetPlaying(kind string, playing bool) {
	if m == nil {
		return
	}
	v := 0.0
	if playing {
		v = 1
	}
	m.playing.WithLabelValues(kind).Set(v)
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
