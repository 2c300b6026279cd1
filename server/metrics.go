package main

import (
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Metrics with bounded cardinality (no per-player labels)
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arena_tick_duration_seconds",
		Help:    "Time spent in one simulation tick",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
	})

	playersOnline = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_players",
		Help: "Current number of players in the world",
	})

	projectilesLive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_projectiles",
		Help: "Current number of projectiles in flight",
	})

	shotsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_shots_total",
		Help: "Total shots fired",
	})

	hitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_hits_total",
		Help: "Total projectile hits on players",
	})

	deathsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_deaths_total",
		Help: "Total player deaths",
	})

	droppedSends = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_dropped_sends_total",
		Help: "Outbound messages dropped because a client's send buffer was full",
	})

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_ws_connections_active",
		Help: "Currently active WebSocket connections",
	})

	// Bounded: "rate_limit", "conn_limit", "origin", "auth", "full"
	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_connection_rejected_total",
		Help: "Connections rejected before joining the game",
	}, []string{"reason"})

	// Bounded: the known message kinds plus "other"; the raw client value
	// never becomes a label
	messagesIn = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_messages_in_total",
		Help: "Inbound WebSocket messages by kind",
	}, []string{"type"})
)

// RecordTick observes how long the tick starting at start took
func RecordTick(start time.Time) {
	tickDuration.Observe(time.Since(start).Seconds())
}

// UpdatePlayerCount updates the player gauge
func UpdatePlayerCount(count int) {
	playersOnline.Set(float64(count))
}

// UpdateProjectileCount updates the projectile gauge
func UpdateProjectileCount(count int) {
	projectilesLive.Set(float64(count))
}

// UpdateConnectionCount updates the WebSocket connection gauge
func UpdateConnectionCount(count int) {
	wsConnectionsActive.Set(float64(count))
}

// CountShot increments the shot counter
func CountShot() {
	shotsTotal.Inc()
}

// CountHits adds one tick's hit count
func CountHits(n int) {
	if n > 0 {
		hitsTotal.Add(float64(n))
	}
}

// CountDeaths adds one tick's death count
func CountDeaths(n int) {
	if n > 0 {
		deathsTotal.Add(float64(n))
	}
}

// CountDroppedSend increments the dropped outbound message counter
func CountDroppedSend() {
	droppedSends.Inc()
}

// RecordConnectionRejected increments the rejection counter.
// reason must be one of: "rate_limit", "conn_limit", "origin", "auth", "full"
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// CountMessageIn increments the inbound message counter, collapsing
// unknown kinds so client input cannot mint new label values.
func CountMessageIn(msgType string) {
	switch msgType {
	case MsgPlayerUpdate, MsgShoot, MsgRequestReload:
	default:
		msgType = "other"
	}
	messagesIn.WithLabelValues(msgType).Inc()
}

// StartDebugServer exposes pprof and raw metrics on a localhost-only
// listener, separate from the public router.
func StartDebugServer(addr string) {
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		log.Info().Str("addr", addr).Msg("debug server listening")
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error().Err(err).Msg("debug server stopped")
		}
	}()
}
