package metrics

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the simulation service.
type Metrics struct {
	TicksTotal    prometheus.Counter
	TickDur       prometheus.Histogram
	SignalsTotal  *prometheus.CounterVec // labels: kind, strength
	VoiceRequests prometheus.Counter
	VoiceDropped  prometheus.Counter

	CommentaryRequests prometheus.Counter
	CommentaryFailures prometheus.Counter

	// Fan-out / presentation
	BusDropsTotal        *prometheus.CounterVec // labels: subscriber
	ChannelSaturationPct *prometheus.GaugeVec   // labels: channel_name
	WSClients            prometheus.Gauge

	// Optional Redis mirror
	RedisPublishDur          prometheus.Histogram
	RedisCircuitBreakerState prometheus.Gauge // 0=closed, 1=open, 2=half-open
	RedisCircuitBreakerTrips prometheus.Counter
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketviz_ticks_total",
			Help: "Total simulation ticks processed",
		}),
		TickDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "marketviz_tick_duration_seconds",
			Help:    "Tick handler latency (mutate + indicators + detection)",
			Buckets: []float64{0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005},
		}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketviz_signals_total",
			Help: "Total signals emitted (by kind and strength)",
		}, []string{"kind", "strength"}),
		VoiceRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketviz_voice_requests_total",
			Help: "Voice callouts forwarded to the synthesis boundary",
		}),
		VoiceDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketviz_voice_dropped_total",
			Help: "Voice callouts dropped (request already in flight)",
		}),
		CommentaryRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketviz_commentary_requests_total",
			Help: "Commentary requests issued",
		}),
		CommentaryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketviz_commentary_failures_total",
			Help: "Commentary requests that failed (network or parse)",
		}),
		BusDropsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketviz_bus_drops_total",
			Help: "Events dropped per fan-out subscriber",
		}, []string{"subscriber"}),
		ChannelSaturationPct: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "marketviz_channel_saturation_pct",
			Help: "Fan-out channel buffer saturation percentage",
		}, []string{"channel_name"}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "marketviz_ws_clients",
			Help: "Currently connected WebSocket clients",
		}),
		RedisPublishDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "marketviz_redis_publish_duration_seconds",
			Help:    "Redis mirror publish latency",
			Buckets: prometheus.DefBuckets,
		}),
		RedisCircuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "marketviz_redis_circuit_breaker_state",
			Help: "Redis circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		RedisCircuitBreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketviz_redis_circuit_breaker_trips_total",
			Help: "Times the Redis circuit breaker opened",
		}),
	}

	prometheus.MustRegister(
		m.TicksTotal,
		m.TickDur,
		m.SignalsTotal,
		m.VoiceRequests,
		m.VoiceDropped,
		m.CommentaryRequests,
		m.CommentaryFailures,
		m.BusDropsTotal,
		m.ChannelSaturationPct,
		m.WSClients,
		m.RedisPublishDur,
		m.RedisCircuitBreakerState,
		m.RedisCircuitBreakerTrips,
	)

	return m
}

// HealthStatus represents the service health.
type HealthStatus struct {
	mu sync.RWMutex

	LastTickTime   time.Time
	RedisEnabled   bool
	RedisConnected bool
	RedisLatencyMs float64
	LastCheckAt    time.Time
	StartedAt      time.Time
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{
		StartedAt: time.Now(),
	}
}

func (h *HealthStatus) SetLastTickTime(t time.Time) {
	h.mu.Lock()
	h.LastTickTime = t
	h.mu.Unlock()
}

func (h *HealthStatus) SetRedisEnabled(v bool) {
	h.mu.Lock()
	h.RedisEnabled = v
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if rdb == nil {
					continue
				}
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				h.CheckRedis(probeCtx, rdb)
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint. The feed loop is the only
// driver of forward progress and it never stops itself, so the service is
// unhealthy only when ticks stop arriving entirely.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK

	tickAge := time.Duration(0)
	if !h.LastTickTime.IsZero() {
		tickAge = time.Since(h.LastTickTime)
	}
	// Slowest cadence is 15s; 60s without a tick means the loop is wedged.
	if !h.LastTickTime.IsZero() && tickAge > time.Minute {
		overallStatus = "unhealthy"
		httpCode = http.StatusServiceUnavailable
	} else if h.RedisEnabled && !h.RedisConnected {
		overallStatus = "degraded"
	}

	status := struct {
		Status         string  `json:"status"`
		Uptime         string  `json:"uptime"`
		LastTickTime   string  `json:"last_tick_time"`
		TickAge        string  `json:"tick_age"`
		RedisEnabled   bool    `json:"redis_enabled"`
		RedisConnected bool    `json:"redis_connected"`
		RedisLatencyMs float64 `json:"redis_latency_ms"`
		LastCheckAt    string  `json:"last_check_at"`
	}{
		Status:         overallStatus,
		Uptime:         time.Since(h.StartedAt).Round(time.Second).String(),
		LastTickTime:   h.LastTickTime.Format(time.RFC3339),
		TickAge:        tickAge.Round(time.Millisecond).String(),
		RedisEnabled:   h.RedisEnabled,
		RedisConnected: h.RedisConnected,
		RedisLatencyMs: h.RedisLatencyMs,
		LastCheckAt:    h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
