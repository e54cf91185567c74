package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/amirphl/signal-trader/internal/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthStatus tracks liveness of the evaluation loop.
type HealthStatus struct {
	mu        sync.RWMutex
	symbol    string
	startedAt time.Time
	lastTick  time.Time
	lastError string
	// StaleAfter marks the loop unhealthy when no tick completed for this long.
	StaleAfter time.Duration
}

func NewHealthStatus(symbol string, staleAfter time.Duration) *HealthStatus {
	return &HealthStatus{
		symbol:     symbol,
		startedAt:  time.Now(),
		StaleAfter: staleAfter,
	}
}

// RecordTick marks a completed tick; err is the tick's outcome.
func (h *HealthStatus) RecordTick(at time.Time, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastTick = at
	if err != nil {
		h.lastError = err.Error()
	} else {
		h.lastError = ""
	}
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	code := http.StatusOK
	switch {
	case h.lastTick.IsZero():
		status = "starting"
	case h.StaleAfter > 0 && time.Since(h.lastTick) > h.StaleAfter:
		status = "stale"
		code = http.StatusServiceUnavailable
	case h.lastError != "":
		status = "degraded"
	}

	body := struct {
		Status    string `json:"status"`
		Symbol    string `json:"symbol"`
		Uptime    string `json:"uptime"`
		LastTick  string `json:"last_tick,omitempty"`
		LastError string `json:"last_error,omitempty"`
	}{
		Status:    status,
		Symbol:    h.symbol,
		Uptime:    time.Since(h.startedAt).Round(time.Second).String(),
		LastError: h.lastError,
	}
	if !h.lastTick.IsZero() {
		body.LastTick = h.lastTick.UTC().Format(time.RFC3339)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	srv *http.Server
}

// NewServer creates a metrics and health server for the metrics in gatherer.
func NewServer(addr string, gatherer prometheus.Gatherer, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.Handle("/healthz", health)

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler exposes the mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		utils.GetLogger().Printf("Metrics | serving on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.GetLogger().Printf("Metrics | server error: %v", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
