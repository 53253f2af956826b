package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/user/retro-tv-go/internal/model"
	"github.com/user/retro-tv-go/internal/platform"
	"github.com/user/retro-tv-go/internal/relay"
	"github.com/user/retro-tv-go/internal/scheduler"
	"github.com/user/retro-tv-go/internal/store"
)

// Prometheus metrics for the playback loop
var (
	playsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retro_tv_plays_total",
		Help: "Total number of issued playback plans",
	}, []string{"trigger"})

	candidatePool = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "retro_tv_candidate_pool",
		Help: "Number of validated candidate records",
	})

	reloadDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "retro_tv_feed_reload_duration_seconds",
		Help:    "Duration of feed reload operations in seconds",
		Buckets: prometheus.DefBuckets,
	})

	submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retro_tv_submissions_total",
		Help: "Total number of viewer submissions",
	}, []string{"result"})

	errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retro_tv_errors_total",
		Help: "Total number of errors",
	}, []string{"type"})
)

func init() {
	prometheus.MustRegister(playsTotal)
	prometheus.MustRegister(candidatePool)
	prometheus.MustRegister(reloadDurationSeconds)
	prometheus.MustRegister(submissionsTotal)
	prometheus.MustRegister(errorsTotal)
}

// PlayService is the scheduler surface the HTTP layer depends on.
type PlayService interface {
	RequestPlay(ctx context.Context, trigger string) (*model.PlaybackPlan, error)
	ReloadFeed(ctx context.Context) (int, error)
	Current() *model.PlaybackPlan
	PoolSize() int
}

// SubmitService relays viewer submissions.
type SubmitService interface {
	Submit(ctx context.Context, sub relay.Submission) error
}

// SubmissionObserver is notified after a submission was relayed. Used
// for the optional moderation notice; may be nil.
type SubmissionObserver interface {
	SubmissionReceived(url, name, title string)
}

// HealthResponse is the /healthz payload.
type HealthResponse struct {
	Status   string `json:"status"`
	Pool     int    `json:"pool"`
	Database string `json:"database,omitempty"`
	Uptime   string `json:"uptime"`
}

// submitRequest is the /api/submit payload.
type submitRequest struct {
	URL   string `json:"url"`
	Name  string `json:"name"`
	Title string `json:"title"`
	Hour  string `json:"hour"`
}

// Server exposes the playback loop over HTTP.
type Server struct {
	play      PlayService
	submitter SubmitService
	observer  SubmissionObserver
	history   store.Store
	router    *http.ServeMux
	server    *http.Server
	startTime time.Time
}

// NewServer creates the HTTP server. observer and history may be nil.
func NewServer(play PlayService, submitter SubmitService, observer SubmissionObserver, history store.Store) *Server {
	s := &Server{
		play:      play,
		submitter: submitter,
		observer:  observer,
		history:   history,
		router:    http.NewServeMux(),
		startTime: time.Now(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/api/play", s.handlePlay)
	s.router.HandleFunc("/api/now", s.handleNow)
	s.router.HandleFunc("/api/reload", s.handleReload)
	s.router.HandleFunc("/api/submit", s.handleSubmit)
	s.router.HandleFunc("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())
}

// Handler returns the route handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening on the specified port
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().Int("port", port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	log.Info().Msg("Stopping HTTP server")
	return s.server.Shutdown(ctx)
}

// handlePlay triggers a manual channel switch.
func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	plan, err := s.play.RequestPlay(r.Context(), model.TriggerManual)
	switch {
	case errors.Is(err, scheduler.ErrCooldown):
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"status": "cooldown"})
		return
	case errors.Is(err, scheduler.ErrNoSignal):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "no_signal"})
		return
	case errors.Is(err, platform.ErrUnsupported):
		errorsTotal.WithLabelValues("unsupported_platform").Inc()
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"status": "platform_not_supported"})
		return
	case err != nil:
		errorsTotal.WithLabelValues("play").Inc()
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, plan)
}

// handleNow reports the active plan, or 204 when idle (static).
func (s *Server) handleNow(w http.ResponseWriter, r *http.Request) {
	plan := s.play.Current()
	if plan == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// handleReload replaces the candidate pool on demand.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	size, err := s.play.ReloadFeed(r.Context())
	reloadDurationSeconds.Observe(time.Since(start).Seconds())
	SetCandidatePool(size)

	if err != nil {
		errorsTotal.WithLabelValues("feed_fetch").Inc()
		// Previous pool stays in place; report it alongside the failure.
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"status": "fetch_failed",
			"pool":   size,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "reloaded",
		"pool":   size,
	})
}

// handleSubmit validates and relays one viewer submission.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err := s.submitter.Submit(r.Context(), relay.Submission{
		URL:         req.URL,
		DisplayName: req.Name,
		Title:       req.Title,
		Hour:        req.Hour,
	})
	switch {
	case errors.Is(err, relay.ErrInvalidURL):
		submissionsTotal.WithLabelValues("rejected").Inc()
		s.recordSubmission(r.Context(), req, model.SubmissionRejected)
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"status": "invalid_url",
			"error":  "not a recognized video link",
		})
		return
	case errors.Is(err, relay.ErrDisabled):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "submissions_disabled"})
		return
	case err != nil:
		errorsTotal.WithLabelValues("relay").Inc()
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	submissionsTotal.WithLabelValues("accepted").Inc()
	s.recordSubmission(r.Context(), req, model.SubmissionAccepted)

	if s.observer != nil {
		s.observer.SubmissionReceived(req.URL, req.Name, req.Title)
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "submitted"})
}

// handleHealth reports service and pool state.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status: "healthy",
		Pool:   s.play.PoolSize(),
		Uptime: time.Since(s.startTime).Round(time.Second).String(),
	}

	if s.history != nil {
		if err := s.history.Ping(r.Context()); err != nil {
			response.Database = fmt.Sprintf("unhealthy: %v", err)
			response.Status = "unhealthy"
		} else {
			response.Database = "healthy"
		}
	}

	status := http.StatusOK
	if response.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

// recordSubmission appends to the audit log when history is enabled.
func (s *Server) recordSubmission(ctx context.Context, req submitRequest, result string) {
	if s.history == nil {
		return
	}
	rec := &model.SubmissionRecord{
		URL:         req.URL,
		DisplayName: req.Name,
		Title:       req.Title,
		Result:      result,
	}
	if err := s.history.RecordSubmission(ctx, rec); err != nil {
		log.Error().Err(err).Msg("Failed to record submission")
	}
}

// SetCandidatePool updates the pool gauge. The scheduler's reload loop
// reports through this as its pool observer, so the gauge tracks the
// periodic reloads and not just on-demand ones.
func SetCandidatePool(size int) {
	candidatePool.Set(float64(size))
}

// MetricsRecorder counts issued plans by trigger and forwards them to
// the persistent store when one is configured. It sits in front of the
// scheduler so manual and auto-advance plays are both counted.
type MetricsRecorder struct {
	next scheduler.PlayRecorder
}

// NewMetricsRecorder wraps next, which may be nil.
func NewMetricsRecorder(next scheduler.PlayRecorder) *MetricsRecorder {
	return &MetricsRecorder{next: next}
}

// RecordPlay implements scheduler.PlayRecorder.
func (m *MetricsRecorder) RecordPlay(ctx context.Context, event *model.PlayEvent) error {
	playsTotal.WithLabelValues(event.Trigger).Inc()
	if m.next != nil {
		return m.next.RecordPlay(ctx, event)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
