// Package api provides the lectio REST API server.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/FocuswithJustin/lectio/internal/logging"
	"github.com/FocuswithJustin/lectio/internal/metrics"
	"github.com/FocuswithJustin/lectio/internal/plan"
	"github.com/FocuswithJustin/lectio/internal/resolver"
	"github.com/FocuswithJustin/lectio/internal/server"
	"github.com/FocuswithJustin/lectio/internal/taskqueue"
)

// Options configures a Server.
type Options struct {
	Config   Config
	Resolver *resolver.Service

	// Plan is nil when no plan is loaded; plan routes then answer 404.
	Plan *plan.Plan

	Metrics *metrics.Metrics

	// WarmOptions returns the pacing for a warm job of version v.
	// Nil uses the plan package defaults.
	WarmOptions func(v string) plan.WarmOptions

	// Version is reported by / and /health.
	Version string
}

// Server is the REST API.
type Server struct {
	cfg         Config
	resolver    *resolver.Service
	plan        *plan.Plan
	metrics     *metrics.Metrics
	warmOptions func(v string) plan.WarmOptions
	version     string

	hub     *Hub
	jobs    *JobStore
	warms   *taskqueue.Queue
	limiter *RateLimiter
	stop    context.CancelFunc
	started time.Time
	now     func() time.Time
}

// New validates the configuration and starts the WebSocket hub and the warm
// job worker. Call Close to stop them.
func New(opts Options) (*Server, error) {
	if err := ValidateAuthConfig(opts.Config.Auth); err != nil {
		return nil, fmt.Errorf("invalid auth config: %w", err)
	}
	if opts.Config.TLS.Enabled {
		if opts.Config.TLS.CertFile == "" || opts.Config.TLS.KeyFile == "" {
			return nil, fmt.Errorf("TLS enabled but cert or key file not specified")
		}
		if _, err := os.Stat(opts.Config.TLS.CertFile); err != nil {
			return nil, fmt.Errorf("TLS cert file not found: %w", err)
		}
		if _, err := os.Stat(opts.Config.TLS.KeyFile); err != nil {
			return nil, fmt.Errorf("TLS key file not found: %w", err)
		}
	}
	if opts.Resolver == nil {
		opts.Resolver = resolver.New(resolver.Options{Metrics: opts.Metrics})
	}
	if opts.WarmOptions == nil {
		opts.WarmOptions = func(v string) plan.WarmOptions { return plan.WarmOptions{Version: v} }
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:         opts.Config,
		resolver:    opts.Resolver,
		plan:        opts.Plan,
		metrics:     opts.Metrics,
		warmOptions: opts.WarmOptions,
		version:     opts.Version,
		hub:         NewHub(),
		jobs:        NewJobStore(),
		// One warm at a time keeps provider load polite.
		warms: taskqueue.New(taskqueue.Options{
			Workers: 1,
			OnError: func(task taskqueue.Task, err error) {
				logging.JobEvent(task.Name, string(task.Type), "failed", "error", err.Error())
			},
		}),
		stop:    cancel,
		started: time.Now(),
		now:     time.Now,
	}
	if s.cfg.RateLimitRequests > 0 {
		s.limiter = NewRateLimiter(RateLimiterConfig{
			RequestsPerMinute: s.cfg.RateLimitRequests,
			BurstSize:         s.cfg.RateLimitBurst,
		})
	}
	go s.hub.Run(ctx)
	return s, nil
}

// Close cancels running jobs and stops the background goroutines.
func (s *Server) Close() {
	s.jobs.CancelAll()
	s.warms.Close()
	s.stop()
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

// routes configures all HTTP routes.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /versions", s.handleVersions)
	mux.HandleFunc("GET /books", s.handleBooks)
	mux.HandleFunc("GET /chapters/{book}/{chapter}", s.handleChapter)
	mux.HandleFunc("GET /passages", s.handlePassage)
	mux.HandleFunc("GET /parse", s.handleParse)
	mux.HandleFunc("GET /plan/today", s.handlePlanToday)
	mux.HandleFunc("GET /plan/days/{n}", s.handlePlanDay)
	mux.HandleFunc("POST /jobs/warm", s.handleWarm)
	mux.HandleFunc("GET /jobs", s.handleJobs)
	mux.HandleFunc("GET /jobs/{id}", s.handleJob)
	mux.HandleFunc("DELETE /jobs/{id}", s.handleCancelJob)
	mux.Handle("GET /ws", WebSocketHandler(s.hub, WebSocketSecurityConfig{
		AllowedOrigins: s.cfg.AllowedOrigins,
		MaxMessageRate: DefaultWebSocketSecurityConfig().MaxMessageRate,
		MaxMessageSize: DefaultWebSocketSecurityConfig().MaxMessageSize,
		Auth:           s.cfg.Auth,
	}))
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	return mux
}

// Handler returns the routes wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = server.SecurityHeadersWithCSP(server.APICSPConfig(), s.routes())

	if s.cfg.Auth.Enabled {
		handler = AuthMiddleware(s.cfg.Auth, handler)
	}
	if s.limiter != nil {
		handler = s.limiter.Middleware(handler)
	}

	// CORS is outermost so preflight requests skip auth and rate limiting.
	handler = server.CORSMiddlewareWithConfig(server.CORSConfig{AllowedOrigins: s.cfg.AllowedOrigins}, handler)

	return logging.CombinedMiddleware(handler)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.logStartup()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		if s.cfg.TLS.Enabled {
			errc <- srv.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
			return
		}
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logging.Info("shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) logStartup() {
	protocol, wsProtocol := "http", "ws"
	if s.cfg.TLS.Enabled {
		protocol, wsProtocol = "https", "wss"
		logging.Info("TLS enabled", "cert_file", server.AbsPath(s.cfg.TLS.CertFile))
	} else {
		logging.Warn("TLS disabled - using plain HTTP",
			"recommendation", "consider using TLS or reverse proxy for production")
	}
	logging.ServerStartup("rest_api", protocol, s.cfg.Port, "websocket_protocol", wsProtocol)

	logging.SecurityEvent("authentication_configured", "api", "enabled", s.cfg.Auth.Enabled)
	if s.limiter != nil {
		logging.Info("rate limiting enabled",
			"requests_per_minute", s.cfg.RateLimitRequests,
			"burst_size", s.limiter.config.BurstSize)
	}
	if len(s.cfg.AllowedOrigins) > 0 {
		logging.SecurityEvent("cors_configured", "api",
			"mode", "restricted",
			"allowed_origins_count", len(s.cfg.AllowedOrigins))
	} else {
		logging.SecurityEvent("cors_configured", "api",
			"mode", "permissive",
			"note", "allowing all origins (*) - consider restricting for production")
	}
}

// startWarm registers a warm job and queues it.
func (s *Server) startWarm(req WarmRequest) Job {
	job := s.jobs.Create(req)
	logging.JobEvent(job.ID, job.Type, string(job.Status), "version", req.Version, "from", req.From, "to", req.To)
	s.warms.Add(taskqueue.TaskWarm, job.ID, func(context.Context) (any, error) {
		return s.runWarm(job.ID, req)
	})
	return job
}

// runWarm executes a queued warm job, broadcasting progress over the hub.
func (s *Server) runWarm(id string, req WarmRequest) (any, error) {
	ctx, ok := s.jobs.context(id)
	if !ok {
		return nil, nil
	}
	if ctx.Err() != nil {
		// cancelled while queued
		return nil, nil
	}
	ctx = logging.WithJobID(ctx, id)

	days := s.plan.Days()
	if req.From > 0 || req.To > 0 {
		to := req.To
		if to == 0 {
			to = plan.TotalDays + 1
		}
		days = s.plan.Range(max(req.From, 1), to)
	}

	s.jobs.Update(id, JobStatusRunning, 0, nil, "")
	logging.JobEvent(id, "warm", string(JobStatusRunning), "days", len(days))

	opts := s.warmOptions(req.Version)
	opts.Progress = func(p plan.Progress) {
		pct := 100
		if p.Total > 0 {
			pct = p.Done * 100 / p.Total
		}
		s.jobs.Update(id, JobStatusRunning, pct, nil, "")
		s.hub.Broadcast(ProgressMessage{
			Type:      "progress",
			Operation: "warm",
			JobID:     id,
			Progress:  pct,
			Message:   fmt.Sprintf("day %d: %s", p.Day, p.Passage),
			Data: map[string]any{
				"day":       p.Day,
				"ok":        p.OK,
				"succeeded": p.Succeeded,
				"failed":    p.Failed,
			},
		})
	}

	report, err := plan.Warm(ctx, s.resolver, days, opts)
	switch {
	case ctx.Err() != nil:
		s.jobs.Update(id, JobStatusCancelled, 0, &report, "")
		s.hub.Broadcast(ProgressMessage{Type: "error", Operation: "warm", JobID: id, Message: "cancelled"})
		logging.JobEvent(id, "warm", string(JobStatusCancelled), "succeeded", report.Succeeded, "failed", report.Failed)
		return report, nil
	case err != nil:
		s.jobs.Update(id, JobStatusFailed, 100, &report, err.Error())
		s.hub.Broadcast(ProgressMessage{Type: "error", Operation: "warm", JobID: id, Message: err.Error()})
		return report, err
	}

	s.jobs.Update(id, JobStatusCompleted, 100, &report, "")
	s.hub.Broadcast(ProgressMessage{
		Type:      "complete",
		Operation: "warm",
		JobID:     id,
		Progress:  100,
		Message:   fmt.Sprintf("%d succeeded, %d failed", report.Succeeded, report.Failed),
		Data: map[string]any{
			"succeeded":   report.Succeeded,
			"failed":      report.Failed,
			"failed_days": report.FailedDays,
		},
	})
	logging.JobEvent(id, "warm", string(JobStatusCompleted), "succeeded", report.Succeeded, "failed", report.Failed)
	return report, nil
}
