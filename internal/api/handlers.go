package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/FocuswithJustin/lectio/core/canon"
	"github.com/FocuswithJustin/lectio/core/errors"
	"github.com/FocuswithJustin/lectio/core/passage"
	"github.com/FocuswithJustin/lectio/core/version"
	"github.com/FocuswithJustin/lectio/internal/plan"
	"github.com/FocuswithJustin/lectio/internal/resolver"
)

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *APIMeta  `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total,omitempty"`
	Timestamp string `json:"timestamp"`
}

// HealthInfo is the health check response.
type HealthInfo struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Uptime        string `json:"uptime"`
	Providers     int    `json:"providers"`
	CachedInMem   int    `json:"cached_in_memory"`
	Persistent    bool   `json:"persistent"`
	PendingWrites int    `json:"pending_writes"`
	PlanDays      int    `json:"plan_days"`
	Clients       int    `json:"websocket_clients"`
}

// VersionInfo describes a supported translation.
type VersionInfo struct {
	version.Info
	Default bool `json:"default"`
}

// ChapterResponse is the body of GET /chapters/{book}/{chapter}.
type ChapterResponse struct {
	resolver.Resolution
	Available bool `json:"available"`
}

// PassageResponse is the body of GET /passages.
type PassageResponse struct {
	resolver.PassageResolution
	Available bool `json:"available"`
}

// PlanDayResponse is a plan day, optionally with its resolved text.
type PlanDayResponse struct {
	plan.Day
	Text *PassageResponse `json:"text,omitempty"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Endpoint not found")
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"name":    "lectio",
		"version": s.version,
		"endpoints": []string{
			"GET /health",
			"GET /versions",
			"GET /books",
			"GET /chapters/{book}/{chapter}?version=&name=",
			"GET /passages?ref=&version=",
			"GET /parse?ref=",
			"GET /plan/today",
			"GET /plan/days/{n}",
			"POST /jobs/warm",
			"GET /jobs",
			"GET /jobs/{id}",
			"DELETE /jobs/{id}",
			"GET /metrics",
			"WS /ws",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := s.resolver.CacheStats()
	info := HealthInfo{
		Status:        "ok",
		Version:       s.version,
		Uptime:        time.Since(s.started).Round(time.Second).String(),
		Providers:     len(s.resolver.Providers()),
		CachedInMem:   stats.MemoryEntries,
		Persistent:    stats.Persistent,
		PendingWrites: len(stats.Writes.Queued) + len(stats.Writes.Running),
		Clients:       s.hub.Clients(),
	}
	if s.plan != nil {
		info.PlanDays = s.plan.Len()
	}
	respond(w, http.StatusOK, info)
}

func (s *Server) handleVersions(w http.ResponseWriter, r *http.Request) {
	def := s.resolver.Normalize("")
	supported := version.Supported()
	out := make([]VersionInfo, len(supported))
	for i, info := range supported {
		out[i] = VersionInfo{Info: info, Default: info.Code == def}
	}
	respondList(w, out, len(out))
}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	books := canon.Books()
	respondList(w, books, len(books))
}

// handleChapter serves GET /chapters/{book}/{chapter}. {book} is a book code
// or ID; the optional name query parameter disambiguates shared codes.
func (s *Server) handleChapter(w http.ResponseWriter, r *http.Request) {
	chapter, err := positiveInt("chapter", r.PathValue("chapter"))
	if err != nil {
		respondErr(w, err)
		return
	}
	q := r.URL.Query()
	bookCode := cleanParam(r.PathValue("book"))
	if _, ok := canon.Disambiguate(bookCode, cleanParam(q.Get("name"))); !ok {
		respondError(w, http.StatusNotFound, "UNKNOWN_BOOK", "Unknown book: "+bookCode)
		return
	}

	res := s.resolver.Lookup(r.Context(), bookCode, chapter, cleanParam(q.Get("version")), cleanParam(q.Get("name")))
	respond(w, http.StatusOK, ChapterResponse{Resolution: res, Available: res.Available()})
}

func (s *Server) handlePassage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ref := cleanParam(q.Get("ref"))
	if ref == "" {
		respondError(w, http.StatusBadRequest, "MISSING_PARAMS", "ref is required")
		return
	}
	respond(w, http.StatusOK, s.passage(r, ref, q.Get("version")))
}

func (s *Server) passage(r *http.Request, ref, v string) *PassageResponse {
	res := s.resolver.LookupPassage(r.Context(), ref, cleanParam(v))
	return &PassageResponse{PassageResolution: res, Available: len(res.Verses) > 0}
}

// handleParse serves GET /parse. References are parsed strictly; lenient=true
// applies the same fallbacks as passage resolution.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	raw := cleanParam(q.Get("ref"))
	if q.Get("lenient") == "true" {
		respond(w, http.StatusOK, s.resolver.ParsePassage(raw))
		return
	}
	ref, err := passage.ParseStrict(raw)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, ref)
}

func (s *Server) handlePlanToday(w http.ResponseWriter, r *http.Request) {
	if !s.requirePlan(w) {
		return
	}
	day, ok := s.plan.Today(s.now())
	if !ok {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "No reading planned for today")
		return
	}
	s.respondDay(w, r, day)
}

func (s *Server) handlePlanDay(w http.ResponseWriter, r *http.Request) {
	if !s.requirePlan(w) {
		return
	}
	n, err := positiveInt("day", r.PathValue("n"))
	if err != nil {
		respondErr(w, err)
		return
	}
	day, ok := s.plan.Day(n)
	if !ok {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Day not in plan")
		return
	}
	s.respondDay(w, r, day)
}

// respondDay writes day, resolving its passage when resolve=true.
func (s *Server) respondDay(w http.ResponseWriter, r *http.Request, day plan.Day) {
	out := PlanDayResponse{Day: day}
	if r.URL.Query().Get("resolve") == "true" {
		out.Text = s.passage(r, day.Passage, r.URL.Query().Get("version"))
	}
	respond(w, http.StatusOK, out)
}

func (s *Server) requirePlan(w http.ResponseWriter) bool {
	if s.plan == nil {
		respondError(w, http.StatusNotFound, "PLAN_NOT_CONFIGURED", "No reading plan is loaded")
		return false
	}
	return true
}

// handleWarm serves POST /jobs/warm.
func (s *Server) handleWarm(w http.ResponseWriter, r *http.Request) {
	if !s.requirePlan(w) {
		return
	}

	var req WarmRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
			return
		}
	}
	if req.Version != "" {
		if _, ok := version.Lookup(req.Version); !ok {
			respondError(w, http.StatusBadRequest, "INVALID_VERSION", "Unsupported version: "+cleanParam(req.Version))
			return
		}
	}
	if req.From < 0 || req.To < 0 || (req.To > 0 && req.To < req.From) {
		respondError(w, http.StatusBadRequest, "INVALID_RANGE", "from and to must form a day range")
		return
	}

	respond(w, http.StatusCreated, s.startWarm(req))
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.jobs.List()
	respondList(w, jobs, len(jobs))
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := ValidateJobID(id); err != nil {
		respondErr(w, err)
		return
	}
	job, ok := s.jobs.Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Job not found")
		return
	}
	respond(w, http.StatusOK, job)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := ValidateJobID(id); err != nil {
		respondErr(w, err)
		return
	}
	if err := s.jobs.Cancel(id); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Job not found")
			return
		}
		respondError(w, http.StatusConflict, "CANCEL_FAILED", err.Error())
		return
	}
	respond(w, http.StatusOK, map[string]string{"message": "Job cancelled"})
}

func respond(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Meta:    &APIMeta{Timestamp: time.Now().UTC().Format(time.RFC3339)},
	})
}

func respondList(w http.ResponseWriter, data any, total int) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
		Meta:    &APIMeta{Total: total, Timestamp: time.Now().UTC().Format(time.RFC3339)},
	})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
		Meta:    &APIMeta{Timestamp: time.Now().UTC().Format(time.RFC3339)},
	})
}

// respondErr maps a lectio error onto a status and code.
func respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errors.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, errors.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
