package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/FocuswithJustin/lectio/core/extract"
	"github.com/FocuswithJustin/lectio/internal/config"
	"github.com/FocuswithJustin/lectio/internal/metrics"
	"github.com/FocuswithJustin/lectio/internal/plan"
	"github.com/FocuswithJustin/lectio/internal/provider"
	"github.com/FocuswithJustin/lectio/internal/resolver"
)

// textProvider answers every chapter with three verses naming it.
type textProvider struct {
	calls atomic.Int32
}

func (p *textProvider) Name() string         { return "fake" }
func (p *textProvider) Shape() extract.Shape { return extract.ShapeJSONTree }

func (p *textProvider) Fetch(ctx context.Context, req provider.Request) provider.Result {
	p.calls.Add(1)
	verses := make([]string, 3)
	for i := range verses {
		verses[i] = fmt.Sprintf("%s %d:%d texto", req.Book.ID, req.Chapter, i+1)
	}
	return provider.Result{Verses: verses}
}

// envelope mirrors APIResponse with raw data.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

var testPlan = []plan.Day{
	{Day: 1, Passage: "Gênesis 1-2", Theme: "Criação", Book: "Gênesis"},
	{Day: 2, Passage: "Salmos 23", Theme: "Pastor", Book: "Salmos"},
	{Day: 3, Passage: "João 3", Theme: "Novo nascimento", Book: "João"},
}

type testServer struct {
	*Server
	provider *textProvider
	handler  http.Handler
}

func newTestServer(t *testing.T, mutate func(*Options)) *testServer {
	t.Helper()
	p, err := plan.New(testPlan)
	if err != nil {
		t.Fatal(err)
	}
	fake := &textProvider{}
	m := metrics.New()
	opts := Options{
		Resolver: resolver.New(resolver.Options{
			Chain:   provider.NewChain(provider.ChainOptions{Metrics: m}, fake),
			Metrics: m,
		}),
		Plan:    p,
		Metrics: m,
		WarmOptions: func(v string) plan.WarmOptions {
			return plan.WarmOptions{Version: v, Pause: -1}
		},
		Version: "test",
	}
	if mutate != nil {
		mutate(&opts)
	}
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Close)
	return &testServer{Server: s, provider: fake, handler: s.Handler()}
}

func (ts *testServer) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: invalid JSON %q: %v", method, target, w.Body.String(), err)
		}
	}
	return w, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return v
}

func TestNewValidatesConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"auth without key", Config{Auth: AuthConfig{Enabled: true}}},
		{"short key", Config{Auth: AuthConfig{Enabled: true, APIKey: "short"}}},
		{"tls without files", Config{TLS: TLSConfig{Enabled: true}}},
		{"tls missing files", Config{TLS: TLSConfig{Enabled: true, CertFile: "/nonexistent/cert.pem", KeyFile: "/nonexistent/key.pem"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if s, err := New(Options{Config: tt.cfg}); err == nil {
				s.Close()
				t.Error("expected error")
			}
		})
	}
}

func TestRootAndHealth(t *testing.T) {
	ts := newTestServer(t, nil)

	w, env := ts.do(t, http.MethodGet, "/", "")
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("GET / = %d %+v", w.Code, env)
	}

	w, env = ts.do(t, http.MethodGet, "/nowhere", "")
	if w.Code != http.StatusNotFound || env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Errorf("GET /nowhere = %d %+v", w.Code, env.Error)
	}

	w, env = ts.do(t, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	health := decode[HealthInfo](t, env.Data)
	if health.Status != "ok" || health.Version != "test" || health.Providers != 1 || health.PlanDays != 3 {
		t.Errorf("health = %+v", health)
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" || w.Header().Get("X-Request-ID") == "" {
		t.Error("middleware headers missing")
	}
}

func TestVersionsAndBooks(t *testing.T) {
	ts := newTestServer(t, nil)

	_, env := ts.do(t, http.MethodGet, "/versions", "")
	versions := decode[[]VersionInfo](t, env.Data)
	defaults := 0
	for _, v := range versions {
		if v.Default {
			defaults++
			if v.Code != "nvi" {
				t.Errorf("default version = %q", v.Code)
			}
		}
	}
	if defaults != 1 || env.Meta.Total != len(versions) {
		t.Errorf("versions = %+v, total %d", versions, env.Meta.Total)
	}

	_, env = ts.do(t, http.MethodGet, "/books", "")
	books := decode[[]struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}](t, env.Data)
	if len(books) != 66 || books[0].ID != "gn" || env.Meta.Total != 66 {
		t.Errorf("books = %d, first %+v", len(books), books[0])
	}
}

func TestChapter(t *testing.T) {
	ts := newTestServer(t, nil)

	w, env := ts.do(t, http.MethodGet, "/chapters/jo/3?name=Jo%C3%A3o&version=ARA", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	got := decode[ChapterResponse](t, env.Data)
	if !got.Available || got.Book != "jo" || got.Version != "ara" || len(got.Verses) != 3 || got.Source != "fake" {
		t.Errorf("chapter = %+v", got)
	}
	if len(got.Attempts) != 1 || got.Attempts[0].Outcome != provider.OutcomeOK {
		t.Errorf("attempts = %+v", got.Attempts)
	}

	_, env = ts.do(t, http.MethodGet, "/chapters/jo/3?name=Jo%C3%A3o&version=ara", "")
	if again := decode[ChapterResponse](t, env.Data); again.Source != "memory" {
		t.Errorf("second lookup source = %q, want memory", again.Source)
	}

	tests := []struct {
		name   string
		target string
		status int
		code   string
	}{
		{"chapter not a number", "/chapters/gn/one", http.StatusBadRequest, "INVALID_INPUT"},
		{"chapter zero", "/chapters/gn/0", http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown book", "/chapters/xx/1", http.StatusNotFound, "UNKNOWN_BOOK"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := ts.do(t, http.MethodGet, tt.target, "")
			if w.Code != tt.status || env.Error == nil || env.Error.Code != tt.code {
				t.Errorf("GET %s = %d %+v", tt.target, w.Code, env.Error)
			}
		})
	}

	calls := ts.provider.calls.Load()
	w, env = ts.do(t, http.MethodGet, "/chapters/ob/2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("out of range status = %d", w.Code)
	}
	if got := decode[ChapterResponse](t, env.Data); got.Available || len(got.Verses) != 0 {
		t.Errorf("out of range chapter = %+v", got)
	}
	if ts.provider.calls.Load() != calls {
		t.Error("out of range chapter should not reach a provider")
	}
}

func TestPassage(t *testing.T) {
	ts := newTestServer(t, nil)

	w, env := ts.do(t, http.MethodGet, "/passages", "")
	if w.Code != http.StatusBadRequest || env.Error.Code != "MISSING_PARAMS" {
		t.Errorf("missing ref = %d %+v", w.Code, env.Error)
	}

	_, env = ts.do(t, http.MethodGet, "/passages?ref=G%C3%AAnesis+1-2", "")
	got := decode[PassageResponse](t, env.Data)
	if !got.Available || len(got.Verses) != 6 || len(got.Chapters) != 2 {
		t.Fatalf("passage = %+v", got)
	}
	if got.Verses[0] != "gn 1:1 texto" || got.Verses[3] != "gn 2:1 texto" {
		t.Errorf("verses out of order: %q", got.Verses)
	}

	_, env = ts.do(t, http.MethodGet, "/passages?ref=Gnosticos+1", "")
	if got := decode[PassageResponse](t, env.Data); got.Available || got.Verses == nil {
		t.Errorf("unknown book passage = %+v", got)
	}
}

func TestParse(t *testing.T) {
	ts := newTestServer(t, nil)

	_, env := ts.do(t, http.MethodGet, "/parse?ref=Salmos+23", "")
	ref := decode[struct {
		BookCode     string `json:"book_code"`
		StartChapter int    `json:"start_chapter"`
		EndChapter   int    `json:"end_chapter"`
	}](t, env.Data)
	if ref.BookCode != "sl" || ref.StartChapter != 23 || ref.EndChapter != 23 {
		t.Errorf("parse = %+v", ref)
	}

	w, env := ts.do(t, http.MethodGet, "/parse?ref=Gnosticos+1", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown book = %d %+v", w.Code, env.Error)
	}
	w, _ = ts.do(t, http.MethodGet, "/parse?ref=", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty ref = %d", w.Code)
	}
	w, _ = ts.do(t, http.MethodGet, "/parse?ref=&lenient=true", "")
	if w.Code != http.StatusOK {
		t.Errorf("lenient empty ref = %d", w.Code)
	}
}

func TestPlanRoutes(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.now = func() time.Time { return time.Date(2026, time.January, 2, 9, 0, 0, 0, time.UTC) }

	_, env := ts.do(t, http.MethodGet, "/plan/today", "")
	if day := decode[PlanDayResponse](t, env.Data); day.Day.Day != 2 || day.Text != nil {
		t.Errorf("today = %+v", day)
	}

	_, env = ts.do(t, http.MethodGet, "/plan/days/1?resolve=true", "")
	day := decode[PlanDayResponse](t, env.Data)
	if day.Passage != "Gênesis 1-2" || day.Text == nil || len(day.Text.Verses) != 6 {
		t.Errorf("day 1 = %+v", day)
	}

	w, _ := ts.do(t, http.MethodGet, "/plan/days/200", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing day = %d", w.Code)
	}
	w, _ = ts.do(t, http.MethodGet, "/plan/days/x", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad day = %d", w.Code)
	}

	bare := newTestServer(t, func(o *Options) { o.Plan = nil })
	w, env = bare.do(t, http.MethodGet, "/plan/today", "")
	if w.Code != http.StatusNotFound || env.Error.Code != "PLAN_NOT_CONFIGURED" {
		t.Errorf("no plan = %d %+v", w.Code, env.Error)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.do(t, http.MethodGet, "/chapters/sl/23", "")

	w, _ := ts.do(t, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "lectio_provider_attempts_total") {
		t.Errorf("metrics = %d %s", w.Code, w.Body.String())
	}
}

func TestAuthOnRoutes(t *testing.T) {
	const key = "0123456789abcdef0123"
	ts := newTestServer(t, func(o *Options) { o.Config.Auth = AuthConfig{Enabled: true, APIKey: key} })

	if w, _ := ts.do(t, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Errorf("health should be public, got %d", w.Code)
	}
	w, env := ts.do(t, http.MethodGet, "/versions", "")
	if w.Code != http.StatusUnauthorized || env.Error.Code != "UNAUTHORIZED" {
		t.Errorf("no key = %d %+v", w.Code, env.Error)
	}

	req := httptest.NewRequest(http.MethodGet, "/versions", nil)
	req.Header.Set("X-API-Key", key)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("valid key = %d", rec.Code)
	}
}

func TestRateLimitOnRoutes(t *testing.T) {
	ts := newTestServer(t, func(o *Options) {
		o.Config.RateLimitRequests = 1
		o.Config.RateLimitBurst = 2
	})

	for i := 0; i < 2; i++ {
		if w, _ := ts.do(t, http.MethodGet, "/books", ""); w.Code != http.StatusOK {
			t.Fatalf("request %d = %d", i, w.Code)
		}
	}
	w, env := ts.do(t, http.MethodGet, "/books", "")
	if w.Code != http.StatusTooManyRequests || env.Error.Code != "RATE_LIMIT_EXCEEDED" {
		t.Errorf("third request = %d %+v", w.Code, env.Error)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After missing")
	}
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(configServer())
	if cfg.Port != 9000 || !cfg.Auth.Enabled || cfg.RateLimitRequests != 30 || cfg.RateLimitBurst != 3 || len(cfg.AllowedOrigins) != 1 {
		t.Errorf("ConfigFrom = %+v", cfg)
	}
}

func configServer() config.ServerConfig {
	return config.ServerConfig{
		Port:           9000,
		AllowedOrigins: []string{"https://igreja.example"},
		RateLimit:      config.RateLimitConfig{RequestsPerMinute: 30, Burst: 3},
		APIKey:         "0123456789abcdef0123",
	}
}
