package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/alecthomas/kong"
)

// Test helper functions

// captureOutput points stdout at a buffer for the duration of the test.
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = old })
	return &buf
}

// fakeBibleAPI serves three verses for any chapter.
func fakeBibleAPI(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		ref := strings.TrimPrefix(r.URL.Path, "/")
		fmt.Fprintf(w, `{"verses":[
			{"verse":1,"text":"%[1]s primeiro"},
			{"verse":2,"text":"%[1]s segundo"},
			{"verse":3,"text":"%[1]s terceiro"}
		]}`, ref)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

// writeConfig writes a lectio.yaml using the fake provider and returns its path.
func writeConfig(t *testing.T, dir, baseURL, backend string) string {
	t.Helper()
	planPath := filepath.Join(dir, "plan.yaml")
	planYAML := `days:
  - day: 1
    passage: Gênesis 1-2
    theme: Criação
  - day: 2
    passage: Salmos 23
  - day: 3
    passage: Gnosticos 1
`
	if err := os.WriteFile(planPath, []byte(planYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	cfgPath := filepath.Join(dir, "lectio.yaml")
	cfgYAML := fmt.Sprintf(`default_version: nvi
plan_file: %s
log:
  level: error
cache:
  backend: %s
  path: %s
providers:
  order: [bibleapi]
  bibleapi:
    base_url: %s
warm:
  chunk_size: 2
  pause: 0
`, planPath, backend, filepath.Join(dir, "cache.db"), baseURL)
	if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	return cfgPath
}

func TestCLIParsesCommands(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"parse", "Gênesis", "1-3"}, "parse"},
		{[]string{"chapter", "gn", "1", "--json"}, "chapter"},
		{[]string{"--config", "x.yaml", "passage", "Salmos", "23", "-v", "acf"}, "passage"},
		{[]string{"plan", "day", "12", "--resolve"}, "plan day"},
		{[]string{"warm", "--from", "10", "--to", "20"}, "warm"},
		{[]string{"cache", "stats"}, "cache stats"},
		{[]string{"serve", "--port", "9000"}, "serve"},
	}
	for _, tt := range tests {
		parser, err := kong.New(&CLI, kong.Name("lectio"), kong.Bind(&CLI.Globals))
		if err != nil {
			t.Fatalf("kong.New: %v", err)
		}
		ctx, err := parser.Parse(tt.args)
		if err != nil {
			t.Errorf("Parse(%v): %v", tt.args, err)
			continue
		}
		if !strings.HasPrefix(ctx.Command(), tt.want) {
			t.Errorf("Parse(%v) command = %q, want %s", tt.args, ctx.Command(), tt.want)
		}
	}
}

func TestParseCmd(t *testing.T) {
	out := captureOutput(t)
	if err := (&ParseCmd{Ref: []string{"Gênesis", "1", "-", "3"}}).Run(); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"book_code": "gn"`, `"start_chapter": 1`, `"end_chapter": 3`} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %s:\n%s", want, out)
		}
	}

	if err := (&ParseCmd{Ref: []string{"Gnosticos", "1"}, Strict: true}).Run(); err == nil {
		t.Error("strict parse of an unknown book should fail")
	}
}

func TestVersionsAndVersionCmd(t *testing.T) {
	out := captureOutput(t)
	if err := (&VersionsCmd{}).Run(); err != nil {
		t.Fatal(err)
	}
	if err := (&VersionCmd{}).Run(); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"CODE", "nvi", "kjv", "lectio version " + appVersion} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestChapterAndPassageCmd(t *testing.T) {
	srv, calls := fakeBibleAPI(t)
	g := &Globals{Config: writeConfig(t, t.TempDir(), srv.URL, "memory")}
	out := captureOutput(t)

	if err := (&ChapterCmd{Book: "sl", Number: 23}).Run(g); err != nil {
		t.Fatalf("chapter: %v", err)
	}
	if !strings.Contains(out.String(), "sl 23 (nvi, from bibleapi)") || !strings.Contains(out.String(), "  3  psalms+23 terceiro") {
		t.Errorf("chapter output:\n%s", out)
	}

	out.Reset()
	if err := (&PassageCmd{Ref: []string{"Gênesis", "1-2"}, JSON: true}).Run(g); err != nil {
		t.Fatalf("passage: %v", err)
	}
	if !strings.Contains(out.String(), `"genesis+2 terceiro"`) {
		t.Errorf("passage output:\n%s", out)
	}
	if calls.Load() != 3 {
		t.Errorf("provider calls = %d, want 3", calls.Load())
	}

	if err := (&ChapterCmd{Book: "xx", Number: 1}).Run(g); err == nil {
		t.Error("unknown book code should fail")
	}
	if err := (&PassageCmd{Ref: []string{"Gnosticos", "1"}}).Run(g); err == nil {
		t.Error("unresolvable passage should fail")
	}
}

func TestPlanDayCmd(t *testing.T) {
	srv, _ := fakeBibleAPI(t)
	g := &Globals{Config: writeConfig(t, t.TempDir(), srv.URL, "memory")}
	out := captureOutput(t)

	if err := (&PlanDayCmd{Day: 1, Resolve: true}).Run(g); err != nil {
		t.Fatalf("plan day: %v", err)
	}
	for _, want := range []string{"Day 1: Gênesis 1-2", "Theme: Criação", "genesis+2 terceiro"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if err := (&PlanDayCmd{Day: 200}).Run(g); err == nil {
		t.Error("day missing from the plan should fail")
	}
}

func TestWarmAndSnapshotRoundTrip(t *testing.T) {
	srv, calls := fakeBibleAPI(t)
	dir := t.TempDir()
	g := &Globals{Config: writeConfig(t, dir, srv.URL, "sqlite")}
	out := captureOutput(t)

	if err := (&WarmCmd{From: 1, To: 3}).Run(g); err != nil {
		t.Fatalf("warm: %v", err)
	}
	if !strings.Contains(out.String(), "2 succeeded, 1 failed") || !strings.Contains(out.String(), "failed days: [3]") {
		t.Errorf("warm output:\n%s", out)
	}
	if calls.Load() != 3 {
		t.Errorf("provider calls = %d, want 3", calls.Load())
	}

	snap := filepath.Join(dir, "cache.tar.xz")
	out.Reset()
	if err := (&CacheExportCmd{Out: snap}).Run(g); err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out.String(), "exported 3 chapters") {
		t.Errorf("export output: %s", out)
	}

	other := &Globals{Config: writeConfig(t, t.TempDir(), srv.URL, "pebble")}
	out.Reset()
	if err := (&CacheImportCmd{In: snap}).Run(other); err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out.String(), "imported 3 chapters, skipped 0") {
		t.Errorf("import output: %s", out)
	}

	out.Reset()
	if err := (&CacheStatsCmd{}).Run(other); err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(out.String(), "backend:   pebble") || !strings.Contains(out.String(), "chapters:  3") {
		t.Errorf("stats output:\n%s", out)
	}

	// imported chapters are served without touching the provider
	out.Reset()
	if err := (&ChapterCmd{Book: "gn", Number: 2}).Run(other); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 3 || !strings.Contains(out.String(), "from store") {
		t.Errorf("calls = %d, output:\n%s", calls.Load(), out)
	}
}

func TestWarmCmdValidatesRange(t *testing.T) {
	if err := (&WarmCmd{From: 5, To: 2}).Run(&Globals{}); err == nil {
		t.Error("backwards range should fail")
	}
}
