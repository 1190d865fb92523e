package plan

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/FocuswithJustin/lectio/core/errors"
)

func TestLoadYAML(t *testing.T) {
	p, err := Load(filepath.Join("testdata", "plan.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Len() != 3 {
		t.Fatalf("Len = %d", p.Len())
	}
	d, ok := p.Day(2)
	if !ok || d.Passage != "Gênesis 4 - 7" || d.EstimatedTime != "18 min" {
		t.Errorf("Day(2) = %+v, %v", d, ok)
	}
}

func TestLoadJSONSortsDays(t *testing.T) {
	p, err := Load(filepath.Join("testdata", "plan.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	days := p.Days()
	if len(days) != 2 || days[0].Day != 1 || days[0].Book != "Jó" || days[1].EstimatedTime != "5 min" {
		t.Errorf("Days = %+v", days)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "nope.json")},
		{"bad json", write("bad.json", `{"days": [`)},
		{"duplicate day", write("dup.json", `[{"day":1,"passage":"Rute 1"},{"day":1,"passage":"Rute 2"}]`)},
		{"day out of range", write("range.yaml", "- day: 400\n  passage: Rute 1\n")},
		{"no passage", write("empty.yml", "days:\n  - day: 4\n")},
	}
	for _, tt := range tests {
		if _, err := Load(tt.path); err == nil {
			t.Errorf("%s: Load succeeded", tt.name)
		}
	}

	_, err := Load(filepath.Join(dir, "dup.json"))
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("duplicate day error = %v, want invalid input", err)
	}
}

func TestRange(t *testing.T) {
	p, _ := Load(filepath.Join("testdata", "plan.yaml"))
	if got := p.Range(2, 10); len(got) != 2 || got[0].Day != 2 {
		t.Errorf("Range(2, 10) = %+v", got)
	}
	if got := p.Range(5, 6); len(got) != 0 {
		t.Errorf("Range(5, 6) = %+v", got)
	}
}

func TestDayOfYear(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{"2025-01-01", 1},
		{"2025-02-01", 32},
		{"2025-12-31", 365},
		{"2024-12-31", 365},
		{"2024-12-30", 365},
		{"2024-03-01", 61},
	}
	for _, tt := range tests {
		d, err := time.Parse("2006-01-02", tt.date)
		if err != nil {
			t.Fatal(err)
		}
		if got := DayOfYear(d); got != tt.want {
			t.Errorf("DayOfYear(%s) = %d, want %d", tt.date, got, tt.want)
		}
	}
}

func TestToday(t *testing.T) {
	p, _ := Load(filepath.Join("testdata", "plan.yaml"))
	d, ok := p.Today(time.Date(2025, 1, 3, 9, 0, 0, 0, time.UTC))
	if !ok || d.Day != 3 {
		t.Errorf("Today = %+v, %v", d, ok)
	}
	if _, ok := p.Today(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)); ok {
		t.Error("day beyond the plan should not be found")
	}
}
