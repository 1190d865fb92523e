// Package plan loads a yearly reading plan and warms the chapter cache for it.
package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/lectio/core/errors"
)

// TotalDays is the length of a plan year. Leap days read day 365 again.
const TotalDays = 365

// Day is one entry of a reading plan.
type Day struct {
	Day           int    `json:"day" yaml:"day"`
	Passage       string `json:"passage" yaml:"passage"`
	Theme         string `json:"theme,omitempty" yaml:"theme,omitempty"`
	Category      string `json:"category,omitempty" yaml:"category,omitempty"`
	Book          string `json:"book,omitempty" yaml:"book,omitempty"`
	EstimatedTime string `json:"estimatedTime,omitempty" yaml:"estimated_time,omitempty"`
}

// Plan is an ordered set of days.
type Plan struct {
	days  []Day
	byDay map[int]int
}

// New builds a Plan, sorting days by number. Day numbers must be unique and
// within 1..366, and every day needs a passage.
func New(days []Day) (*Plan, error) {
	sorted := make([]Day, len(days))
	copy(sorted, days)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Day < sorted[j].Day })

	p := &Plan{days: sorted, byDay: make(map[int]int, len(sorted))}
	for i, d := range sorted {
		if d.Day < 1 || d.Day > TotalDays+1 {
			return nil, errors.NewValidation("day", fmt.Sprintf("day %d out of range", d.Day))
		}
		if strings.TrimSpace(d.Passage) == "" {
			return nil, errors.NewValidation("passage", fmt.Sprintf("day %d has no passage", d.Day))
		}
		if _, dup := p.byDay[d.Day]; dup {
			return nil, errors.NewValidation("day", fmt.Sprintf("day %d appears twice", d.Day))
		}
		p.byDay[d.Day] = i
	}
	return p, nil
}

// Load reads a plan file. ".yaml" and ".yml" files are YAML; anything else is
// JSON. Both accept either a list of days or an object with a "days" list.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}

	format := "json"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	}
	days, err := decode(data, format)
	if err != nil {
		return nil, errors.NewParse(format, path, err.Error())
	}
	return New(days)
}

func decode(data []byte, format string) ([]Day, error) {
	var doc struct {
		Days []Day `json:"days" yaml:"days"`
	}
	trimmed := bytes.TrimSpace(data)

	if format == "yaml" {
		var days []Day
		if err := yaml.Unmarshal(trimmed, &days); err == nil {
			return days, nil
		}
		if err := yaml.Unmarshal(trimmed, &doc); err != nil {
			return nil, err
		}
		return doc.Days, nil
	}

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var days []Day
		err := json.Unmarshal(trimmed, &days)
		return days, err
	}
	err := json.Unmarshal(trimmed, &doc)
	return doc.Days, err
}

// Day returns day n.
func (p *Plan) Day(n int) (Day, bool) {
	i, ok := p.byDay[n]
	if !ok {
		return Day{}, false
	}
	return p.days[i], true
}

// Today returns the plan day for t.
func (p *Plan) Today(t time.Time) (Day, bool) {
	return p.Day(DayOfYear(t))
}

// Days returns every day in order.
func (p *Plan) Days() []Day {
	out := make([]Day, len(p.days))
	copy(out, p.days)
	return out
}

// Range returns the days numbered from..to inclusive.
func (p *Plan) Range(from, to int) []Day {
	var out []Day
	for _, d := range p.days {
		if d.Day >= from && d.Day <= to {
			out = append(out, d)
		}
	}
	return out
}

// Len returns the number of days in the plan.
func (p *Plan) Len() int { return len(p.days) }

// DayOfYear returns t's day of the year in t's location, clamped to 1..TotalDays.
func DayOfYear(t time.Time) int {
	return min(max(t.YearDay(), 1), TotalDays)
}
