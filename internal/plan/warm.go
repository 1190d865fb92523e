package plan

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/FocuswithJustin/lectio/core/version"
	"github.com/FocuswithJustin/lectio/internal/logging"
	"github.com/FocuswithJustin/lectio/internal/metrics"
)

// Defaults for WarmOptions.
const (
	DefaultChunkSize = 5
	DefaultPause     = time.Second
)

// PassageResolver resolves a passage to verses, empty when unavailable.
type PassageResolver interface {
	ResolvePassage(ctx context.Context, raw, versionCode string) []string
}

// Progress is reported after every warmed day.
type Progress struct {
	Day       int    `json:"day"`
	Passage   string `json:"passage"`
	OK        bool   `json:"ok"`
	Done      int    `json:"done"`
	Total     int    `json:"total"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}

// WarmOptions configures Warm.
type WarmOptions struct {
	// ChunkSize days are resolved concurrently. Defaults to DefaultChunkSize.
	ChunkSize int

	// Pause separates chunks. Defaults to DefaultPause; negative disables it.
	Pause time.Duration

	// Version is the translation to warm. Defaults to version.Primary.
	Version string

	// Limiter, when set, paces individual day resolves.
	Limiter *rate.Limiter

	// Progress is called after each day, from the goroutine that resolved it.
	Progress func(Progress)

	Metrics *metrics.Metrics
}

// WarmReport summarizes a warm run.
type WarmReport struct {
	Total      int           `json:"total"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	FailedDays []int         `json:"failed_days,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Warm resolves every day's passage so its chapters land in the cache. Days
// are processed in chunks with a pause between chunks. A day fails when its
// passage resolves to nothing. Cancelling ctx stops the run between chunks
// and returns the partial report with ctx's error.
func Warm(ctx context.Context, r PassageResolver, days []Day, opts WarmOptions) (WarmReport, error) {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Pause == 0 {
		opts.Pause = DefaultPause
	}
	if opts.Version == "" {
		opts.Version = string(version.Primary)
	}

	start := time.Now()
	report := WarmReport{Total: len(days)}
	var mu sync.Mutex

	for i := 0; i < len(days); i += opts.ChunkSize {
		if err := ctx.Err(); err != nil {
			return report.finish(start), err
		}

		chunk := days[i:min(i+opts.ChunkSize, len(days))]
		logging.InfoContext(ctx, "warm_chunk", "from_day", chunk[0].Day, "to_day", chunk[len(chunk)-1].Day)

		var wg sync.WaitGroup
		for _, d := range chunk {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok := warmDay(ctx, r, d, opts)

				mu.Lock()
				if ok {
					report.Succeeded++
				} else {
					report.Failed++
					report.FailedDays = append(report.FailedDays, d.Day)
				}
				p := Progress{
					Day: d.Day, Passage: d.Passage, OK: ok,
					Done: report.Succeeded + report.Failed, Total: report.Total,
					Succeeded: report.Succeeded, Failed: report.Failed,
				}
				mu.Unlock()

				if opts.Progress != nil {
					opts.Progress(p)
				}
			}()
		}
		wg.Wait()

		if i+opts.ChunkSize < len(days) && opts.Pause > 0 {
			select {
			case <-ctx.Done():
				return report.finish(start), ctx.Err()
			case <-time.After(opts.Pause):
			}
		}
	}

	report.finish(start)
	logging.InfoContext(ctx, "warm_done", "succeeded", report.Succeeded, "failed", report.Failed, "duration_ms", report.Duration.Milliseconds())
	return report, nil
}

func (r *WarmReport) finish(start time.Time) WarmReport {
	sort.Ints(r.FailedDays)
	r.Duration = time.Since(start)
	return *r
}

func warmDay(ctx context.Context, r PassageResolver, d Day, opts WarmOptions) bool {
	if opts.Limiter != nil {
		if err := opts.Limiter.Wait(ctx); err != nil {
			opts.Metrics.WarmDay("failed")
			return false
		}
	}
	ok := len(r.ResolvePassage(ctx, d.Passage, opts.Version)) > 0
	if ok {
		opts.Metrics.WarmDay("succeeded")
	} else {
		opts.Metrics.WarmDay("failed")
		logging.WarnContext(ctx, "warm_day_failed", "day", d.Day, "passage", d.Passage)
	}
	return ok
}
