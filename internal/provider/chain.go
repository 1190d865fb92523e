package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/FocuswithJustin/lectio/core/errors"
	"github.com/FocuswithJustin/lectio/core/extract"
	"github.com/FocuswithJustin/lectio/internal/logging"
	"github.com/FocuswithJustin/lectio/internal/metrics"
)

// Attempt outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeEmpty   = "empty"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
	OutcomeSkipped = "skipped"
)

// Attempt records one adapter call made by a Chain.
type Attempt struct {
	Provider string                `json:"provider"`
	Outcome  string                `json:"outcome"`
	Err      *errors.ProviderError `json:"-"`
	Error    string                `json:"error,omitempty"`
	Duration time.Duration         `json:"duration"`
}

// ChainResult is the outcome of Chain.Resolve.
type ChainResult struct {
	// Verses is empty when every provider failed.
	Verses []string

	// Provider names the adapter that produced Verses.
	Provider string

	Attempts []Attempt
}

// ChainOptions configures a Chain.
type ChainOptions struct {
	// Timeout bounds each provider that has no timeout of its own.
	// Defaults to DefaultTimeout.
	Timeout time.Duration

	Metrics *metrics.Metrics
}

// Chain tries providers in order until one returns plausible verses.
type Chain struct {
	providers []Provider
	timeout   time.Duration
	metrics   *metrics.Metrics
}

// NewChain builds a chain over providers, tried in the given order.
func NewChain(opts ChainOptions, providers ...Provider) *Chain {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Chain{providers: providers, timeout: opts.Timeout, metrics: opts.Metrics}
}

// Providers returns the descriptors of the chain's providers in order.
func (c *Chain) Providers() []Descriptor {
	out := make([]Descriptor, len(c.providers))
	for i, p := range c.providers {
		out[i] = Describe(p, c.timeout)
	}
	return out
}

// Resolve fetches req from the first provider that yields plausible verses.
// Every call is recorded in the result's Attempts. Cancelling ctx stops the
// chain before the next provider.
func (c *Chain) Resolve(ctx context.Context, req Request) ChainResult {
	var res ChainResult
	key := req.String()

	for _, p := range c.providers {
		if ctx.Err() != nil {
			break
		}

		d := Describe(p, c.timeout)
		start := time.Now()
		r := c.fetch(ctx, p, d.Timeout, req)
		a := Attempt{Provider: d.Name, Duration: time.Since(start), Err: r.Err}

		switch {
		case r.Err != nil:
			a.Outcome = outcomeOf(r.Err)
			a.Error = r.Err.Error()
		case !extract.Plausible(r.Verses):
			a.Outcome = OutcomeEmpty
		default:
			a.Outcome = OutcomeOK
		}
		res.Attempts = append(res.Attempts, a)

		var logErr error
		if a.Err != nil && a.Outcome != OutcomeSkipped {
			logErr = a.Err
		}
		logging.ProviderAttempt(ctx, a.Provider, key, a.Outcome, a.Duration, logErr)
		c.metrics.ProviderAttempt(a.Provider, a.Outcome, a.Duration)

		if a.Outcome == OutcomeOK {
			res.Verses = r.Verses
			res.Provider = a.Provider
			return res
		}
	}

	res.Verses = []string{}
	return res
}

// fetch runs one adapter under its own deadline and turns a panic into a
// ProviderError.
func (c *Chain) fetch(ctx context.Context, p Provider, timeout time.Duration, req Request) (r Result) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			r = Result{Err: errors.NewProvider(p.Name(), "fetch", 0, fmt.Errorf("panic: %v", rec))}
		}
	}()
	return p.Fetch(ctx, req)
}

func outcomeOf(err *errors.ProviderError) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	case errors.Is(err, errors.ErrUnsupported):
		return OutcomeSkipped
	default:
		return OutcomeError
	}
}
