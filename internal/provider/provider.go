// Package provider fetches chapter text from external Bible text services.
//
// Each adapter knows one service: its URL scheme, its book identifiers, the
// versions it hosts and the layout of its responses. Adapters never return
// raw errors; every fetch yields a Result that either carries verses or a
// *errors.ProviderError describing what went wrong. Chain tries adapters in
// order and stops at the first plausible result.
package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/FocuswithJustin/lectio/core/canon"
	"github.com/FocuswithJustin/lectio/core/errors"
	"github.com/FocuswithJustin/lectio/core/extract"
	"github.com/FocuswithJustin/lectio/core/version"
)

// DefaultTimeout bounds a single provider fetch when neither the adapter nor
// the chain sets one.
const DefaultTimeout = 8 * time.Second

// maxBody caps how much of a response body is read.
const maxBody = 8 << 20

const userAgent = "lectio (+https://github.com/FocuswithJustin/lectio)"

// Request identifies the chapter to fetch. Book is already disambiguated and
// Version already normalized.
type Request struct {
	Book    canon.Book
	Chapter int
	Version version.Code
}

func (r Request) String() string {
	return fmt.Sprintf("%s %d (%s)", r.Book.ID, r.Chapter, r.Version)
}

// Result is the outcome of one adapter fetch.
type Result struct {
	Verses []string
	Err    *errors.ProviderError
}

// OK reports whether the result carries verses.
func (r Result) OK() bool {
	return r.Err == nil && len(r.Verses) > 0
}

// Provider is one external text service.
type Provider interface {
	// Name is the stable identifier used in logs, metrics and configuration.
	Name() string

	// Shape is the response layout the adapter extracts verses from.
	Shape() extract.Shape

	// Fetch retrieves one chapter. Failures are reported in Result.Err.
	Fetch(ctx context.Context, req Request) Result
}

// Timeouter is implemented by adapters with their own fetch deadline.
type Timeouter interface {
	Timeout() time.Duration
}

// Descriptor is the static description of a provider.
type Descriptor struct {
	Name    string        `json:"name"`
	Shape   string        `json:"shape"`
	Timeout time.Duration `json:"timeout"`
}

// Describe returns p's descriptor, falling back to def for the timeout.
func Describe(p Provider, def time.Duration) Descriptor {
	d := Descriptor{Name: p.Name(), Shape: p.Shape().String(), Timeout: def}
	if t, ok := p.(Timeouter); ok && t.Timeout() > 0 {
		d.Timeout = t.Timeout()
	}
	if d.Timeout <= 0 {
		d.Timeout = DefaultTimeout
	}
	return d
}

// Options is the configuration shared by the HTTP adapters.
type Options struct {
	// BaseURL overrides the service root. Required for the osis mirror.
	BaseURL string

	// Key is the API key or bearer token, if the service needs one.
	Key string

	// Timeout bounds each fetch. Zero defers to the chain.
	Timeout time.Duration

	// Client is the HTTP client. Defaults to a client without its own timeout,
	// since deadlines come from the context.
	Client *http.Client
}

func (o Options) client() *http.Client {
	if o.Client != nil {
		return o.Client
	}
	return http.DefaultClient
}

func (o Options) baseURL(def string) string {
	if o.BaseURL != "" {
		return o.BaseURL
	}
	return def
}

// get performs a GET and returns the body of a 200 response.
func get(ctx context.Context, client *http.Client, name, url string, header http.Header) ([]byte, *errors.ProviderError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewProvider(name, "request", 0, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("User-Agent", userAgent)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.NewProvider(name, "request", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		var cause error
		if resp.StatusCode == http.StatusNotFound {
			cause = errors.ErrNotFound
		}
		return nil, errors.NewProvider(name, "status", resp.StatusCode, cause)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, errors.NewProvider(name, "read", resp.StatusCode, err)
	}
	return body, nil
}

// extractResult turns a response body into a Result.
func extractResult(name string, layout extract.Layout, body []byte) Result {
	verses, err := extract.Extract(layout, body)
	if err != nil {
		return Result{Err: errors.NewProvider(name, "extract", 0, err)}
	}
	return Result{Verses: verses}
}

// failed builds a Result for a request the adapter cannot serve.
func failed(name, op string, err error) Result {
	return Result{Err: errors.NewProvider(name, op, 0, err)}
}
