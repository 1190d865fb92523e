package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/FocuswithJustin/lectio/core/errors"
	"github.com/FocuswithJustin/lectio/core/extract"
	"github.com/FocuswithJustin/lectio/core/version"
	"github.com/FocuswithJustin/lectio/internal/cache"
)

// NameAPIBible identifies the API.Bible adapter.
const NameAPIBible = "apibible"

const apiBibleBaseURL = "https://api.scripture.api.bible"

// booksTTL is how long a bible's book list is trusted.
const booksTTL = 24 * time.Hour

// DefaultBibles are the public-domain bibles available to every API.Bible key.
// Portuguese bibles depend on the key's licence and come from configuration.
var DefaultBibles = map[version.Code]string{
	version.KJV: "de4e12af7f28f599-02",
	version.WEB: "9879dbb7cfe39e4d-04",
}

// APIBibleOptions configures the API.Bible adapter.
type APIBibleOptions struct {
	Options

	// Bibles maps versions to API.Bible bible IDs.
	Bibles map[version.Code]string

	// Fallback is the version whose bible serves books missing from the
	// requested one, for requests in the same language.
	Fallback version.Code
}

// APIBible fetches chapters from API.Bible.
//
// The chapter endpoint is tried first as a JSON content tree. When it yields
// nothing the verse list is fetched and the chapter is read as a numbered
// text passage spanning the first to the last verse. Each bible's book list is
// cached so a book missing from the requested version is routed to the
// fallback version's bible without a failed chapter request.
type APIBible struct {
	opts  APIBibleOptions
	base  string
	books *cache.Memory[string, map[string]bool]
}

// NewAPIBible returns the adapter. It needs an API key to do anything.
func NewAPIBible(opts APIBibleOptions) *APIBible {
	if opts.Bibles == nil {
		opts.Bibles = DefaultBibles
	}
	if opts.Fallback == "" {
		opts.Fallback = version.KJV
	}
	return &APIBible{
		opts:  opts,
		base:  opts.baseURL(apiBibleBaseURL),
		books: cache.NewMemory[string, map[string]bool](booksTTL),
	}
}

func (a *APIBible) Name() string           { return NameAPIBible }
func (a *APIBible) Shape() extract.Shape   { return extract.ShapeJSONTree }
func (a *APIBible) Timeout() time.Duration { return a.opts.Timeout }

// Enabled reports whether an API key is configured.
func (a *APIBible) Enabled() bool { return a.opts.Key != "" }

func (a *APIBible) header() http.Header {
	return http.Header{"api-key": {a.opts.Key}}
}

func (a *APIBible) Fetch(ctx context.Context, req Request) Result {
	if !a.Enabled() {
		return failed(a.Name(), "config", errors.Wrap(errors.ErrUnsupported, "no api key"))
	}
	book, ok := usfmIDs[req.Book.ID]
	if !ok {
		return failed(a.Name(), "book", errors.NewNotFound("book", req.Book.ID))
	}

	bible, err := a.bibleFor(ctx, req.Version, book)
	if err != nil {
		return Result{Err: err}
	}
	chapterID := fmt.Sprintf("%s.%d", book, req.Chapter)

	res := a.fetchChapter(ctx, bible, chapterID)
	if res.OK() || ctx.Err() != nil || isAuthFailure(res.Err) {
		return res
	}
	if fallback := a.fetchPassage(ctx, bible, chapterID); fallback.OK() {
		return fallback
	}
	return res
}

// bibleFor picks the bible ID serving book in version v. The fallback bible
// only stands in for versions of the same language.
func (a *APIBible) bibleFor(ctx context.Context, v version.Code, book string) (string, *errors.ProviderError) {
	canFallback := version.Language(a.opts.Fallback) == version.Language(v)
	fb, hasFallback := a.opts.Bibles[a.opts.Fallback]

	bible, ok := a.opts.Bibles[v]
	if !ok {
		if !hasFallback || !canFallback {
			return "", errors.NewProvider(a.Name(), "version", 0, errors.Wrapf(errors.ErrUnsupported, "no bible for %s", v))
		}
		bible, v = fb, a.opts.Fallback
	}
	if a.hasBook(ctx, bible, book) || v == a.opts.Fallback {
		return bible, nil
	}
	if hasFallback && canFallback && a.hasBook(ctx, fb, book) {
		return fb, nil
	}
	return "", errors.NewProvider(a.Name(), "availability", 0, errors.NewNotFound("book", book))
}

// hasBook reports whether bible contains book. When the book list cannot be
// fetched the book is assumed present and the chapter request decides.
func (a *APIBible) hasBook(ctx context.Context, bible, book string) bool {
	set, ok := a.books.Get(bible)
	if !ok {
		var err *errors.ProviderError
		set, err = a.fetchBooks(ctx, bible)
		if err != nil {
			return true
		}
		a.books.Set(bible, set)
	}
	return set[book]
}

func (a *APIBible) fetchBooks(ctx context.Context, bible string) (map[string]bool, *errors.ProviderError) {
	u := fmt.Sprintf("%s/v1/bibles/%s/books", a.base, url.PathEscape(bible))
	body, perr := get(ctx, a.opts.client(), a.Name(), u, a.header())
	if perr != nil {
		return nil, perr
	}

	var resp struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.NewProvider(a.Name(), "decode", 0, err)
	}
	set := make(map[string]bool, len(resp.Data))
	for _, b := range resp.Data {
		set[b.ID] = true
	}
	return set, nil
}

func (a *APIBible) fetchChapter(ctx context.Context, bible, chapterID string) Result {
	q := url.Values{
		"content-type":            {"json"},
		"include-notes":           {"false"},
		"include-titles":          {"false"},
		"include-chapter-numbers": {"false"},
		"include-verse-numbers":   {"true"},
		"include-verse-spans":     {"false"},
	}
	u := fmt.Sprintf("%s/v1/bibles/%s/chapters/%s?%s", a.base, url.PathEscape(bible), url.PathEscape(chapterID), q.Encode())
	body, perr := get(ctx, a.opts.client(), a.Name(), u, a.header())
	if perr != nil {
		return Result{Err: perr}
	}
	return extractResult(a.Name(), extract.Layout{Shape: extract.ShapeJSONTree, Root: "data.content"}, body)
}

// fetchPassage reads the chapter as a text passage bounded by its verse list.
func (a *APIBible) fetchPassage(ctx context.Context, bible, chapterID string) Result {
	u := fmt.Sprintf("%s/v1/bibles/%s/chapters/%s/verses", a.base, url.PathEscape(bible), url.PathEscape(chapterID))
	body, perr := get(ctx, a.opts.client(), a.Name(), u, a.header())
	if perr != nil {
		return Result{Err: perr}
	}

	var list struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		return failed(a.Name(), "decode", err)
	}
	if len(list.Data) == 0 {
		return failed(a.Name(), "verses", errors.ErrNoContent)
	}
	span := list.Data[0].ID + "-" + list.Data[len(list.Data)-1].ID

	q := url.Values{
		"content-type":          {"text"},
		"include-notes":         {"false"},
		"include-titles":        {"false"},
		"include-verse-numbers": {"true"},
	}
	u = fmt.Sprintf("%s/v1/bibles/%s/passages/%s?%s", a.base, url.PathEscape(bible), url.PathEscape(span), q.Encode())
	body, perr = get(ctx, a.opts.client(), a.Name(), u, a.header())
	if perr != nil {
		return Result{Err: perr}
	}
	return extractResult(a.Name(), extract.Layout{Shape: extract.ShapeNumberedText, Root: "data.content"}, body)
}

func isAuthFailure(err *errors.ProviderError) bool {
	return err != nil && (err.Status == http.StatusUnauthorized || err.Status == http.StatusForbidden)
}
