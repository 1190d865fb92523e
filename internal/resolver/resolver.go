// Package resolver turns passage references into verse text.
//
// A Service is built once at startup and shared. Each chapter is looked up in
// the tiered cache first; on a miss the provider chain is consulted and a
// plausible result is written back to the cache without blocking the caller.
// Resolution never fails: when every tier and provider comes up empty the
// caller receives an empty, non-nil slice and must show the content as
// unavailable.
package resolver

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/FocuswithJustin/lectio/core/canon"
	"github.com/FocuswithJustin/lectio/core/errors"
	"github.com/FocuswithJustin/lectio/core/passage"
	"github.com/FocuswithJustin/lectio/core/version"
	"github.com/FocuswithJustin/lectio/internal/cache"
	"github.com/FocuswithJustin/lectio/internal/logging"
	"github.com/FocuswithJustin/lectio/internal/metrics"
	"github.com/FocuswithJustin/lectio/internal/provider"
	"github.com/FocuswithJustin/lectio/internal/workerpool"
)

// Options configures a Service.
type Options struct {
	// Normalizer maps requested versions onto supported codes. The zero value
	// defaults to version.Primary.
	Normalizer version.Normalizer

	// Cache is the chapter cache. Nil uses a memory-only cache.
	Cache *cache.Tiered

	// Chain is the provider chain consulted on cache misses. Nil means
	// cache-only resolution.
	Chain *provider.Chain

	// Workers bounds concurrent chapter resolves within one passage.
	// Defaults to workerpool.DefaultWorkers.
	Workers int

	Metrics *metrics.Metrics
}

// Service resolves chapters and passages.
type Service struct {
	normalizer version.Normalizer
	cache      *cache.Tiered
	chain      *provider.Chain
	workers    int
	metrics    *metrics.Metrics
	inflight   singleflight.Group
}

// New builds a Service.
func New(opts Options) *Service {
	if opts.Normalizer.Default == "" {
		opts.Normalizer.Default = version.Primary
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewTiered(cache.Options{Metrics: opts.Metrics})
	}
	if opts.Chain == nil {
		opts.Chain = provider.NewChain(provider.ChainOptions{Metrics: opts.Metrics})
	}
	if opts.Workers <= 0 {
		opts.Workers = workerpool.DefaultWorkers
	}
	return &Service{
		normalizer: opts.Normalizer,
		cache:      opts.Cache,
		chain:      opts.Chain,
		workers:    opts.Workers,
		metrics:    opts.Metrics,
	}
}

// Resolution is a chapter lookup with diagnostics.
type Resolution struct {
	// Key is the cache key, empty when the request could not be keyed.
	Key string `json:"key,omitempty"`

	Book    string       `json:"book,omitempty"`
	Chapter int          `json:"chapter"`
	Version version.Code `json:"version"`

	// Verses is never nil. Empty means the content is unavailable.
	Verses []string `json:"verses"`

	// Source is "memory", "store", the provider name, or empty when nothing answered.
	Source string `json:"source,omitempty"`

	// Attempts lists provider calls made for this lookup; empty on cache hits.
	Attempts []provider.Attempt `json:"attempts,omitempty"`
}

// Available reports whether any verses were found.
func (r Resolution) Available() bool { return len(r.Verses) > 0 }

// Normalize maps a requested version onto a supported code.
func (s *Service) Normalize(v string) version.Code {
	return s.normalizer.Normalize(v)
}

// ParsePassage parses a free-text reference. It never fails.
func (s *Service) ParsePassage(raw string) passage.Reference {
	return passage.Parse(raw)
}

// ResolveChapter returns the verses of one chapter, or an empty slice.
// bookName disambiguates codes shared by two books ("jo", "ez").
func (s *Service) ResolveChapter(ctx context.Context, bookCode string, chapter int, versionCode, bookName string) []string {
	return s.Lookup(ctx, bookCode, chapter, versionCode, bookName).Verses
}

// Lookup is ResolveChapter with diagnostics.
func (s *Service) Lookup(ctx context.Context, bookCode string, chapter int, versionCode, bookName string) Resolution {
	start := time.Now()
	v := s.normalizer.Normalize(versionCode)
	res := Resolution{Chapter: chapter, Version: v, Verses: []string{}}

	book, ok := canon.Disambiguate(bookCode, bookName)
	if !ok {
		logging.WarnContext(ctx, "unknown book", "book_code", bookCode, "book_name", bookName)
		return res
	}
	res.Book = book.ID
	if !book.HasChapter(chapter) {
		logging.DebugContext(ctx, "chapter out of range", "book", book.ID, "chapter", chapter, "chapters", book.Chapters)
		return res
	}

	key := cache.NewKey(book, chapter, v)
	res.Key = key.String()
	defer func() { s.metrics.Resolve(res.Source, time.Since(start)) }()

	if verses, tier := s.cache.Get(ctx, key); tier != cache.TierNone {
		res.Verses = verses
		res.Source = string(tier)
		return res
	}

	// Concurrent misses on one key share a single chain walk. The walk is
	// detached from any one caller's cancellation; provider timeouts bound it.
	shared, _, _ := s.inflight.Do(res.Key, func() (any, error) {
		if verses, tier := s.cache.Get(ctx, key); tier != cache.TierNone {
			return provider.ChainResult{Verses: verses, Provider: string(tier)}, nil
		}
		cr := s.chain.Resolve(context.WithoutCancel(ctx), provider.Request{Book: book, Chapter: chapter, Version: v})
		if len(cr.Verses) > 0 {
			s.cache.Put(ctx, key, cr.Verses)
		}
		return cr, nil
	})

	cr := shared.(provider.ChainResult)
	res.Source = cr.Provider
	res.Attempts = cr.Attempts
	if len(cr.Verses) > 0 {
		res.Verses = append([]string(nil), cr.Verses...)
	} else {
		logging.WarnContext(ctx, "chapter unavailable", "key", res.Key, "attempts", len(cr.Attempts))
	}
	return res
}

// PassageResolution is a passage lookup with per-chapter diagnostics.
type PassageResolution struct {
	Reference passage.Reference `json:"reference"`
	Chapters  []Resolution      `json:"chapters"`

	// Verses concatenates the chapters in order. Never nil.
	Verses []string `json:"verses"`
}

// ResolvePassage returns the verses of every chapter in raw, concatenated in
// chapter order, or an empty slice.
func (s *Service) ResolvePassage(ctx context.Context, raw, versionCode string) []string {
	return s.LookupPassage(ctx, raw, versionCode).Verses
}

// LookupPassage is ResolvePassage with diagnostics. Chapters are resolved
// concurrently and reassembled in order. A reference naming an unknown book
// resolves to nothing rather than to a guessed book. The range is clamped to
// the book's last chapter.
func (s *Service) LookupPassage(ctx context.Context, raw, versionCode string) PassageResolution {
	ref, err := passage.ParseStrict(raw)
	switch {
	case errors.Is(err, errors.ErrNotFound):
		logging.WarnContext(ctx, "passage names an unknown book", "passage", raw, "book", ref.BookName)
		return PassageResolution{Reference: ref, Chapters: []Resolution{}, Verses: []string{}}
	case err != nil:
		ref = passage.Default()
	}

	book, ok := canon.Disambiguate(ref.BookCode, ref.BookName)
	if !ok || ref.StartChapter > book.Chapters {
		logging.WarnContext(ctx, "passage is outside the book", "passage", raw, "chapters", book.Chapters)
		return PassageResolution{Reference: ref, Chapters: []Resolution{}, Verses: []string{}}
	}
	ref.StartChapter = max(ref.StartChapter, 1)
	ref.EndChapter = min(ref.EndChapter, book.Chapters)

	chapters := workerpool.Map(s.workers, ref.Chapters(), func(ch int) Resolution {
		return s.Lookup(ctx, ref.BookCode, ch, versionCode, ref.BookName)
	})

	out := PassageResolution{Reference: ref, Chapters: chapters, Verses: []string{}}
	for _, c := range chapters {
		out.Verses = append(out.Verses, c.Verses...)
	}
	return out
}

// Providers describes the configured provider chain.
func (s *Service) Providers() []provider.Descriptor {
	return s.chain.Providers()
}

// CacheStats summarizes the chapter cache.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// Flush waits for pending cache writes.
func (s *Service) Flush() {
	s.cache.Flush()
}
