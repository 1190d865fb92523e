package provider

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/FocuswithJustin/lectio/core/errors"
	"github.com/FocuswithJustin/lectio/core/extract"
	"github.com/FocuswithJustin/lectio/core/version"
)

// NameBibleAPI identifies the bible-api.com adapter.
const NameBibleAPI = "bibleapi"

const bibleAPIBaseURL = "https://bible-api.com"

// BibleAPI fetches chapters from bible-api.com:
//
//	GET {base}/{english name}+{chapter}?translation={t}
//
// Portuguese versions are served from the public-domain Almeida text.
type BibleAPI struct {
	opts Options
	base string
}

// NewBibleAPI returns the adapter.
func NewBibleAPI(opts Options) *BibleAPI {
	return &BibleAPI{opts: opts, base: opts.baseURL(bibleAPIBaseURL)}
}

func (b *BibleAPI) Name() string           { return NameBibleAPI }
func (b *BibleAPI) Shape() extract.Shape   { return extract.ShapeJSONTree }
func (b *BibleAPI) Timeout() time.Duration { return b.opts.Timeout }

func translation(v version.Code) string {
	switch v {
	case version.KJV:
		return "kjv"
	case version.WEB:
		return "web"
	case version.BBE:
		return "bbe"
	}
	return "almeida"
}

func (b *BibleAPI) Fetch(ctx context.Context, req Request) Result {
	name, ok := englishNames[req.Book.ID]
	if !ok {
		return failed(b.Name(), "book", errors.NewNotFound("book", req.Book.ID))
	}

	u := fmt.Sprintf("%s/%s+%d?translation=%s", b.base, url.PathEscape(name), req.Chapter, url.QueryEscape(translation(req.Version)))
	body, perr := get(ctx, b.opts.client(), b.Name(), u, nil)
	if perr != nil {
		return Result{Err: perr}
	}
	return extractResult(b.Name(), extract.Layout{Shape: extract.ShapeJSONTree, Root: "verses"}, body)
}
