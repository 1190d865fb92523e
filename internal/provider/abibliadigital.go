package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/FocuswithJustin/lectio/core/errors"
	"github.com/FocuswithJustin/lectio/core/extract"
	"github.com/FocuswithJustin/lectio/core/version"
)

// NameABibliaDigital identifies the abibliadigital adapter.
const NameABibliaDigital = "abibliadigital"

const abibliaBaseURL = "https://www.abibliadigital.com.br/api"

// abibliaVersions maps lectio versions to the ones abibliadigital hosts.
// Anything else is served from nvi.
var abibliaVersions = map[version.Code]string{
	version.NVI: "nvi",
	version.ACF: "acf",
	version.ARA: "ra",
	version.KJV: "kjv",
	version.BBE: "bbe",
}

// ABibliaDigital fetches chapters from abibliadigital.com.br:
//
//	GET {base}/verses/{version}/{abbrev}/{chapter}
type ABibliaDigital struct {
	opts Options
	base string
}

// NewABibliaDigital returns the adapter. A Key is sent as a bearer token.
func NewABibliaDigital(opts Options) *ABibliaDigital {
	return &ABibliaDigital{opts: opts, base: opts.baseURL(abibliaBaseURL)}
}

func (a *ABibliaDigital) Name() string           { return NameABibliaDigital }
func (a *ABibliaDigital) Shape() extract.Shape   { return extract.ShapeJSONTree }
func (a *ABibliaDigital) Timeout() time.Duration { return a.opts.Timeout }

func (a *ABibliaDigital) layout() extract.Layout {
	return extract.Layout{Shape: extract.ShapeJSONTree, Root: "verses"}
}

func (a *ABibliaDigital) Fetch(ctx context.Context, req Request) Result {
	if req.Book.ID == "" {
		return failed(a.Name(), "book", errors.NewNotFound("book", req.Book.Code))
	}
	abbrev, ok := abibliaAbbrevs[req.Book.ID]
	if !ok {
		abbrev = req.Book.ID
	}
	v, ok := abibliaVersions[req.Version]
	if !ok {
		v = abibliaVersions[version.NVI]
	}

	u := fmt.Sprintf("%s/verses/%s/%s/%d", a.base, url.PathEscape(v), url.PathEscape(abbrev), req.Chapter)
	header := http.Header{}
	if a.opts.Key != "" {
		header.Set("Authorization", "Bearer "+a.opts.Key)
	}

	body, perr := get(ctx, a.opts.client(), a.Name(), u, header)
	if perr != nil {
		return Result{Err: perr}
	}
	return extractResult(a.Name(), a.layout(), body)
}
