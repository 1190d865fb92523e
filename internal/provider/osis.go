package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/FocuswithJustin/lectio/core/errors"
	"github.com/FocuswithJustin/lectio/core/extract"
)

// NameOSIS identifies the OSIS mirror adapter.
const NameOSIS = "osis"

// OSIS fetches OSIS XML chapters from a static mirror:
//
//	GET {base}/{version}/{OSIS book}.{chapter}.xml
//
// Both container verses (<verse osisID="Gen.1.1">text</verse>) and
// milestone verses (<verse sID=".."/>text<verse eID=".."/>) are read.
type OSIS struct {
	opts Options
	base string
}

// NewOSIS returns the adapter. It is disabled until BaseURL is set.
func NewOSIS(opts Options) *OSIS {
	return &OSIS{opts: opts, base: strings.TrimRight(opts.BaseURL, "/")}
}

func (o *OSIS) Name() string           { return NameOSIS }
func (o *OSIS) Shape() extract.Shape   { return extract.ShapeXMLTree }
func (o *OSIS) Timeout() time.Duration { return o.opts.Timeout }

// Enabled reports whether a mirror is configured.
func (o *OSIS) Enabled() bool { return o.base != "" }

func (o *OSIS) Fetch(ctx context.Context, req Request) Result {
	if !o.Enabled() {
		return failed(o.Name(), "config", errors.Wrap(errors.ErrUnsupported, "no mirror configured"))
	}
	if req.Book.OSIS == "" {
		return failed(o.Name(), "book", errors.NewNotFound("book", req.Book.ID))
	}

	u := fmt.Sprintf("%s/%s/%s.%d.xml", o.base, url.PathEscape(string(req.Version)), url.PathEscape(req.Book.OSIS), req.Chapter)
	header := http.Header{"Accept": {"application/xml, text/xml"}}
	body, perr := get(ctx, o.opts.client(), o.Name(), u, header)
	if perr != nil {
		return Result{Err: perr}
	}
	return extractResult(o.Name(), extract.Layout{Shape: extract.ShapeXMLTree}, body)
}
