// Package render produces page content for a URL through the hosting
// application's own request pipeline.
package render

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"

	"git.home.luguber.info/inful/freezer/internal/build/queue"
	ferrors "git.home.luguber.info/inful/freezer/internal/foundation/errors"
)

// Request is a simulated request for one URL.
type Request struct {
	// URL is the root-relative path being rendered, for example "/about".
	URL string
	// Method defaults to GET.
	Method string
	// BaseURL is the public site origin the page will be served from.
	BaseURL string
}

func (r Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return r.Method
}

// target is the request path with reserved characters escaped.
func (r Request) target() string {
	return (&url.URL{Path: r.URL}).EscapedPath()
}

// Result is the rendered content and its negotiated media type.
type Result struct {
	Content []byte
	Format  string
}

// Engine renders one URL. Engines may report URLs discovered while rendering
// through sink; they never see the build queue itself.
type Engine interface {
	Render(ctx context.Context, req Request, sink queue.LinkSink) (*Result, error)
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, req Request, sink queue.LinkSink) (*Result, error)

// Render calls f.
func (f EngineFunc) Render(ctx context.Context, req Request, sink queue.LinkSink) (*Result, error) {
	return f(ctx, req, sink)
}

// Error is a failed render of URL.
type Error struct {
	URL    string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("render %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("render %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap classifies a render failure for url as a fatal render error.
func Wrap(url string, err error) error {
	return ferrors.WrapError(&Error{URL: url, Err: err}, ferrors.CategoryRender, "page render failed").
		WithContext("url", url).
		Build()
}

// negotiatedFormat returns the media type of a response, sniffing the body
// when the header is missing or unparsable.
func negotiatedFormat(contentType string, body []byte) string {
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			return mt
		}
	}
	mt, _, err := mime.ParseMediaType(http.DetectContentType(body))
	if err != nil {
		return "application/octet-stream"
	}
	return mt
}

func statusOK(code int) bool { return code >= 200 && code < 300 }
