package render

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"git.home.luguber.info/inful/freezer/internal/build/queue"
)

// HandlerEngine renders through an in-process http.Handler.
type HandlerEngine struct {
	Handler http.Handler
	Headers map[string]string
}

// NewHandlerEngine returns an engine serving requests with h.
func NewHandlerEngine(h http.Handler) *HandlerEngine {
	return &HandlerEngine{Handler: h}
}

// Render issues a simulated request to the handler and records the response.
func (e *HandlerEngine) Render(ctx context.Context, req Request, _ queue.LinkSink) (*Result, error) {
	target := strings.TrimRight(req.BaseURL, "/") + req.target()
	if req.BaseURL == "" {
		target = "http://localhost" + req.target()
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method(), target, nil)
	if err != nil {
		return nil, &Error{URL: req.URL, Err: err}
	}
	httpReq.RequestURI = req.target()
	httpReq.RemoteAddr = "127.0.0.1:0"
	for k, v := range e.Headers {
		httpReq.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	e.Handler.ServeHTTP(rec, httpReq)

	if !statusOK(rec.Code) {
		return nil, &Error{URL: req.URL, Status: rec.Code}
	}
	body := rec.Body.Bytes()
	return &Result{
		Content: body,
		Format:  negotiatedFormat(rec.Header().Get("Content-Type"), body),
	}, nil
}
