package render

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"git.home.luguber.info/inful/freezer/internal/build/queue"
	"git.home.luguber.info/inful/freezer/internal/logfields"
	"git.home.luguber.info/inful/freezer/internal/retry"
)

// DefaultUserAgent identifies freezer to the origin.
const DefaultUserAgent = "freezer/1.0"

// HTTPEngine renders through a running origin server.
type HTTPEngine struct {
	Origin    string
	UserAgent string
	Headers   map[string]string
	// Retry applies to connection failures and 429/502/503/504 responses.
	Retry  retry.Policy
	client *http.Client
}

// NewHTTPEngine returns an engine fetching pages from origin.
func NewHTTPEngine(origin string, timeout time.Duration) *HTTPEngine {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &HTTPEngine{
		Origin:    strings.TrimRight(origin, "/"),
		UserAgent: DefaultUserAgent,
		client:    &http.Client{Timeout: timeout, Transport: transport},
	}
}

// Render fetches req.URL from the origin.
func (e *HTTPEngine) Render(ctx context.Context, req Request, _ queue.LinkSink) (*Result, error) {
	var res *Result
	err := e.Retry.Do(ctx, transient, func(attempt int) error {
		if attempt > 0 {
			slog.WarnContext(ctx, "Retrying render", logfields.URL(req.URL), slog.Int("attempt", attempt))
		}
		var err error
		res, err = e.fetch(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (e *HTTPEngine) fetch(ctx context.Context, req Request) (*Result, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.method(), e.Origin+req.target(), nil)
	if err != nil {
		return nil, &Error{URL: req.URL, Err: err}
	}
	if e.UserAgent != "" {
		httpReq.Header.Set("User-Agent", e.UserAgent)
	}
	for k, v := range e.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, &Error{URL: req.URL, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if !statusOK(resp.StatusCode) {
		return nil, &Error{URL: req.URL, Status: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{URL: req.URL, Err: err}
	}
	return &Result{
		Content: body,
		Format:  negotiatedFormat(resp.Header.Get("Content-Type"), body),
	}, nil
}

// transient reports failures worth retrying: the origin was unreachable or
// answered that it is temporarily unavailable.
func transient(err error) bool {
	var re *Error
	if !errors.As(err, &re) {
		return false
	}
	switch re.Status {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	case 0:
		return re.Err != nil && !errors.Is(re.Err, context.Canceled) && !errors.Is(re.Err, context.DeadlineExceeded)
	default:
		return false
	}
}
