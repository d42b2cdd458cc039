package render

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/freezer/internal/build/queue"
	"git.home.luguber.info/inful/freezer/internal/observability"
)

const page = `<!DOCTYPE html>
<html><head>
<link rel="stylesheet" href="/static/site.css">
<script src="app.js"></script>
</head><body>
<a href="/about">About</a>
<a href="post#comments">Post</a>
<a href="../">Up</a>
<a href="https://example.com/feed.xml">Feed</a>
<a href="//example.com/contact">Contact</a>
<a href="https://other.org/x">Elsewhere</a>
<a href="/search?q=go">Search</a>
<a href="mailto:me@example.com">Mail</a>
<a href="#top">Top</a>
<a>No href</a>
<img src="/img/logo.png">
</body></html>`

func TestExtractLinks(t *testing.T) {
	links, err := ExtractLinks([]byte(page), "https://example.com", "/blog/")
	require.NoError(t, err)
	require.Equal(t, []string{
		"/static/site.css",
		"/blog/app.js",
		"/about",
		"/blog/post",
		"/",
		"/feed.xml",
		"/contact",
		"/blog/",
		"/img/logo.png",
	}, links)
}

func TestExtractLinks_DecodesPaths(t *testing.T) {
	doc := `<a href="/café">a</a><a href="/caf%C3%A9">b</a><a href="/a b">c</a><a href="/a%20b/">d</a>`
	links, err := ExtractLinks([]byte(doc), "https://example.com", "/")
	require.NoError(t, err)
	require.Equal(t, []string{"/café", "/café", "/a b", "/a b/"}, links)

	// Both spellings land on one queue entry.
	q := queue.New()
	q.Add("/café")
	for _, l := range links {
		q.Add(l)
	}
	require.Equal(t, 3, q.TotalCount())
}

func TestExtractLinks_NoBaseURLKeepsRelativeOnly(t *testing.T) {
	links, err := ExtractLinks([]byte(`<a href="/a">a</a><a href="https://example.com/b">b</a>`), "", "/")
	require.NoError(t, err)
	require.Equal(t, []string{"/a"}, links)
}

func TestDiscoverer(t *testing.T) {
	html := EngineFunc(func(context.Context, Request, queue.LinkSink) (*Result, error) {
		return &Result{Content: []byte(`<a href="/next">n</a>`), Format: "text/html"}, nil
	})
	xml := EngineFunc(func(context.Context, Request, queue.LinkSink) (*Result, error) {
		return &Result{Content: []byte(`<a href="/never">n</a>`), Format: "application/xml"}, nil
	})

	q := queue.New()
	_, err := Discover(html).Render(context.Background(), Request{URL: "/"}, q.Sink())
	require.NoError(t, err)
	_, err = Discover(xml).Render(context.Background(), Request{URL: "/feed.xml"}, q.Sink())
	require.NoError(t, err)

	next, ok := q.Next()
	require.True(t, ok)
	require.Equal(t, "/next", next)
	require.Zero(t, q.PendingCount())
}

func TestDiscoverer_FailureLogsBuildContext(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	engine := EngineFunc(func(context.Context, Request, queue.LinkSink) (*Result, error) {
		return &Result{Content: []byte(`<a href="/next">n</a>`), Format: "text/html"}, nil
	})
	ctx := observability.WithBuildID(context.Background(), "b-7")
	q := queue.New()

	res, err := Discover(engine).Render(ctx, Request{URL: "/", BaseURL: "http://[::1"}, q.Sink())
	require.NoError(t, err)
	require.NotNil(t, res)
	require.Zero(t, q.TotalCount())
	require.Contains(t, buf.String(), "Link discovery failed")
	require.Contains(t, buf.String(), "build_id=b-7")
}

func TestDiscoverer_PassesThroughErrors(t *testing.T) {
	failing := EngineFunc(func(context.Context, Request, queue.LinkSink) (*Result, error) {
		return nil, &Error{URL: "/x", Status: 500}
	})
	_, err := Discover(failing).Render(context.Background(), Request{URL: "/x"}, queue.New().Sink())
	require.Error(t, err)
}
