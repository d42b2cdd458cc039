package render

import (
	"bytes"
	"context"
	"net/url"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/freezer/internal/build/queue"
	"git.home.luguber.info/inful/freezer/internal/logfields"
	"git.home.luguber.info/inful/freezer/internal/observability"
	"git.home.luguber.info/inful/freezer/internal/output"
)

// linkAttrs lists the element attributes that reference other site URLs.
var linkAttrs = map[string]string{
	"a":      "href",
	"link":   "href",
	"area":   "href",
	"img":    "src",
	"script": "src",
	"source": "src",
	"video":  "src",
	"audio":  "src",
	"iframe": "src",
}

// Discoverer wraps an engine and feeds same-origin links found in rendered
// documents to the link sink.
type Discoverer struct {
	Engine Engine
}

// Discover wraps e with link discovery.
func Discover(e Engine) *Discoverer { return &Discoverer{Engine: e} }

// Render renders with the wrapped engine, then scans document output for links.
func (d *Discoverer) Render(ctx context.Context, req Request, sink queue.LinkSink) (*Result, error) {
	res, err := d.Engine.Render(ctx, req, sink)
	if err != nil || res == nil || sink == nil || !output.IsDocument(res.Format) {
		return res, err
	}

	links, err := ExtractLinks(res.Content, req.BaseURL, req.URL)
	if err != nil {
		// Unparsable markup still gets written; only discovery is lost.
		observability.WarnContext(ctx, "Link discovery failed", logfields.URL(req.URL), logfields.Error(err))
		return res, nil
	}
	for _, l := range links {
		sink.Add(l)
	}
	return res, nil
}

// ExtractLinks returns the root-relative paths of same-origin links in an
// HTML document served at pageURL below baseURL, in document order. Paths
// are percent-decoded, matching declared routes and the files a static
// server looks up.
//
// Fragments are dropped. Links carrying a query string or a non-HTTP scheme
// are skipped, since a static tree cannot serve them.
func ExtractLinks(doc []byte, baseURL, pageURL string) ([]string, error) {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return nil, err
	}

	origin, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	page := &url.URL{Scheme: origin.Scheme, Host: origin.Host, Path: pageURL}
	if page.Scheme == "" {
		page.Scheme = "http"
	}

	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if attr, ok := linkAttrs[n.Data]; ok {
				if p, ok := sameOriginPath(page, getAttr(n, attr)); ok {
					out = append(out, p)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out, nil
}

func sameOriginPath(page *url.URL, ref string) (string, bool) {
	if ref == "" {
		return "", false
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	abs := page.ResolveReference(u)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	// Relative references inherit the page origin; absolute ones must match it.
	if u.IsAbs() || u.Host != "" {
		if page.Host == "" || abs.Host != page.Host {
			return "", false
		}
	}
	if abs.RawQuery != "" || abs.ForceQuery {
		return "", false
	}
	p := abs.Path
	if p == "" {
		p = "/"
	}
	return p, true
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
