// Package sitemap renders sitemaps.org urlset documents.
package sitemap

import (
	"bytes"
	"encoding/xml"
	"net/url"
	"strings"

	ferrors "git.home.luguber.info/inful/freezer/internal/foundation/errors"
)

// Namespace is the sitemaps.org 0.9 schema namespace.
const Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// DefaultFilename is the conventional sitemap location at the site root.
const DefaultFilename = "sitemap.xml"

type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr"`
	URLs    []entry  `xml:"url"`
}

type entry struct {
	Loc string `xml:"loc"`
}

// Assemble renders urls, in order, as absolute locations under baseURL.
// The output carries no timestamps, so equal input yields equal bytes.
func Assemble(baseURL string, urls []string) ([]byte, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, ferrors.ValidationError("sitemap base URL must be absolute").
			WithCause(err).
			WithContext("base_url", baseURL).
			Build()
	}
	prefix := strings.TrimRight(base.String(), "/")

	set := urlSet{XMLNS: Namespace, URLs: make([]entry, 0, len(urls))}
	for _, u := range urls {
		if !strings.HasPrefix(u, "/") {
			u = "/" + u
		}
		set.URLs = append(set.URLs, entry{Loc: prefix + u})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryBuild, "failed to encode sitemap").Fatal().Build()
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
