// Package routes turns declared routes into build entrypoints.
//
// An Entrypoint is a route as the build sees it: a URL template plus the
// methods and flags that decide whether the route can be frozen directly.
// Scan filters entrypoints into the static, parameterless, GET-reachable
// URLs that seed the build queue.
package routes

import (
	"net/http"

	"git.home.luguber.info/inful/freezer/internal/util/sets"
)

// Entrypoint is a declared route.
type Entrypoint struct {
	Name           string
	URLTemplate    string
	RequiredParams sets.Set[string]
	AllowedMethods sets.Set[string]
	Ignored        bool
	// SitemapOptIn overrides the default sitemap membership when set.
	SitemapOptIn *bool
}

// IsGettable reports whether the route answers GET requests.
func (e Entrypoint) IsGettable() bool {
	return len(e.AllowedMethods) == 0 || e.AllowedMethods.Has(http.MethodGet)
}

// IsIgnored reports whether the route is explicitly excluded from the build.
func (e Entrypoint) IsIgnored() bool { return e.Ignored }

// IsMapped reports whether the route belongs in the sitemap.
func (e Entrypoint) IsMapped() bool {
	if e.SitemapOptIn != nil {
		return *e.SitemapOptIn
	}
	return !e.IsIgnored()
}

// Source provides the declared routes for a build, in declaration order.
type Source interface {
	Entrypoints() ([]Entrypoint, error)
}

// StaticSource is a fixed list of entrypoints.
type StaticSource []Entrypoint

// Entrypoints returns the list unchanged.
func (s StaticSource) Entrypoints() ([]Entrypoint, error) { return s, nil }
