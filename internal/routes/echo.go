package routes

import (
	"cmp"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"

	"git.home.luguber.info/inful/freezer/internal/util/sets"
)

// EchoSource reads entrypoints from an echo router.
type EchoSource struct {
	Echo *echo.Echo
	// IgnorePrefixes marks every route whose path starts with one of these
	// prefixes as ignored (for example "/admin").
	IgnorePrefixes []string
	// Unmapped lists exact paths kept out of the sitemap.
	Unmapped []string
}

// FromEcho returns a Source over e's registered routes.
func FromEcho(e *echo.Echo, ignorePrefixes ...string) *EchoSource {
	return &EchoSource{Echo: e, IgnorePrefixes: ignorePrefixes}
}

// Entrypoints groups echo routes by path, collecting every method registered
// for the same path. Echo does not keep registration order, so entrypoints
// are ordered by path. Each ignore prefix is appended as an ignored wildcard
// entrypoint, covering discovered links below it that no route declares.
func (s *EchoSource) Entrypoints() ([]Entrypoint, error) {
	var out []Entrypoint
	index := make(map[string]int)
	unmapped := sets.New(s.Unmapped...)

	registered := s.Echo.Routes()
	slices.SortStableFunc(registered, func(a, b *echo.Route) int {
		return cmp.Compare(a.Path, b.Path)
	})
	for _, r := range registered {
		if r.Method == echo.RouteNotFound {
			continue
		}
		if i, ok := index[r.Path]; ok {
			out[i].AllowedMethods.Add(r.Method)
			continue
		}
		ep := Entrypoint{
			Name:           r.Name,
			URLTemplate:    r.Path,
			AllowedMethods: sets.New(r.Method),
			Ignored:        s.ignored(r.Path),
		}
		if unmapped.Has(r.Path) {
			optOut := false
			ep.SitemapOptIn = &optOut
		}
		index[r.Path] = len(out)
		out = append(out, ep)
	}
	for _, p := range s.IgnorePrefixes {
		out = append(out, Entrypoint{Name: "ignored " + p, URLTemplate: p + "*", Ignored: true})
	}
	return out, nil
}

func (s *EchoSource) ignored(path string) bool {
	for _, p := range s.IgnorePrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
