package routes

import "strings"

// IgnoreSet matches URLs against the ignored entrypoints of a route set, so
// links discovered while rendering cannot pull ignored routes into a build.
//
// Static paths take precedence over templates, as in most routers: a
// declared "/posts/new" stays buildable even when "/posts/:id" is ignored.
type IgnoreSet struct {
	static    map[string]bool // materialized path -> ignored
	templates []string        // ignored parameterised templates
}

// NewIgnoreSet indexes eps.
func NewIgnoreSet(eps []Entrypoint) *IgnoreSet {
	s := &IgnoreSet{static: make(map[string]bool, len(eps))}
	for _, ep := range eps {
		url, err := Materialize(ep)
		if err != nil {
			if ep.IsIgnored() {
				s.templates = append(s.templates, ep.URLTemplate)
			}
			continue
		}
		// Any declaration that keeps a path buildable wins.
		if ignored, ok := s.static[url]; !ok || ignored {
			s.static[url] = ep.IsIgnored()
		}
	}
	return s
}

// Ignored reports whether url belongs to an ignored route.
func (s *IgnoreSet) Ignored(url string) bool {
	if s == nil {
		return false
	}
	if ignored, ok := s.static[url]; ok {
		return ignored
	}
	for _, t := range s.templates {
		if MatchTemplate(t, url) {
			return true
		}
	}
	return false
}

// MatchTemplate reports whether url fits template. Named parameters match
// one non-empty segment; a "*" matches the rest of the path from its
// position on.
func MatchTemplate(template, url string) bool {
	tsegs := strings.Split(strings.TrimPrefix(template, "/"), "/")
	usegs := strings.Split(strings.TrimPrefix(url, "/"), "/")

	for i, t := range tsegs {
		if j := strings.IndexByte(t, '*'); j >= 0 {
			if i >= len(usegs) {
				return t[:j] == "" && i == len(usegs)
			}
			return strings.HasPrefix(usegs[i], t[:j])
		}
		if i >= len(usegs) {
			return false
		}
		switch {
		case strings.HasPrefix(t, ":") && len(t) > 1,
			strings.HasPrefix(t, "{") && strings.HasSuffix(t, "}") && len(t) > 2:
			if usegs[i] == "" {
				return false
			}
		case t != usegs[i]:
			return false
		}
	}
	return len(tsegs) == len(usegs)
}
