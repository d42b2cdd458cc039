package routes

import (
	"strings"

	ferrors "git.home.luguber.info/inful/freezer/internal/foundation/errors"
	"git.home.luguber.info/inful/freezer/internal/util/sets"
)

// TemplateParams returns the parameter names referenced by a URL template.
// ":name" and "{name}" segments are named parameters; a "*" anywhere in a
// segment is a wildcard reported as "*".
func TemplateParams(template string) sets.Set[string] {
	params := sets.New[string]()
	for _, seg := range strings.Split(template, "/") {
		switch {
		case strings.HasPrefix(seg, ":") && len(seg) > 1:
			params.Add(seg[1:])
		case strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") && len(seg) > 2:
			name := seg[1 : len(seg)-1]
			// {name:regex} style constraints.
			if i := strings.IndexByte(name, ':'); i >= 0 {
				name = name[:i]
			}
			params.Add(name)
		case strings.Contains(seg, "*"):
			params.Add("*")
		}
	}
	return params
}

// Materialize builds the URL of e with no parameters. It fails with a route
// error when the template or the declaration requires parameters.
func Materialize(e Entrypoint) (string, error) {
	required := TemplateParams(e.URLTemplate)
	for p := range e.RequiredParams {
		required.Add(p)
	}
	if required.Len() > 0 {
		return "", ferrors.RouteError("route requires parameters").
			WithContext("route", e.Name).
			WithContext("template", e.URLTemplate).
			WithContext("params", sets.Sorted(required)).
			Build()
	}

	url := e.URLTemplate
	if url == "" {
		url = "/"
	}
	if !strings.HasPrefix(url, "/") {
		url = "/" + url
	}
	return url, nil
}
