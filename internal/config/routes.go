package config

import (
	"git.home.luguber.info/inful/freezer/internal/routes"
	"git.home.luguber.info/inful/freezer/internal/util/sets"
)

// RouteConfig declares one application route.
type RouteConfig struct {
	Name string `yaml:"name"`
	// Path is the URL template, for example "/about" or "/blog/:slug".
	Path    string   `yaml:"path"`
	Methods []string `yaml:"methods,omitempty"`
	// Params lists parameters the route needs beyond those in Path.
	Params []string `yaml:"params,omitempty"`
	Ignore bool     `yaml:"ignore,omitempty"`
	// Sitemap overrides sitemap membership.
	Sitemap *bool `yaml:"sitemap,omitempty"`
}

// Entrypoint converts the declaration into a build entrypoint.
func (r RouteConfig) Entrypoint() routes.Entrypoint {
	ep := routes.Entrypoint{
		Name:         r.Name,
		URLTemplate:  r.Path,
		Ignored:      r.Ignore,
		SitemapOptIn: r.Sitemap,
	}
	if len(r.Params) > 0 {
		ep.RequiredParams = sets.New(r.Params...)
	}
	if len(r.Methods) > 0 {
		ep.AllowedMethods = sets.New(r.Methods...)
	}
	return ep
}

// RouteSource returns the configured routes as a route source, in
// declaration order.
func (c *Config) RouteSource() routes.StaticSource {
	out := make(routes.StaticSource, len(c.Routes))
	for i, r := range c.Routes {
		out[i] = r.Entrypoint()
	}
	return out
}
