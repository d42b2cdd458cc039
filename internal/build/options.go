package build

import (
	"git.home.luguber.info/inful/freezer/internal/assets"
	"git.home.luguber.info/inful/freezer/internal/sitemap"
)

// Options selects the optional phases and their inputs.
type Options struct {
	// Sitemap enables the sitemap phase.
	Sitemap bool
	// SitemapFilename is written at the output root; defaults to sitemap.xml.
	SitemapFilename string
	// Expose enables the copy phase for Assets.
	Expose bool
	Assets []assets.Entry
	// BaseURL is the public site URL passed to the render engine and used
	// for sitemap locations.
	BaseURL string
}

func (o Options) sitemapFilename() string {
	if o.SitemapFilename == "" {
		return sitemap.DefaultFilename
	}
	return o.SitemapFilename
}
