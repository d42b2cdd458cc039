package routes

import (
	"log/slog"

	"git.home.luguber.info/inful/freezer/internal/logfields"
)

// ScannedEntry pairs an entrypoint with the URL it materialized to.
type ScannedEntry struct {
	Entrypoint Entrypoint
	URL        string
}

// ScanResult is the outcome of Scan.
type ScanResult struct {
	// Entries are the materialized entrypoints in declaration order, one per
	// distinct URL (first declaration wins).
	Entries []ScannedEntry
	// Skipped counts gettable, non-ignored routes that need parameters.
	Skipped int
	// SkipErrors holds one route error per skipped route.
	SkipErrors []error
	// Ignore matches URLs of ignored routes.
	Ignore *IgnoreSet
}

// URLs returns the entry URLs in scan order.
func (r ScanResult) URLs() []string {
	out := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = e.URL
	}
	return out
}

// Mapped returns the URLs of entries that belong in the sitemap, in scan order.
func (r ScanResult) Mapped() []string {
	var out []string
	for _, e := range r.Entries {
		if e.Entrypoint.IsMapped() {
			out = append(out, e.URL)
		}
	}
	return out
}

// Scan filters entrypoints into static GET-reachable URLs.
//
// Ignored and non-GET routes are skipped silently. Routes that need
// parameters are counted as skipped; they can only be reached through links
// discovered while rendering.
func Scan(entrypoints []Entrypoint) ScanResult {
	res := ScanResult{Ignore: NewIgnoreSet(entrypoints)}
	seen := make(map[string]struct{}, len(entrypoints))

	for _, ep := range entrypoints {
		if ep.IsIgnored() || !ep.IsGettable() {
			continue
		}
		url, err := Materialize(ep)
		if err != nil {
			res.Skipped++
			res.SkipErrors = append(res.SkipErrors, err)
			slog.Debug("Skipping parameterised route", logfields.Route(ep.Name), slog.String("template", ep.URLTemplate))
			continue
		}
		if _, dup := seen[url]; dup {
			continue
		}
		seen[url] = struct{}{}
		res.Entries = append(res.Entries, ScannedEntry{Entrypoint: ep, URL: url})
	}
	return res
}
