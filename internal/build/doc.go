// Package build runs the freezer build pipeline.
//
// A Pipeline walks a fixed phase sequence (start, clear, scan, copy,
// build_pages, sitemap, end) and exposes it as a pull-driven event stream.
// The build_pages phase drains a work queue seeded from the declared routes;
// the render engine may grow that queue with URLs it discovers while
// rendering. Every page is written through the output path rules before the
// next URL is dequeued.
//
// BuildService wraps the pipeline with configuration, logging, metrics,
// event sinks and report persistence. All execution paths (CLI, daemon,
// tests) route through it.
package build
