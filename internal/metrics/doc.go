// Package metrics provides build metrics for freezer.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no call site needs nil checks:
//
//	recorder := metrics.NewPrometheusRecorder(prometheus.NewRegistry())
//	svc := build.NewBuildService().WithRecorder(recorder)
//
// PrometheusRecorder can also be written to a node_exporter textfile after
// each build (WriteTextfile) or scraped over HTTP (HTTPHandler) when the
// daemon runs.
package metrics
