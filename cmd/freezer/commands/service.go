package commands

import (
	"errors"
	"log/slog"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/freezer/internal/build"
	"git.home.luguber.info/inful/freezer/internal/config"
	"git.home.luguber.info/inful/freezer/internal/eventstore"
	"git.home.luguber.info/inful/freezer/internal/logfields"
	"git.home.luguber.info/inful/freezer/internal/metrics"
	"git.home.luguber.info/inful/freezer/internal/notify"
)

// historySize bounds the in-memory build history.
const historySize = 100

// wiring is a build service together with the resources it holds open.
type wiring struct {
	service  *build.DefaultBuildService
	registry *prom.Registry
	closers  []func() error
}

func (w *wiring) Close() error {
	var errs []error
	for i := len(w.closers) - 1; i >= 0; i-- {
		errs = append(errs, w.closers[i]())
	}
	return errors.Join(errs...)
}

// newWiring connects the build service to the metrics, event store and
// NATS integrations enabled in cfg. withMetrics forces a Prometheus
// registry, as the daemon serves one even without a textfile.
func newWiring(cfg *config.Config, withMetrics bool) (*wiring, error) {
	w := &wiring{service: build.NewBuildService()}

	if withMetrics || cfg.Metrics.Textfile != "" {
		w.registry = prom.NewRegistry()
		w.service.WithRecorder(metrics.NewPrometheusRecorder(w.registry))
	}

	if cfg.Events.Database != "" {
		store, err := eventstore.NewSQLiteStore(cfg.Events.Database)
		if err != nil {
			return nil, err
		}
		w.closers = append(w.closers, store.Close)
		w.service.WithEventSinks(eventstore.NewSink(store, nil).WithRetention(cfg.Events.Retain))
	}

	if cfg.Events.NATS.URL != "" {
		pub, err := notify.Connect(cfg.Events.NATS.URL, cfg.Events.NATS.Subject)
		if err != nil {
			// Notifications are best effort; the build still runs.
			slog.Warn("NATS notifications disabled", slog.String("url", cfg.Events.NATS.URL), logfields.Error(err))
		} else {
			w.closers = append(w.closers, pub.Close)
			w.service.WithEventSinks(pub)
		}
	}
	return w, nil
}
