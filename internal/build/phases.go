package build

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/freezer/internal/assets"
	"git.home.luguber.info/inful/freezer/internal/build/queue"
	ferrors "git.home.luguber.info/inful/freezer/internal/foundation/errors"
	"git.home.luguber.info/inful/freezer/internal/logfields"
	"git.home.luguber.info/inful/freezer/internal/observability"
	"git.home.luguber.info/inful/freezer/internal/output"
	"git.home.luguber.info/inful/freezer/internal/render"
	"git.home.luguber.info/inful/freezer/internal/routes"
	"git.home.luguber.info/inful/freezer/internal/sitemap"
)

func (p *Pipeline) start(ctx context.Context, st *State, _ func(Event) bool) error {
	switch {
	case p.routes == nil:
		return ferrors.ValidationError("no route source configured").Build()
	case p.engine == nil:
		return ferrors.ValidationError("no render engine configured").Build()
	case p.out == nil || p.out.Root() == "":
		return ferrors.ValidationError("no output directory configured").Build()
	case p.opts.Sitemap && p.opts.BaseURL == "":
		return ferrors.ValidationError("sitemap requires a base URL").Build()
	}
	observability.DebugContext(ctx, "Build started",
		logfields.Path(p.out.Root()),
		slog.Bool("sitemap", p.opts.Sitemap),
		slog.Bool("expose", p.opts.Expose))
	return nil
}

func (p *Pipeline) clear(_ context.Context, _ *State, _ func(Event) bool) error {
	return p.out.Clear()
}

func (p *Pipeline) scan(ctx context.Context, st *State, _ func(Event) bool) error {
	eps, err := p.routes.Entrypoints()
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryBuild, "failed to read declared routes").Fatal().Build()
	}
	st.Scan = routes.Scan(eps)
	for _, u := range st.Scan.URLs() {
		st.Queue.Add(u)
	}

	st.Report.Entrypoints = len(st.Scan.Entries)
	st.Report.SkippedRoutes = st.Scan.Skipped
	st.recorder.AddRoutesSkipped(st.Scan.Skipped)
	observability.InfoContext(ctx, "Routes scanned",
		slog.Int("declared", len(eps)),
		slog.Int("entrypoints", len(st.Scan.Entries)),
		slog.Int("skipped", st.Scan.Skipped))
	return nil
}

func (p *Pipeline) copyAssets(ctx context.Context, st *State, _ func(Event) bool) error {
	res, err := assets.Copy(ctx, p.opts.Assets, p.out)
	st.Report.Assets += res.Files
	for _, w := range res.Warnings {
		st.warn(w)
	}
	if isCanceled(err) {
		return canceledError(PhaseCopy, err)
	}
	return err
}

func (p *Pipeline) buildPages(ctx context.Context, st *State, emit func(Event) bool) error {
	sink := discoverySink(ctx, st)
	for {
		if err := ctx.Err(); err != nil {
			return canceledError(PhaseBuildPages, err)
		}
		url, ok := st.Queue.Next()
		if !ok {
			return nil
		}
		if err := p.buildPage(ctx, st, url, sink); err != nil {
			return err
		}
		st.recorder.SetQueueDepth(st.Queue.PendingCount())

		if !emit(Event{
			Phase:   PhaseBuildPages,
			Message: url,
			Advance: st.Queue.DoneCount(),
			Total:   st.Queue.TotalCount(),
		}) {
			return errStopped
		}
	}
}

// discoverySink feeds discovered links to the queue, dropping those that
// belong to ignored routes.
func discoverySink(ctx context.Context, st *State) queue.LinkSink {
	return queue.SinkFunc(func(url string) {
		if st.Scan.Ignore.Ignored(url) {
			observability.DebugContext(ctx, "Skipping link to ignored route", logfields.URL(url))
			return
		}
		st.Queue.Add(url)
	})
}

// buildPage renders url, writes it and marks it done. The URL is not marked
// done when rendering or writing fails.
func (p *Pipeline) buildPage(ctx context.Context, st *State, url string, sink queue.LinkSink) error {
	started := time.Now()
	pageCtx := observability.WithURL(ctx, url)

	res, err := p.engine.Render(pageCtx, render.Request{
		URL:     url,
		Method:  http.MethodGet,
		BaseURL: p.opts.BaseURL,
	}, sink)
	if err != nil {
		if ctx.Err() != nil {
			return canceledError(PhaseBuildPages, ctx.Err())
		}
		return render.Wrap(url, err)
	}
	if res == nil {
		return render.Wrap(url, errors.New("engine returned no result"))
	}

	dir, name := output.Resolve(url, res.Format)
	file := output.File{RelativeDir: dir, Filename: name, Bytes: res.Content}
	if err := p.write(st, file, url); err != nil {
		return err
	}
	st.Queue.MarkAsDone(url)

	st.recorder.IncPagesBuilt()
	st.recorder.ObservePageRender(output.MediaType(res.Format), time.Since(started))
	observability.DebugContext(pageCtx, "Page built",
		logfields.Path(file.Path()),
		logfields.Format(res.Format),
		logfields.Bytes(len(res.Content)))
	return nil
}

// write stores f, warning when an earlier URL already produced the same file.
func (p *Pipeline) write(st *State, f output.File, source string) error {
	path := f.Path()
	if prev, ok := st.written[path]; ok {
		st.warn(ferrors.NewError(ferrors.CategoryBuild, "output file written twice").
			Warning().
			WithContext("path", path).
			WithContext("url", source).
			WithContext("previous_url", prev).
			Build())
	}
	if err := p.out.Write(f); err != nil {
		return err
	}
	st.written[path] = source
	return nil
}

func (p *Pipeline) writeSitemap(_ context.Context, st *State, _ func(Event) bool) error {
	urls := st.Scan.Mapped()
	data, err := sitemap.Assemble(p.opts.BaseURL, urls)
	if err != nil {
		return err
	}
	name := p.opts.sitemapFilename()
	if err := p.write(st, output.File{RelativeDir: "/", Filename: name, Bytes: data}, name); err != nil {
		return err
	}
	st.Report.SitemapURLs = len(urls)
	return nil
}

func (p *Pipeline) end(ctx context.Context, st *State, _ func(Event) bool) error {
	observability.DebugContext(ctx, "Build pipeline complete", logfields.Done(st.Queue.DoneCount()))
	return nil
}
