package observability

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestWithBuildID(t *testing.T) {
	ctx := WithBuildID(context.Background(), "build-123")

	if lc := GetContext(ctx); lc.BuildID != "build-123" {
		t.Errorf("expected build-123, got %s", lc.BuildID)
	}
}

func TestWithPhase(t *testing.T) {
	ctx := WithPhase(context.Background(), "build_pages")

	if lc := GetContext(ctx); lc.Phase != "build_pages" {
		t.Errorf("expected build_pages, got %s", lc.Phase)
	}
}

func TestContextChaining(t *testing.T) {
	ctx := context.Background()
	ctx = WithBuildID(ctx, "build-1")
	ctx = WithPhase(ctx, "scan")
	ctx = WithURL(ctx, "/about")

	lc := GetContext(ctx)
	if lc.BuildID != "build-1" {
		t.Error("BuildID was lost in chaining")
	}
	if lc.Phase != "scan" {
		t.Error("Phase was lost in chaining")
	}
	if lc.URL != "/about" {
		t.Error("URL was lost in chaining")
	}
}

func TestOverwriteContextValue(t *testing.T) {
	ctx := WithPhase(context.Background(), "clear")
	ctx = WithPhase(ctx, "copy")

	if lc := GetContext(ctx); lc.Phase != "copy" {
		t.Errorf("expected copy, got %s", lc.Phase)
	}
}

func TestLoggingIncludesContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx := WithPhase(WithBuildID(context.Background(), "b-9"), "sitemap")
	InfoContext(ctx, "Sitemap written", slog.Int("urls", 3))
	DebugContext(ctx, "debug line")

	out := buf.String()
	for _, want := range []string{"build_id=b-9", "phase=sitemap", "urls=3", "debug line"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}
