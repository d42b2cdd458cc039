package errors

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

type customError struct{ msg string }

func (e *customError) Error() string { return e.msg }

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation error", ValidationError("invalid input").Build(), 2},
		{"config error", ConfigError("bad config").Build(), 7},
		{"render error", RenderError("page failed").Build(), 8},
		{"asset error", AssetError("missing").Fatal().Build(), 11},
		{"filesystem error", FileSystemError("write failed").Build(), 11},
		{"wrapped build error", fmt.Errorf("outer: %w", BuildError("boom").Build()), 11},
		{"daemon error", DaemonError("scheduler").Build(), 12},
		{"internal error", InternalError("bug").Build(), 10},
		{"unclassified error", &customError{msg: "unknown error"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, slog.Default())
	verbose := NewCLIErrorAdapter(true, slog.Default())

	err := WrapError(&customError{msg: "status 500"}, CategoryRender, "render failed").Build()

	if got := quiet.FormatError(err); got != "Error: render failed: status 500" {
		t.Errorf("quiet FormatError = %q", got)
	}
	if got := verbose.FormatError(err); !strings.Contains(got, "[render:fatal]") {
		t.Errorf("verbose FormatError should include classification, got %q", got)
	}
	if got := quiet.FormatError(InternalError("bug").Build()); !strings.Contains(got, "use -v") {
		t.Errorf("internal errors should hide details, got %q", got)
	}
	if got := quiet.FormatError(nil); got != "" {
		t.Errorf("nil error should format empty, got %q", got)
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var logBuf, out bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logBuf, nil)))
	adapter.out = &out
	code := -1
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(ConfigError("missing output directory").WithContext("file", "freezer.yaml").Build())

	if code != 7 {
		t.Errorf("exit code = %d, want 7", code)
	}
	if !strings.Contains(out.String(), "missing output directory") {
		t.Errorf("expected message on output, got %q", out.String())
	}
	if !strings.Contains(logBuf.String(), "category=config") || !strings.Contains(logBuf.String(), "file=freezer.yaml") {
		t.Errorf("expected structured log attrs, got %q", logBuf.String())
	}
}
