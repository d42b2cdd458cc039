// Package preview serves a frozen site from its output directory so it can
// be checked before publishing.
package preview

import (
	"context"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	ferrors "git.home.luguber.info/inful/freezer/internal/foundation/errors"
	"git.home.luguber.info/inful/freezer/internal/logfields"
	"git.home.luguber.info/inful/freezer/internal/server"
)

// New returns an echo instance serving root. Directory URLs resolve to
// their index.html, with or without a trailing slash.
func New(root string, logger *slog.Logger) (*echo.Echo, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, ferrors.FileSystemError("preview directory not found").
			WithCause(err).
			WithContext("path", root).
			Build()
	}
	if !info.IsDir() {
		return nil, ferrors.FileSystemError("preview path is not a directory").
			WithContext("path", root).
			Build()
	}

	e := server.New(logger)
	e.Use(middleware.StaticWithConfig(middleware.StaticConfig{
		Root:  root,
		Index: "index.html",
	}))
	return e, nil
}

// Serve serves root on addr until ctx ends.
func Serve(ctx context.Context, root, addr string) error {
	e, err := New(root, slog.Default())
	if err != nil {
		return err
	}
	slog.Info("Serving preview", logfields.Path(root), slog.String("addr", addr))
	return server.Serve(ctx, e, addr)
}
