// Package assets mirrors static files into the build output.
package assets

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/freezer/internal/foundation/errors"
	"git.home.luguber.info/inful/freezer/internal/logfields"
	"git.home.luguber.info/inful/freezer/internal/output"
)

// Entry is one asset source to copy.
type Entry struct {
	Src string `yaml:"src"`
	// Dest is relative to the output root; defaults to the base name of Src.
	Dest           string   `yaml:"dest,omitempty"`
	FailIfMissing  bool     `yaml:"fail_if_missing,omitempty"`
	IgnoreDotFiles bool     `yaml:"ignore_dot_files,omitempty"`
	ExcludeGlobs   []string `yaml:"exclude,omitempty"`
}

// Destination returns the output-relative destination of e.
func (e Entry) Destination() string {
	if e.Dest != "" {
		return e.Dest
	}
	return filepath.Base(filepath.Clean(e.Src))
}

// Validate checks the exclusion patterns.
func (e Entry) Validate() error {
	if strings.TrimSpace(e.Src) == "" {
		return ferrors.ValidationError("asset entry has no source").Build()
	}
	for _, g := range e.ExcludeGlobs {
		if _, err := path.Match(g, ""); err != nil {
			return ferrors.ValidationError("invalid asset exclude pattern").
				WithCause(err).
				WithContext("pattern", g).
				Build()
		}
	}
	return nil
}

// excluded reports whether the slash-separated path rel (relative to the
// entry source) matches one of the exclusion globs, either as a whole or by
// base name.
func (e Entry) excluded(rel string) bool {
	base := path.Base(rel)
	for _, g := range e.ExcludeGlobs {
		if ok, _ := path.Match(g, rel); ok {
			return true
		}
		if ok, _ := path.Match(g, base); ok {
			return true
		}
	}
	return false
}

// Result summarizes a Copy run.
type Result struct {
	Files    int
	Missing  []string
	Warnings []error
}

// Copy copies entries, in order, below the sink's root. A missing source is
// fatal when the entry sets FailIfMissing and a warning otherwise.
func Copy(ctx context.Context, entries []Entry, sink *output.FileSink) (Result, error) {
	var res Result
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return res, err
		}
		dest := sink.Abs(e.Destination())

		info, err := os.Stat(e.Src)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			missing := ferrors.AssetError("asset source does not exist").
				WithContext("src", e.Src)
			if e.FailIfMissing {
				return res, missing.Fatal().Build()
			}
			slog.Warn("Asset source missing, skipping", logfields.Path(e.Src))
			res.Missing = append(res.Missing, e.Src)
			res.Warnings = append(res.Warnings, missing.Warning().Build())
			continue
		case err != nil:
			return res, copyError(err, e.Src)
		}

		if !info.IsDir() {
			if err := copyFile(e.Src, dest); err != nil {
				return res, copyError(err, e.Src)
			}
			res.Files++
			continue
		}

		n, err := copyTree(ctx, e, dest)
		res.Files += n
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

func copyTree(ctx context.Context, e Entry, dest string) (int, error) {
	files := 0
	err := filepath.WalkDir(e.Src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return copyError(err, p)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(e.Src, p)
		if err != nil {
			return copyError(err, p)
		}
		if rel == "." {
			if err := os.MkdirAll(dest, 0o750); err != nil {
				return copyError(err, dest)
			}
			return nil
		}
		slashRel := filepath.ToSlash(rel)

		if (e.IgnoreDotFiles && strings.HasPrefix(d.Name(), ".")) || e.excluded(slashRel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		target := filepath.Join(dest, rel)
		if d.IsDir() {
			if err := os.MkdirAll(target, 0o750); err != nil {
				return copyError(err, target)
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			// Only symlinked files are followed.
			if info, err := os.Stat(p); err != nil || info.IsDir() {
				slog.Debug("Skipping symlink", logfields.Path(p))
				return nil
			}
		}
		if err := copyFile(p, target); err != nil {
			return copyError(err, p)
		}
		files++
		return nil
	})
	return files, err
}

// copyFile copies a single file from src to dst, creating dst's parent and
// preserving permissions.
func copyFile(src, dst string) error {
	srcFile, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}
	defer func() {
		_ = srcFile.Close()
	}()

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}
	dstFile, err := os.Create(filepath.Clean(dst))
	if err != nil {
		return err
	}
	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return err
	}
	if err := dstFile.Close(); err != nil {
		return err
	}

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return err
	}
	return os.Chmod(dst, srcInfo.Mode().Perm())
}

func copyError(err error, p string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return ferrors.WrapError(err, ferrors.CategoryAsset, "failed to copy asset").
		Fatal().
		WithContext("path", p).
		Build()
}
