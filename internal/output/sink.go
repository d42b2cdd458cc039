package output

import (
	"os"
	"path"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/freezer/internal/foundation/errors"
)

// File is one rendered output.
type File struct {
	RelativeDir string
	Filename    string
	Bytes       []byte
}

// Path returns the slash-separated path of f relative to the output root.
func (f File) Path() string {
	return path.Join(path.Clean("/"+f.RelativeDir), f.Filename)
}

// FileSink writes build output below a root directory.
type FileSink struct {
	root string
}

// NewFileSink returns a sink rooted at dir.
func NewFileSink(dir string) *FileSink {
	return &FileSink{root: dir}
}

// Root returns the sink's root directory.
func (s *FileSink) Root() string { return s.root }

// Abs maps a slash-separated path relative to the root onto the filesystem.
// The path is cleaned as if rooted, so ".." can never escape the root.
func (s *FileSink) Abs(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(path.Clean("/"+rel)))
}

// Write creates or overwrites f, creating missing parent directories.
func (s *FileSink) Write(f File) error {
	target := s.Abs(f.Path())
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return writeError(err, target)
	}
	if err := os.WriteFile(target, f.Bytes, 0o644); err != nil { // #nosec G306 -- site output is world-readable
		return writeError(err, target)
	}
	return nil
}

// MkdirAll creates rel and any missing parents.
func (s *FileSink) MkdirAll(rel string) error {
	target := s.Abs(rel)
	if err := os.MkdirAll(target, 0o750); err != nil {
		return writeError(err, target)
	}
	return nil
}

// Exists reports whether rel exists below the root.
func (s *FileSink) Exists(rel string) bool {
	_, err := os.Stat(s.Abs(rel))
	return err == nil
}

// Clear removes the root directory if present and recreates it empty.
// It refuses to clear the filesystem root or the working directory.
func (s *FileSink) Clear() error {
	if s.root == "" {
		return ferrors.ValidationError("output directory is empty").Build()
	}
	abs, err := filepath.Abs(s.root)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to resolve output directory").
			Fatal().WithContext("path", s.root).Build()
	}
	if filepath.Dir(abs) == abs {
		return ferrors.ValidationError("refusing to clear filesystem root").WithContext("path", abs).Build()
	}
	if wd, err := os.Getwd(); err == nil && filepath.Clean(wd) == abs {
		return ferrors.ValidationError("refusing to clear the working directory").WithContext("path", abs).Build()
	}

	if err := os.RemoveAll(abs); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to clear output directory").
			Fatal().WithContext("path", abs).Build()
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return writeError(err, abs)
	}
	return nil
}

func writeError(err error, target string) error {
	return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write output").
		Fatal().
		WithContext("path", target).
		Build()
}
