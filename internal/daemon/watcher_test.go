package daemon

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, paths []string, setup func(*Watcher)) *atomic.Int32 {
	t.Helper()
	var calls atomic.Int32
	w, err := NewWatcher(paths, 30*time.Millisecond, func() { calls.Add(1) })
	require.NoError(t, err)
	if setup != nil {
		setup(w)
	}
	require.NoError(t, w.Start(t.Context()))
	t.Cleanup(func() { _ = w.Stop() })
	return &calls
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	calls := startWatcher(t, []string{dir}, nil)

	for i := range 5 {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "page.html"), []byte{byte('a' + i)}, 0o600))
	}
	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, int32(1), calls.Load())
}

func TestWatcher_WatchesNewSubdirectories(t *testing.T) {
	dir := t.TempDir()
	calls := startWatcher(t, []string{dir}, nil)

	sub := filepath.Join(dir, "templates")
	require.NoError(t, os.Mkdir(sub, 0o750))
	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(sub, "base.html"), []byte("x"), 0o600))
	require.Eventually(t, func() bool { return calls.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_IgnoresOutputAndEditorFiles(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "build")
	require.NoError(t, os.Mkdir(out, 0o750))
	textfile := filepath.Join(dir, "freezer.prom")

	calls := startWatcher(t, []string{dir}, func(w *Watcher) {
		w.IgnoreDir(out)
		w.IgnoreFile(textfile)
	})

	require.NoError(t, os.WriteFile(filepath.Join(out, "index.html"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(textfile+".tmp123", []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page.html.swp"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page.html~"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0o600))
	time.Sleep(150 * time.Millisecond)
	require.Zero(t, calls.Load())
}

func TestWatcher_SingleFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "freezer.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("version: \"1\"\n"), 0o600))
	calls := startWatcher(t, []string{cfgFile}, nil)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o600))
	time.Sleep(100 * time.Millisecond)
	require.Zero(t, calls.Load())

	require.NoError(t, os.WriteFile(cfgFile, []byte("version: \"1\"\n# edited\n"), 0o600))
	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_MissingPath(t *testing.T) {
	w, err := NewWatcher([]string{filepath.Join(t.TempDir(), "missing")}, time.Millisecond, func() {})
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()
	require.Error(t, w.Start(t.Context()))
}

func TestEditorNoise(t *testing.T) {
	for _, name := range []string{"a.swp", "a.swx", "a~", ".#a", "#a#", ".DS_Store", "Thumbs.db"} {
		require.True(t, editorNoise(filepath.Join("/src", name)), name)
	}
	require.False(t, editorNoise("/src/index.html"))
}
