package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := writeFile(t, t.TempDir(), "julook.toml", tomlConfig)

	reloaded := make(chan Config, 4)
	w, err := NewWatcher(Options{Path: path, SkipEnv: true}, func(c Config) { reloaded <- c }, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	updated := strings.Replace(tomlConfig, `level = "debug"`, `level = "error"`, 1)
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o600))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "error", cfg.Logging.Level)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}
}

func TestWatcherKeepsConfigOnBadReload(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "julook.toml", tomlConfig)

	reloaded := make(chan Config, 4)
	w, err := NewWatcher(Options{Path: path, SkipEnv: true}, func(c Config) { reloaded <- c }, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("[paging]\npage_size = 0\n"), 0o600))
	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x"), 0o600))

	select {
	case cfg := <-reloaded:
		t.Fatalf("unexpected reload: %+v", cfg)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherCloseTwice(t *testing.T) {
	path := writeFile(t, t.TempDir(), "julook.toml", tomlConfig)
	w, err := NewWatcher(Options{Path: path, SkipEnv: true}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Close(), ErrWatcherClosed)
}
