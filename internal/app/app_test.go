package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/julook/internal/catalog"
	"github.com/dshills/julook/internal/config"
	"github.com/dshills/julook/internal/feature/coordinator"
	"github.com/dshills/julook/internal/feature/featuretest"
	"github.com/dshills/julook/internal/feature/information"
	"github.com/dshills/julook/internal/local/sqlite"
	"github.com/dshills/julook/internal/nav"
)

func writeConfig(t *testing.T, dir, url string) string {
	t.Helper()
	path := filepath.Join(dir, "julook.toml")
	require.NoError(t, os.WriteFile(path, []byte(configFor(url)), 0o600))
	return path
}

func configFor(url string) string {
	return "[supabase]\nurl = \"" + url + "\"\nanon_key = \"anon\"\n\n[logging]\nlevel = \"error\"\n\n[effects]\ntimeout = \"5s\"\n"
}

func newTestApp(t *testing.T, opts Options) *Application {
	t.Helper()
	app, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = app.Shutdown(ctx)
	})
	return app
}

func waitIdle(t *testing.T, app *Application) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, app.Wait(ctx))
}

func TestStartLoadsHomeAndOpensDetail(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "julook.db")
	remote := featuretest.NewRemote(
		catalog.Makgeolli{ID: "m1", Name: "복순도가"},
		catalog.Makgeolli{ID: "m2", Name: "지평"},
	)
	app := newTestApp(t, Options{
		ConfigPath:  writeConfig(t, dir, "https://example.supabase.co"),
		SkipEnv:     true,
		StoragePath: dbPath,
		Remote:      remote,
	})

	require.NoError(t, app.Start())
	assert.ErrorIs(t, app.Start(), ErrAlreadyRunning)
	assert.True(t, app.IsRunning())
	waitIdle(t, app)

	st := app.State()
	assert.True(t, st.Started)
	assert.True(t, st.Home.Loaded)
	assert.Len(t, st.Home.Items, 2)

	app.Send(coordinator.OpenItem{ID: "m1"})
	waitIdle(t, app)

	top, ok := app.State().Path.Top()
	require.True(t, ok)
	require.NotNil(t, top.Screen.Information)
	require.NotNil(t, top.Screen.Information.Item)
	assert.Equal(t, "복순도가", top.Screen.Information.Item.Name)
	// The device identity was created in the local database.
	assert.NotEmpty(t, top.Screen.Information.UserID)

	app.Send(coordinator.PathAction{Element: nav.ElementAction[coordinator.ScreenAction]{
		ID:     top.ID,
		Action: coordinator.ScreenAction{Information: information.ToggleFavorite{}},
	}})
	waitIdle(t, app)

	require.NoError(t, app.Shutdown(context.Background()))
	assert.False(t, app.IsRunning())
	assert.ErrorIs(t, app.Start(), ErrClosed)

	local, err := sqlite.Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer local.Close()
	fav, err := local.IsFavorite(context.Background(), "m1")
	require.NoError(t, err)
	assert.True(t, fav)
}

func TestSupabaseBackendIsWired(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"m1","name":"복순도가"}]`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	app := newTestApp(t, Options{
		ConfigPath:  writeConfig(t, dir, srv.URL),
		SkipEnv:     true,
		StoragePath: filepath.Join(dir, "julook.db"),
	})

	require.NoError(t, app.Start())
	waitIdle(t, app)

	st := app.State()
	require.Len(t, st.Home.Items, 1)
	assert.Equal(t, "m1", st.Home.Items[0].ID)
	assert.Positive(t, requests.Load())

	families, err := app.Metrics().Registry.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["julook_remote_requests_total"])
	assert.True(t, names["julook_store_actions_total"])
	assert.True(t, names["julook_effects_started_total"])
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(Options{
		SkipEnv:     true,
		StoragePath: filepath.Join(t.TempDir(), "julook.db"),
	})
	require.Error(t, err)

	var ie *InitError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "config", ie.Component)
}

func TestNewReportsFailingComponent(t *testing.T) {
	dir := t.TempDir()
	_, err := New(Options{
		ConfigPath:  writeConfig(t, dir, "https://example.supabase.co"),
		SkipEnv:     true,
		StoragePath: filepath.Join(dir, "missing", "nested", "julook.db"),
		Remote:      featuretest.NewRemote(),
	})
	require.Error(t, err)

	var ie *InitError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "sqlite", ie.Component)
}

func TestRunStopsWhenContextEnds(t *testing.T) {
	dir := t.TempDir()
	app := newTestApp(t, Options{
		ConfigPath:  writeConfig(t, dir, "https://example.supabase.co"),
		SkipEnv:     true,
		StoragePath: filepath.Join(dir, "julook.db"),
		Remote:      featuretest.NewRemote(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() { result <- app.Run(ctx) }()

	require.Eventually(t, app.IsRunning, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-result:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
	select {
	case <-app.Done():
	default:
		t.Fatal("Done should be closed after Run returns")
	}
}

func TestOverridesWinOverFile(t *testing.T) {
	cfg := config.Default()
	applyOverrides(&cfg, Options{Debug: true, StoragePath: "other.db"})
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "other.db", cfg.Storage.Path)

	cfg = config.Default()
	applyOverrides(&cfg, Options{Debug: true, LogLevel: "warn"})
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestWatcherAppliesReloadedLevel(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "https://example.supabase.co")
	app := newTestApp(t, Options{
		ConfigPath:  path,
		SkipEnv:     true,
		Watch:       true,
		StoragePath: filepath.Join(dir, "julook.db"),
		Remote:      featuretest.NewRemote(),
	})
	require.Equal(t, "error", app.Config().Logging.Level)

	updated := "[supabase]\nurl = \"https://example.supabase.co\"\nanon_key = \"anon\"\n\n[logging]\nlevel = \"debug\"\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o600))

	require.Eventually(t, func() bool {
		return app.Config().Logging.Level == "debug"
	}, 5*time.Second, 20*time.Millisecond)
}
