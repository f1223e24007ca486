package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/julook/internal/catalog"
	"github.com/dshills/julook/internal/feature/coordinator"
	"github.com/dshills/julook/internal/feature/featuretest"
	"github.com/dshills/julook/internal/store"
)

var items = []catalog.Makgeolli{
	{ID: "m1", Name: "복순도가", Brewery: "복순도가"},
	{ID: "m2", Name: "지평 생막걸리", Brewery: "지평주조"},
}

func newTestShell(t *testing.T, input string) (*shell, *store.Store[coordinator.State, coordinator.Action], *bytes.Buffer) {
	t.Helper()
	deps := coordinator.NewDependencies(coordinator.Collaborators{
		Remote:   featuretest.NewRemote(items...),
		Local:    featuretest.NewLocal(),
		Identity: featuretest.Identity{ID: "u1"},
		Notifier: featuretest.NewNotifier(),
	}, coordinator.Tuning{
		SearchDebounce: 10 * time.Millisecond,
		ReactionDelay:  10 * time.Millisecond,
		ToastDuration:  50 * time.Millisecond,
	})
	s := store.New(coordinator.State{}, coordinator.Reducer(deps))
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	var out bytes.Buffer
	sh := newShell(s, strings.NewReader(input), &out)
	sh.settle = 5 * time.Second
	return sh, s, &out
}

func started(t *testing.T, s *store.Store[coordinator.State, coordinator.Action]) {
	t.Helper()
	s.Send(coordinator.Appear{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))
}

func TestOpenByPosition(t *testing.T) {
	sh, s, out := newTestShell(t, "")
	started(t, s)

	require.NoError(t, sh.exec(context.Background(), "open 2"))

	top, ok := s.State().Path.Top()
	require.True(t, ok)
	require.NotNil(t, top.Screen.Information)
	assert.Equal(t, "m2", top.Screen.Information.ID)
	assert.Contains(t, out.String(), "home > information")
	assert.Contains(t, out.String(), "지평 생막걸리 (지평주조)")
}

func TestDetailCommands(t *testing.T) {
	sh, s, out := newTestShell(t, "")
	started(t, s)

	err := sh.exec(context.Background(), "fav")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open a makgeolli first")

	ctx := context.Background()
	require.NoError(t, sh.exec(ctx, "open m1"))
	require.NoError(t, sh.exec(ctx, "fav"))
	require.NoError(t, sh.exec(ctx, "like"))
	require.NoError(t, sh.exec(ctx, "comment 톡 쏘는  맛"))

	top, _ := s.State().Path.Top()
	info := top.Screen.Information
	assert.True(t, info.IsFavorite)
	assert.Equal(t, catalog.ReactionLike, info.Reaction)
	require.Len(t, info.Comments, 1)
	assert.Equal(t, "톡 쏘는 맛", info.Comments[0].Content)
	assert.Contains(t, out.String(), "favorite: yes")

	require.NoError(t, sh.exec(ctx, "close"))
	assert.Equal(t, 0, s.State().Path.Len())
}

func TestSearchThenOpenResult(t *testing.T) {
	sh, s, out := newTestShell(t, "")
	started(t, s)
	ctx := context.Background()

	require.NoError(t, sh.exec(ctx, "search 지평"))
	top, ok := s.State().Path.Top()
	require.True(t, ok)
	require.NotNil(t, top.Screen.Search)
	require.Len(t, top.Screen.Search.Results, 1)
	assert.Contains(t, out.String(), "home > search")

	require.NoError(t, sh.exec(ctx, "open 1"))
	path := s.State().Path
	require.Equal(t, 2, path.Len())
	top, _ = path.Top()
	require.NotNil(t, top.Screen.Information)
	assert.Equal(t, "m2", top.Screen.Information.ID)

	// A second search reuses the open cover.
	require.NoError(t, sh.exec(ctx, "search 복순"))
	assert.Equal(t, 2, s.State().Path.Len())

	require.NoError(t, sh.exec(ctx, "results"))
	require.Equal(t, 1, s.State().Path.Len())
	top, _ = s.State().Path.Top()
	assert.NotNil(t, top.Screen.Search)

	require.NoError(t, sh.exec(ctx, "root"))
	assert.Error(t, sh.exec(ctx, "results"))
}

func TestFilterCommands(t *testing.T) {
	sh, s, out := newTestShell(t, "")
	started(t, s)
	ctx := context.Background()

	require.NoError(t, sh.exec(ctx, "tab filter"))
	require.NoError(t, sh.exec(ctx, "taste sw 4"))
	assert.Contains(t, out.String(), "sweetness [4]")
	require.NoError(t, sh.exec(ctx, "reset"))
	require.NoError(t, sh.exec(ctx, "apply"))

	assert.Equal(t, coordinator.TabFilter, s.State().Tab)
	assert.Len(t, s.State().Filter.Items, 2)

	assert.Error(t, sh.exec(ctx, "taste s 4"))
	assert.Error(t, sh.exec(ctx, "price low high"))
}

func TestUnknownCommand(t *testing.T) {
	sh, _, _ := newTestShell(t, "")
	err := sh.exec(context.Background(), "brew")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
	assert.NoError(t, sh.exec(context.Background(), "   "))
}

func TestRunStopsOnQuit(t *testing.T) {
	sh, s, out := newTestShell(t, "help\nbogus\nquit\ntab my\n")
	started(t, s)

	require.NoError(t, sh.run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "comment <text>")
	assert.Contains(t, text, `error: unknown command "bogus"`)
	assert.Equal(t, coordinator.TabHome, s.State().Tab)
}

func TestParseAttribute(t *testing.T) {
	a, err := parseAttribute("Thick")
	require.NoError(t, err)
	assert.Equal(t, catalog.AttrThickness, a)

	_, err = parseAttribute("s")
	assert.Error(t, err)
	_, err = parseAttribute("")
	assert.Error(t, err)
}

func TestPadCountsColumns(t *testing.T) {
	assert.Equal(t, "복순  ", pad("복순", 6))
	assert.Equal(t, "abc", pad("abc", 2))
}
