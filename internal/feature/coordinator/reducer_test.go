package coordinator_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/julook/internal/catalog"
	"github.com/dshills/julook/internal/feature/coordinator"
	"github.com/dshills/julook/internal/feature/featuretest"
	"github.com/dshills/julook/internal/feature/home"
	"github.com/dshills/julook/internal/feature/information"
	"github.com/dshills/julook/internal/feature/mymakgeolli"
	"github.com/dshills/julook/internal/feature/search"
	"github.com/dshills/julook/internal/nav"
	"github.com/dshills/julook/internal/store"
)

var items = []catalog.Makgeolli{
	{ID: "m1", Name: "지평 막걸리"},
	{ID: "m2", Name: "복순도가"},
}

type fixture struct {
	remote   *featuretest.Remote
	local    *featuretest.Local
	notifier *featuretest.Notifier
	store    *store.Store[coordinator.State, coordinator.Action]
}

func newFixture(t *testing.T, remote catalog.Remote, toast time.Duration) *fixture {
	t.Helper()
	return newTunedFixture(t, remote, coordinator.Tuning{
		SearchDebounce: 10 * time.Millisecond,
		ReactionDelay:  10 * time.Millisecond,
		ToastDuration:  toast,
	})
}

func newTunedFixture(t *testing.T, remote catalog.Remote, tuning coordinator.Tuning) *fixture {
	t.Helper()
	f := &fixture{
		remote:   featuretest.NewRemote(items...),
		local:    featuretest.NewLocal(),
		notifier: featuretest.NewNotifier(),
	}
	if remote == nil {
		remote = f.remote
	}
	deps := coordinator.NewDependencies(coordinator.Collaborators{
		Remote:   remote,
		Local:    f.local,
		Identity: featuretest.Identity{ID: "u1"},
		Notifier: f.notifier,
	}, tuning)
	f.store = store.New(coordinator.State{}, coordinator.Reducer(deps))
	t.Cleanup(func() { _ = f.store.Close(context.Background()) })
	return f
}

func (f *fixture) wait(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.store.Wait(ctx))
}

func (f *fixture) top(t *testing.T) nav.Entry[coordinator.Screen] {
	t.Helper()
	e, ok := f.store.State().Path.Top()
	require.True(t, ok, "navigation stack is empty")
	return e
}

func path(id nav.EntryID, a coordinator.ScreenAction) coordinator.PathAction {
	return coordinator.PathAction{Element: nav.ElementAction[coordinator.ScreenAction]{ID: id, Action: a}}
}

func TestItemTappedPushesLoadedDetail(t *testing.T) {
	f := newFixture(t, nil, time.Second)

	f.store.Send(coordinator.HomeAction{Action: home.ItemTapped{ID: "m2"}})
	f.wait(t)

	require.Equal(t, 1, f.store.State().Path.Len())
	top := f.top(t)
	assert.Equal(t, nav.StylePush, top.Style)
	require.NotNil(t, top.Screen.Information)
	assert.Equal(t, "m2", top.Screen.Information.ID)
	assert.True(t, top.Screen.Information.Loaded)
	assert.Equal(t, "복순도가", top.Screen.Information.Item.Name)
}

func TestSearchCoverFlow(t *testing.T) {
	f := newFixture(t, nil, time.Second)

	f.store.Send(coordinator.SearchTapped{})
	f.store.Send(coordinator.SearchTapped{})
	f.wait(t)
	require.Equal(t, 1, f.store.State().Path.Len())
	cover := f.top(t)
	assert.Equal(t, nav.StyleCover, cover.Style)
	require.NotNil(t, cover.Screen.Search)
	assert.True(t, cover.Screen.Search.RecentLoaded)

	f.store.Send(path(cover.ID, coordinator.ScreenAction{Search: search.QueryChanged{Query: "복순"}}))
	f.wait(t)
	require.Len(t, f.top(t).Screen.Search.Results, 1)

	f.store.Send(path(cover.ID, coordinator.ScreenAction{Search: search.ResultTapped{ID: "m2"}}))
	f.wait(t)
	require.Equal(t, 2, f.store.State().Path.Len())
	detail := f.top(t)
	require.NotNil(t, detail.Screen.Information)

	// Closing the detail returns to the cover; closing the cover empties
	// the stack.
	f.store.Send(path(detail.ID, coordinator.ScreenAction{Information: information.CloseTapped{}}))
	f.wait(t)
	require.Equal(t, 1, f.store.State().Path.Len())
	assert.Equal(t, cover.ID, f.top(t).ID)

	f.store.Send(path(cover.ID, coordinator.ScreenAction{Search: search.CloseTapped{}}))
	f.wait(t)
	assert.Equal(t, 0, f.store.State().Path.Len())
}

func TestActionForRemovedEntryIsDropped(t *testing.T) {
	f := newFixture(t, nil, time.Second)
	f.store.Send(coordinator.OpenItem{ID: "m1"})
	f.wait(t)
	id := f.top(t).ID
	f.store.Send(coordinator.BackTapped{})

	f.store.Send(path(id, coordinator.ScreenAction{Information: information.ToggleFavorite{}}))
	f.wait(t)

	assert.Equal(t, 0, f.store.State().Path.Len())
	assert.Equal(t, 0, f.local.Count("SetFavorite"))
}

// blockingRemote never answers detail requests until they are cancelled.
type blockingRemote struct {
	*featuretest.Remote
	cancelled atomic.Int32
}

func (r *blockingRemote) GetMakgeolli(ctx context.Context, _ string) (catalog.Makgeolli, error) {
	<-ctx.Done()
	r.cancelled.Add(1)
	return catalog.Makgeolli{}, ctx.Err()
}

func TestPopCancelsRouteEffects(t *testing.T) {
	remote := &blockingRemote{Remote: featuretest.NewRemote(items...)}
	f := newFixture(t, remote, time.Second)

	f.store.Send(coordinator.OpenItem{ID: "m1"})
	require.Eventually(t, func() bool { return f.notifier.Listeners() == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, f.top(t).Screen.Information.IsLoading)

	f.store.Send(coordinator.BackTapped{})
	// Wait returns only because the blocked load was cancelled.
	f.wait(t)

	assert.Equal(t, 0, f.store.State().Path.Len())
	assert.Equal(t, int32(1), remote.cancelled.Load())
	require.Eventually(t, func() bool { return f.notifier.Listeners() == 0 }, time.Second, 5*time.Millisecond)
}

func TestReactionSurvivesBack(t *testing.T) {
	f := newTunedFixture(t, nil, coordinator.Tuning{ReactionDelay: 200 * time.Millisecond})
	f.store.Send(coordinator.OpenItem{ID: "m1"})
	f.wait(t)
	id := f.top(t).ID

	f.store.Send(path(id, coordinator.ScreenAction{Information: information.React{Reaction: catalog.ReactionLike}}))
	f.store.Send(coordinator.BackTapped{})
	require.Equal(t, 0, f.store.State().Path.Len())
	f.wait(t)

	assert.Equal(t, 1, f.remote.Count("UpsertReaction"))
	assert.Equal(t, catalog.ReactionLike, f.remote.Reaction("u1", "m1"))
	cached, err := f.local.CachedReaction(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, catalog.ReactionLike, cached)
}

func TestReactionSurvivesClose(t *testing.T) {
	f := newTunedFixture(t, nil, coordinator.Tuning{ReactionDelay: 200 * time.Millisecond})
	f.store.Send(coordinator.OpenItem{ID: "m1"})
	f.wait(t)
	id := f.top(t).ID

	f.store.Send(path(id, coordinator.ScreenAction{Information: information.React{Reaction: catalog.ReactionDislike}}))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.store.Close(ctx))

	assert.Equal(t, catalog.ReactionDislike, f.remote.Reaction("u1", "m1"))
}

// gatedRemote holds comment inserts until released.
type gatedRemote struct {
	*featuretest.Remote
	release chan struct{}
}

func (r *gatedRemote) CreateComment(ctx context.Context, c catalog.Comment) (catalog.Comment, error) {
	select {
	case <-ctx.Done():
		return catalog.Comment{}, ctx.Err()
	case <-r.release:
	}
	return r.Remote.CreateComment(ctx, c)
}

func TestWritesSurviveBack(t *testing.T) {
	remote := &gatedRemote{Remote: featuretest.NewRemote(items...), release: make(chan struct{})}
	f := newFixture(t, remote, time.Second)
	f.store.Send(coordinator.OpenItem{ID: "m1"})
	f.wait(t)
	id := f.top(t).ID

	send := func(a information.Action) {
		f.store.Send(path(id, coordinator.ScreenAction{Information: a}))
	}
	send(information.ToggleFavorite{})
	send(information.DraftChanged{Text: "맛있어요"})
	send(information.SubmitComment{})
	f.store.Send(coordinator.BackTapped{})
	require.Equal(t, 0, f.store.State().Path.Len())

	close(remote.release)
	f.wait(t)

	assert.Equal(t, 1, remote.Count("CreateComment"))
	fav, err := f.local.IsFavorite(context.Background(), "m1")
	require.NoError(t, err)
	assert.True(t, fav)
}

func TestBackToSearch(t *testing.T) {
	f := newFixture(t, nil, time.Second)
	f.store.Send(coordinator.SearchTapped{})
	f.wait(t)
	cover := f.top(t).ID
	f.store.Send(coordinator.OpenItem{ID: "m1"})
	f.store.Send(coordinator.OpenItem{ID: "m2"})
	f.wait(t)
	require.Equal(t, 3, f.store.State().Path.Len())

	f.store.Send(coordinator.BackToSearch{})
	require.Equal(t, 1, f.store.State().Path.Len())
	assert.Equal(t, cover, f.top(t).ID)

	f.store.Send(coordinator.PopToRoot{})
	f.store.Send(coordinator.OpenItem{ID: "m1"})
	f.store.Send(coordinator.BackToSearch{})
	assert.Equal(t, 1, f.store.State().Path.Len(), "no search cover leaves the stack alone")
}

func TestPopToRoot(t *testing.T) {
	f := newFixture(t, nil, time.Second)
	f.store.Send(coordinator.OpenItem{ID: "m1"})
	f.store.Send(coordinator.OpenItem{ID: "m2"})
	f.wait(t)
	require.Equal(t, 2, f.store.State().Path.Len())

	f.store.Send(coordinator.PopToRoot{})
	assert.Equal(t, 0, f.store.State().Path.Len())
}

func TestToastIsShownAndDismissed(t *testing.T) {
	failing := featuretest.NewRemote()
	failing.Fail("ListMakgeollis", errors.New("offline"))
	f := newFixture(t, failing, 50*time.Millisecond)

	var shown atomic.Bool
	unsubscribe := f.store.Subscribe(func(s coordinator.State) {
		if s.Toast != nil && s.Toast.Level == catalog.ToastError {
			shown.Store(true)
		}
	})
	defer unsubscribe()

	f.store.Send(coordinator.Appear{})
	require.Eventually(t, func() bool { return f.notifier.Listeners() == 1 }, time.Second, 5*time.Millisecond)
	f.wait(t)

	f.store.Send(coordinator.HomeAction{Action: home.Refresh{}})
	f.wait(t)

	require.NotNil(t, f.store.State().Home.Err)
	require.Eventually(t, shown.Load, time.Second, 5*time.Millisecond)
	// Wait covers the auto-dismiss timer.
	assert.Nil(t, f.store.State().Toast)
}

func TestAppearStartsOnce(t *testing.T) {
	f := newFixture(t, nil, time.Second)

	f.store.Send(coordinator.Appear{})
	f.store.Send(coordinator.Appear{})
	f.wait(t)

	assert.True(t, f.store.State().Home.Loaded)
	assert.Equal(t, 1, f.remote.Count("ListMakgeollis"))
	require.Eventually(t, func() bool { return f.notifier.Listeners() == 1 }, time.Second, 5*time.Millisecond)
}

func TestTabSelectionLoadsTab(t *testing.T) {
	f := newFixture(t, nil, time.Second)
	require.NoError(t, f.local.SetFavorite(context.Background(), "m1", true))

	f.store.Send(coordinator.TabSelected{Tab: coordinator.TabMy})
	f.wait(t)

	st := f.store.State()
	assert.Equal(t, coordinator.TabMy, st.Tab)
	require.Len(t, st.My.Items, 1)

	f.store.Send(coordinator.MyAction{Action: mymakgeolli.ItemTapped{ID: "m1"}})
	f.wait(t)
	assert.Equal(t, "m1", f.top(t).Screen.Information.ID)
}

func TestParseTab(t *testing.T) {
	for _, tab := range []coordinator.Tab{coordinator.TabHome, coordinator.TabFilter, coordinator.TabMy, coordinator.TabSettings} {
		got, ok := coordinator.ParseTab(tab.String())
		assert.True(t, ok)
		assert.Equal(t, tab, got)
	}
	_, ok := coordinator.ParseTab("nope")
	assert.False(t, ok)
}

func TestPathActionName(t *testing.T) {
	a := path(3, coordinator.ScreenAction{Search: search.Submit{}})
	assert.Equal(t, "path[3].search.Submit", store.ActionName(a))
	assert.Equal(t, "home.Appear", store.ActionName(coordinator.HomeAction{Action: home.Appear{}}))
}
