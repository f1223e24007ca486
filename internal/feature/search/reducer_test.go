package search_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/julook/internal/catalog"
	"github.com/dshills/julook/internal/feature/featuretest"
	"github.com/dshills/julook/internal/feature/search"
	"github.com/dshills/julook/internal/store"
)

var items = []catalog.Makgeolli{
	{ID: "m1", Name: "지평 막걸리"},
	{ID: "m2", Name: "느린마을 막걸리"},
	{ID: "m3", Name: "복순도가", Brewery: "복순도가"},
}

type fixture struct {
	remote *featuretest.Remote
	local  *featuretest.Local
	store  *store.Store[search.State, search.Action]
}

func newFixture(t *testing.T, local *featuretest.Local) *fixture {
	t.Helper()
	if local == nil {
		local = featuretest.NewLocal()
	}
	f := &fixture{remote: featuretest.NewRemote(items...), local: local}
	f.store = store.New(search.State{}, search.Reducer(search.Dependencies{
		Remote:   f.remote,
		Local:    f.local,
		Debounce: 30 * time.Millisecond,
	}))
	t.Cleanup(func() { _ = f.store.Close(context.Background()) })
	return f
}

func (f *fixture) wait(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.store.Wait(ctx))
}

func TestTypingIsDebounced(t *testing.T) {
	f := newFixture(t, nil)

	f.store.Send(search.QueryChanged{Query: "막"})
	f.store.Send(search.QueryChanged{Query: "막걸"})
	f.store.Send(search.QueryChanged{Query: "막걸리"})
	assert.True(t, f.store.State().IsSearching)
	f.wait(t)

	assert.Equal(t, []string{"막걸리"}, f.remote.Queries())
	st := f.store.State()
	assert.False(t, st.IsSearching)
	assert.Len(t, st.Results, 2)
}

func TestQueryIsNormalized(t *testing.T) {
	f := newFixture(t, nil)

	// "복순" typed as conjoining jamo.
	f.store.Send(search.QueryChanged{Query: "  \u1107\u1169\u11a8\u1109\u116e\u11ab  "})
	f.wait(t)

	assert.Equal(t, []string{"복순"}, f.remote.Queries())
	require.Len(t, f.store.State().Results, 1)
	assert.Equal(t, "m3", f.store.State().Results[0].ID)
}

func TestClearingQueryCancelsPendingSearch(t *testing.T) {
	f := newFixture(t, nil)

	f.store.Send(search.QueryChanged{Query: "막걸리"})
	f.store.Send(search.QueryChanged{Query: "   "})
	f.wait(t)

	assert.Empty(t, f.remote.Queries())
	st := f.store.State()
	assert.False(t, st.IsSearching)
	assert.Empty(t, st.Results)
}

func TestStaleResultsAreIgnored(t *testing.T) {
	r := search.Reducer(search.Dependencies{Remote: featuretest.NewRemote()})
	st := search.State{Query: "복순", IsSearching: true}

	r.Reduce(&st, search.Results{Query: "막걸리", Items: items[:2]})
	assert.Empty(t, st.Results)
	assert.True(t, st.IsSearching)

	r.Reduce(&st, search.Results{Query: "복순", Items: items[2:]})
	assert.Len(t, st.Results, 1)
	assert.False(t, st.IsSearching)
}

func TestSubmitRecordsRecentQueries(t *testing.T) {
	f := newFixture(t, nil)

	for _, q := range []string{"지평", "복순", "지평"} {
		f.store.Send(search.QueryChanged{Query: q})
		f.store.Send(search.Submit{})
		f.wait(t)
	}
	assert.Equal(t, []string{"지평", "복순"}, f.store.State().Recent)

	// A fresh screen reads them back.
	g := newFixture(t, f.local)
	g.store.Send(search.Appear{})
	g.wait(t)
	assert.True(t, g.store.State().RecentLoaded)
	assert.Equal(t, []string{"지평", "복순"}, g.store.State().Recent)
}

func TestRecentQueriesAreCapped(t *testing.T) {
	r := search.Reducer(search.Dependencies{Remote: featuretest.NewRemote()})
	var st search.State
	for i := range catalog.RecentMax + 2 {
		r.Reduce(&st, search.RecentTapped{Query: fmt.Sprintf("q%d", i)})
	}
	require.Len(t, st.Recent, catalog.RecentMax)
	assert.Equal(t, fmt.Sprintf("q%d", catalog.RecentMax+1), st.Recent[0])
	assert.Equal(t, "q2", st.Recent[catalog.RecentMax-1])
}

func TestClearRecent(t *testing.T) {
	f := newFixture(t, nil)
	f.store.Send(search.RecentTapped{Query: "지평"})
	f.wait(t)
	_, ok, err := f.local.Get(context.Background(), search.RecentKey)
	require.NoError(t, err)
	require.True(t, ok)

	f.store.Send(search.ClearRecent{})
	f.wait(t)

	assert.Empty(t, f.store.State().Recent)
	_, ok, err = f.local.Get(context.Background(), search.RecentKey)
	require.NoError(t, err)
	assert.False(t, ok)
}
