package home_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/julook/internal/catalog"
	"github.com/dshills/julook/internal/feature/featuretest"
	"github.com/dshills/julook/internal/feature/home"
	"github.com/dshills/julook/internal/store"
)

func items(n int) []catalog.Makgeolli {
	out := make([]catalog.Makgeolli, n)
	for i := range out {
		out[i] = catalog.Makgeolli{
			ID:        fmt.Sprintf("m%02d", i+1),
			Name:      fmt.Sprintf("막걸리 %d", i+1),
			ImagePath: fmt.Sprintf("m%02d.png", i+1),
		}
	}
	return out
}

func newStore(t *testing.T, remote *featuretest.Remote, notifier *featuretest.Notifier, pageSize int) *store.Store[home.State, home.Action] {
	t.Helper()
	s := store.New(home.State{}, home.Reducer(home.Dependencies{
		Remote:   remote,
		Notifier: notifier,
		PageSize: pageSize,
	}))
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func wait(t *testing.T, s *store.Store[home.State, home.Action]) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))
}

func TestAppearLoadsListAndOneImagePerItem(t *testing.T) {
	remote := featuretest.NewRemote(items(2)...)
	s := newStore(t, remote, nil, 20)

	s.Send(home.Appear{})
	assert.True(t, s.State().IsLoading)
	wait(t, s)

	st := s.State()
	assert.False(t, st.IsLoading)
	assert.Equal(t, items(2), st.Items)
	assert.False(t, st.HasMore)
	assert.Equal(t, 2, remote.Count("FetchImage"))
	assert.Len(t, st.Images, 2)
	assert.Equal(t, []byte("img:m01.png"), st.Images["m01"])
}

func TestAppearOnlyLoadsOnce(t *testing.T) {
	remote := featuretest.NewRemote(items(2)...)
	s := newStore(t, remote, nil, 20)

	s.Send(home.Appear{})
	wait(t, s)
	s.Send(home.Appear{})
	wait(t, s)

	assert.Equal(t, 1, remote.Count("ListMakgeollis"))
}

func TestPaginationMergesAndStops(t *testing.T) {
	remote := featuretest.NewRemote(items(5)...)
	s := newStore(t, remote, nil, 2)

	s.Send(home.Appear{})
	wait(t, s)
	require.True(t, s.State().HasMore)

	s.Send(home.LoadNextPage{})
	wait(t, s)
	s.Send(home.LoadNextPage{})
	wait(t, s)

	st := s.State()
	assert.Len(t, st.Items, 5)
	assert.False(t, st.HasMore)

	s.Send(home.LoadNextPage{})
	wait(t, s)
	assert.Equal(t, 3, remote.Count("ListMakgeollis"))
	assert.Equal(t, 5, remote.Count("FetchImage"))
}

func TestRefreshReplacesItems(t *testing.T) {
	remote := featuretest.NewRemote(items(3)...)
	s := newStore(t, remote, nil, 2)

	s.Send(home.Appear{})
	wait(t, s)
	s.Send(home.LoadNextPage{})
	wait(t, s)
	require.Len(t, s.State().Items, 3)

	s.Send(home.Refresh{})
	wait(t, s)
	assert.Len(t, s.State().Items, 2)
	// Images already on hand are not fetched again.
	assert.Equal(t, 3, remote.Count("FetchImage"))
}

func TestLoadFailureShowsToast(t *testing.T) {
	remote := featuretest.NewRemote()
	remote.Fail("ListMakgeollis", errors.New("offline"))
	notifier := featuretest.NewNotifier()
	s := newStore(t, remote, notifier, 20)

	s.Send(home.Appear{})
	wait(t, s)

	st := s.State()
	require.NotNil(t, st.Err)
	assert.Equal(t, catalog.KindRemote, st.Err.Kind)
	assert.False(t, st.IsLoading)
	assert.False(t, st.Loaded)

	toasts := notifier.Toasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, catalog.ToastError, toasts[0].Level)

	// The next appear retries.
	remote.Fail("ListMakgeollis", nil)
	s.Send(home.Appear{})
	wait(t, s)
	assert.Nil(t, s.State().Err)
	assert.True(t, s.State().Loaded)
}

func TestImageFailureKeepsPlaceholder(t *testing.T) {
	remote := featuretest.NewRemote(items(1)...)
	remote.Fail("FetchImage", errors.New("gone"))
	s := newStore(t, remote, nil, 20)

	s.Send(home.Appear{})
	wait(t, s)
	assert.Len(t, s.State().Items, 1)
	assert.Empty(t, s.State().Images)
}

func TestImageLoadedDoesNotMutateSnapshots(t *testing.T) {
	r := home.Reducer(home.Dependencies{Remote: featuretest.NewRemote()})
	before := home.State{Images: map[string][]byte{"a": []byte("1")}}
	after := before
	r.Reduce(&after, home.ImageLoaded{ID: "b", Data: []byte("2")})

	assert.Len(t, before.Images, 1)
	assert.Len(t, after.Images, 2)
}
