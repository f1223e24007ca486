package supabase

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/dshills/julook/internal/catalog"
)

func newTestCatalog(t *testing.T, h http.HandlerFunc) *Catalog {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	retry := DefaultRetryConfig()
	retry.InitialBackoff = time.Millisecond
	retry.MaxBackoff = 5 * time.Millisecond
	client, err := New(Config{URL: srv.URL, AnonKey: "anon", Retry: retry})
	require.NoError(t, err)
	return NewCatalog(client)
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{AnonKey: "anon"})
	assert.Error(t, err)
	_, err = New(Config{URL: "http://localhost"})
	assert.Error(t, err)
}

func TestListMakgeollisBuildsQuery(t *testing.T) {
	yes := true
	cat := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/makgeolli", r.URL.Path)
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon", r.Header.Get("Authorization"))

		q := r.URL.Query()
		assert.Equal(t, "in.(1,3)", q.Get("sweetness"))
		assert.Equal(t, "eq.true", q.Get("carbonated"))
		assert.Equal(t, "lte.10000", q.Get("price"))
		assert.Equal(t, "name.asc,id.asc", q.Get("order"))
		assert.Equal(t, "20", q.Get("limit"))
		assert.Equal(t, "40", q.Get("offset"))
		_, _ = io.WriteString(w, `[{"id":"m1","name":"해창","sweetness":3,"carbonated":true}]`)
	})

	filter := catalog.TasteFilter{}.Toggle(catalog.AttrSweetness, 3).Toggle(catalog.AttrSweetness, 1)
	filter.Carbonated = &yes
	filter.MaxPrice = 10000

	got, err := cat.ListMakgeollis(context.Background(), filter, 20, 40)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "해창", got[0].Name)
}

func TestGetMakgeolliNotFound(t *testing.T) {
	cat := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/vnd.pgrst.object+json", r.Header.Get("Accept"))
		w.WriteHeader(http.StatusNotAcceptable)
		_, _ = io.WriteString(w, `{"code":"PGRST116","message":"JSON object requested, multiple (or no) rows returned"}`)
	})

	_, err := cat.GetMakgeolli(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrNotFound))

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "PGRST116", apiErr.Code)
}

func TestGetMakgeollisKeepsRequestedOrder(t *testing.T) {
	cat := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "in.(b,a,c)", r.URL.Query().Get("id"))
		_, _ = io.WriteString(w, `[{"id":"a"},{"id":"b"}]`)
	})

	got, err := cat.GetMakgeollis(context.Background(), []string{"b", "a", "c"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
}

func TestSearchSanitizesTerm(t *testing.T) {
	cat := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "(name.ilike.*복순*,brewery.ilike.*복순*)", r.URL.Query().Get("or"))
		_, _ = io.WriteString(w, `[]`)
	})

	_, err := cat.SearchMakgeollis(context.Background(), " 복순(,) ", 10)
	require.NoError(t, err)

	got, err := cat.SearchMakgeollis(context.Background(), "(),", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	cat := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	})

	_, err := cat.ListComments(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDoesNotRetryInserts(t *testing.T) {
	var calls atomic.Int32
	cat := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := cat.CreateComment(context.Background(), catalog.Comment{MakgeolliID: "m1", Content: "좋아요"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetriesUpserts(t *testing.T) {
	var calls atomic.Int32
	cat := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `[]`)
	})

	require.NoError(t, cat.UpsertReaction(context.Background(), "u1", "m1", catalog.ReactionLike))
	assert.Equal(t, int32(2), calls.Load())
}

func TestIdempotentMethods(t *testing.T) {
	upsert := http.Header{}
	upsert.Set("Prefer", "resolution=merge-duplicates,return=representation")
	insert := http.Header{}
	insert.Set("Prefer", "return=representation")

	assert.True(t, idempotent(http.MethodGet, nil))
	assert.True(t, idempotent(http.MethodDelete, nil))
	assert.True(t, idempotent(http.MethodPatch, insert))
	assert.True(t, idempotent(http.MethodPost, upsert))
	assert.False(t, idempotent(http.MethodPost, insert))
	assert.False(t, idempotent(http.MethodPost, nil))
}

func TestDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	cat := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"message":"bad filter"}`)
	})

	_, err := cat.ListComments(context.Background(), "m1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad filter")
	assert.Equal(t, int32(1), calls.Load())
}

func TestUpsertReaction(t *testing.T) {
	cat := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "user_id,makgeolli_id", r.URL.Query().Get("on_conflict"))
		assert.Contains(t, r.Header.Get("Prefer"), "resolution=merge-duplicates")

		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "u1", gjson.GetBytes(body, "user_id").String())
		assert.Equal(t, "m1", gjson.GetBytes(body, "makgeolli_id").String())
		assert.Equal(t, "like", gjson.GetBytes(body, "reaction").String())
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `[]`)
	})

	require.NoError(t, cat.UpsertReaction(context.Background(), "u1", "m1", catalog.ReactionLike))
}

func TestDeleteReaction(t *testing.T) {
	cat := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "eq.u1", r.URL.Query().Get("user_id"))
		assert.Equal(t, "eq.m1", r.URL.Query().Get("makgeolli_id"))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, cat.DeleteReaction(context.Background(), "u1", "m1"))
}

func TestCreateCommentAssignsID(t *testing.T) {
	cat := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.NotEmpty(t, gjson.GetBytes(body, "id").String())
		assert.Equal(t, "맛있어요", gjson.GetBytes(body, "content").String())
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, "["+string(body)+"]")
	})

	got, err := cat.CreateComment(context.Background(), catalog.Comment{MakgeolliID: "m1", UserID: "u1", Content: "맛있어요"})
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestUpdateNicknameConflict(t *testing.T) {
	cat := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"nickname":"막걸리"}`, string(body))
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"code":"23505","message":"duplicate key value"}`)
	})

	_, err := cat.UpdateNickname(context.Background(), "u1", "막걸리")
	assert.True(t, errors.Is(err, catalog.ErrConflict))
}

func TestFetchImageUsesStorage(t *testing.T) {
	cat := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/storage/v1/object/public/makgeolli-images/m1.png", r.URL.Path)
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	})

	data, err := cat.FetchImage(context.Background(), "/m1.png")
	require.NoError(t, err)
	assert.Len(t, data, 4)

	_, err = cat.FetchImage(context.Background(), "")
	assert.True(t, errors.Is(err, catalog.ErrNotFound))
}

type recordingObserver struct {
	calls atomic.Int32
	last  atomic.Int32
}

func (o *recordingObserver) ObserveRemote(_, _ string, status int, _ time.Duration) {
	o.calls.Add(1)
	o.last.Store(int32(status))
}

func TestObserverSeesEveryAttempt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `[]`)
	}))
	t.Cleanup(srv.Close)

	obs := &recordingObserver{}
	client, err := New(Config{URL: srv.URL, AnonKey: "anon", AccessToken: "user-token", Observer: obs, RateLimit: 100, Burst: 1})
	require.NoError(t, err)

	exists, err := NewCatalog(client).NicknameExists(context.Background(), "막걸리")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, int32(1), obs.calls.Load())
	assert.Equal(t, int32(http.StatusOK), obs.last.Load())
}
