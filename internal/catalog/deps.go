package catalog

import (
	"context"

	"github.com/dshills/julook/internal/notify"
)

// Remote is the catalog backend.
type Remote interface {
	ListMakgeollis(ctx context.Context, filter TasteFilter, limit, offset int) ([]Makgeolli, error)
	GetMakgeolli(ctx context.Context, id string) (Makgeolli, error)
	GetMakgeollis(ctx context.Context, ids []string) ([]Makgeolli, error)
	SearchMakgeollis(ctx context.Context, query string, limit int) ([]Makgeolli, error)
	FetchImage(ctx context.Context, path string) ([]byte, error)

	ListComments(ctx context.Context, makgeolliID string) ([]Comment, error)
	CreateComment(ctx context.Context, c Comment) (Comment, error)
	DeleteComment(ctx context.Context, id string) error

	UpsertReaction(ctx context.Context, userID, makgeolliID string, r Reaction) error
	DeleteReaction(ctx context.Context, userID, makgeolliID string) error

	GetProfile(ctx context.Context, userID string) (Profile, error)
	NicknameExists(ctx context.Context, nickname string) (bool, error)
	UpdateNickname(ctx context.Context, userID, nickname string) (Profile, error)
}

// Local is on-device persistence.
type Local interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error

	IsFavorite(ctx context.Context, makgeolliID string) (bool, error)
	SetFavorite(ctx context.Context, makgeolliID string, favorite bool) error
	ListFavorites(ctx context.Context) ([]string, error)

	CachedReaction(ctx context.Context, makgeolliID string) (Reaction, error)
	CacheReaction(ctx context.Context, makgeolliID string, r Reaction) error
}

// Identity resolves the current user.
type Identity interface {
	UserID(ctx context.Context) (string, error)
}

// Notifier publishes and listens to process-wide notifications.
type Notifier interface {
	Emit(ctx context.Context, topic notify.Topic, payload any, source string) error
	Listen(ctx context.Context, pattern notify.Topic, fn func(notify.Envelope)) error
}

// Compile-time check that the bus satisfies Notifier.
var _ Notifier = (*notify.Bus)(nil)
