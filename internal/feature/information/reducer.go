package information

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/julook/internal/catalog"
	"github.com/dshills/julook/internal/effect"
	"github.com/dshills/julook/internal/feature"
	"github.com/dshills/julook/internal/logging"
	"github.com/dshills/julook/internal/notify"
	"github.com/dshills/julook/internal/store"
)

// anonymous is shown for comment authors without a profile.
const anonymous = "익명"

func loadID(id string) effect.ID {
	return effect.ID("information.load." + id)
}

func submitID(id string) effect.ID {
	return effect.ID("information.comment." + id)
}

func commentsID(id string) effect.ID {
	return effect.ID("information.comments." + id)
}

// Reducer returns the information reducer.
func Reducer(deps Dependencies) store.Reducer[State, Action] {
	if deps.ReactionDelay == 0 {
		deps.ReactionDelay = DefaultReactionDelay
	}
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	deps.Logger = deps.Logger.WithComponent("information")
	return store.ReducerFunc[State, Action](func(state *State, action Action) effect.Effect[Action] {
		return reduce(deps, state, action)
	})
}

func reduce(deps Dependencies, state *State, action Action) effect.Effect[Action] {
	switch a := action.(type) {
	case Appear:
		var effects []effect.Effect[Action]
		if !state.Listening {
			state.Listening = true
			effects = append(effects, listen(deps, state.ID))
		}
		if !state.Loaded && !state.IsLoading {
			state.IsLoading = true
			state.Err = nil
			effects = append(effects, load(deps, state.ID))
		}
		return effect.Merge(effects...)

	case Loaded:
		item := a.Item
		state.Item = &item
		state.UserID = a.UserID
		state.Comments = a.Comments
		state.IsFavorite = a.IsFavorite
		state.Reaction = a.Reaction
		state.Synced = a.Reaction
		state.IsLoading = false
		state.Loaded = true
		state.Err = nil
		return effect.None[Action]()

	case LoadFailed:
		state.IsLoading = false
		state.Err = a.Err
		return effect.None[Action]()

	case ToggleFavorite:
		previous := state.IsFavorite
		state.IsFavorite = !previous
		return saveFavorite(deps, state.ID, previous, state.IsFavorite).Detached()

	case FavoriteSaved:
		return effect.None[Action]()

	case FavoriteFailed:
		state.IsFavorite = a.Previous
		state.Err = a.Err
		return effect.None[Action]()

	case React:
		if a.Reaction == catalog.ReactionNone {
			return effect.None[Action]()
		}
		next := a.Reaction
		if next == state.Reaction {
			next = catalog.ReactionNone
		}
		state.Item = adjustCounts(state.Item, state.Reaction, next)
		state.Reaction = next
		// The write outlives the screen; counts already show it.
		write := syncReaction(deps, state.ID, state.UserID, next)
		if deps.ReactionDelay < 0 {
			return write.Cancellable(ReactionID(state.ID)).Detached()
		}
		return effect.Debounce(ReactionID(state.ID), deps.ReactionDelay, write).Detached()

	case ReactionSaved:
		state.Synced = a.Reaction
		return effect.None[Action]()

	case ReactionFailed:
		state.Item = adjustCounts(state.Item, state.Reaction, state.Synced)
		state.Reaction = state.Synced
		state.Err = a.Err
		return effect.None[Action]()

	case DraftChanged:
		state.Draft = a.Text
		return effect.None[Action]()

	case SubmitComment:
		if state.IsSubmitting {
			return effect.None[Action]()
		}
		if verr := catalog.ValidateComment(state.Draft); verr != nil {
			state.Err = verr
			return effect.Run(func(ctx context.Context, _ effect.Send[Action]) {
				feature.Toast(ctx, deps.Notifier, deps.Logger, "information",
					catalog.Toast{Message: verr.Message(), Level: catalog.ToastError})
			})
		}
		state.IsSubmitting = true
		state.Err = nil
		content := strings.TrimSpace(state.Draft)
		return postComment(deps, state.ID, state.UserID, content).Cancellable(submitID(state.ID)).Detached()

	case CommentPosted:
		state.IsSubmitting = false
		state.Draft = ""
		comments := make([]catalog.Comment, 0, len(state.Comments)+1)
		comments = append(comments, a.Comment)
		state.Comments = append(comments, state.Comments...)
		return effect.None[Action]()

	case CommentFailed:
		state.IsSubmitting = false
		state.Err = a.Err
		return effect.None[Action]()

	case DeleteComment:
		return deleteComment(deps, state.ID, a.ID).Detached()

	case CommentDeleted:
		state.Comments = withoutComment(state.Comments, a.ID)
		return effect.None[Action]()

	case CommentsChanged:
		return reloadComments(deps, state.ID)

	case CommentsReloaded:
		state.Comments = a.Comments
		return effect.None[Action]()

	case CloseTapped:
		return effect.Action[Action](Finished{})

	case Finished:
		return effect.None[Action]()
	}
	return effect.None[Action]()
}

// load fetches everything the screen shows in parallel. Only the item
// itself is required; the rest degrade to empty values.
func load(deps Dependencies, id string) effect.Effect[Action] {
	return effect.Run(func(ctx context.Context, send effect.Send[Action]) {
		var out Loaded
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			item, err := deps.Remote.GetMakgeolli(gctx, id)
			if err != nil {
				return err
			}
			out.Item = item
			return nil
		})
		g.Go(func() error {
			comments, err := deps.Remote.ListComments(gctx, id)
			if err != nil {
				deps.Logger.Warn("comments unavailable", "id", id, "error", err)
				return nil
			}
			out.Comments = comments
			return nil
		})
		g.Go(func() error {
			out.IsFavorite = isFavorite(gctx, deps, id)
			out.Reaction = cachedReaction(gctx, deps, id)
			return nil
		})
		g.Go(func() error {
			out.UserID = userID(gctx, deps)
			return nil
		})

		if err := g.Wait(); err != nil {
			if catalog.IsCancelled(err) || ctx.Err() != nil {
				return
			}
			failure := catalog.RemoteError("information.load", err)
			feature.ReportFailure(ctx, deps.Notifier, deps.Logger, "information", failure)
			send(LoadFailed{Err: failure})
			return
		}
		send(out)
	}).Cancellable(loadID(id))
}

func isFavorite(ctx context.Context, deps Dependencies, id string) bool {
	if deps.Local == nil {
		return false
	}
	fav, err := deps.Local.IsFavorite(ctx, id)
	if err != nil {
		deps.Logger.Warn("favorite flag unavailable", "id", id, "error", err)
		return false
	}
	return fav
}

func cachedReaction(ctx context.Context, deps Dependencies, id string) catalog.Reaction {
	if deps.Local == nil {
		return catalog.ReactionNone
	}
	r, err := deps.Local.CachedReaction(ctx, id)
	if err != nil {
		deps.Logger.Warn("cached reaction unavailable", "id", id, "error", err)
		return catalog.ReactionNone
	}
	return r
}

func userID(ctx context.Context, deps Dependencies) string {
	if deps.Identity == nil {
		return ""
	}
	uid, err := deps.Identity.UserID(ctx)
	if err != nil {
		if !errors.Is(err, catalog.ErrNoSession) {
			deps.Logger.Warn("identity unavailable", "error", err)
		}
		return ""
	}
	return uid
}

// listen reloads comments when another screen changes them. It runs until
// the screen's effects are cancelled.
func listen(deps Dependencies, id string) effect.Effect[Action] {
	return effect.Subscribe(func(ctx context.Context, send effect.Send[Action]) {
		feature.Listen(ctx, deps.Notifier, deps.Logger, notify.TopicCommentChanged, func(env notify.Envelope) {
			change, ok := notify.PayloadAs[catalog.CommentChange](env)
			if !ok || change.MakgeolliID != id || env.Source == source(id) {
				return
			}
			send(CommentsChanged{})
		})
	})
}

// source names the screen in notifications it publishes, so it can ignore
// its own.
func source(id string) string {
	return "information." + id
}

func saveFavorite(deps Dependencies, id string, previous, next bool) effect.Effect[Action] {
	return effect.Run(func(ctx context.Context, send effect.Send[Action]) {
		if err := deps.Local.SetFavorite(ctx, id, next); err != nil {
			if catalog.IsCancelled(err) {
				return
			}
			failure := catalog.LocalError("information.favorite", err)
			feature.ReportFailure(ctx, deps.Notifier, deps.Logger, "information", failure)
			send(FavoriteFailed{Previous: previous, Err: failure})
			return
		}
		feature.Emit(ctx, deps.Notifier, deps.Logger, notify.TopicFavoriteChanged,
			catalog.FavoriteChange{MakgeolliID: id, IsFavorite: next}, source(id))
		send(FavoriteSaved{IsFavorite: next})
	})
}

// syncReaction writes r remotely: ReactionNone deletes the row, anything
// else upserts it. The local cache follows the remote.
func syncReaction(deps Dependencies, id, knownUser string, r catalog.Reaction) effect.Effect[Action] {
	return effect.Run(func(ctx context.Context, send effect.Send[Action]) {
		uid := knownUser
		if uid == "" {
			uid = userID(ctx, deps)
		}
		if uid == "" {
			failure := catalog.RemoteError("information.reaction", catalog.ErrNoSession)
			feature.ReportFailure(ctx, deps.Notifier, deps.Logger, "information", failure)
			send(ReactionFailed{Err: failure})
			return
		}

		var err error
		if r == catalog.ReactionNone {
			err = deps.Remote.DeleteReaction(ctx, uid, id)
		} else {
			err = deps.Remote.UpsertReaction(ctx, uid, id, r)
		}
		if err != nil {
			if catalog.IsCancelled(err) {
				return
			}
			failure := catalog.RemoteError("information.reaction", err)
			feature.ReportFailure(ctx, deps.Notifier, deps.Logger, "information", failure)
			send(ReactionFailed{Err: failure})
			return
		}

		if deps.Local != nil {
			if err := deps.Local.CacheReaction(ctx, id, r); err != nil {
				deps.Logger.Warn("reaction not cached", "id", id, "error", err)
			}
		}
		feature.Emit(ctx, deps.Notifier, deps.Logger, notify.TopicReactionChanged,
			catalog.ReactionChange{MakgeolliID: id, Reaction: r}, source(id))
		send(ReactionSaved{Reaction: r})
	})
}

// adjustCounts returns a copy of item with the like and dislike counts moved
// from one reaction to another.
func adjustCounts(item *catalog.Makgeolli, from, to catalog.Reaction) *catalog.Makgeolli {
	if item == nil || from == to {
		return item
	}
	next := *item
	switch from {
	case catalog.ReactionLike:
		next.LikeCount = max(0, next.LikeCount-1)
	case catalog.ReactionDislike:
		next.DislikeCount = max(0, next.DislikeCount-1)
	}
	switch to {
	case catalog.ReactionLike:
		next.LikeCount++
	case catalog.ReactionDislike:
		next.DislikeCount++
	}
	return &next
}

func postComment(deps Dependencies, id, knownUser, content string) effect.Effect[Action] {
	return effect.Run(func(ctx context.Context, send effect.Send[Action]) {
		uid := knownUser
		if uid == "" {
			uid = userID(ctx, deps)
		}
		nickname := anonymous
		if uid != "" {
			profile, err := deps.Remote.GetProfile(ctx, uid)
			switch {
			case err == nil && profile.Nickname != "":
				nickname = profile.Nickname
			case err != nil && !errors.Is(err, catalog.ErrNotFound):
				deps.Logger.Debug("profile unavailable", "error", err)
			}
		}

		comment, err := deps.Remote.CreateComment(ctx, catalog.Comment{
			MakgeolliID: id,
			UserID:      uid,
			Nickname:    nickname,
			Content:     content,
		})
		if err != nil {
			if catalog.IsCancelled(err) {
				return
			}
			failure := catalog.RemoteError("information.comment", err)
			feature.ReportFailure(ctx, deps.Notifier, deps.Logger, "information", failure)
			send(CommentFailed{Err: failure})
			return
		}
		feature.Emit(ctx, deps.Notifier, deps.Logger, notify.TopicCommentChanged,
			catalog.CommentChange{MakgeolliID: id, CommentID: comment.ID}, source(id))
		send(CommentPosted{Comment: comment})
	})
}

func deleteComment(deps Dependencies, id, commentID string) effect.Effect[Action] {
	return effect.Run(func(ctx context.Context, send effect.Send[Action]) {
		if err := deps.Remote.DeleteComment(ctx, commentID); err != nil {
			if catalog.IsCancelled(err) {
				return
			}
			failure := catalog.RemoteError("information.comment.delete", err)
			feature.ReportFailure(ctx, deps.Notifier, deps.Logger, "information", failure)
			send(CommentFailed{Err: failure})
			return
		}
		feature.Emit(ctx, deps.Notifier, deps.Logger, notify.TopicCommentChanged,
			catalog.CommentChange{MakgeolliID: id, CommentID: commentID, Deleted: true}, source(id))
		send(CommentDeleted{ID: commentID})
	})
}

func reloadComments(deps Dependencies, id string) effect.Effect[Action] {
	return effect.Run(func(ctx context.Context, send effect.Send[Action]) {
		comments, err := deps.Remote.ListComments(ctx, id)
		if err != nil {
			if !catalog.IsCancelled(err) {
				deps.Logger.Warn("comments reload failed", "id", id, "error", err)
			}
			return
		}
		send(CommentsReloaded{Comments: comments})
	}).Cancellable(commentsID(id))
}

func withoutComment(comments []catalog.Comment, id string) []catalog.Comment {
	out := make([]catalog.Comment, 0, len(comments))
	for _, c := range comments {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}
