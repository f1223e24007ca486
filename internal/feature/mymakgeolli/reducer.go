package mymakgeolli

import (
	"context"

	"github.com/dshills/julook/internal/catalog"
	"github.com/dshills/julook/internal/effect"
	"github.com/dshills/julook/internal/feature"
	"github.com/dshills/julook/internal/logging"
	"github.com/dshills/julook/internal/notify"
	"github.com/dshills/julook/internal/store"
)

const source = "mymakgeolli"

// Reducer returns the favorites reducer.
func Reducer(deps Dependencies) store.Reducer[State, Action] {
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	deps.Logger = deps.Logger.WithComponent(source)
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
			effects = append(effects, listen(deps))
		}
		if !state.Loaded && !state.IsLoading {
			state.IsLoading = true
			effects = append(effects, load(deps))
		}
		return effect.Merge(effects...)

	case Reload:
		state.IsLoading = true
		return load(deps)

	case Loaded:
		state.Items = a.Items
		state.IsLoading = false
		state.Loaded = true
		state.Err = nil
		return effect.None[Action]()

	case LoadFailed:
		state.IsLoading = false
		state.Err = a.Err
		return effect.None[Action]()

	case RemoveFavorite:
		items := make([]catalog.Makgeolli, 0, len(state.Items))
		for _, m := range state.Items {
			if m.ID != a.ID {
				items = append(items, m)
			}
		}
		state.Items = items
		return remove(deps, a.ID)

	case RemoveFailed:
		state.Err = a.Err
		state.IsLoading = true
		return load(deps)

	case ItemTapped:
		return effect.None[Action]()
	}
	return effect.None[Action]()
}

// load reads the favorite ids locally and resolves them remotely, keeping
// the local order.
func load(deps Dependencies) effect.Effect[Action] {
	return effect.Run(func(ctx context.Context, send effect.Send[Action]) {
		ids, err := deps.Local.ListFavorites(ctx)
		if err != nil {
			if catalog.IsCancelled(err) {
				return
			}
			failure := catalog.LocalError("mymakgeolli.load", err)
			feature.ReportFailure(ctx, deps.Notifier, deps.Logger, source, failure)
			send(LoadFailed{Err: failure})
			return
		}
		if len(ids) == 0 {
			send(Loaded{})
			return
		}
		items, err := deps.Remote.GetMakgeollis(ctx, ids)
		if err != nil {
			if catalog.IsCancelled(err) {
				return
			}
			failure := catalog.RemoteError("mymakgeolli.load", err)
			feature.ReportFailure(ctx, deps.Notifier, deps.Logger, source, failure)
			send(LoadFailed{Err: failure})
			return
		}
		send(Loaded{Items: items})
	}).Cancellable(LoadID)
}

// listen reloads whenever another screen changes a favorite.
func listen(deps Dependencies) effect.Effect[Action] {
	return effect.Subscribe(func(ctx context.Context, send effect.Send[Action]) {
		feature.Listen(ctx, deps.Notifier, deps.Logger, notify.TopicFavoriteChanged, func(env notify.Envelope) {
			if env.Source == source {
				return
			}
			send(Reload{})
		})
	}).Cancellable(ListenID)
}

func remove(deps Dependencies, id string) effect.Effect[Action] {
	return effect.Run(func(ctx context.Context, send effect.Send[Action]) {
		if err := deps.Local.SetFavorite(ctx, id, false); err != nil {
			if catalog.IsCancelled(err) {
				return
			}
			failure := catalog.LocalError("mymakgeolli.remove", err)
			feature.ReportFailure(ctx, deps.Notifier, deps.Logger, source, failure)
			send(RemoveFailed{Err: failure})
			return
		}
		feature.Emit(ctx, deps.Notifier, deps.Logger, notify.TopicFavoriteChanged,
			catalog.FavoriteChange{MakgeolliID: id}, source)
	})
}
