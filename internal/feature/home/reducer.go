package home

import (
	"context"
	"maps"

	"github.com/dshills/julook/internal/catalog"
	"github.com/dshills/julook/internal/effect"
	"github.com/dshills/julook/internal/feature"
	"github.com/dshills/julook/internal/logging"
	"github.com/dshills/julook/internal/store"
)

// Reducer returns the home reducer.
func Reducer(deps Dependencies) store.Reducer[State, Action] {
	if deps.PageSize <= 0 {
		deps.PageSize = DefaultPageSize
	}
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	deps.Logger = deps.Logger.WithComponent("home")
	return store.ReducerFunc[State, Action](func(state *State, action Action) effect.Effect[Action] {
		return reduce(deps, state, action)
	})
}

func reduce(deps Dependencies, state *State, action Action) effect.Effect[Action] {
	switch a := action.(type) {
	case Appear:
		if state.Loaded || state.IsLoading {
			return effect.None[Action]()
		}
		state.IsLoading = true
		state.Err = nil
		return fetchPage(deps, 0)

	case Refresh:
		state.IsLoading = true
		state.Err = nil
		return fetchPage(deps, 0)

	case LoadNextPage:
		if state.IsLoading || !state.HasMore {
			return effect.None[Action]()
		}
		state.IsLoading = true
		return fetchPage(deps, len(state.Items))

	case PageLoaded:
		state.IsLoading = false
		state.Loaded = true
		state.Err = nil
		state.HasMore = len(a.Items) == deps.PageSize
		if a.Offset == 0 {
			state.Items = catalog.MergeUnique(nil, a.Items)
		} else {
			state.Items = catalog.MergeUnique(state.Items, a.Items)
		}
		return fetchImages(deps, state.Images, a.Items)

	case LoadFailed:
		state.IsLoading = false
		state.Err = a.Err
		return effect.None[Action]()

	case ImageLoaded:
		images := maps.Clone(state.Images)
		if images == nil {
			images = make(map[string][]byte)
		}
		images[a.ID] = a.Data
		state.Images = images
		return effect.None[Action]()

	case ImageFailed:
		deps.Logger.Debug("image unavailable", "id", a.ID, "error", a.Err)
		return effect.None[Action]()

	case ItemTapped:
		return effect.None[Action]()
	}
	return effect.None[Action]()
}

func fetchPage(deps Dependencies, offset int) effect.Effect[Action] {
	return effect.Run(func(ctx context.Context, send effect.Send[Action]) {
		items, err := deps.Remote.ListMakgeollis(ctx, catalog.TasteFilter{}, deps.PageSize, offset)
		if err != nil {
			if catalog.IsCancelled(err) {
				return
			}
			failure := catalog.RemoteError("home.fetch", err)
			feature.ReportFailure(ctx, deps.Notifier, deps.Logger, "home", failure)
			send(LoadFailed{Err: failure})
			return
		}
		send(PageLoaded{Offset: offset, Items: items})
	}).Cancellable(FetchID)
}

// fetchImages starts one request per item that has an image path and no
// image yet.
func fetchImages(deps Dependencies, have map[string][]byte, items []catalog.Makgeolli) effect.Effect[Action] {
	effects := make([]effect.Effect[Action], 0, len(items))
	for _, m := range items {
		if m.ImagePath == "" {
			continue
		}
		if _, ok := have[m.ID]; ok {
			continue
		}
		id, path := m.ID, m.ImagePath
		effects = append(effects, effect.Run(func(ctx context.Context, send effect.Send[Action]) {
			data, err := deps.Remote.FetchImage(ctx, path)
			if err != nil {
				if !catalog.IsCancelled(err) {
					send(ImageFailed{ID: id, Err: catalog.RemoteError("home.image", err)})
				}
				return
			}
			send(ImageLoaded{ID: id, Data: data})
		}))
	}
	return effect.Merge(effects...).CancelGroup(ImagesID)
}
