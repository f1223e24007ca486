package filter

import (
	"context"
	"slices"

	"github.com/dshills/julook/internal/catalog"
	"github.com/dshills/julook/internal/effect"
	"github.com/dshills/julook/internal/feature"
	"github.com/dshills/julook/internal/logging"
	"github.com/dshills/julook/internal/store"
)

// Reducer returns the filter reducer.
func Reducer(deps Dependencies) store.Reducer[State, Action] {
	if deps.PageSize <= 0 {
		deps.PageSize = DefaultPageSize
	}
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	deps.Logger = deps.Logger.WithComponent("filter")
	return store.ReducerFunc[State, Action](func(state *State, action Action) effect.Effect[Action] {
		return reduce(deps, state, action)
	})
}

func reduce(deps Dependencies, state *State, action Action) effect.Effect[Action] {
	switch a := action.(type) {
	case ToggleLevel:
		if a.Level < catalog.MinLevel || a.Level > catalog.MaxLevel || !slices.Contains(catalog.Attributes, a.Attribute) {
			return effect.None[Action]()
		}
		state.Filter = state.Filter.Toggle(a.Attribute, a.Level)

	case ToggleCarbonated:
		switch {
		case state.Filter.Carbonated == nil:
			state.Filter.Carbonated = feature.Ptr(true)
		case *state.Filter.Carbonated:
			state.Filter.Carbonated = feature.Ptr(false)
		default:
			state.Filter.Carbonated = nil
		}

	case SetPriceRange:
		lo, hi := max(a.Min, 0), max(a.Max, 0)
		if hi > 0 && lo > hi {
			lo, hi = hi, lo
		}
		state.Filter.MinPrice, state.Filter.MaxPrice = lo, hi

	case Reset:
		*state = State{}
		return effect.Cancel[Action](FetchID)

	case Apply:
		state.Applied = state.Filter
		state.IsLoading = true
		state.Err = nil
		return fetch(deps, state.Applied, 0)

	case LoadMore:
		if state.IsLoading || !state.HasMore {
			return effect.None[Action]()
		}
		state.IsLoading = true
		return fetch(deps, state.Applied, len(state.Items))

	case ResultsLoaded:
		state.IsLoading = false
		state.HasResult = true
		state.HasMore = len(a.Items) == deps.PageSize
		if a.Offset == 0 {
			state.Items = catalog.MergeUnique(nil, a.Items)
		} else {
			state.Items = catalog.MergeUnique(state.Items, a.Items)
		}

	case LoadFailed:
		state.IsLoading = false
		state.Err = a.Err

	case ItemTapped:
	}
	return effect.None[Action]()
}

// fetch replaces any request still in flight, so results always belong to
// the last applied filter.
func fetch(deps Dependencies, f catalog.TasteFilter, offset int) effect.Effect[Action] {
	return effect.Run(func(ctx context.Context, send effect.Send[Action]) {
		items, err := deps.Remote.ListMakgeollis(ctx, f, deps.PageSize, offset)
		if err != nil {
			if catalog.IsCancelled(err) {
				return
			}
			failure := catalog.RemoteError("filter.fetch", err)
			feature.ReportFailure(ctx, deps.Notifier, deps.Logger, "filter", failure)
			send(LoadFailed{Err: failure})
			return
		}
		send(ResultsLoaded{Offset: offset, Items: items})
	}).Cancellable(FetchID)
}

func equalFilters(a, b catalog.TasteFilter) bool {
	if a.MinPrice != b.MinPrice || a.MaxPrice != b.MaxPrice {
		return false
	}
	if (a.Carbonated == nil) != (b.Carbonated == nil) {
		return false
	}
	if a.Carbonated != nil && *a.Carbonated != *b.Carbonated {
		return false
	}
	for _, attr := range catalog.Attributes {
		if !slices.Equal(a.Levels[attr], b.Levels[attr]) {
			return false
		}
	}
	return true
}
