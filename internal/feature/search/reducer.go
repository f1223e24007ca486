package search

import (
	"context"
	"encoding/json"

	"github.com/dshills/julook/internal/catalog"
	"github.com/dshills/julook/internal/effect"
	"github.com/dshills/julook/internal/feature"
	"github.com/dshills/julook/internal/logging"
	"github.com/dshills/julook/internal/store"
)

const source = "search"

// Reducer returns the search reducer.
func Reducer(deps Dependencies) store.Reducer[State, Action] {
	if deps.Debounce <= 0 {
		deps.Debounce = DefaultDebounce
	}
	if deps.Limit <= 0 {
		deps.Limit = DefaultLimit
	}
	if deps.RecentMax <= 0 {
		deps.RecentMax = catalog.RecentMax
	}
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
		if state.RecentLoaded {
			return effect.None[Action]()
		}
		return loadRecent(deps)

	case RecentLoaded:
		state.Recent = a.Queries
		state.RecentLoaded = true
		return effect.None[Action]()

	case QueryChanged:
		state.Query = a.Query
		q := catalog.NormalizeText(a.Query)
		if q == "" {
			state.Results = nil
			state.IsSearching = false
			state.Err = nil
			return effect.Cancel[Action](QueryID)
		}
		state.IsSearching = true
		return effect.Debounce(QueryID, deps.Debounce, run(deps, q))

	case Submit:
		return submit(deps, state, state.Query)

	case RecentTapped:
		state.Query = a.Query
		return submit(deps, state, a.Query)

	case Results:
		if a.Query != catalog.NormalizeText(state.Query) {
			return effect.None[Action]()
		}
		state.Results = a.Items
		state.IsSearching = false
		state.Err = nil
		return effect.None[Action]()

	case SearchFailed:
		if a.Query != catalog.NormalizeText(state.Query) {
			return effect.None[Action]()
		}
		state.IsSearching = false
		state.Err = a.Err
		return effect.None[Action]()

	case ClearRecent:
		state.Recent = nil
		return effect.Run(func(ctx context.Context, _ effect.Send[Action]) {
			if deps.Local == nil {
				return
			}
			if err := deps.Local.Delete(ctx, RecentKey); err != nil && !catalog.IsCancelled(err) {
				deps.Logger.Warn("recent queries not cleared", "error", err)
			}
		})

	case ResultTapped:
		return effect.None[Action]()

	case CloseTapped:
		return effect.Merge(
			effect.Cancel[Action](QueryID),
			effect.Action[Action](Finished{}),
		)

	case Finished:
		return effect.None[Action]()
	}
	return effect.None[Action]()
}

func submit(deps Dependencies, state *State, query string) effect.Effect[Action] {
	q := catalog.NormalizeText(query)
	if q == "" {
		return effect.None[Action]()
	}
	state.Recent = remember(state.Recent, q, deps.RecentMax)
	state.IsSearching = true
	return effect.Merge(
		saveRecent(deps, state.Recent),
		run(deps, q).Cancellable(QueryID),
	)
}

// remember returns recent with q moved to the front, without duplicates and
// capped at limit.
func remember(recent []string, q string, limit int) []string {
	out := make([]string, 0, min(len(recent)+1, limit))
	out = append(out, q)
	for _, r := range recent {
		if len(out) == limit {
			break
		}
		if r != q {
			out = append(out, r)
		}
	}
	return out
}

func run(deps Dependencies, q string) effect.Effect[Action] {
	return effect.Run(func(ctx context.Context, send effect.Send[Action]) {
		items, err := deps.Remote.SearchMakgeollis(ctx, q, deps.Limit)
		if err != nil {
			if catalog.IsCancelled(err) {
				return
			}
			failure := catalog.RemoteError("search.query", err)
			feature.ReportFailure(ctx, deps.Notifier, deps.Logger, source, failure)
			send(SearchFailed{Query: q, Err: failure})
			return
		}
		send(Results{Query: q, Items: items})
	})
}

func loadRecent(deps Dependencies) effect.Effect[Action] {
	return effect.Run(func(ctx context.Context, send effect.Send[Action]) {
		if deps.Local == nil {
			send(RecentLoaded{})
			return
		}
		raw, ok, err := deps.Local.Get(ctx, RecentKey)
		if err != nil {
			if catalog.IsCancelled(err) {
				return
			}
			deps.Logger.Warn("recent queries unavailable", "error", err)
			send(RecentLoaded{})
			return
		}
		var queries []string
		if ok {
			if err := json.Unmarshal([]byte(raw), &queries); err != nil {
				deps.Logger.Warn("recent queries corrupt", "error", err)
				queries = nil
			}
		}
		send(RecentLoaded{Queries: queries})
	})
}

func saveRecent(deps Dependencies, recent []string) effect.Effect[Action] {
	return effect.Run(func(ctx context.Context, _ effect.Send[Action]) {
		if deps.Local == nil {
			return
		}
		raw, err := json.Marshal(recent)
		if err != nil {
			deps.Logger.Warn("recent queries not encoded", "error", err)
			return
		}
		if err := deps.Local.Set(ctx, RecentKey, string(raw)); err != nil && !catalog.IsCancelled(err) {
			deps.Logger.Warn("recent queries not saved", "error", err)
		}
	})
}
