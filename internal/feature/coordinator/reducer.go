package coordinator

import (
	"context"

	"github.com/dshills/julook/internal/catalog"
	"github.com/dshills/julook/internal/effect"
	"github.com/dshills/julook/internal/feature"
	"github.com/dshills/julook/internal/feature/filter"
	"github.com/dshills/julook/internal/feature/home"
	"github.com/dshills/julook/internal/feature/information"
	"github.com/dshills/julook/internal/feature/mymakgeolli"
	"github.com/dshills/julook/internal/feature/search"
	"github.com/dshills/julook/internal/feature/settings"
	"github.com/dshills/julook/internal/logging"
	"github.com/dshills/julook/internal/nav"
	"github.com/dshills/julook/internal/notify"
	"github.com/dshills/julook/internal/store"
)

// Reducer returns the root reducer. Tab reducers and screen reducers run
// before the coordinator's own logic, so it reacts to child signals with
// the child state already updated.
func Reducer(deps Dependencies) store.Reducer[State, Action] {
	if deps.ToastDuration <= 0 {
		deps.ToastDuration = DefaultToastDuration
	}
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	deps.Logger = deps.Logger.WithComponent("coordinator")

	core := store.ReducerFunc[State, Action](func(state *State, action Action) effect.Effect[Action] {
		return reduce(deps, state, action)
	})

	tabs := store.Combine[State, Action](
		store.Pullback(home.Reducer(deps.Home), homeLens, homeCase),
		store.Pullback(filter.Reducer(deps.Filter), filterLens, filterCase),
		store.Pullback(mymakgeolli.Reducer(deps.My), myLens, myCase),
		store.Pullback(settings.Reducer(deps.Settings), settingsLens, settingsCase),
		core,
	)
	return store.ForEach(tabs, pathLens, pathCase, screenReducer(deps), PathPrefix)
}

var (
	homeLens = store.Lens[State, home.State]{
		Get: func(s State) home.State { return s.Home },
		Set: func(s *State, c home.State) { s.Home = c },
	}
	homeCase = store.Case[Action, home.Action]{
		Extract: func(a Action) (home.Action, bool) {
			w, ok := a.(HomeAction)
			return w.Action, ok
		},
		Embed: func(a home.Action) Action { return HomeAction{Action: a} },
	}

	filterLens = store.Lens[State, filter.State]{
		Get: func(s State) filter.State { return s.Filter },
		Set: func(s *State, c filter.State) { s.Filter = c },
	}
	filterCase = store.Case[Action, filter.Action]{
		Extract: func(a Action) (filter.Action, bool) {
			w, ok := a.(FilterAction)
			return w.Action, ok
		},
		Embed: func(a filter.Action) Action { return FilterAction{Action: a} },
	}

	myLens = store.Lens[State, mymakgeolli.State]{
		Get: func(s State) mymakgeolli.State { return s.My },
		Set: func(s *State, c mymakgeolli.State) { s.My = c },
	}
	myCase = store.Case[Action, mymakgeolli.Action]{
		Extract: func(a Action) (mymakgeolli.Action, bool) {
			w, ok := a.(MyAction)
			return w.Action, ok
		},
		Embed: func(a mymakgeolli.Action) Action { return MyAction{Action: a} },
	}

	settingsLens = store.Lens[State, settings.State]{
		Get: func(s State) settings.State { return s.Settings },
		Set: func(s *State, c settings.State) { s.Settings = c },
	}
	settingsCase = store.Case[Action, settings.Action]{
		Extract: func(a Action) (settings.Action, bool) {
			w, ok := a.(SettingsAction)
			return w.Action, ok
		},
		Embed: func(a settings.Action) Action { return SettingsAction{Action: a} },
	}

	pathLens = store.Lens[State, nav.Stack[Screen]]{
		Get: func(s State) nav.Stack[Screen] { return s.Path },
		Set: func(s *State, p nav.Stack[Screen]) { s.Path = p },
	}
	pathCase = store.Case[Action, nav.ElementAction[ScreenAction]]{
		Extract: func(a Action) (nav.ElementAction[ScreenAction], bool) {
			w, ok := a.(PathAction)
			return w.Element, ok
		},
		Embed: func(e nav.ElementAction[ScreenAction]) Action { return PathAction{Element: e} },
	}
)

// screenReducer routes a screen action to the reducer of the screen kind.
// Actions for the other kind are ignored.
func screenReducer(deps Dependencies) store.Reducer[Screen, ScreenAction] {
	info := information.Reducer(deps.Information)
	srch := search.Reducer(deps.Search)
	return store.ReducerFunc[Screen, ScreenAction](func(s *Screen, a ScreenAction) effect.Effect[ScreenAction] {
		switch {
		case a.Information != nil && s.Information != nil:
			st := *s.Information
			eff := info.Reduce(&st, a.Information)
			s.Information = &st
			return effect.Map(eff, func(x information.Action) ScreenAction { return ScreenAction{Information: x} })
		case a.Search != nil && s.Search != nil:
			st := *s.Search
			eff := srch.Reduce(&st, a.Search)
			s.Search = &st
			return effect.Map(eff, func(x search.Action) ScreenAction { return ScreenAction{Search: x} })
		}
		return effect.None[ScreenAction]()
	})
}

func reduce(deps Dependencies, state *State, action Action) effect.Effect[Action] {
	switch a := action.(type) {
	case Appear:
		if state.Started {
			return effect.None[Action]()
		}
		state.Started = true
		return effect.Merge(
			listenToasts(deps),
			effect.Action[Action](HomeAction{Action: home.Appear{}}),
		)

	case TabSelected:
		state.Tab = a.Tab
		return appearTab(a.Tab)

	case HomeAction:
		if t, ok := a.Action.(home.ItemTapped); ok {
			return open(state, t.ID)
		}
	case FilterAction:
		if t, ok := a.Action.(filter.ItemTapped); ok {
			return open(state, t.ID)
		}
	case MyAction:
		if t, ok := a.Action.(mymakgeolli.ItemTapped); ok {
			return open(state, t.ID)
		}

	case OpenItem:
		return open(state, a.ID)

	case SearchTapped:
		for _, e := range state.Path.Entries() {
			if e.Screen.Search != nil {
				return effect.None[Action]()
			}
		}
		id := state.Path.PresentCover(Screen{Search: &search.State{}})
		return toScreen(id, ScreenAction{Search: search.Appear{}})

	case PathAction:
		return routeSignal(state, a.Element)

	case BackTapped:
		state.Path.Pop()
		return effect.None[Action]()

	case BackToSearch:
		state.Path.GoBack(func(s Screen) bool { return s.Search != nil })
		return effect.None[Action]()

	case PopToRoot:
		state.Path.PopToRoot()
		return effect.None[Action]()

	case ToastShown:
		t := a.Toast
		state.Toast = &t
		return effect.Debounce(ToastID, deps.ToastDuration, effect.Action[Action](ToastDismissed{}))

	case ToastDismissed:
		state.Toast = nil
		return effect.Cancel[Action](ToastID)
	}
	return effect.None[Action]()
}

// routeSignal reacts to delegate actions of screens on the stack.
func routeSignal(state *State, e nav.ElementAction[ScreenAction]) effect.Effect[Action] {
	switch a := e.Action.Search.(type) {
	case search.ResultTapped:
		return open(state, a.ID)
	case search.Finished:
		state.Path.Dismiss(e.ID)
		return effect.None[Action]()
	}
	if _, ok := e.Action.Information.(information.Finished); ok {
		state.Path.Dismiss(e.ID)
	}
	return effect.None[Action]()
}

func open(state *State, makgeolliID string) effect.Effect[Action] {
	if makgeolliID == "" {
		return effect.None[Action]()
	}
	st := information.New(makgeolliID)
	id := state.Path.Push(Screen{Information: &st})
	return toScreen(id, ScreenAction{Information: information.Appear{}})
}

func toScreen(id nav.EntryID, a ScreenAction) effect.Effect[Action] {
	return effect.Action[Action](PathAction{Element: nav.ElementAction[ScreenAction]{ID: id, Action: a}})
}

func appearTab(t Tab) effect.Effect[Action] {
	switch t {
	case TabHome:
		return effect.Action[Action](HomeAction{Action: home.Appear{}})
	case TabMy:
		return effect.Action[Action](MyAction{Action: mymakgeolli.Appear{}})
	case TabSettings:
		return effect.Action[Action](SettingsAction{Action: settings.Appear{}})
	}
	return effect.None[Action]()
}

func listenToasts(deps Dependencies) effect.Effect[Action] {
	return effect.Subscribe(func(ctx context.Context, send effect.Send[Action]) {
		feature.Listen(ctx, deps.Notifier, deps.Logger, notify.TopicToast, func(env notify.Envelope) {
			if t, ok := notify.PayloadAs[catalog.Toast](env); ok {
				send(ToastShown{Toast: t})
			}
		})
	}).Cancellable(ToastsID)
}
