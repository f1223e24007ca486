// Package coordinator is the root feature. It embeds the four tabs, owns the
// navigation stack of detail and search screens, and shows toasts published
// by any feature.
package coordinator

import (
	"fmt"
	"time"

	"github.com/dshills/julook/internal/catalog"
	"github.com/dshills/julook/internal/effect"
	"github.com/dshills/julook/internal/feature/filter"
	"github.com/dshills/julook/internal/feature/home"
	"github.com/dshills/julook/internal/feature/information"
	"github.com/dshills/julook/internal/feature/mymakgeolli"
	"github.com/dshills/julook/internal/feature/search"
	"github.com/dshills/julook/internal/feature/settings"
	"github.com/dshills/julook/internal/logging"
	"github.com/dshills/julook/internal/nav"
	"github.com/dshills/julook/internal/store"
)

// PathPrefix scopes the cancellation groups of route entries.
const PathPrefix = "coordinator.path"

// Effect ids owned by the coordinator.
const (
	ToastsID effect.ID = "coordinator.toasts"
	ToastID  effect.ID = "coordinator.toast"
)

// DefaultToastDuration is how long a toast stays visible.
const DefaultToastDuration = 2 * time.Second

// Tab is a root tab.
type Tab int

const (
	TabHome Tab = iota
	TabFilter
	TabMy
	TabSettings
)

var tabNames = map[Tab]string{
	TabHome:     "home",
	TabFilter:   "filter",
	TabMy:       "my",
	TabSettings: "settings",
}

// String returns the tab name.
func (t Tab) String() string {
	if n, ok := tabNames[t]; ok {
		return n
	}
	return fmt.Sprintf("tab(%d)", int(t))
}

// ParseTab returns the tab named s.
func ParseTab(s string) (Tab, bool) {
	for t, n := range tabNames {
		if n == s {
			return t, true
		}
	}
	return TabHome, false
}

// Screen is a route on the navigation stack. Exactly one field is set.
type Screen struct {
	Information *information.State
	Search      *search.State
}

// Name returns the screen kind.
func (s Screen) Name() string {
	switch {
	case s.Information != nil:
		return "information"
	case s.Search != nil:
		return "search"
	default:
		return "empty"
	}
}

// ScreenAction is an action for a Screen. Exactly one field is set.
type ScreenAction struct {
	Information information.Action
	Search      search.Action
}

// State is the root state.
type State struct {
	Tab      Tab
	Home     home.State
	Filter   filter.State
	My       mymakgeolli.State
	Settings settings.State
	Path     nav.Stack[Screen]
	Toast    *catalog.Toast
	Started  bool
}

// Action is a root action.
type Action interface{ coordinatorAction() }

type (
	// HomeAction wraps a home tab action.
	HomeAction struct{ Action home.Action }
	// FilterAction wraps a filter tab action.
	FilterAction struct{ Action filter.Action }
	// MyAction wraps a favorites tab action.
	MyAction struct{ Action mymakgeolli.Action }
	// SettingsAction wraps a settings tab action.
	SettingsAction struct{ Action settings.Action }
	// PathAction addresses a screen on the navigation stack.
	PathAction struct{ Element nav.ElementAction[ScreenAction] }

	// Appear starts the app: the toast subscription and the home tab.
	Appear struct{}
	// TabSelected switches tabs.
	TabSelected struct{ Tab Tab }
	// SearchTapped presents the search cover.
	SearchTapped struct{}
	// OpenItem pushes the detail screen of a makgeolli.
	OpenItem struct{ ID string }
	// BackTapped pops the top screen.
	BackTapped struct{}
	// BackToSearch closes the screens above the search cover.
	BackToSearch struct{}
	// PopToRoot clears the navigation stack.
	PopToRoot struct{}
	// ToastShown displays a toast.
	ToastShown struct{ Toast catalog.Toast }
	// ToastDismissed hides the toast.
	ToastDismissed struct{}
)

func (HomeAction) coordinatorAction()     {}
func (FilterAction) coordinatorAction()   {}
func (MyAction) coordinatorAction()       {}
func (SettingsAction) coordinatorAction() {}
func (PathAction) coordinatorAction()     {}
func (Appear) coordinatorAction()         {}
func (TabSelected) coordinatorAction()    {}
func (SearchTapped) coordinatorAction()   {}
func (OpenItem) coordinatorAction()       {}
func (BackTapped) coordinatorAction()     {}
func (BackToSearch) coordinatorAction()   {}
func (PopToRoot) coordinatorAction()      {}
func (ToastShown) coordinatorAction()     {}
func (ToastDismissed) coordinatorAction() {}

// ActionName implements store.Named.
func (a HomeAction) ActionName() string { return store.ActionName(a.Action) }

// ActionName implements store.Named.
func (a FilterAction) ActionName() string { return store.ActionName(a.Action) }

// ActionName implements store.Named.
func (a MyAction) ActionName() string { return store.ActionName(a.Action) }

// ActionName implements store.Named.
func (a SettingsAction) ActionName() string { return store.ActionName(a.Action) }

// ActionName implements store.Named.
func (a PathAction) ActionName() string {
	inner := a.Element.Action
	var name string
	switch {
	case inner.Information != nil:
		name = store.ActionName(inner.Information)
	case inner.Search != nil:
		name = store.ActionName(inner.Search)
	default:
		name = "empty"
	}
	return fmt.Sprintf("path[%d].%s", a.Element.ID, name)
}

// Dependencies are the collaborators of every feature.
type Dependencies struct {
	Home        home.Dependencies
	Filter      filter.Dependencies
	My          mymakgeolli.Dependencies
	Settings    settings.Dependencies
	Information information.Dependencies
	Search      search.Dependencies

	Notifier      catalog.Notifier
	Logger        *logging.Logger
	ToastDuration time.Duration
}

// Collaborators are shared by all features.
type Collaborators struct {
	Remote   catalog.Remote
	Local    catalog.Local
	Identity catalog.Identity
	Notifier catalog.Notifier
	Logger   *logging.Logger
}

// Tuning adjusts feature timings and sizes. Zero values use each feature's
// default.
type Tuning struct {
	PageSize       int
	SearchDebounce time.Duration
	SearchLimit    int
	RecentSearches int
	ReactionDelay  time.Duration
	ToastDuration  time.Duration
}

// NewDependencies hands the shared collaborators to every feature.
func NewDependencies(c Collaborators, t Tuning) Dependencies {
	return Dependencies{
		Home: home.Dependencies{
			Remote: c.Remote, Notifier: c.Notifier, Logger: c.Logger, PageSize: t.PageSize,
		},
		Filter: filter.Dependencies{
			Remote: c.Remote, Notifier: c.Notifier, Logger: c.Logger, PageSize: t.PageSize,
		},
		My: mymakgeolli.Dependencies{
			Remote: c.Remote, Local: c.Local, Notifier: c.Notifier, Logger: c.Logger,
		},
		Settings: settings.Dependencies{
			Remote: c.Remote, Identity: c.Identity, Notifier: c.Notifier, Logger: c.Logger,
		},
		Information: information.Dependencies{
			Remote: c.Remote, Local: c.Local, Identity: c.Identity, Notifier: c.Notifier,
			Logger: c.Logger, ReactionDelay: t.ReactionDelay,
		},
		Search: search.Dependencies{
			Remote: c.Remote, Local: c.Local, Notifier: c.Notifier, Logger: c.Logger,
			Debounce: t.SearchDebounce, Limit: t.SearchLimit, RecentMax: t.RecentSearches,
		},
		Notifier:      c.Notifier,
		Logger:        c.Logger,
		ToastDuration: t.ToastDuration,
	}
}
