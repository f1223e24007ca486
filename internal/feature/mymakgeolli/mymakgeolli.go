// Package mymakgeolli is the favorites tab.
package mymakgeolli

import (
	"github.com/dshills/julook/internal/catalog"
	"github.com/dshills/julook/internal/effect"
	"github.com/dshills/julook/internal/logging"
)

// LoadID is the cancellation id of the favorites load.
const LoadID effect.ID = "mymakgeolli.load"

// ListenID is the id of the favorite.changed subscription.
const ListenID effect.ID = "mymakgeolli.favorites"

// State is the favorites tab state.
type State struct {
	Items     []catalog.Makgeolli
	IsLoading bool
	Loaded    bool
	Listening bool
	Err       *catalog.Error
}

// Action is a favorites tab action.
type Action interface{ myAction() }

type (
	// Appear loads favorites and starts following favorite changes.
	Appear struct{}
	// Reload fetches favorites again.
	Reload struct{}
	// Loaded delivers the favorites, most recently added first.
	Loaded struct{ Items []catalog.Makgeolli }
	// LoadFailed reports a failed load.
	LoadFailed struct{ Err *catalog.Error }
	// RemoveFavorite unfavorites an item.
	RemoveFavorite struct{ ID string }
	// RemoveFailed reports a failed removal.
	RemoveFailed struct{ Err *catalog.Error }
	// ItemTapped asks the parent to open an item.
	ItemTapped struct{ ID string }
)

func (Appear) myAction()         {}
func (Reload) myAction()         {}
func (Loaded) myAction()         {}
func (LoadFailed) myAction()     {}
func (RemoveFavorite) myAction() {}
func (RemoveFailed) myAction()   {}
func (ItemTapped) myAction()     {}

// Dependencies are the collaborators of the favorites reducer.
type Dependencies struct {
	Remote   catalog.Remote
	Local    catalog.Local
	Notifier catalog.Notifier
	Logger   *logging.Logger
}
