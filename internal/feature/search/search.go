// Package search is the search cover: a debounced remote search plus the
// list of recent queries kept on the device.
package search

import (
	"time"

	"github.com/dshills/julook/internal/catalog"
	"github.com/dshills/julook/internal/effect"
	"github.com/dshills/julook/internal/logging"
)

// QueryID is the debounce and cancellation id of the remote search.
const QueryID effect.ID = "search.query"

// RecentKey is the local key holding recent queries.
const RecentKey = "search.recent"

// Defaults used when Dependencies leaves them unset.
const (
	DefaultDebounce = 300 * time.Millisecond
	DefaultLimit    = 30
)

// State is the search screen state.
type State struct {
	Query        string
	Results      []catalog.Makgeolli
	Recent       []string
	IsSearching  bool
	RecentLoaded bool
	Err          *catalog.Error
}

// Action is a search action.
type Action interface{ searchAction() }

type (
	// Appear loads the recent queries.
	Appear struct{}
	// RecentLoaded delivers the stored recent queries.
	RecentLoaded struct{ Queries []string }
	// QueryChanged is sent on every keystroke.
	QueryChanged struct{ Query string }
	// Submit searches immediately and records the query.
	Submit struct{}
	// Results delivers the results for Query.
	Results struct {
		Query string
		Items []catalog.Makgeolli
	}
	// SearchFailed reports a failed search for Query.
	SearchFailed struct {
		Query string
		Err   *catalog.Error
	}
	// RecentTapped reruns a recent query.
	RecentTapped struct{ Query string }
	// ClearRecent forgets every recent query.
	ClearRecent struct{}
	// ResultTapped asks the parent to open a result.
	ResultTapped struct{ ID string }
	// CloseTapped asks to leave the screen.
	CloseTapped struct{}
	// Finished tells the parent the screen is done.
	Finished struct{}
)

func (Appear) searchAction()       {}
func (RecentLoaded) searchAction() {}
func (QueryChanged) searchAction() {}
func (Submit) searchAction()       {}
func (Results) searchAction()      {}
func (SearchFailed) searchAction() {}
func (RecentTapped) searchAction() {}
func (ClearRecent) searchAction()  {}
func (ResultTapped) searchAction() {}
func (CloseTapped) searchAction()  {}
func (Finished) searchAction()     {}

// Dependencies are the collaborators of the search reducer.
type Dependencies struct {
	Remote   catalog.Remote
	Local    catalog.Local
	Notifier catalog.Notifier
	Logger   *logging.Logger

	Debounce time.Duration
	Limit    int

	// RecentMax caps the recent query list; zero uses catalog.RecentMax.
	RecentMax int
}
