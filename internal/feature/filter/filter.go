// Package filter is the taste filter tab. The user picks taste levels,
// carbonation and a price range, then applies the filter to page through
// matching makgeolli.
package filter

import (
	"github.com/dshills/julook/internal/catalog"
	"github.com/dshills/julook/internal/logging"
)

// FetchID is the cancellation id of the result request.
const FetchID = "filter.fetch"

// DefaultPageSize is used when Dependencies.PageSize is not set.
const DefaultPageSize = 20

// State is the filter tab state. Filter is what the user is editing;
// Applied is the filter the current results were loaded with.
type State struct {
	Filter    catalog.TasteFilter
	Applied   catalog.TasteFilter
	Items     []catalog.Makgeolli
	IsLoading bool
	HasMore   bool
	HasResult bool
	Err       *catalog.Error
}

// Dirty reports whether the edited filter differs from the applied one.
func (s State) Dirty() bool {
	return !equalFilters(s.Filter, s.Applied)
}

// Action is a filter action.
type Action interface{ filterAction() }

type (
	// ToggleLevel adds or removes one taste level.
	ToggleLevel struct {
		Attribute catalog.Attribute
		Level     int
	}
	// ToggleCarbonated cycles carbonation: any, carbonated, still.
	ToggleCarbonated struct{}
	// SetPriceRange sets the price bounds; zero means unbounded.
	SetPriceRange struct{ Min, Max int }
	// Reset clears the filter and the results.
	Reset struct{}
	// Apply loads the first page for the edited filter.
	Apply struct{}
	// LoadMore loads the next page for the applied filter.
	LoadMore struct{}
	// ResultsLoaded delivers a page that started at Offset.
	ResultsLoaded struct {
		Offset int
		Items  []catalog.Makgeolli
	}
	// LoadFailed reports a failed request.
	LoadFailed struct{ Err *catalog.Error }
	// ItemTapped asks the parent to open an item.
	ItemTapped struct{ ID string }
)

func (ToggleLevel) filterAction()      {}
func (ToggleCarbonated) filterAction() {}
func (SetPriceRange) filterAction()    {}
func (Reset) filterAction()            {}
func (Apply) filterAction()            {}
func (LoadMore) filterAction()         {}
func (ResultsLoaded) filterAction()    {}
func (LoadFailed) filterAction()       {}
func (ItemTapped) filterAction()       {}

// Dependencies are the collaborators of the filter reducer.
type Dependencies struct {
	Remote   catalog.Remote
	Notifier catalog.Notifier
	Logger   *logging.Logger
	PageSize int
}
