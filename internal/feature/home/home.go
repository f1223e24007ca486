// Package home is the catalog list tab: a paginated list of makgeolli with
// lazily fetched images.
package home

import (
	"github.com/dshills/julook/internal/catalog"
	"github.com/dshills/julook/internal/logging"
)

// FetchID is the cancellation id of the list request.
const FetchID = "home.fetch"

// ImagesID groups the image requests.
const ImagesID = "home.images"

// DefaultPageSize is used when Dependencies.PageSize is not set.
const DefaultPageSize = 20

// State is the home tab state.
type State struct {
	Items     []catalog.Makgeolli
	Images    map[string][]byte
	IsLoading bool
	HasMore   bool
	Loaded    bool
	Err       *catalog.Error
}

// Action is a home action.
type Action interface{ homeAction() }

type (
	// Appear loads the first page unless it was already loaded.
	Appear struct{}
	// Refresh reloads from the first page.
	Refresh struct{}
	// LoadNextPage requests the page after the last loaded item.
	LoadNextPage struct{}
	// PageLoaded delivers a page that started at Offset.
	PageLoaded struct {
		Offset int
		Items  []catalog.Makgeolli
	}
	// LoadFailed reports a failed page request.
	LoadFailed struct{ Err *catalog.Error }
	// ImageLoaded delivers an item image.
	ImageLoaded struct {
		ID   string
		Data []byte
	}
	// ImageFailed reports a failed image request. The item keeps its
	// placeholder.
	ImageFailed struct {
		ID  string
		Err *catalog.Error
	}
	// ItemTapped asks the parent to open an item.
	ItemTapped struct{ ID string }
)

func (Appear) homeAction()       {}
func (Refresh) homeAction()      {}
func (LoadNextPage) homeAction() {}
func (PageLoaded) homeAction()   {}
func (LoadFailed) homeAction()   {}
func (ImageLoaded) homeAction()  {}
func (ImageFailed) homeAction()  {}
func (ItemTapped) homeAction()   {}

// Dependencies are the collaborators of the home reducer.
type Dependencies struct {
	Remote   catalog.Remote
	Notifier catalog.Notifier
	Logger   *logging.Logger
	PageSize int
}
