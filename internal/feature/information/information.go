// Package information is the makgeolli detail screen: the item itself, its
// comments, the user's favorite flag and like/dislike reaction.
package information

import (
	"time"

	"github.com/dshills/julook/internal/catalog"
	"github.com/dshills/julook/internal/effect"
	"github.com/dshills/julook/internal/logging"
)

// DefaultReactionDelay is how long reaction taps are coalesced before the
// result is written remotely.
const DefaultReactionDelay = 400 * time.Millisecond

// ReactionID is the debounce id of reaction writes for one makgeolli.
// Screens showing the same makgeolli share it, since they write the same
// remote row.
func ReactionID(makgeolliID string) effect.ID {
	return effect.ID("information.reaction." + makgeolliID)
}

// State is the detail screen state.
type State struct {
	ID         string
	UserID     string
	Item       *catalog.Makgeolli
	Comments   []catalog.Comment
	IsFavorite bool

	// Reaction is what the screen shows; Synced is the last reaction the
	// remote confirmed.
	Reaction catalog.Reaction
	Synced   catalog.Reaction

	Draft        string
	IsLoading    bool
	IsSubmitting bool
	Loaded       bool
	Listening    bool
	Err          *catalog.Error
}

// New returns the initial state for makgeolliID.
func New(makgeolliID string) State {
	return State{ID: makgeolliID}
}

// CanDelete reports whether the current user wrote c.
func (s State) CanDelete(c catalog.Comment) bool {
	return s.UserID != "" && c.UserID == s.UserID
}

// Action is an information action.
type Action interface{ informationAction() }

type (
	// Appear loads the screen and starts listening for comment changes.
	Appear struct{}
	// Loaded delivers everything Appear fetched.
	Loaded struct {
		UserID     string
		Item       catalog.Makgeolli
		Comments   []catalog.Comment
		IsFavorite bool
		Reaction   catalog.Reaction
	}
	// LoadFailed reports a failed Appear.
	LoadFailed struct{ Err *catalog.Error }

	// ToggleFavorite flips the favorite flag.
	ToggleFavorite struct{}
	// FavoriteSaved confirms a favorite write.
	FavoriteSaved struct{ IsFavorite bool }
	// FavoriteFailed reverts a favorite write.
	FavoriteFailed struct {
		Previous bool
		Err      *catalog.Error
	}

	// React selects a reaction. Selecting the current reaction clears it.
	React struct{ Reaction catalog.Reaction }
	// ReactionSaved confirms a reaction write.
	ReactionSaved struct{ Reaction catalog.Reaction }
	// ReactionFailed reports a failed reaction write; the screen returns to
	// the last confirmed reaction.
	ReactionFailed struct{ Err *catalog.Error }

	// DraftChanged edits the comment draft.
	DraftChanged struct{ Text string }
	// SubmitComment posts the draft.
	SubmitComment struct{}
	// CommentPosted delivers the stored comment.
	CommentPosted struct{ Comment catalog.Comment }
	// CommentFailed reports a failed post or a rejected draft.
	CommentFailed struct{ Err *catalog.Error }
	// DeleteComment removes one of the user's comments.
	DeleteComment struct{ ID string }
	// CommentDeleted confirms a delete.
	CommentDeleted struct{ ID string }
	// CommentsChanged is received when another screen changed the comments.
	CommentsChanged struct{}
	// CommentsReloaded delivers a fresh comment list.
	CommentsReloaded struct{ Comments []catalog.Comment }

	// CloseTapped asks to leave the screen.
	CloseTapped struct{}
	// Finished tells the parent the screen is done.
	Finished struct{}
)

func (Appear) informationAction()           {}
func (Loaded) informationAction()           {}
func (LoadFailed) informationAction()       {}
func (ToggleFavorite) informationAction()   {}
func (FavoriteSaved) informationAction()    {}
func (FavoriteFailed) informationAction()   {}
func (React) informationAction()            {}
func (ReactionSaved) informationAction()    {}
func (ReactionFailed) informationAction()   {}
func (DraftChanged) informationAction()     {}
func (SubmitComment) informationAction()    {}
func (CommentPosted) informationAction()    {}
func (CommentFailed) informationAction()    {}
func (DeleteComment) informationAction()    {}
func (CommentDeleted) informationAction()   {}
func (CommentsChanged) informationAction()  {}
func (CommentsReloaded) informationAction() {}
func (CloseTapped) informationAction()      {}
func (Finished) informationAction()         {}

// Dependencies are the collaborators of the information reducer.
type Dependencies struct {
	Remote   catalog.Remote
	Local    catalog.Local
	Identity catalog.Identity
	Notifier catalog.Notifier
	Logger   *logging.Logger

	// ReactionDelay coalesces rapid reaction taps. Zero uses
	// DefaultReactionDelay; a negative value writes immediately.
	ReactionDelay time.Duration
}
