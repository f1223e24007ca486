// Package settings is the profile tab where the user edits a nickname.
package settings

import (
	"github.com/dshills/julook/internal/catalog"
	"github.com/dshills/julook/internal/effect"
	"github.com/dshills/julook/internal/logging"
)

// SaveID is the cancellation id of the nickname update.
const SaveID effect.ID = "settings.save"

// SavedMessage is shown after a successful update.
const SavedMessage = "닉네임을 변경했어요."

// State is the settings tab state.
type State struct {
	Profile   *catalog.Profile
	Draft     string
	IsLoading bool
	IsSaving  bool
	Loaded    bool
	Err       *catalog.Error
}

// Nickname returns the current nickname or "".
func (s State) Nickname() string {
	if s.Profile == nil {
		return ""
	}
	return s.Profile.Nickname
}

// Action is a settings action.
type Action interface{ settingsAction() }

type (
	// Appear loads the profile.
	Appear struct{}
	// ProfileLoaded delivers the profile.
	ProfileLoaded struct{ Profile catalog.Profile }
	// LoadFailed reports a failed load.
	LoadFailed struct{ Err *catalog.Error }
	// DraftChanged edits the nickname draft.
	DraftChanged struct{ Text string }
	// SaveTapped validates and saves the draft.
	SaveTapped struct{}
	// Saved delivers the updated profile.
	Saved struct{ Profile catalog.Profile }
	// SaveFailed reports a rejected or failed update.
	SaveFailed struct{ Err *catalog.Error }
)

func (Appear) settingsAction()        {}
func (ProfileLoaded) settingsAction() {}
func (LoadFailed) settingsAction()    {}
func (DraftChanged) settingsAction()  {}
func (SaveTapped) settingsAction()    {}
func (Saved) settingsAction()         {}
func (SaveFailed) settingsAction()    {}

// Dependencies are the collaborators of the settings reducer.
type Dependencies struct {
	Remote   catalog.Remote
	Identity catalog.Identity
	Notifier catalog.Notifier
	Logger   *logging.Logger
}
