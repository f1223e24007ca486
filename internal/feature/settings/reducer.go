package settings

import (
	"context"
	"errors"

	"github.com/dshills/julook/internal/catalog"
	"github.com/dshills/julook/internal/effect"
	"github.com/dshills/julook/internal/feature"
	"github.com/dshills/julook/internal/logging"
	"github.com/dshills/julook/internal/notify"
	"github.com/dshills/julook/internal/store"
)

const (
	source        = "settings"
	nicknameField = "닉네임"
	saveOp        = "settings.nickname"
)

// Reducer returns the settings reducer.
func Reducer(deps Dependencies) store.Reducer[State, Action] {
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
		if state.Loaded || state.IsLoading {
			return effect.None[Action]()
		}
		state.IsLoading = true
		state.Err = nil
		return load(deps)

	case ProfileLoaded:
		p := a.Profile
		state.Profile = &p
		state.Draft = p.Nickname
		state.IsLoading = false
		state.Loaded = true
		return effect.None[Action]()

	case LoadFailed:
		state.IsLoading = false
		state.Err = a.Err
		return effect.None[Action]()

	case DraftChanged:
		state.Draft = a.Text
		state.Err = nil
		return effect.None[Action]()

	case SaveTapped:
		if state.IsSaving {
			return effect.None[Action]()
		}
		name := catalog.NormalizeText(state.Draft)
		if verr := catalog.ValidateNickname(name); verr != nil {
			state.Err = verr
			return report(deps, verr)
		}
		if name == state.Nickname() {
			return effect.None[Action]()
		}
		state.IsSaving = true
		state.Err = nil
		return save(deps, name)

	case Saved:
		p := a.Profile
		state.Profile = &p
		state.Draft = p.Nickname
		state.IsSaving = false
		state.Err = nil
		return effect.None[Action]()

	case SaveFailed:
		state.IsSaving = false
		state.Err = a.Err
		return effect.None[Action]()
	}
	return effect.None[Action]()
}

func report(deps Dependencies, err *catalog.Error) effect.Effect[Action] {
	return effect.Run(func(ctx context.Context, _ effect.Send[Action]) {
		feature.Toast(ctx, deps.Notifier, deps.Logger, source,
			catalog.Toast{Message: err.Message(), Level: catalog.ToastError})
	})
}

// load resolves the user and fetches the profile. A user without a profile
// row gets an empty nickname.
func load(deps Dependencies) effect.Effect[Action] {
	return effect.Run(func(ctx context.Context, send effect.Send[Action]) {
		uid, err := deps.Identity.UserID(ctx)
		if err != nil {
			if catalog.IsCancelled(err) {
				return
			}
			failure := catalog.RemoteError("settings.load", err)
			feature.ReportFailure(ctx, deps.Notifier, deps.Logger, source, failure)
			send(LoadFailed{Err: failure})
			return
		}
		p, err := deps.Remote.GetProfile(ctx, uid)
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			p = catalog.Profile{UserID: uid}
		case err != nil:
			if catalog.IsCancelled(err) {
				return
			}
			failure := catalog.RemoteError("settings.load", err)
			feature.ReportFailure(ctx, deps.Notifier, deps.Logger, source, failure)
			send(LoadFailed{Err: failure})
			return
		}
		send(ProfileLoaded{Profile: p})
	})
}

func save(deps Dependencies, name string) effect.Effect[Action] {
	return effect.Run(func(ctx context.Context, send effect.Send[Action]) {
		fail := func(failure *catalog.Error) {
			feature.ReportFailure(ctx, deps.Notifier, deps.Logger, source, failure)
			send(SaveFailed{Err: failure})
		}

		uid, err := deps.Identity.UserID(ctx)
		if err != nil {
			if !catalog.IsCancelled(err) {
				fail(catalog.RemoteError(saveOp, err))
			}
			return
		}
		taken, err := deps.Remote.NicknameExists(ctx, name)
		if err != nil {
			if !catalog.IsCancelled(err) {
				fail(catalog.RemoteError(saveOp, err))
			}
			return
		}
		if taken {
			fail(catalog.ValidationError(saveOp, nicknameField, catalog.ReasonDuplicate))
			return
		}

		p, err := deps.Remote.UpdateNickname(ctx, uid, name)
		switch {
		case errors.Is(err, catalog.ErrConflict):
			fail(catalog.ValidationError(saveOp, nicknameField, catalog.ReasonDuplicate))
			return
		case err != nil:
			if !catalog.IsCancelled(err) {
				fail(catalog.RemoteError(saveOp, err))
			}
			return
		}

		feature.Emit(ctx, deps.Notifier, deps.Logger, notify.TopicProfileChanged,
			catalog.ProfileChange{Profile: p}, source)
		feature.Toast(ctx, deps.Notifier, deps.Logger, source,
			catalog.Toast{Message: SavedMessage, Level: catalog.ToastInfo})
		send(Saved{Profile: p})
	}).Cancellable(SaveID)
}
