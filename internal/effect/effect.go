// Package effect describes asynchronous work as plain values and schedules it.
//
// A reducer never performs I/O itself. It returns an Effect that tells the
// Runtime what to run, and the Runtime feeds every action the work produces
// back to the owning store. Effects compose (Merge, Concat), can be tagged for
// cancellation (Cancellable, CancelGroup) and cancelled by id (Cancel).
// Detached work leaves the cancellation scope it was started in.
package effect

import (
	"context"
	"time"
)

// ID identifies a cancellable unit of in-flight work.
type ID string

// Send delivers an action produced by effect work back to the store.
type Send[A any] func(action A)

type kind uint8

const (
	kindNone kind = iota
	kindRun
	kindMerge
	kindConcat
	kindCancellable
	kindCancel
	kindDetached
)

// String returns the shape name used in logs and metrics.
func (k kind) String() string {
	switch k {
	case kindNone:
		return "none"
	case kindRun:
		return "run"
	case kindMerge:
		return "merge"
	case kindConcat:
		return "concat"
	case kindCancellable:
		return "cancellable"
	case kindCancel:
		return "cancel"
	case kindDetached:
		return "detached"
	default:
		return "unknown"
	}
}

// Effect is a description of asynchronous work yielding actions of type A.
// The zero value is the empty effect.
type Effect[A any] struct {
	kind     kind
	run      func(ctx context.Context, send Send[A])
	children []Effect[A]

	// background runs are not waited for by Runtime.Wait.
	background bool

	// cancellable / cancel
	id      ID
	replace bool
	ids     []ID
}

// None returns the empty effect.
func None[A any]() Effect[A] {
	return Effect[A]{}
}

// Run wraps fn as an effect. fn may call send any number of times and must
// return when ctx is done. Anything sent after cancellation is discarded.
func Run[A any](fn func(ctx context.Context, send Send[A])) Effect[A] {
	if fn == nil {
		return None[A]()
	}
	return Effect[A]{kind: kindRun, run: fn}
}

// Subscribe wraps a long-lived fn, typically a notification listener that
// returns only when ctx is done. Runtime.Wait does not wait for it; Close
// cancels it and waits for it to return. Do not place it inside Concat.
func Subscribe[A any](fn func(ctx context.Context, send Send[A])) Effect[A] {
	e := Run(fn)
	e.background = !e.IsNone()
	return e
}

// Action returns an effect that immediately delivers a.
func Action[A any](a A) Effect[A] {
	return Run(func(_ context.Context, send Send[A]) {
		send(a)
	})
}

// Sleep returns an effect that sends nothing and completes after d, or
// earlier if cancelled. It is mostly useful inside Concat.
func Sleep[A any](d time.Duration) Effect[A] {
	return Run(func(ctx context.Context, _ Send[A]) {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
	})
}

// Merge runs all effects concurrently. Empty effects are dropped.
func Merge[A any](effects ...Effect[A]) Effect[A] {
	kept := compact(effects)
	switch len(kept) {
	case 0:
		return None[A]()
	case 1:
		return kept[0]
	}
	return Effect[A]{kind: kindMerge, children: kept}
}

// Concat runs effects one after another. Each effect completes, including
// any work it started, before the next one begins.
func Concat[A any](effects ...Effect[A]) Effect[A] {
	kept := compact(effects)
	switch len(kept) {
	case 0:
		return None[A]()
	case 1:
		return kept[0]
	}
	return Effect[A]{kind: kindConcat, children: kept}
}

// Cancel returns an effect that cancels all in-flight work registered under
// any of ids. Unknown ids are ignored.
func Cancel[A any](ids ...ID) Effect[A] {
	if len(ids) == 0 {
		return None[A]()
	}
	return Effect[A]{kind: kindCancel, ids: append([]ID(nil), ids...)}
}

// Debounce delays e by d under id. Scheduling another debounced effect with
// the same id before d elapses cancels the pending one.
func Debounce[A any](id ID, d time.Duration, e Effect[A]) Effect[A] {
	if e.IsNone() {
		return Cancel[A](id)
	}
	return Concat(Sleep[A](d), e).Cancellable(id)
}

// Cancellable registers e under id. Any earlier work still running under the
// same id is cancelled first.
func (e Effect[A]) Cancellable(id ID) Effect[A] {
	if e.IsNone() {
		return e
	}
	return Effect[A]{kind: kindCancellable, children: []Effect[A]{e}, id: id, replace: true}
}

// CancelGroup registers e under id without cancelling work already
// registered there. Cancel(id) stops every member of the group.
func (e Effect[A]) CancelGroup(id ID) Effect[A] {
	if e.IsNone() {
		return e
	}
	return Effect[A]{kind: kindCancellable, children: []Effect[A]{e}, id: id}
}

// Detached runs e outside every cancellation group it is nested in, so a
// Cancel of an enclosing group does not stop it. Ids registered inside e
// still work. Runtime.Close lets detached work finish before returning and
// cancels it only when the close deadline passes. Use it for writes the user
// has already seen applied.
func (e Effect[A]) Detached() Effect[A] {
	if e.IsNone() {
		return e
	}
	return Effect[A]{kind: kindDetached, children: []Effect[A]{e}}
}

// IsNone reports whether e does nothing.
func (e Effect[A]) IsNone() bool {
	return e.kind == kindNone
}

// Kind returns the shape name of e.
func (e Effect[A]) Kind() string {
	return e.kind.String()
}

// Map lifts an effect producing child actions into one producing parent
// actions. Cancellation ids and structure are preserved.
func Map[A, B any](e Effect[A], f func(A) B) Effect[B] {
	switch e.kind {
	case kindNone:
		return None[B]()
	case kindRun:
		run := e.run
		return Effect[B]{kind: kindRun, background: e.background, run: func(ctx context.Context, send Send[B]) {
			run(ctx, func(a A) { send(f(a)) })
		}}
	case kindCancel:
		return Effect[B]{kind: kindCancel, ids: e.ids}
	default:
		children := make([]Effect[B], len(e.children))
		for i, c := range e.children {
			children[i] = Map(c, f)
		}
		return Effect[B]{kind: e.kind, children: children, id: e.id, replace: e.replace}
	}
}

func compact[A any](effects []Effect[A]) []Effect[A] {
	kept := make([]Effect[A], 0, len(effects))
	for _, e := range effects {
		if !e.IsNone() {
			kept = append(kept, e)
		}
	}
	return kept
}
