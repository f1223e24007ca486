// Package store implements the unidirectional state container: a single
// state value evolved by a reducer, with side effects described as data and
// executed by an effect.Runtime.
package store

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dshills/julook/internal/effect"
	"github.com/dshills/julook/internal/logging"
)

// Named lets an action report its own name for logs and metrics.
type Named interface {
	ActionName() string
}

// ActionName returns a stable name for a, preferring Named.
func ActionName(a any) string {
	if n, ok := a.(Named); ok {
		return n.ActionName()
	}
	return fmt.Sprintf("%T", a)
}

// Store owns a state value and serializes every change to it. A Store is
// either a root store created by New or a scoped view created by Scope.
type Store[S, A any] struct {
	get       func() S
	send      func(A)
	subscribe func(func(S)) func()
	lifecycle lifecycle
}

// lifecycle is implemented by the root store only; scoped views share it.
type lifecycle interface {
	Wait(ctx context.Context) error
	Close(ctx context.Context) error
	Closed() bool
}

// New creates a root store holding initial and driven by reducer.
func New[S, A any](initial S, reducer Reducer[S, A], opts ...Option) *Store[S, A] {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	r := &root[S, A]{
		state:     initial,
		reducer:   reducer,
		config:    cfg,
		logger:    cfg.Logger.WithComponent("store").WithField("store", cfg.Name),
		observers: make(map[uint64]*observer[S]),
	}
	r.runtime = effect.NewRuntime(append([]effect.Option{effect.WithLogger(r.logger)}, cfg.EffectOptions...)...)

	return &Store[S, A]{
		get:       r.current,
		send:      func(a A) { r.dispatch(context.Background(), a, false) },
		subscribe: r.addObserver,
		lifecycle: r,
	}
}

// Send applies action synchronously and schedules the resulting effect.
// Sends are serialized; concurrent callers are applied one at a time.
func (s *Store[S, A]) Send(action A) {
	s.send(action)
}

// State returns the current state snapshot.
func (s *Store[S, A]) State() S {
	return s.get()
}

// Subscribe registers fn to receive the current state and then every
// committed state, in commit order, on a dedicated goroutine. The returned
// function unsubscribes.
func (s *Store[S, A]) Subscribe(fn func(S)) (cancel func()) {
	return s.subscribe(fn)
}

// Wait blocks until no effect started by the store is running.
func (s *Store[S, A]) Wait(ctx context.Context) error {
	return s.lifecycle.Wait(ctx)
}

// Close cancels all effects, stops observers and waits for running effects
// to return. Sends after Close are dropped. Closing a scoped view closes the
// root it belongs to.
func (s *Store[S, A]) Close(ctx context.Context) error {
	return s.lifecycle.Close(ctx)
}

// Closed reports whether the store has been closed.
func (s *Store[S, A]) Closed() bool {
	return s.lifecycle.Closed()
}

// Scope derives a child store from parent. The child reads its state
// through toChild and sends its actions through fromChild; it holds no
// state of its own.
func Scope[PS, PA, CS, CA any](parent *Store[PS, PA], toChild func(PS) CS, fromChild func(CA) PA) *Store[CS, CA] {
	return &Store[CS, CA]{
		get:  func() CS { return toChild(parent.get()) },
		send: func(a CA) { parent.send(fromChild(a)) },
		subscribe: func(fn func(CS)) func() {
			return parent.subscribe(func(ps PS) { fn(toChild(ps)) })
		},
		lifecycle: parent.lifecycle,
	}
}

type root[S, A any] struct {
	mu        sync.Mutex
	state     S
	reducer   Reducer[S, A]
	runtime   *effect.Runtime
	observers map[uint64]*observer[S]
	nextObs   uint64
	closed    bool

	config Config
	logger *logging.Logger
}

func (r *root[S, A]) current() S {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// dispatch applies one action. For actions delivered by effects ctx is the
// producing work's context, and the action is dropped once that work has
// been cancelled.
func (r *root[S, A]) dispatch(ctx context.Context, action A, fromEffect bool) {
	info := SendInfo{
		Store:      r.config.Name,
		Action:     ActionName(action),
		FromEffect: fromEffect,
	}
	start := time.Now()

	r.mu.Lock()
	switch {
	case r.closed:
		info.Dropped = true
	case ctx.Err() != nil:
		info.Dropped = true
	case !r.runPreHooks(&info):
		info.Dropped = true
	default:
		r.apply(action, &info)
	}
	r.mu.Unlock()

	info.Duration = time.Since(start)
	r.runPostHooks(info)
}

// apply runs the reducer on a copy of the state and commits it.
// r.mu must be held.
func (r *root[S, A]) apply(action A, info *SendInfo) {
	next := r.state
	eff, ok := r.reduce(&next, action, info)
	if !ok {
		return
	}
	r.state = next
	info.Effect = eff.Kind()

	effect.Start(r.runtime, eff, r.deliver)
	for _, o := range r.observers {
		o.enqueue(next)
	}
}

func (r *root[S, A]) reduce(state *S, action A, info *SendInfo) (eff effect.Effect[A], ok bool) {
	if r.config.RecoverPanics {
		defer func() {
			if p := recover(); p != nil {
				info.Panicked = true
				ok = false
				r.logger.Error("reducer panicked, state left unchanged",
					"action", info.Action, "panic", p, "stack", string(debug.Stack()))
			}
		}()
	}
	return r.reducer.Reduce(state, action), true
}

func (r *root[S, A]) deliver(ctx context.Context, action A) {
	r.dispatch(ctx, action, true)
}

func (r *root[S, A]) runPreHooks(info *SendInfo) bool {
	for _, h := range r.config.PreHooks {
		if !h.PreSend(info) {
			return false
		}
	}
	return true
}

func (r *root[S, A]) runPostHooks(info SendInfo) {
	for _, h := range r.config.PostHooks {
		h.PostSend(info)
	}
}

func (r *root[S, A]) addObserver(fn func(S)) func() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return func() {}
	}
	r.nextObs++
	id := r.nextObs
	o := newObserver(fn, r.logger)
	r.observers[id] = o
	o.enqueue(r.state)
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.observers, id)
			r.mu.Unlock()
			o.stop()
		})
	}
}

func (r *root[S, A]) Wait(ctx context.Context) error {
	return r.runtime.Wait(ctx)
}

func (r *root[S, A]) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	observers := r.observers
	r.observers = make(map[uint64]*observer[S])
	r.mu.Unlock()

	for _, o := range observers {
		o.stop()
	}
	r.logger.Debug("store closed")
	return r.runtime.Close(ctx)
}

func (r *root[S, A]) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
