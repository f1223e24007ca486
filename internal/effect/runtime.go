package effect

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Deliver hands an action back to the owner of the work. ctx is the context
// the producing work ran under; owners must drop the action if ctx is done.
type Deliver[A any] func(ctx context.Context, action A)

// Runtime schedules effects and tracks cancellable work.
type Runtime struct {
	mu     sync.Mutex
	root   context.Context
	stop   context.CancelFunc
	// drain parents detached work. It outlives root until Close is done.
	drain   context.Context
	release context.CancelFunc
	groups map[ID]map[uint64]context.CancelFunc
	token  uint64
	active int
	idle   chan struct{}
	closed bool

	listening int
	quiet     chan struct{}

	config Config

	started   atomic.Int64
	completed atomic.Int64
	cancelled atomic.Int64
	panics    atomic.Int64
}

// NewRuntime creates a runtime ready to start effects.
func NewRuntime(opts ...Option) *Runtime {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	root, stop := context.WithCancel(context.Background())
	drain, release := context.WithCancel(context.Background())
	return &Runtime{
		root:    root,
		stop:    stop,
		drain:   drain,
		release: release,
		groups:  make(map[ID]map[uint64]context.CancelFunc),
		config:  cfg,
	}
}

// Start schedules e. It never blocks: cancellation bookkeeping happens
// before Start returns, and the work itself runs on other goroutines.
// Effects started after Close are ignored.
func Start[A any](rt *Runtime, e Effect[A], deliver Deliver[A]) {
	if e.IsNone() {
		return
	}
	rt.mu.Lock()
	if rt.closed {
		rt.mu.Unlock()
		return
	}
	ctx := rt.root
	rt.mu.Unlock()

	launch(rt, ctx, e, deliver, func() {})
}

// launch starts e under ctx and calls done exactly once when e and all the
// work it started have finished.
func launch[A any](rt *Runtime, ctx context.Context, e Effect[A], deliver Deliver[A], done func()) {
	switch e.kind {
	case kindNone:
		done()

	case kindCancel:
		rt.cancelIDs(e.ids)
		done()

	case kindRun:
		run := e.run
		if e.background {
			rt.beginBackground(e.kind)
			go func() {
				defer rt.endBackground()
				defer done()
				rt.execute(ctx, false, func(ctx context.Context) {
					run(ctx, func(a A) { deliver(ctx, a) })
				})
			}()
			return
		}
		rt.begin(e.kind)
		go func() {
			defer rt.end()
			defer done()
			rt.execute(ctx, true, func(ctx context.Context) {
				run(ctx, func(a A) { deliver(ctx, a) })
			})
		}()

	case kindMerge:
		var remaining atomic.Int32
		remaining.Store(int32(len(e.children)))
		for _, child := range e.children {
			launch(rt, ctx, child, deliver, func() {
				if remaining.Add(-1) == 0 {
					done()
				}
			})
		}

	case kindConcat:
		rt.begin(e.kind)
		children := e.children
		go func() {
			defer rt.end()
			defer done()
			for _, child := range children {
				if ctx.Err() != nil {
					return
				}
				finished := make(chan struct{})
				launch(rt, ctx, child, deliver, func() { close(finished) })
				<-finished
			}
		}()

	case kindCancellable:
		child, cancel := context.WithCancel(ctx)
		token := rt.register(e.id, cancel, e.replace)
		id := e.id
		launch(rt, child, e.children[0], deliver, func() {
			rt.unregister(id, token)
			cancel()
			done()
		})

	case kindDetached:
		launch(rt, rt.drain, e.children[0], deliver, done)
	}
}

// execute runs fn with panic recovery. Bounded runs also get the per-run
// timeout; subscriptions live until cancelled.
func (rt *Runtime) execute(ctx context.Context, bounded bool, fn func(context.Context)) {
	if ctx.Err() != nil {
		return
	}
	if bounded && rt.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rt.config.Timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			perr := &PanicError{Value: r, Stack: debug.Stack()}
			rt.panics.Add(1)
			if rt.config.Observer != nil {
				rt.config.Observer.EffectPanicked()
			}
			rt.config.Logger.Error("effect panicked", "panic", perr.Value, "stack", string(perr.Stack))
			if rt.config.PanicHandler != nil {
				func() {
					defer func() { _ = recover() }()
					rt.config.PanicHandler(perr)
				}()
			}
		}
	}()

	fn(ctx)
}

func (rt *Runtime) begin(k kind) {
	rt.started.Add(1)
	rt.mu.Lock()
	rt.active++
	rt.mu.Unlock()
	if rt.config.Observer != nil {
		rt.config.Observer.EffectStarted(k.String())
	}
}

func (rt *Runtime) end() {
	rt.completed.Add(1)
	rt.mu.Lock()
	rt.active--
	if rt.active == 0 && rt.idle != nil {
		close(rt.idle)
		rt.idle = nil
	}
	rt.mu.Unlock()
}

func (rt *Runtime) beginBackground(k kind) {
	rt.started.Add(1)
	rt.mu.Lock()
	rt.listening++
	rt.mu.Unlock()
	if rt.config.Observer != nil {
		rt.config.Observer.EffectStarted(k.String())
	}
}

func (rt *Runtime) endBackground() {
	rt.completed.Add(1)
	rt.mu.Lock()
	rt.listening--
	if rt.listening == 0 && rt.quiet != nil {
		close(rt.quiet)
		rt.quiet = nil
	}
	rt.mu.Unlock()
}

func (rt *Runtime) register(id ID, cancel context.CancelFunc, replace bool) uint64 {
	rt.mu.Lock()
	var replaced int
	if replace {
		replaced = rt.cancelLocked(id)
	}
	rt.token++
	token := rt.token
	members := rt.groups[id]
	if members == nil {
		members = make(map[uint64]context.CancelFunc)
		rt.groups[id] = members
	}
	members[token] = cancel
	rt.mu.Unlock()

	if replaced > 0 {
		rt.reportCancelled(id, replaced)
	}
	return token
}

func (rt *Runtime) unregister(id ID, token uint64) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	members := rt.groups[id]
	if members == nil {
		return
	}
	delete(members, token)
	if len(members) == 0 {
		delete(rt.groups, id)
	}
}

func (rt *Runtime) cancelIDs(ids []ID) {
	counts := make(map[ID]int, len(ids))
	rt.mu.Lock()
	for _, id := range ids {
		if n := rt.cancelLocked(id); n > 0 {
			counts[id] = n
		}
	}
	rt.mu.Unlock()

	for id, n := range counts {
		rt.reportCancelled(id, n)
	}
}

// cancelLocked cancels and forgets every member of id. rt.mu must be held.
func (rt *Runtime) cancelLocked(id ID) int {
	members := rt.groups[id]
	for _, cancel := range members {
		cancel()
	}
	delete(rt.groups, id)
	return len(members)
}

func (rt *Runtime) reportCancelled(id ID, n int) {
	rt.cancelled.Add(int64(n))
	rt.config.Logger.Debug("effect cancelled", "id", string(id), "count", n)
	if rt.config.Observer != nil {
		rt.config.Observer.EffectCancelled(string(id), n)
	}
}

// InFlight reports whether any work is registered under id.
func (rt *Runtime) InFlight(id ID) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return len(rt.groups[id]) > 0
}

// Wait blocks until no effect is running or ctx is done. Subscriptions are
// not waited for.
func (rt *Runtime) Wait(ctx context.Context) error {
	rt.mu.Lock()
	if rt.active == 0 {
		rt.mu.Unlock()
		return nil
	}
	if rt.idle == nil {
		rt.idle = make(chan struct{})
	}
	idle := rt.idle
	rt.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels all running work except detached work, refuses new work and
// waits for running goroutines to return. Detached work is cancelled too if
// ctx ends first.
func (rt *Runtime) Close(ctx context.Context) error {
	rt.mu.Lock()
	rt.closed = true
	rt.stop()
	rt.mu.Unlock()

	err := rt.Wait(ctx)
	rt.release()
	if err != nil {
		return err
	}
	return rt.waitBackground(ctx)
}

func (rt *Runtime) waitBackground(ctx context.Context) error {
	rt.mu.Lock()
	if rt.listening == 0 {
		rt.mu.Unlock()
		return nil
	}
	if rt.quiet == nil {
		rt.quiet = make(chan struct{})
	}
	quiet := rt.quiet
	rt.mu.Unlock()

	select {
	case <-quiet:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns runtime counters.
func (rt *Runtime) Stats() Stats {
	rt.mu.Lock()
	active := rt.active
	listening := rt.listening
	groups := len(rt.groups)
	rt.mu.Unlock()
	return Stats{
		Started:   rt.started.Load(),
		Completed: rt.completed.Load(),
		Cancelled: rt.cancelled.Load(),
		Panics:    rt.panics.Load(),
		Active:    active,
		Listening: listening,
		Groups:    groups,
	}
}

// Stats is a snapshot of runtime counters.
type Stats struct {
	Started   int64
	Completed int64
	Cancelled int64
	Panics    int64
	Active    int
	Listening int
	Groups    int
}
