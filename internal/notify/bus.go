// Package notify is the process-wide notification bus. Features publish
// fire-and-forget notifications (toasts, "comments changed") and other
// features subscribe to them from long-running effects.
package notify

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/julook/internal/logging"
)

// Handler receives notifications.
type Handler func(ctx context.Context, env Envelope) error

// Subscription identifies a registered handler.
type Subscription struct {
	ID      string
	Pattern Topic
}

type subscriber struct {
	Subscription
	handler Handler
}

type task struct {
	ctx     context.Context
	env     Envelope
	handler Handler
}

// Bus delivers notifications to subscribers whose pattern matches. Publish
// delivers through a bounded worker pool; PublishSync delivers inline.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]subscriber

	config  Config
	logger  *logging.Logger
	queue   chan task
	wg      sync.WaitGroup
	running atomic.Bool
	stopMu  sync.Mutex

	published atomic.Uint64
	delivered atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64
	panicked  atomic.Uint64
}

// New creates a bus. It must be started before publishing.
func New(opts ...Option) *Bus {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Bus{
		subs:   make(map[string]subscriber),
		config: cfg,
		logger: cfg.Logger.WithComponent("notify"),
	}
}

// Start launches the delivery workers.
func (b *Bus) Start() error {
	b.stopMu.Lock()
	defer b.stopMu.Unlock()
	if b.running.Load() {
		return ErrAlreadyRunning
	}
	b.queue = make(chan task, b.config.QueueSize)
	for i := 0; i < b.config.Workers; i++ {
		b.wg.Add(1)
		go b.worker(b.queue)
	}
	b.running.Store(true)
	return nil
}

// Stop stops accepting notifications and waits for queued deliveries to
// drain or ctx to end.
func (b *Bus) Stop(ctx context.Context) error {
	b.stopMu.Lock()
	if !b.running.Swap(false) {
		b.stopMu.Unlock()
		return ErrNotRunning
	}
	close(b.queue)
	b.stopMu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether the bus accepts notifications.
func (b *Bus) IsRunning() bool {
	return b.running.Load()
}

// Subscribe registers handler for every topic matching pattern.
func (b *Bus) Subscribe(pattern Topic, handler Handler) (Subscription, error) {
	if pattern == "" {
		return Subscription{}, ErrInvalidTopic
	}
	if handler == nil {
		return Subscription{}, ErrNilHandler
	}
	sub := subscriber{
		Subscription: Subscription{ID: uuid.NewString(), Pattern: pattern},
		handler:      handler,
	}
	b.mu.Lock()
	b.subs[sub.ID] = sub
	b.mu.Unlock()
	return sub.Subscription, nil
}

// Listen calls fn for every notification matching pattern until ctx is
// done. It is meant to run inside a long-lived effect.
func (b *Bus) Listen(ctx context.Context, pattern Topic, fn func(Envelope)) error {
	sub, err := b.Subscribe(pattern, func(_ context.Context, env Envelope) error {
		if ctx.Err() == nil {
			fn(env)
		}
		return nil
	})
	if err != nil {
		return err
	}
	defer b.Unsubscribe(sub)
	<-ctx.Done()
	return nil
}

// Unsubscribe removes sub. Unknown subscriptions are ignored.
func (b *Bus) Unsubscribe(sub Subscription) {
	b.mu.Lock()
	delete(b.subs, sub.ID)
	b.mu.Unlock()
}

// Publish queues env for asynchronous delivery to every matching
// subscriber. Deliveries that do not fit in the queue are dropped and
// reported as ErrQueueFull.
func (b *Bus) Publish(ctx context.Context, env Envelope) error {
	matches, err := b.prepare(env)
	if err != nil || len(matches) == 0 {
		return err
	}

	b.stopMu.Lock()
	defer b.stopMu.Unlock()
	if !b.running.Load() {
		return ErrNotRunning
	}

	var full bool
	for _, sub := range matches {
		select {
		case b.queue <- task{ctx: context.WithoutCancel(ctx), env: env, handler: sub.handler}:
		default:
			b.dropped.Add(1)
			full = true
		}
	}
	if full {
		b.logger.Warn("notification dropped", "topic", string(env.Topic))
		return ErrQueueFull
	}
	return nil
}

// PublishSync delivers env to every matching subscriber before returning.
// Handler errors are joined into the returned error.
func (b *Bus) PublishSync(ctx context.Context, env Envelope) error {
	matches, err := b.prepare(env)
	if err != nil {
		return err
	}
	var errs []error
	for _, sub := range matches {
		if err := b.deliver(ctx, env, sub.handler); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %d handler(s) failed: %w", len(errs), errs[0])
	}
	return nil
}

// Emit is a convenience for Publish(ctx, NewEnvelope(topic, payload, source)).
func (b *Bus) Emit(ctx context.Context, topic Topic, payload any, source string) error {
	return b.Publish(ctx, NewEnvelope(topic, payload, source))
}

func (b *Bus) prepare(env Envelope) ([]subscriber, error) {
	if !b.running.Load() {
		return nil, ErrNotRunning
	}
	if env.Topic == "" || env.Topic.IsPattern() {
		return nil, ErrInvalidTopic
	}
	b.published.Add(1)

	b.mu.RLock()
	defer b.mu.RUnlock()
	var matches []subscriber
	for _, sub := range b.subs {
		if env.Topic.Matches(sub.Pattern) {
			matches = append(matches, sub)
		}
	}
	return matches, nil
}

func (b *Bus) worker(queue <-chan task) {
	defer b.wg.Done()
	for t := range queue {
		ctx := t.ctx
		var cancel context.CancelFunc
		if b.config.HandlerTimeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, b.config.HandlerTimeout)
		}
		_ = b.deliver(ctx, t.env, t.handler)
		if cancel != nil {
			cancel()
		}
	}
}

// deliver runs one handler with panic recovery.
func (b *Bus) deliver(ctx context.Context, env Envelope, h Handler) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			b.panicked.Add(1)
			b.logger.Error("notification handler panicked",
				"topic", string(env.Topic), "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("notify: handler panicked: %v", r)
		}
	}()

	if err := h(ctx, env); err != nil {
		b.failed.Add(1)
		b.logger.Warn("notification handler failed",
			"topic", string(env.Topic), "error", err, "duration", time.Since(start))
		return err
	}
	b.delivered.Add(1)
	return nil
}

// Stats is a snapshot of bus counters.
type Stats struct {
	Subscriptions int
	Published     uint64
	Delivered     uint64
	Dropped       uint64
	Failed        uint64
	Panicked      uint64
}

// Stats returns bus counters.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	n := len(b.subs)
	b.mu.RUnlock()
	return Stats{
		Subscriptions: n,
		Published:     b.published.Load(),
		Delivered:     b.delivered.Load(),
		Dropped:       b.dropped.Load(),
		Failed:        b.failed.Load(),
		Panicked:      b.panicked.Load(),
	}
}
