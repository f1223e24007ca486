package store

import (
	"sync"

	"github.com/dshills/julook/internal/logging"
)

// observer delivers committed states to one subscriber in commit order.
// The queue is unbounded so a slow subscriber never blocks a send.
type observer[S any] struct {
	fn     func(S)
	logger *logging.Logger

	mu     sync.Mutex
	queue  []S
	signal chan struct{}
	done   chan struct{}
	once   sync.Once
}

func newObserver[S any](fn func(S), logger *logging.Logger) *observer[S] {
	o := &observer[S]{
		fn:     fn,
		logger: logger,
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go o.loop()
	return o
}

func (o *observer[S]) enqueue(s S) {
	o.mu.Lock()
	o.queue = append(o.queue, s)
	o.mu.Unlock()

	select {
	case o.signal <- struct{}{}:
	default:
	}
}

func (o *observer[S]) loop() {
	for {
		select {
		case <-o.done:
			return
		case <-o.signal:
		}

		o.mu.Lock()
		batch := o.queue
		o.queue = nil
		o.mu.Unlock()

		for _, s := range batch {
			select {
			case <-o.done:
				return
			default:
			}
			o.call(s)
		}
	}
}

func (o *observer[S]) call(s S) {
	defer func() {
		if p := recover(); p != nil {
			o.logger.Error("observer panicked", "panic", p)
		}
	}()
	o.fn(s)
}

func (o *observer[S]) stop() {
	o.once.Do(func() { close(o.done) })
}
