package notify

import "errors"

var (
	// ErrNotRunning is returned when publishing to a stopped bus.
	ErrNotRunning = errors.New("notify: bus is not running")

	// ErrAlreadyRunning is returned by Start on a running bus.
	ErrAlreadyRunning = errors.New("notify: bus already running")

	// ErrInvalidTopic is returned for empty topics, or wildcard topics on publish.
	ErrInvalidTopic = errors.New("notify: invalid topic")

	// ErrNilHandler is returned when subscribing a nil handler.
	ErrNilHandler = errors.New("notify: nil handler")

	// ErrQueueFull is returned when an async delivery could not be queued.
	ErrQueueFull = errors.New("notify: delivery queue full")
)
