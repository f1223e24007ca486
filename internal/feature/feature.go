// Package feature holds helpers shared by the feature reducers under it.
//
// Each feature package exposes a State, a sealed Action interface with one
// struct per case, Dependencies, and Reducer(deps). Reducers never call
// collaborators directly; every call happens inside an effect.Run body and
// reports its outcome as an action.
package feature

import (
	"context"

	"github.com/dshills/julook/internal/catalog"
	"github.com/dshills/julook/internal/logging"
	"github.com/dshills/julook/internal/notify"
)

// Toast publishes t on notify.TopicToast. Publishing failures are logged
// and otherwise ignored.
func Toast(ctx context.Context, n catalog.Notifier, logger *logging.Logger, source string, t catalog.Toast) {
	if n == nil {
		return
	}
	if err := n.Emit(ctx, notify.TopicToast, t, source); err != nil && logger != nil {
		logger.Warn("toast not published", "source", source, "error", err)
	}
}

// ReportFailure logs err and shows its user message as an error toast.
func ReportFailure(ctx context.Context, n catalog.Notifier, logger *logging.Logger, source string, err *catalog.Error) {
	if logger != nil {
		logger.Warn("operation failed", "op", err.Op, "kind", err.Kind.String(), "error", err)
	}
	Toast(ctx, n, logger, source, catalog.Toast{Message: err.Message(), Level: catalog.ToastError})
}

// Emit publishes payload on topic, logging failures.
func Emit(ctx context.Context, n catalog.Notifier, logger *logging.Logger, topic notify.Topic, payload any, source string) {
	if n == nil {
		return
	}
	if err := n.Emit(ctx, topic, payload, source); err != nil && logger != nil {
		logger.Warn("notification not published", "topic", string(topic), "error", err)
	}
}

// Listen forwards notifications matching pattern to fn until ctx is done.
// It is a no-op when n is nil.
func Listen(ctx context.Context, n catalog.Notifier, logger *logging.Logger, pattern notify.Topic, fn func(notify.Envelope)) {
	if n == nil {
		return
	}
	if err := n.Listen(ctx, pattern, fn); err != nil && logger != nil {
		logger.Warn("subscription failed", "pattern", string(pattern), "error", err)
	}
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
