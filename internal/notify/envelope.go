package notify

import (
	"time"

	"github.com/google/uuid"
)

// Envelope carries one notification.
type Envelope struct {
	ID        string
	Topic     Topic
	Payload   any
	Source    string
	Timestamp time.Time
}

// NewEnvelope wraps payload for topic.
func NewEnvelope(topic Topic, payload any, source string) Envelope {
	return Envelope{
		ID:        uuid.NewString(),
		Topic:     topic,
		Payload:   payload,
		Source:    source,
		Timestamp: time.Now(),
	}
}

// PayloadAs returns the payload as T.
func PayloadAs[T any](env Envelope) (T, bool) {
	v, ok := env.Payload.(T)
	return v, ok
}
