// Package pubsub fans typed events out to any number of subscribers.
package pubsub

import (
	"context"
	"time"
)

// EventType names what happened.
type EventType string

const (
	// LogEvent carries a formatted log line.
	LogEvent EventType = "log"
	// ChangedEvent announces a file that changed on disk.
	ChangedEvent EventType = "changed"
	// ValidatedEvent carries the result of validating a document.
	ValidatedEvent EventType = "validated"
	// ArchivedEvent carries a document stored in the archive.
	ArchivedEvent EventType = "archived"
)

// Event is one published value.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
