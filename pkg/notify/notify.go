// Package notify delivers live-reload events to connected viewers.
//
// A [Notifier] fans each published [Event] out to every current subscriber.
// Two backends are provided: [Hub] keeps subscribers in process memory, and
// [Redis] relays events over a Redis pub/sub channel so that several server
// processes can share one stream.
//
// Delivery is best effort. A subscriber that does not keep up loses events
// rather than blocking the publisher. The end event is the exception: it
// displaces the oldest queued event, so a lagging viewer still learns that
// the session is over.
package notify

import (
	"context"
	"errors"
	"time"
)

// EventType names a live-reload event.
type EventType string

const (
	// EventRefresh tells viewers to reload the page.
	EventRefresh EventType = "refresh"

	// EventEnd tells viewers the session is over and the stream closes.
	EventEnd EventType = "end"
)

// Event is one live-reload notification.
type Event struct {
	Type   EventType `json:"type"`
	Module string    `json:"module,omitempty"`
	Time   time.Time `json:"time"`
}

// NewEvent stamps an event of type t for module with the current time.
func NewEvent(t EventType, module string) Event {
	return Event{Type: t, Module: module, Time: time.Now().UTC()}
}

// ErrClosed is returned by operations on a closed notifier.
var ErrClosed = errors.New("notifier closed")

// subscriberBuffer is the per-subscriber queue length.
const subscriberBuffer = 16

// Notifier publishes events to subscribers.
type Notifier interface {
	// Publish sends e to every current subscriber.
	Publish(ctx context.Context, e Event) error

	// Subscribe registers a subscriber. The channel is closed after cancel
	// is called, after ctx ends or when the notifier closes.
	Subscribe(ctx context.Context) (<-chan Event, func(), error)

	// Subscribers reports how many viewers are listening.
	Subscribers(ctx context.Context) (int, error)

	// Close stops delivery and closes every subscriber channel.
	Close() error
}

// deliver queues e on ch without blocking. The caller must be the only
// sender on ch. A full queue drops e, except for an end event, which
// evicts the oldest queued event to make room.
func deliver(ch chan Event, e Event) {
	select {
	case ch <- e:
		return
	default:
	}
	if e.Type != EventEnd {
		return
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- e:
	default:
	}
}
