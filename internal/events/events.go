// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package events

import (
	"sync"
	"sync/atomic"

	"github.com/wneessen/places-autocomplete/internal/logger"
	"github.com/wneessen/places-autocomplete/internal/places"
)

// Event is a message published on the Bus
type Event interface {
	event()
}

// PlacesFound is published when a search completed with the latest sequence id
type PlacesFound struct {
	Seq    uint64
	Text   string
	Places []places.Place
}

// PlacesCleared is published when the search text was emptied
type PlacesCleared struct{}

// SearchFailed is published when the latest search failed
type SearchFailed struct {
	Seq  uint64
	Text string
	Err  error
}

// PlaceSelected is published when the user picked a place from the suggestions
type PlaceSelected struct {
	Place places.Place
}

// DetailsFetched is published when the details of a place were retrieved
type DetailsFetched struct {
	Details places.PlaceDetails
}

// DetailsFailed is published when the details lookup of a place failed
type DetailsFailed struct {
	Place places.Place
	Err   error
}

// Closed is published when the autocomplete session ends without a selection
type Closed struct{}

func (PlacesFound) event()    {}
func (PlacesCleared) event()  {}
func (SearchFailed) event()   {}
func (PlaceSelected) event()  {}
func (DetailsFetched) event() {}
func (DetailsFailed) event()  {}
func (Closed) event()         {}

// Bus fans out published events to all subscribers. Publishing never blocks: events for a
// subscriber with a full buffer are dropped.
type Bus struct {
	mu          sync.RWMutex
	logger      *logger.Logger
	subscribers map[chan Event]struct{}
	dropped     atomic.Uint64
}

// New initializes and returns a new event bus.
func New(log *logger.Logger) *Bus {
	return &Bus{
		logger:      log,
		subscribers: make(map[chan Event]struct{}),
	}
}

// Subscribe adds a subscriber with the given buffer size, returning an event channel and an
// unsubscribe function. The channel is closed on unsubscribe.
func (b *Bus) Subscribe(size int) (<-chan Event, func()) {
	eventChan := make(chan Event, size)
	b.mu.Lock()
	b.subscribers[eventChan] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, eventChan)
			b.mu.Unlock()
			close(eventChan)
		})
	}
	return eventChan, unsub
}

// Publish delivers the event to every subscriber that has room in its buffer
func (b *Bus) Publish(e Event) {
	if b == nil || e == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subscribers {
		select {
		case ch <- e:
		default:
			b.dropped.Add(1)
			if b.logger != nil {
				b.logger.Debug("dropping event for slow subscriber", "event", Name(e))
			}
		}
	}
}

// Dropped returns the number of events that could not be delivered to a subscriber
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Name returns a short name for the event type, used for logging
func Name(e Event) string {
	switch e.(type) {
	case PlacesFound:
		return "places-found"
	case PlacesCleared:
		return "places-cleared"
	case SearchFailed:
		return "search-failed"
	case PlaceSelected:
		return "place-selected"
	case DetailsFetched:
		return "details-fetched"
	case DetailsFailed:
		return "details-failed"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}
