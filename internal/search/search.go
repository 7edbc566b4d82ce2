// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package search

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/wneessen/places-autocomplete/internal/events"
	"github.com/wneessen/places-autocomplete/internal/http"
	"github.com/wneessen/places-autocomplete/internal/logger"
	"github.com/wneessen/places-autocomplete/internal/places"
)

// ErrSuperseded is returned for a search that was replaced by a newer one before its request
// was sent. Such results are never delivered.
var ErrSuperseded = errors.New("search was superseded by a newer one")

// Result is the outcome of a single search
type Result struct {
	Seq    uint64
	Query  places.Query
	Places []places.Place
	Err    error
}

// DetailsResult is the outcome of a single details lookup
type DetailsResult struct {
	Place   places.Place
	Details places.PlaceDetails
	Err     error
}

// Service runs autocomplete searches and details lookups against a places provider and
// delivers their results through a dispatcher and the event bus.
type Service struct {
	autocompleter places.Autocompleter
	details       places.DetailsProvider
	bus           *events.Bus
	logger        *logger.Logger
	limiter       *rate.Limiter
	dispatch      http.Dispatcher

	seq   atomic.Uint64
	stale atomic.Uint64
	wg    sync.WaitGroup
}

// Option configures a Service
type Option func(*Service)

// WithCache caches autocomplete results. Non-empty results are kept for ttlHit, empty ones
// for ttlMiss.
func WithCache(ttlHit, ttlMiss time.Duration) Option {
	return func(s *Service) {
		s.autocompleter = places.NewCachedAutocompleter(s.autocompleter, ttlHit, ttlMiss)
	}
}

// WithRateLimit throttles autocomplete requests to limit requests per second with the given
// burst. A limit of zero or less disables throttling.
func WithRateLimit(limit float64, burst int) Option {
	return func(s *Service) {
		if limit <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(limit), burst)
	}
}

// WithDispatcher sets the dispatcher that runs result callbacks. By default callbacks run on
// the goroutine that completed the request.
func WithDispatcher(dispatch http.Dispatcher) Option {
	return func(s *Service) {
		if dispatch != nil {
			s.dispatch = dispatch
		}
	}
}

// WithEventBus publishes search and details events on the given bus
func WithEventBus(bus *events.Bus) Option {
	return func(s *Service) {
		s.bus = bus
	}
}

// New returns a new search service for the given provider
func New(provider places.Provider, log *logger.Logger, opts ...Option) *Service {
	service := &Service{
		autocompleter: provider,
		details:       provider,
		logger:        log,
		dispatch:      func(fn func()) { fn() },
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Search starts an autocomplete search for the query and returns its sequence id. The callback
// is only called if no newer search was started in the meantime. An empty search text does not
// start a request: it invalidates running searches, publishes PlacesCleared and returns false.
func (s *Service) Search(ctx context.Context, q places.Query, callback func(Result)) (uint64, bool) {
	seq := s.seq.Add(1)
	if q.Text == "" {
		s.bus.Publish(events.PlacesCleared{})
		return seq, false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		found, err := s.autocomplete(ctx, seq, q)
		result := Result{Seq: seq, Query: q, Places: found, Err: err}
		s.dispatch(func() { s.deliver(result, callback) })
	}()
	return seq, true
}

// FetchDetails looks up the details of the place. The callback is called exactly once.
func (s *Service) FetchDetails(ctx context.Context, place places.Place, callback func(DetailsResult)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		details, err := s.details.Details(ctx, place)
		result := DetailsResult{Place: place, Details: details, Err: err}
		s.dispatch(func() {
			if err != nil {
				s.logger.Error("failed to fetch place details", logger.Err(err), "place_id", place.ID)
				s.bus.Publish(events.DetailsFailed{Place: place, Err: err})
			} else {
				s.bus.Publish(events.DetailsFetched{Details: details})
			}
			if callback != nil {
				callback(result)
			}
		})
	}()
}

// Select publishes PlaceSelected, invalidates running searches and fetches the details of the
// selected place.
func (s *Service) Select(ctx context.Context, place places.Place, callback func(DetailsResult)) {
	s.seq.Add(1)
	s.bus.Publish(events.PlaceSelected{Place: place})
	s.FetchDetails(ctx, place, callback)
}

// Close invalidates running searches and publishes Closed
func (s *Service) Close() {
	s.seq.Add(1)
	s.bus.Publish(events.Closed{})
}

// Latest returns the sequence id of the most recent search
func (s *Service) Latest() uint64 {
	return s.seq.Load()
}

// Stale returns the number of search results that were dropped because a newer search was
// started.
func (s *Service) Stale() uint64 {
	return s.stale.Load()
}

// Wait blocks until all running requests have finished. With the default dispatcher this
// includes their callbacks.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) autocomplete(ctx context.Context, seq uint64, q places.Query) ([]places.Place, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		if seq != s.seq.Load() {
			return nil, ErrSuperseded
		}
	}
	return s.autocompleter.Autocomplete(ctx, q)
}

func (s *Service) deliver(result Result, callback func(Result)) {
	if latest := s.seq.Load(); result.Seq != latest {
		s.stale.Add(1)
		s.logger.Debug("dropping stale search result", "seq", result.Seq, "latest", latest,
			"text", result.Query.Text)
		return
	}

	if result.Err != nil {
		s.logger.Error("search failed", logger.Err(result.Err), "text", result.Query.Text)
		s.bus.Publish(events.SearchFailed{Seq: result.Seq, Text: result.Query.Text, Err: result.Err})
	} else {
		s.bus.Publish(events.PlacesFound{Seq: result.Seq, Text: result.Query.Text, Places: result.Places})
	}
	if callback != nil {
		callback(result)
	}
}
