// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	stdhttp "net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/wneessen/places-autocomplete/internal/config"
	"github.com/wneessen/places-autocomplete/internal/events"
	"github.com/wneessen/places-autocomplete/internal/http"
	"github.com/wneessen/places-autocomplete/internal/locate"
	"github.com/wneessen/places-autocomplete/internal/logger"
	"github.com/wneessen/places-autocomplete/internal/places"
	"github.com/wneessen/places-autocomplete/internal/search"
	"github.com/wneessen/places-autocomplete/internal/template"
)

const (
	selectPrefix    = ":"
	eventBufferSize = 32
)

var ErrInvalidSelection = errors.New("invalid selection")

type Service struct {
	config    *config.Config
	logger    *logger.Logger
	bus       *events.Bus
	search    *search.Service
	templates *template.Templates
	locator   locate.Locator
	output    io.Writer

	outputLock  sync.Mutex
	deliverLock sync.Mutex
	resultLock sync.RWMutex
	bias       *places.LocationBias
	results    []places.Place
	selected   bool
}

// Option configures a Service
type Option func(*serviceOptions)

type serviceOptions struct {
	transport stdhttp.RoundTripper
	locator   locate.Locator
}

// WithTransport replaces the HTTP transport used for all API requests
func WithTransport(transport stdhttp.RoundTripper) Option {
	return func(o *serviceOptions) {
		o.transport = transport
	}
}

// WithLocator replaces the configured location sources
func WithLocator(locator locate.Locator) Option {
	return func(o *serviceOptions) {
		o.locator = locator
	}
}

func New(conf *config.Config, log *logger.Logger, output io.Writer, opts ...Option) (*Service, error) {
	options := new(serviceOptions)
	for _, opt := range opts {
		opt(options)
	}

	tpls, err := template.New(conf.Templates.Place, conf.Templates.Details)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	service := &Service{
		config:    conf,
		logger:    log,
		bus:       events.New(log),
		templates: tpls,
		output:    output,
	}

	client := http.New(log, http.WithTimeout(conf.HTTP.Timeout), http.WithDispatcher(service.deliver))
	if options.transport != nil {
		client.Transport = options.transport
	}
	service.search = service.newSearchService(client)
	service.locator = options.locator
	if service.locator == nil {
		service.locator = locate.NewChain(log, service.selectLocators(client)...)
	}
	return service, nil
}

// Run resolves the location bias and processes the search input. Each line of input is the
// current search text, an empty line clears the results and ":N" selects result N.
func (s *Service) Run(ctx context.Context, input io.Reader) error {
	sub, unsub := s.bus.Subscribe(eventBufferSize)
	defer unsub()
	go s.logEvents(sub)

	s.resolveBias(ctx)

	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, selectPrefix) {
			index, err := strconv.Atoi(strings.TrimPrefix(line, selectPrefix))
			if err != nil {
				s.logger.Error("failed to parse selection", logger.Err(err), "input", line)
				continue
			}
			if err = s.Select(ctx, index); err != nil {
				s.logger.Error("failed to select place", logger.Err(err))
			}
			continue
		}
		s.Search(ctx, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read search input: %w", err)
	}

	s.search.Wait()
	s.resultLock.RLock()
	selected := s.selected
	s.resultLock.RUnlock()
	if !selected {
		s.search.Close()
	}
	return nil
}

// Query runs a single search and optionally selects one of its results. A selection of 0
// only prints the suggestions.
func (s *Service) Query(ctx context.Context, text string, selection int) error {
	sub, unsub := s.bus.Subscribe(eventBufferSize)
	defer unsub()
	go s.logEvents(sub)

	s.resolveBias(ctx)
	s.Search(ctx, text)
	s.search.Wait()
	if selection > 0 {
		return s.Select(ctx, selection)
	}
	return nil
}

// Search starts a search for the text with the configured restrictions and bias
func (s *Service) Search(ctx context.Context, text string) {
	s.resultLock.RLock()
	bias := s.bias
	s.resultLock.RUnlock()

	q := places.Query{
		Text:               text,
		PlaceType:          s.config.PlaceTypeValue(),
		APIKey:             s.config.APIKey,
		Bias:               bias,
		Extra:              s.config.Extra,
		ExtraOverridesBias: s.config.ExtraOverridesBias,
	}
	if _, started := s.search.Search(ctx, q, s.printResult); !started {
		s.resultLock.Lock()
		s.results = nil
		s.resultLock.Unlock()
	}
}

// Select fetches and prints the details of the result with the given 1-based index
func (s *Service) Select(ctx context.Context, index int) error {
	s.search.Wait()
	s.resultLock.Lock()
	if index < 1 || index > len(s.results) {
		count := len(s.results)
		s.resultLock.Unlock()
		return fmt.Errorf("%w: %d of %d results", ErrInvalidSelection, index, count)
	}
	place := s.results[index-1]
	s.selected = true
	s.resultLock.Unlock()

	s.search.Select(ctx, place, s.printDetails)
	s.search.Wait()
	return nil
}

func (s *Service) resolveBias(ctx context.Context) {
	if !s.config.Bias.Enabled {
		return
	}
	if bias, ok := s.config.StaticBias(); ok {
		s.setBias(bias)
		return
	}

	coord, err := s.locator.Locate(ctx)
	if err != nil {
		s.logger.Warn("failed to determine location, searching without location bias", logger.Err(err))
		return
	}
	bias := locate.BiasFor(coord)
	if s.config.Bias.Radius > 0 {
		bias.Radius = s.config.Bias.Radius
	}
	s.logger.Debug("using location bias", "source", coord.Source, "location", bias.Location(),
		"radius", bias.Radius)
	s.setBias(bias)
}

func (s *Service) setBias(bias places.LocationBias) {
	s.resultLock.Lock()
	s.bias = &bias
	s.resultLock.Unlock()
}

func (s *Service) printResult(result search.Result) {
	if result.Err != nil {
		s.writeLine(fmt.Sprintf("search for %q failed: %s", result.Query.Text, result.Err))
		return
	}

	s.resultLock.Lock()
	s.results = result.Places
	s.resultLock.Unlock()

	if len(result.Places) == 0 {
		s.writeLine(fmt.Sprintf("no places found for %q", result.Query.Text))
		return
	}
	for i, place := range result.Places {
		line, err := s.templates.RenderPlace(i+1, place)
		if err != nil {
			s.logger.Error("failed to render place", logger.Err(err))
			continue
		}
		s.writeLine(line)
	}
}

func (s *Service) printDetails(result search.DetailsResult) {
	if result.Err != nil {
		s.writeLine(fmt.Sprintf("failed to fetch details for %q: %s", result.Place.Description, result.Err))
		return
	}
	text, err := s.templates.RenderDetails(result.Details)
	if err != nil {
		s.logger.Error("failed to render place details", logger.Err(err))
		return
	}
	s.writeLine(text)
}

// deliver runs result callbacks one at a time
func (s *Service) deliver(fn func()) {
	s.deliverLock.Lock()
	defer s.deliverLock.Unlock()
	fn()
}

func (s *Service) writeLine(line string) {
	s.outputLock.Lock()
	defer s.outputLock.Unlock()
	if _, err := fmt.Fprintln(s.output, line); err != nil {
		s.logger.Error("failed to write output", logger.Err(err))
	}
}

func (s *Service) logEvents(sub <-chan events.Event) {
	for event := range sub {
		s.logger.Debug("event received", "event", events.Name(event))
	}
}
