// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package http

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"runtime"
	"time"

	"github.com/wneessen/places-autocomplete/internal/logger"
	"github.com/wneessen/places-autocomplete/internal/query"
)

const (
	// DefaultTimeout is the default timeout value for the HTTPClient
	DefaultTimeout = time.Second * 10

	// maxBodySize limits how much of a response body is read
	maxBodySize = 10 << 20

	statusOK = "OK"
)

var (
	// version is the version of the application (will be set at build time)
	version = "dev"
	// UserAgent is the User-Agent that the HTTP client sends with API requests
	UserAgent = fmt.Sprintf("Mozilla/5.0 (%s; %s) places-autocomplete/%s (+https://github.com/wneessen/places-autocomplete/)",
		runtime.GOOS,
		runtime.GOARCH,
		version,
	)
)

// Dispatcher runs a completion function in the execution context the caller expects, e.g. by
// posting it onto a UI event loop.
type Dispatcher func(fn func())

// Observer is notified around the lifetime of every request. It is the hook point for a
// "network activity" indicator.
type Observer interface {
	OnRequestStart(endpoint string)
	OnRequestEnd(endpoint string, err error)
}

// ObserverFuncs adapts a pair of functions to the Observer interface. Nil functions are skipped.
type ObserverFuncs struct {
	Start func(endpoint string)
	End   func(endpoint string, err error)
}

func (o ObserverFuncs) OnRequestStart(endpoint string) {
	if o.Start != nil {
		o.Start(endpoint)
	}
}

func (o ObserverFuncs) OnRequestEnd(endpoint string, err error) {
	if o.End != nil {
		o.End(endpoint, err)
	}
}

// Payload is a successfully parsed JSON object response
type Payload struct {
	Object map[string]any
	Raw    []byte
}

// Decode JSON-unmarshals the raw response body into target
func (p Payload) Decode(target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return ErrNonPointerTarget
	}
	if err := json.Unmarshal(p.Raw, target); err != nil {
		return &SerializationError{Err: err}
	}
	return nil
}

// Client is a type wrapper for the Go stdlib http.Client that speaks to JSON web service APIs
// with a top-level status field.
type Client struct {
	*http.Client
	logger   *logger.Logger
	observer Observer
	dispatch Dispatcher
	timeout  time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the timeout used by Get and Request
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithObserver replaces the default request observer
func WithObserver(observer Observer) Option {
	return func(c *Client) {
		if observer != nil {
			c.observer = observer
		}
	}
}

// WithDispatcher sets the dispatcher that runs the completions of Request. By default
// completions run on the goroutine that performed the request.
func WithDispatcher(dispatch Dispatcher) Option {
	return func(c *Client) {
		if dispatch != nil {
			c.dispatch = dispatch
		}
	}
}

// New returns a new HTTP client
func New(log *logger.Logger, opts ...Option) *Client {
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}
	httpTransport := &http.Transport{TLSClientConfig: tlsConfig}
	httpClient := &http.Client{
		Timeout:   DefaultTimeout,
		Transport: httpTransport,
	}
	client := &Client{
		Client:   httpClient,
		logger:   log,
		dispatch: func(fn func()) { fn() },
		timeout:  DefaultTimeout,
	}
	client.observer = logObserver{log}
	for _, opt := range opts {
		opt(client)
	}
	if client.timeout > client.Client.Timeout {
		client.Client.Timeout = client.timeout
	}
	return client
}

// Get performs a HTTP GET request for the given endpoint and parameters and returns the parsed
// JSON object. Failures are reported as *TransportError, *HTTPStatusError, *SerializationError
// or *APIStatusError, in that order of precedence.
func (h *Client) Get(ctx context.Context, endpoint string, params map[string]string) (Payload, error) {
	return h.GetWithTimeout(ctx, endpoint, params, h.timeout)
}

// Request performs Get asynchronously. The completion is called exactly once through the
// client's Dispatcher, with either a payload or an error.
func (h *Client) Request(ctx context.Context, endpoint string, params map[string]string,
	completion func(Payload, error),
) {
	go func() {
		payload, err := h.Get(ctx, endpoint, params)
		if completion == nil {
			return
		}
		h.dispatch(func() { completion(payload, err) })
	}()
}

// Dispatch runs fn through the client's Dispatcher. Components that deliver results of their
// own requests use it to share the client's execution context.
func (h *Client) Dispatch(fn func()) {
	h.dispatch(fn)
}

// GetWithTimeout performs a HTTP GET request for the given endpoint, parameters and timeout
// and returns the parsed JSON object.
func (h *Client) GetWithTimeout(ctx context.Context, endpoint string, params map[string]string,
	timeout time.Duration,
) (payload Payload, err error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Prepare URL and query parameters
	reqURL, err := url.Parse(endpoint)
	if err != nil {
		return payload, fmt.Errorf("failed to parse URL: %w", err)
	}
	reqURL.RawQuery = query.Build(params)

	// Prepare HTTP request
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return payload, fmt.Errorf("failed create new HTTP request with context: %w", err)
	}
	request.Header.Set("User-Agent", UserAgent)
	request.Header.Set("Accept", "application/json")

	h.observer.OnRequestStart(endpoint)
	defer func() { h.observer.OnRequestEnd(endpoint, err) }()

	// Execute HTTP request
	response, err := h.Do(request)
	if err != nil {
		return payload, &TransportError{Err: err}
	}
	if response == nil {
		return payload, &TransportError{Err: ErrNoResponse}
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			h.logger.Error("failed to close HTTP request body", logger.Err(err))
		}
	}(response.Body)

	if response.StatusCode != http.StatusOK {
		return payload, &HTTPStatusError{Code: response.StatusCode}
	}

	raw, err := io.ReadAll(io.LimitReader(response.Body, maxBodySize))
	if err != nil {
		return payload, &TransportError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	return parsePayload(raw)
}

// parsePayload decodes a JSON object and checks the optional top-level status field
func parsePayload(raw []byte) (Payload, error) {
	var object map[string]any
	if err := json.Unmarshal(raw, &object); err != nil {
		return Payload{}, &SerializationError{Err: err}
	}
	if object == nil {
		return Payload{}, &SerializationError{Err: errors.New("response is not a JSON object")}
	}

	// Only string status values are part of the provider's vocabulary
	if status, ok := object["status"].(string); ok && status != statusOK {
		message, _ := object["error_message"].(string)
		return Payload{}, &APIStatusError{Status: status, Message: message}
	}

	return Payload{Object: object, Raw: raw}, nil
}

// logObserver is the default Observer and only logs at debug level
type logObserver struct {
	logger *logger.Logger
}

func (o logObserver) OnRequestStart(endpoint string) {
	if o.logger == nil {
		return
	}
	o.logger.Debug("API request started", "endpoint", endpoint)
}

func (o logObserver) OnRequestEnd(endpoint string, err error) {
	if o.logger == nil {
		return
	}
	if err != nil {
		o.logger.Debug("API request failed", "endpoint", endpoint, logger.Err(err))
		return
	}
	o.logger.Debug("API request finished", "endpoint", endpoint)
}
