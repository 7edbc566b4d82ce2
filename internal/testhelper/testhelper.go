// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package testhelper holds shared helpers for the package tests.
package testhelper

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
)

// TestOnlineAPIURL is a real endpoint that is used for the integration tests
const TestOnlineAPIURL = "https://maps.googleapis.com/maps/api/place/autocomplete/json"

// MockRoundTripper is a http.RoundTripper that calls Fn for every request
type MockRoundTripper struct {
	Fn func(req *http.Request) (*http.Response, error)
}

func (m MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.Fn(req)
}

// JSONResponse returns a round trip function that responds with the given status code and body
// for every request.
func JSONResponse(status int, body string) func(*http.Request) (*http.Response, error) {
	return func(*http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(bytes.NewBufferString(body)),
			Header:     make(http.Header),
		}, nil
	}
}

// FileResponse returns a round trip function that responds with status 200 and the content of
// the given fixture file.
func FileResponse(t *testing.T, file string) func(*http.Request) (*http.Response, error) {
	t.Helper()
	return func(*http.Request) (*http.Response, error) {
		data, err := os.Open(file)
		if err != nil {
			t.Fatalf("failed to open JSON response file: %s", err)
		}
		return &http.Response{
			StatusCode: 200,
			Body:       data,
			Header:     make(http.Header),
		}, nil
	}
}

// PerformIntegrationTests skips the calling test unless PERFORM_INTEGRATION_TEST is set to true
func PerformIntegrationTests(t *testing.T) {
	t.Helper()
	if val := os.Getenv("PERFORM_INTEGRATION_TEST"); !strings.EqualFold(val, "true") {
		t.Skip("skipping integration test")
	}
}

// APIKey returns the places API key used for integration tests or skips the test if none is set
func APIKey(t *testing.T) string {
	t.Helper()
	apikey := os.Getenv("PLACES_APIKEY")
	if apikey == "" {
		t.Skip("no places API key set, skipping tests")
	}
	return apikey
}
