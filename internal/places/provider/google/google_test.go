// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package google

import (
	"errors"
	"io"
	"log/slog"
	stdhttp "net/http"
	"slices"
	"strings"
	"testing"

	"golang.org/x/text/language"

	"github.com/wneessen/places-autocomplete/internal/http"
	"github.com/wneessen/places-autocomplete/internal/logger"
	"github.com/wneessen/places-autocomplete/internal/places"
	"github.com/wneessen/places-autocomplete/internal/testhelper"
)

const (
	autocompleteFile = "../../../../testdata/autocomplete_paris.json"
	detailsFile      = "../../../../testdata/details_sydney.json"
	overLimitFile    = "../../../../testdata/over_query_limit.json"
	testAPIKey       = "APIKEY"
	testPlaceID      = "691b237b0322f28988f3ce03e321ff72a12167fd"
)

func TestNew(t *testing.T) {
	t.Run("creating a new provider succeeds", func(t *testing.T) {
		provider := testProvider(t, testhelper.JSONResponse(200, `{}`))
		if provider == nil {
			t.Fatal("expected a non-nil provider")
		}
	})
	t.Run("provider name is correct", func(t *testing.T) {
		provider := testProvider(t, testhelper.JSONResponse(200, `{}`))
		if provider.Name() != name {
			t.Errorf("expected provider name to be %q, got %q", name, provider.Name())
		}
	})
	t.Run("endpoints can be overridden", func(t *testing.T) {
		provider := New(nil, WithEndpoints("https://example.com/a", ""))
		if provider.autocompleteEndpoint != "https://example.com/a" {
			t.Errorf("expected autocomplete endpoint to be overridden, got %q", provider.autocompleteEndpoint)
		}
		if provider.detailsEndpoint != DetailsEndpoint {
			t.Errorf("expected details endpoint to be the default, got %q", provider.detailsEndpoint)
		}
	})
}

func TestGoogle_Params(t *testing.T) {
	provider := New(nil)
	t.Run("computed parameters", func(t *testing.T) {
		params := provider.Params(places.Query{Text: "Paris", APIKey: testAPIKey, PlaceType: places.PlaceTypeCities})
		want := map[string]string{"input": "Paris", "key": testAPIKey, "types": "(cities)"}
		assertParams(t, params, want)
	})
	t.Run("extra parameters override computed ones", func(t *testing.T) {
		params := provider.Params(places.Query{
			Text:   "Paris",
			APIKey: testAPIKey,
			Extra:  map[string]string{"types": "address", "components": "country:fr"},
		})
		want := map[string]string{"input": "Paris", "key": testAPIKey, "types": "address", "components": "country:fr"}
		assertParams(t, params, want)
	})
	t.Run("bias fields override extra parameters", func(t *testing.T) {
		bias := places.LocationBias{Latitude: 1, Longitude: 2, Radius: 500}
		params := provider.Params(places.Query{
			Text:   "Paris",
			APIKey: testAPIKey,
			Bias:   &bias,
			Extra:  map[string]string{"radius": "10", "location": "0,0"},
		})
		want := map[string]string{"input": "Paris", "key": testAPIKey, "types": "", "location": "1,2", "radius": "500"}
		assertParams(t, params, want)
	})
	t.Run("extra parameters override bias fields when requested", func(t *testing.T) {
		bias := places.LocationBias{Latitude: 1, Longitude: 2, Radius: 500}
		params := provider.Params(places.Query{
			Text:               "Paris",
			APIKey:             testAPIKey,
			Bias:               &bias,
			Extra:              map[string]string{"radius": "10"},
			ExtraOverridesBias: true,
		})
		want := map[string]string{"input": "Paris", "key": testAPIKey, "types": "", "location": "1,2", "radius": "10"}
		assertParams(t, params, want)
	})
	t.Run("language from query wins over provider language", func(t *testing.T) {
		localized := New(nil, WithLanguage(language.German))
		params := localized.Params(places.Query{Text: "Paris"})
		if params["language"] != "de" {
			t.Errorf("expected provider language, got %q", params["language"])
		}
		params = localized.Params(places.Query{Text: "Paris", Language: "fr"})
		if params["language"] != "fr" {
			t.Errorf("expected query language, got %q", params["language"])
		}
	})
}

func TestGoogle_Autocomplete(t *testing.T) {
	t.Run("autocomplete succeeds", func(t *testing.T) {
		var gotURL string
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			gotURL = req.URL.String()
			return testhelper.FileResponse(t, autocompleteFile)(req)
		}
		provider := testProvider(t, rtFn)
		found, err := provider.Autocomplete(t.Context(), places.Query{Text: "Paris", APIKey: testAPIKey})
		if err != nil {
			t.Fatalf("autocomplete failed: %s", err)
		}
		wantURL := AutocompleteEndpoint + "?input=Paris&key=APIKEY&types="
		if gotURL != wantURL {
			t.Errorf("expected request URL to be %q, got %q", wantURL, gotURL)
		}
		if len(found) != 2 {
			t.Fatalf("expected 2 places, got %d", len(found))
		}
		if found[0].ID != "ChIJD7fiBh9u5kcRYJSMaMOCCwQ" || found[0].Description != "Paris, France" {
			t.Errorf("unexpected first place: %+v", found[0])
		}
		if found[1].Description != "Paris 17, Paris, France" {
			t.Errorf("unexpected second place: %+v", found[1])
		}
		if found[0].APIKey != testAPIKey {
			t.Errorf("expected API key to be carried along, got %q", found[0].APIKey)
		}
		if !slices.Equal(found[0].Types, []string{"locality", "political", "geocode"}) {
			t.Errorf("unexpected place types: %v", found[0].Types)
		}
	})
	t.Run("autocomplete with location bias", func(t *testing.T) {
		var gotURL string
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			gotURL = req.URL.String()
			return testhelper.JSONResponse(200,
				`{"predictions":[{"description":"Paris, France","place_id":"ChIJD7fiBh9u5kcRYJSMaMOCCwQ"}]}`)(req)
		}
		provider := testProvider(t, rtFn)
		bias := places.LocationBias{Latitude: 48.8534275, Longitude: 2.3582787999999937, Radius: 1000}
		found, err := provider.Autocomplete(t.Context(), places.Query{Text: "Paris", APIKey: testAPIKey, Bias: &bias})
		if err != nil {
			t.Fatalf("autocomplete failed: %s", err)
		}
		wantURL := AutocompleteEndpoint +
			"?input=Paris&key=APIKEY&location=48.8534275%2C2.35827879999999&radius=1000&types="
		if gotURL != wantURL {
			t.Errorf("expected request URL to be %q, got %q", wantURL, gotURL)
		}
		if len(found) != 1 {
			t.Fatalf("expected 1 place, got %d", len(found))
		}
	})
	t.Run("single prediction is mapped exactly", func(t *testing.T) {
		provider := testProvider(t, testhelper.JSONResponse(200,
			`{"predictions":[{"place_id":"X","description":"Paris, France"}]}`))
		found, err := provider.Autocomplete(t.Context(), places.Query{Text: "Paris", APIKey: testAPIKey})
		if err != nil {
			t.Fatalf("autocomplete failed: %s", err)
		}
		if len(found) != 1 || found[0].ID != "X" || found[0].Description != "Paris, France" {
			t.Errorf("expected exactly one place X, got %+v", found)
		}
	})
	t.Run("predictions with missing fields default to empty strings", func(t *testing.T) {
		provider := testProvider(t, testhelper.JSONResponse(200,
			`{"predictions":[{"description":"no id"},{"place_id":"no description"},{"place_id":7},"garbage"]}`))
		found, err := provider.Autocomplete(t.Context(), places.Query{Text: "Paris"})
		if err != nil {
			t.Fatalf("autocomplete failed: %s", err)
		}
		if len(found) != 4 {
			t.Fatalf("expected 4 places, got %d", len(found))
		}
		if found[0].ID != "" || found[0].Description != "no id" {
			t.Errorf("unexpected first place: %+v", found[0])
		}
		if found[1].ID != "no description" || found[1].Description != "" {
			t.Errorf("unexpected second place: %+v", found[1])
		}
		if found[2].ID != "" || found[3].ID != "" {
			t.Errorf("expected mistyped predictions to default, got %+v and %+v", found[2], found[3])
		}
	})
	t.Run("missing predictions field fails", func(t *testing.T) {
		provider := testProvider(t, testhelper.JSONResponse(200, `{"status":"OK"}`))
		_, err := provider.Autocomplete(t.Context(), places.Query{Text: "Paris"})
		if !errors.Is(err, places.ErrNoPredictions) {
			t.Errorf("expected error to be %s, got %v", places.ErrNoPredictions, err)
		}
	})
	t.Run("predictions of the wrong type fail", func(t *testing.T) {
		provider := testProvider(t, testhelper.JSONResponse(200, `{"predictions":"none"}`))
		_, err := provider.Autocomplete(t.Context(), places.Query{Text: "Paris"})
		if !errors.Is(err, places.ErrNoPredictions) {
			t.Errorf("expected error to be %s, got %v", places.ErrNoPredictions, err)
		}
	})
	t.Run("zero results is an empty result", func(t *testing.T) {
		provider := testProvider(t, testhelper.JSONResponse(200, `{"predictions":[],"status":"ZERO_RESULTS"}`))
		found, err := provider.Autocomplete(t.Context(), places.Query{Text: "xyzzy"})
		if err != nil {
			t.Fatalf("expected no error, got %s", err)
		}
		if found == nil || len(found) != 0 {
			t.Errorf("expected empty, non-nil result, got %v", found)
		}
	})
	t.Run("API status errors are returned", func(t *testing.T) {
		provider := testProvider(t, testhelper.FileResponse(t, overLimitFile))
		_, err := provider.Autocomplete(t.Context(), places.Query{Text: "Paris"})
		var apiErr *http.APIStatusError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected an APIStatusError, got %v", err)
		}
		if apiErr.Status != "OVER_QUERY_LIMIT" {
			t.Errorf("expected status OVER_QUERY_LIMIT, got %q", apiErr.Status)
		}
	})
	t.Run("HTTP status errors are returned", func(t *testing.T) {
		provider := testProvider(t, testhelper.JSONResponse(404, `Not found`))
		found, err := provider.Autocomplete(t.Context(), places.Query{Text: "Paris"})
		var statusErr *http.HTTPStatusError
		if !errors.As(err, &statusErr) || statusErr.Code != 404 {
			t.Fatalf("expected a HTTPStatusError with code 404, got %v", err)
		}
		if found != nil {
			t.Errorf("expected no places, got %v", found)
		}
	})
	t.Run("transport errors are returned", func(t *testing.T) {
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			return nil, errors.New("intentionally failing")
		}
		provider := testProvider(t, rtFn)
		_, err := provider.Autocomplete(t.Context(), places.Query{Text: "Paris"})
		if !errors.Is(err, http.ErrTransport) {
			t.Errorf("expected error to match %s, got %v", http.ErrTransport, err)
		}
	})
}

func TestGoogle_Details(t *testing.T) {
	place := places.Place{ID: testPlaceID, Description: "Paris, France", APIKey: testAPIKey}
	t.Run("details lookup succeeds", func(t *testing.T) {
		var gotURL string
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			gotURL = req.URL.String()
			return testhelper.FileResponse(t, detailsFile)(req)
		}
		provider := testProvider(t, rtFn)
		details, err := provider.Details(t.Context(), place)
		if err != nil {
			t.Fatalf("details lookup failed: %s", err)
		}
		wantURL := DetailsEndpoint + "?key=APIKEY&placeid=" + testPlaceID
		if gotURL != wantURL {
			t.Errorf("expected request URL to be %q, got %q", wantURL, gotURL)
		}
		if details.Name.Value() != "Google Sydney" {
			t.Errorf("expected name to be %q, got %q", "Google Sydney", details.Name.Value())
		}
		if details.Latitude.Value() != -33.8669710 {
			t.Errorf("expected latitude to be %f, got %f", -33.8669710, details.Latitude.Value())
		}
		if details.Longitude.Value() != 151.1958750 {
			t.Errorf("expected longitude to be %f, got %f", 151.1958750, details.Longitude.Value())
		}
		if !details.Complete() {
			t.Errorf("expected details to be complete, missing: %v", details.Missing())
		}
		if details.Address != "48 Pirrama Road, Pyrmont NSW, Australia" {
			t.Errorf("unexpected address: %q", details.Address)
		}
		if details.PlaceID != "ChIJN1t_tDeuEmsRUsoyG83frY4" {
			t.Errorf("unexpected place ID: %q", details.PlaceID)
		}
		result, ok := details.Raw["result"].(map[string]any)
		if !ok || result["formatted_phone_number"] != "(02) 9374 4000" {
			t.Errorf("expected raw payload to be passed through, got %v", details.Raw)
		}
	})
	t.Run("missing API key is sent as empty value", func(t *testing.T) {
		var gotURL string
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			gotURL = req.URL.String()
			return testhelper.JSONResponse(200, `{"status":"REQUEST_DENIED"}`)(req)
		}
		provider := testProvider(t, rtFn)
		_, err := provider.Details(t.Context(), places.Place{ID: "X"})
		if !strings.HasSuffix(gotURL, "?key=&placeid=X") {
			t.Errorf("expected empty key parameter, got %q", gotURL)
		}
		if !errors.Is(err, http.ErrAPIStatus) {
			t.Errorf("expected error to match %s, got %v", http.ErrAPIStatus, err)
		}
	})
	t.Run("missing nested fields degrade to unset values", func(t *testing.T) {
		provider := testProvider(t, testhelper.JSONResponse(200, `{"result":{"geometry":{"location":{"lat":"north"}}}}`))
		details, err := provider.Details(t.Context(), place)
		if err != nil {
			t.Fatalf("details lookup failed: %s", err)
		}
		if details.Complete() {
			t.Error("expected details to be incomplete")
		}
		if !slices.Equal(details.Missing(), []string{"name", "lat", "lng"}) {
			t.Errorf("expected all core fields to be missing, got %v", details.Missing())
		}
		if details.Latitude.Value() != 0 || details.Name.Value() != "" {
			t.Errorf("expected zero values, got %s", details)
		}
	})
	t.Run("details errors are returned", func(t *testing.T) {
		provider := testProvider(t, testhelper.JSONResponse(500, ``))
		if _, err := provider.Details(t.Context(), place); !errors.Is(err, http.ErrHTTPStatus) {
			t.Errorf("expected error to match %s, got %v", http.ErrHTTPStatus, err)
		}
	})
}

func TestGoogle_Autocomplete_integration(t *testing.T) {
	testhelper.PerformIntegrationTests(t)
	apikey := testhelper.APIKey(t)
	provider := New(http.New(logger.New(slog.LevelDebug)))
	found, err := provider.Autocomplete(t.Context(), places.Query{Text: "Paris", APIKey: apikey})
	if err != nil {
		t.Fatal(err)
	}
	if len(found) == 0 {
		t.Fatal("expected at least one place")
	}
	details, err := provider.Details(t.Context(), found[0])
	if err != nil {
		t.Fatal(err)
	}
	if !details.Complete() {
		t.Errorf("expected details to be complete, missing: %v", details.Missing())
	}
}

func testProvider(t *testing.T, fn func(req *stdhttp.Request) (*stdhttp.Response, error)) *Google {
	t.Helper()
	client := http.New(logger.NewLogger(slog.LevelDebug, io.Discard))
	client.Transport = testhelper.MockRoundTripper{Fn: fn}
	return New(client)
}

func assertParams(t *testing.T, got, want map[string]string) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("expected %d parameters, got %d: %v", len(want), len(got), got)
	}
	for key, val := range want {
		if got[key] != val {
			t.Errorf("expected parameter %q to be %q, got %q", key, val, got[key])
		}
	}
}
