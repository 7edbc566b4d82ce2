// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package google

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/text/language"

	"github.com/wneessen/places-autocomplete/internal/http"
	"github.com/wneessen/places-autocomplete/internal/places"
	"github.com/wneessen/places-autocomplete/internal/query"
	"github.com/wneessen/places-autocomplete/internal/vartype"
)

const (
	AutocompleteEndpoint = "https://maps.googleapis.com/maps/api/place/autocomplete/json"
	DetailsEndpoint      = "https://maps.googleapis.com/maps/api/place/details/json"
	name                 = "google-places"
)

var _ places.Provider = (*Google)(nil)

// Google is the Google Places web service provider
type Google struct {
	http                 *http.Client
	lang                 language.Tag
	autocompleteEndpoint string
	detailsEndpoint      string
}

// Option configures the provider
type Option func(*Google)

// WithLanguage sets the language results are returned in. language.Und omits the parameter.
func WithLanguage(lang language.Tag) Option {
	return func(g *Google) {
		g.lang = lang
	}
}

// WithEndpoints overrides the autocomplete and details endpoints. Empty values keep the defaults.
func WithEndpoints(autocomplete, details string) Option {
	return func(g *Google) {
		if autocomplete != "" {
			g.autocompleteEndpoint = autocomplete
		}
		if details != "" {
			g.detailsEndpoint = details
		}
	}
}

func New(client *http.Client, opts ...Option) *Google {
	provider := &Google{
		http:                 client,
		lang:                 language.Und,
		autocompleteEndpoint: AutocompleteEndpoint,
		detailsEndpoint:      DetailsEndpoint,
	}
	for _, opt := range opts {
		opt(provider)
	}
	return provider
}

func (g *Google) Name() string {
	return name
}

// Params returns the request parameters for an autocomplete query. Later sources override
// earlier ones: the computed parameters, then the extra parameters, then the bias fields. With
// ExtraOverridesBias set the extra parameters are applied last.
func (g *Google) Params(q places.Query) map[string]string {
	params := map[string]string{
		"input": q.Text,
		"types": q.PlaceType.String(),
		"key":   q.APIKey,
	}
	switch {
	case q.Language != "":
		params["language"] = q.Language
	case g.lang != language.Und:
		params["language"] = g.lang.String()
	}

	var bias map[string]string
	if q.Bias != nil {
		bias = map[string]string{
			"location": q.Bias.Location(),
			"radius":   q.Bias.RadiusMeters(),
		}
	}

	if q.ExtraOverridesBias {
		return query.Merge(params, bias, q.Extra)
	}
	return query.Merge(params, q.Extra, bias)
}

// Autocomplete returns the predictions for the query in the order the API ranked them.
// ZERO_RESULTS is not an error but an empty result.
func (g *Google) Autocomplete(ctx context.Context, q places.Query) ([]places.Place, error) {
	payload, err := g.http.Get(ctx, g.autocompleteEndpoint, g.Params(q))
	if err != nil {
		var apiErr *http.APIStatusError
		if errors.As(err, &apiErr) && apiErr.ZeroResults() {
			return []places.Place{}, nil
		}
		return nil, fmt.Errorf("failed to retrieve predictions from Google Places API: %w", err)
	}
	return PlacesFromPayload(payload.Object, q.APIKey)
}

// Details returns the extended information for the given place. An unset API key is sent as
// an empty value and will be rejected by the API.
func (g *Google) Details(ctx context.Context, place places.Place) (places.PlaceDetails, error) {
	params := map[string]string{
		"placeid": place.ID,
		"key":     place.APIKey,
	}
	if g.lang != language.Und {
		params["language"] = g.lang.String()
	}

	payload, err := g.http.Get(ctx, g.detailsEndpoint, params)
	if err != nil {
		return places.PlaceDetails{}, fmt.Errorf("failed to retrieve place details from Google Places API: %w", err)
	}
	return DetailsFromPayload(payload.Object), nil
}

// PlacesFromPayload maps the predictions of an autocomplete response to places. Missing or
// mistyped fields of a prediction default to their zero value.
func PlacesFromPayload(object map[string]any, apiKey string) ([]places.Place, error) {
	raw, ok := object["predictions"]
	if !ok {
		return nil, places.ErrNoPredictions
	}
	predictions, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: predictions is %T, not a list", places.ErrNoPredictions, raw)
	}

	found := make([]places.Place, 0, len(predictions))
	for _, item := range predictions {
		prediction, _ := item.(map[string]any)
		found = append(found, PlaceFromPrediction(prediction, apiKey))
	}
	return found, nil
}

// PlaceFromPrediction builds a place from a single prediction record
func PlaceFromPrediction(prediction map[string]any, apiKey string) places.Place {
	id, _ := prediction["place_id"].(string)
	description, _ := prediction["description"].(string)
	return places.Place{
		ID:          id,
		Description: description,
		APIKey:      apiKey,
		Types:       stringList(prediction["types"]),
	}
}

// DetailsFromPayload maps a details response to PlaceDetails. Fields that are missing are left
// unset and show up in PlaceDetails.Missing.
func DetailsFromPayload(object map[string]any) places.PlaceDetails {
	result, _ := object["result"].(map[string]any)
	geometry, _ := result["geometry"].(map[string]any)
	location, _ := geometry["location"].(map[string]any)

	placeName, nameOK := result["name"].(string)
	lat, latOK := location["lat"].(float64)
	lng, lngOK := location["lng"].(float64)
	placeID, _ := result["place_id"].(string)
	address, _ := result["formatted_address"].(string)

	return places.PlaceDetails{
		PlaceID:   placeID,
		Name:      vartype.Lookup(placeName, nameOK),
		Latitude:  vartype.Lookup(lat, latOK),
		Longitude: vartype.Lookup(lng, lngOK),
		Address:   address,
		Types:     stringList(result["types"]),
		Raw:       object,
	}
}

func stringList(val any) []string {
	items, ok := val.([]any)
	if !ok {
		return nil
	}
	list := make([]string, 0, len(items))
	for _, item := range items {
		if str, ok := item.(string); ok {
			list = append(list, str)
		}
	}
	return list
}
