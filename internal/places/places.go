// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package places

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/wneessen/places-autocomplete/internal/query"
	"github.com/wneessen/places-autocomplete/internal/vartype"
)

// DefaultRadius is the bias radius in meters that is used when no radius was given. It is
// larger than the earth's circumference and therefore means "no real bias".
const DefaultRadius = 20_000_000

var (
	// ErrNoPredictions is returned when an autocomplete response carries no predictions field
	ErrNoPredictions = errors.New("response contains no predictions")
	// ErrUnknownPlaceType is returned when a place type name can't be parsed
	ErrUnknownPlaceType = errors.New("unknown place type")
)

// PlaceType restricts the kind of places an autocomplete request returns.
type PlaceType int

const (
	PlaceTypeAll PlaceType = iota
	PlaceTypeGeocode
	PlaceTypeAddress
	PlaceTypeEstablishment
	PlaceTypeRegions
	PlaceTypeCities
)

// String returns the filter value the places API expects. PlaceTypeAll is the empty filter.
func (p PlaceType) String() string {
	switch p {
	case PlaceTypeGeocode:
		return "geocode"
	case PlaceTypeAddress:
		return "address"
	case PlaceTypeEstablishment:
		return "establishment"
	case PlaceTypeRegions:
		return "(regions)"
	case PlaceTypeCities:
		return "(cities)"
	default:
		return ""
	}
}

// ParsePlaceType returns the PlaceType for the given name. Both the plain names and the
// API's collection form (e.g. "(cities)") are accepted; "" and "all" map to PlaceTypeAll.
func ParsePlaceType(name string) (PlaceType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "all":
		return PlaceTypeAll, nil
	case "geocode":
		return PlaceTypeGeocode, nil
	case "address":
		return PlaceTypeAddress, nil
	case "establishment":
		return PlaceTypeEstablishment, nil
	case "regions", "(regions)":
		return PlaceTypeRegions, nil
	case "cities", "(cities)":
		return PlaceTypeCities, nil
	default:
		return PlaceTypeAll, fmt.Errorf("%w: %q", ErrUnknownPlaceType, name)
	}
}

// Place is a single autocomplete suggestion. The APIKey is carried along so that details can
// be looked up for the place later on.
type Place struct {
	ID          string
	Description string
	APIKey      string
	Types       []string
}

func (p Place) String() string {
	return p.Description
}

// PlaceDetails holds the extended information for a single place. Fields that the response
// did not contain (or contained with an unexpected type) stay unset.
type PlaceDetails struct {
	PlaceID   string
	Name      vartype.VarString
	Latitude  vartype.VarFloat64
	Longitude vartype.VarFloat64
	Address   string
	Types     []string

	// Raw is the complete decoded response
	Raw map[string]any
}

// Missing returns the names of the core fields that were not present in the response.
func (d PlaceDetails) Missing() []string {
	var missing []string
	if !d.Name.IsSet() {
		missing = append(missing, "name")
	}
	if !d.Latitude.IsSet() {
		missing = append(missing, "lat")
	}
	if !d.Longitude.IsSet() {
		missing = append(missing, "lng")
	}
	return missing
}

// Complete reports whether name and both coordinates were present in the response.
func (d PlaceDetails) Complete() bool {
	return len(d.Missing()) == 0
}

func (d PlaceDetails) String() string {
	return fmt.Sprintf("PlaceDetails: %s (%v, %v)", d.Name.Value(), d.Latitude.Value(), d.Longitude.Value())
}

// LocationBias prefers (without strictly filtering) results around a point.
type LocationBias struct {
	Latitude  float64
	Longitude float64
	// Radius in meters
	Radius int
}

// NewLocationBias returns a LocationBias around the given point with the DefaultRadius.
func NewLocationBias(lat, lng float64) LocationBias {
	return LocationBias{Latitude: lat, Longitude: lng, Radius: DefaultRadius}
}

// Location returns the "<lat>,<lng>" form of the bias center.
func (b LocationBias) Location() string {
	return formatCoordinate(b.Latitude) + "," + formatCoordinate(b.Longitude)
}

// RadiusMeters returns the radius as a string, falling back to DefaultRadius for
// non-positive values.
func (b LocationBias) RadiusMeters() string {
	if b.Radius <= 0 {
		return strconv.Itoa(DefaultRadius)
	}
	return strconv.Itoa(b.Radius)
}

// formatCoordinate renders a coordinate with at most 15 significant digits.
func formatCoordinate(val float64) string {
	formatted := strconv.FormatFloat(val, 'g', 15, 64)
	if strings.ContainsAny(formatted, "eE") {
		return strconv.FormatFloat(val, 'f', -1, 64)
	}
	return formatted
}

// Query is a single autocomplete request.
type Query struct {
	Text      string
	PlaceType PlaceType
	APIKey    string
	Language  string
	Bias      *LocationBias

	// Extra holds additional request parameters. They override the computed parameters on key
	// collision, but not the bias fields unless ExtraOverridesBias is set.
	Extra              map[string]string
	ExtraOverridesBias bool
}

// Key returns a canonical representation of the query. Equal queries yield equal keys.
func (q Query) Key() string {
	fields := map[string]string{
		"text":     q.Text,
		"type":     q.PlaceType.String(),
		"apikey":   q.APIKey,
		"language": q.Language,
	}
	if q.Bias != nil {
		fields["bias"] = q.Bias.Location() + ";" + q.Bias.RadiusMeters()
	}
	if q.ExtraOverridesBias {
		fields["override"] = "1"
	}
	for key, val := range q.Extra {
		fields["extra."+key] = val
	}
	return query.Build(fields)
}

// Autocompleter returns ranked place suggestions for a query
type Autocompleter interface {
	Name() string
	Autocomplete(ctx context.Context, q Query) ([]Place, error)
}

// DetailsProvider looks up extended information for a place
type DetailsProvider interface {
	Name() string
	Details(ctx context.Context, place Place) (PlaceDetails, error)
}

// Provider is a places API that supports both autocomplete and details lookups
type Provider interface {
	Autocompleter
	DetailsProvider
}
