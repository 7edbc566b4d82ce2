// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geoip

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/places-autocomplete/internal/http"
	"github.com/wneessen/places-autocomplete/internal/locate"
)

const (
	APIEndpoint   = "https://reallyfreegeoip.org/json/"
	LookupTimeout = time.Second * 5
	name          = "geoip"
)

type GeoIP struct {
	http *http.Client
}

type APIResult struct {
	IP          string  `json:"ip"`
	CountryCode string  `json:"country_code"`
	Country     string  `json:"country_name"`
	RegionCode  string  `json:"region_code,omitempty"`
	Region      string  `json:"region_name,omitempty"`
	City        string  `json:"city,omitempty"`
	ZipCode     string  `json:"zip_code,omitempty"`
	TimeZone    string  `json:"time_zone"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	MetroCode   int     `json:"metro_code"`
}

func New(client *http.Client) *GeoIP {
	return &GeoIP{http: client}
}

func (p *GeoIP) Name() string {
	return name
}

// Locate looks up the position of the host's public IP address. The accuracy depends on how
// precisely the address could be resolved.
func (p *GeoIP) Locate(ctx context.Context) (locate.Coordinate, error) {
	payload, err := p.http.GetWithTimeout(ctx, APIEndpoint, nil, LookupTimeout)
	if err != nil {
		return locate.Coordinate{}, fmt.Errorf("failed to get geolocation data from API: %w", err)
	}
	result := new(APIResult)
	if err = payload.Decode(result); err != nil {
		return locate.Coordinate{}, fmt.Errorf("failed to decode geolocation data: %w", err)
	}

	acc := float64(locate.AccuracyUnknown)
	switch {
	case result.ZipCode != "":
		acc = locate.AccuracyZip
	case result.City != "":
		acc = locate.AccuracyCity
	case result.RegionCode != "":
		acc = locate.AccuracyRegion
	case result.CountryCode != "":
		acc = locate.AccuracyCountry
	}

	return locate.Coordinate{
		Lat:    result.Latitude,
		Lon:    result.Longitude,
		Acc:    acc,
		Source: name,
	}, nil
}
