// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"github.com/wneessen/places-autocomplete/internal/http"
	"github.com/wneessen/places-autocomplete/internal/locate"
	"github.com/wneessen/places-autocomplete/internal/locate/provider/file"
	"github.com/wneessen/places-autocomplete/internal/locate/provider/geoip"
	"github.com/wneessen/places-autocomplete/internal/locate/provider/gpsd"
	"github.com/wneessen/places-autocomplete/internal/places/provider/google"
	"github.com/wneessen/places-autocomplete/internal/search"
)

// selectLocators returns the enabled location sources, most accurate first
func (s *Service) selectLocators(client *http.Client) []locate.Locator {
	var locators []locate.Locator
	if !s.config.Bias.DisableFile {
		locators = append(locators, file.New(s.config.Bias.File))
	}
	if !s.config.Bias.DisableGPSD {
		locators = append(locators, gpsd.New(s.config.Bias.GPSDAddr))
	}
	if !s.config.Bias.DisableGeoIP {
		locators = append(locators, geoip.New(client))
	}
	return locators
}

func (s *Service) newSearchService(client *http.Client) *search.Service {
	provider := google.New(client,
		google.WithLanguage(s.config.LanguageTag()),
		google.WithEndpoints(s.config.Endpoints.Autocomplete, s.config.Endpoints.Details),
	)

	opts := []search.Option{
		search.WithEventBus(s.bus),
		search.WithDispatcher(client.Dispatch),
		search.WithRateLimit(s.config.Search.RateLimit, s.config.Search.Burst),
	}
	if s.config.Cache.Enabled {
		opts = append(opts, search.WithCache(s.config.Cache.TTLHit, s.config.Cache.TTLMiss))
	}
	return search.New(provider, s.logger, opts...)
}
