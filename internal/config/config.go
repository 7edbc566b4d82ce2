// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Xuanwo/go-locale"
	"github.com/kkyr/fig"
	"golang.org/x/text/language"

	"github.com/wneessen/places-autocomplete/internal/places"
)

const (
	configEnv = "PLACESAUTOCOMPLETE"
	AppName   = "places-autocomplete"
)

// Config represents the application's configuration structure.
type Config struct {
	APIKey   string     `fig:"apikey"`
	LogLevel slog.Level `fig:"loglevel" default:"0"`
	// BCP-47 language tag. Detected from the environment if empty.
	Language string `fig:"language"`
	// Allowed values: all, geocode, address, establishment, regions, cities
	PlaceType string `fig:"placetype" default:"all"`

	Endpoints struct {
		Autocomplete string `fig:"autocomplete"`
		Details      string `fig:"details"`
	} `fig:"endpoints"`

	HTTP struct {
		Timeout time.Duration `fig:"timeout" default:"10s"`
	} `fig:"http"`

	Search struct {
		// Requests per second, 0 disables throttling
		RateLimit float64 `fig:"rate_limit" default:"10"`
		Burst     int     `fig:"burst" default:"3"`
	} `fig:"search"`

	Cache struct {
		Enabled bool          `fig:"enabled" default:"true"`
		TTLHit  time.Duration `fig:"ttl_hit" default:"5m"`
		TTLMiss time.Duration `fig:"ttl_miss" default:"30s"`
	} `fig:"cache"`

	Bias struct {
		Enabled   bool    `fig:"enabled"`
		Latitude  float64 `fig:"latitude"`
		Longitude float64 `fig:"longitude"`
		// Meters, 0 derives the radius from the location accuracy
		Radius       int    `fig:"radius"`
		File         string `fig:"file"`
		DisableFile  bool   `fig:"disable_file"`
		DisableGeoIP bool   `fig:"disable_geoip"`
		DisableGPSD  bool   `fig:"disable_gpsd"`
		GPSDAddr     string `fig:"gpsd_addr" default:"localhost:2947"`
	} `fig:"bias"`

	Templates struct {
		Place   string `fig:"place"`
		Details string `fig:"details"`
	} `fig:"templates"`

	Extra              map[string]string `fig:"extra"`
	ExtraOverridesBias bool              `fig:"extra_overrides_bias"`
}

func NewFromFile(path, file string) (*Config, error) {
	conf := new(Config)
	_, err := os.Stat(filepath.Join(path, file))
	if err != nil {
		return conf, fmt.Errorf("failed to read Config: %w", err)
	}
	if err = fig.Load(conf, fig.Dirs(path), fig.File(file), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func New() (*Config, error) {
	conf := new(Config)
	if err := fig.Load(conf, fig.AllowNoFile(), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func (c *Config) Validate() error {
	if c.Language == "" {
		c.Language = detectLanguage()
	}
	if c.Language != "" {
		tag, err := language.Parse(c.Language)
		if err != nil {
			return fmt.Errorf("invalid language %q: %w", c.Language, err)
		}
		c.Language = tag.String()
	}
	if _, err := places.ParsePlaceType(c.PlaceType); err != nil {
		return err
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("invalid HTTP timeout: %s", c.HTTP.Timeout)
	}
	if c.Search.RateLimit < 0 {
		return fmt.Errorf("invalid search rate limit: %f", c.Search.RateLimit)
	}
	if c.Search.Burst < 1 {
		return fmt.Errorf("invalid search burst: %d", c.Search.Burst)
	}
	if c.Cache.TTLHit < 0 || c.Cache.TTLMiss < 0 {
		return fmt.Errorf("invalid cache TTLs: %s/%s", c.Cache.TTLHit, c.Cache.TTLMiss)
	}
	if c.Bias.Latitude < -90 || c.Bias.Latitude > 90 {
		return fmt.Errorf("invalid bias latitude: %f", c.Bias.Latitude)
	}
	if c.Bias.Longitude < -180 || c.Bias.Longitude > 180 {
		return fmt.Errorf("invalid bias longitude: %f", c.Bias.Longitude)
	}
	if c.Bias.Radius < 0 || c.Bias.Radius > places.DefaultRadius {
		return fmt.Errorf("invalid bias radius: %d", c.Bias.Radius)
	}
	if c.Bias.File == "" {
		home, _ := os.UserHomeDir()
		c.Bias.File = filepath.Join(home, ".config", AppName, "geolocation")
	}

	return nil
}

// LanguageTag returns the configured language or language.Und if none is set
func (c *Config) LanguageTag() language.Tag {
	if c.Language == "" {
		return language.Und
	}
	return language.Make(c.Language)
}

// PlaceTypeValue returns the configured place type restriction
func (c *Config) PlaceTypeValue() places.PlaceType {
	placeType, _ := places.ParsePlaceType(c.PlaceType)
	return placeType
}

// StaticBias returns the bias configured by coordinates, if any
func (c *Config) StaticBias() (places.LocationBias, bool) {
	if c.Bias.Latitude == 0 && c.Bias.Longitude == 0 {
		return places.LocationBias{}, false
	}
	bias := places.NewLocationBias(c.Bias.Latitude, c.Bias.Longitude)
	if c.Bias.Radius > 0 {
		bias.Radius = c.Bias.Radius
	}
	return bias, true
}

func detectLanguage() string {
	tag, err := locale.Detect()
	if err != nil || tag == language.Und {
		return ""
	}
	return tag.String()
}
