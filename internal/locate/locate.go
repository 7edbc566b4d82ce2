// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package locate

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/wneessen/places-autocomplete/internal/logger"
	"github.com/wneessen/places-autocomplete/internal/places"
)

// Accuracy values in meters for locations that only resolve to an area
const (
	AccuracyCountry = 300000
	AccuracyRegion  = 100000
	AccuracyCity    = 15000
	AccuracyZip     = 3000
	AccuracyUnknown = 1000000

	// MinRadius is the smallest bias radius derived from a location
	MinRadius = 1000
)

var ErrNoLocators = errors.New("no locators configured")

// Coordinate is a located position with its horizontal accuracy in meters
type Coordinate struct {
	Lat    float64
	Lon    float64
	Acc    float64
	Source string
}

// Locator determines the current position of the host
type Locator interface {
	Name() string
	Locate(ctx context.Context) (Coordinate, error)
}

// Chain asks its locators in order and returns the first position found
type Chain struct {
	locators []Locator
	logger   *logger.Logger
}

func NewChain(log *logger.Logger, locators ...Locator) *Chain {
	return &Chain{locators: locators, logger: log}
}

func (c *Chain) Name() string {
	return "chain"
}

// Len returns the number of locators in the chain
func (c *Chain) Len() int {
	return len(c.locators)
}

func (c *Chain) Locate(ctx context.Context) (Coordinate, error) {
	if len(c.locators) == 0 {
		return Coordinate{}, ErrNoLocators
	}

	var errs []error
	for _, locator := range c.locators {
		if err := ctx.Err(); err != nil {
			return Coordinate{}, err
		}
		coord, err := locator.Locate(ctx)
		if err != nil {
			if c.logger != nil {
				c.logger.Debug("locator failed", "locator", locator.Name(), logger.Err(err))
			}
			errs = append(errs, fmt.Errorf("%s: %w", locator.Name(), err))
			continue
		}
		if coord.Source == "" {
			coord.Source = locator.Name()
		}
		return coord, nil
	}
	return Coordinate{}, fmt.Errorf("failed to determine location: %w", errors.Join(errs...))
}

// BiasFor converts a coordinate into a location bias with the accuracy as radius
func BiasFor(coord Coordinate) places.LocationBias {
	radius := int(math.Ceil(coord.Acc))
	switch {
	case radius < MinRadius:
		radius = MinRadius
	case radius > places.DefaultRadius:
		radius = places.DefaultRadius
	}
	return places.LocationBias{Latitude: coord.Lat, Longitude: coord.Lon, Radius: radius}
}

