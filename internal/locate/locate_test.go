// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package locate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/wneessen/places-autocomplete/internal/logger"
	"github.com/wneessen/places-autocomplete/internal/places"
)

type mockLocator struct {
	name  string
	coord Coordinate
	err   error
	calls int
}

func (m *mockLocator) Name() string { return m.name }

func (m *mockLocator) Locate(context.Context) (Coordinate, error) {
	m.calls++
	return m.coord, m.err
}

func TestChain_Locate(t *testing.T) {
	log := logger.NewLogger(slog.LevelDebug, io.Discard)
	t.Run("first successful locator wins", func(t *testing.T) {
		failing := &mockLocator{name: "failing", err: errors.New("intentionally failing")}
		first := &mockLocator{name: "first", coord: Coordinate{Lat: 1, Lon: 2, Acc: 3}}
		second := &mockLocator{name: "second", coord: Coordinate{Lat: 4, Lon: 5, Acc: 6}}
		chain := NewChain(log, failing, first, second)
		coord, err := chain.Locate(t.Context())
		if err != nil {
			t.Fatalf("failed to locate: %s", err)
		}
		if coord.Lat != 1 || coord.Lon != 2 || coord.Source != "first" {
			t.Errorf("unexpected coordinate: %+v", coord)
		}
		if second.calls != 0 {
			t.Error("expected second locator not to be asked")
		}
	})
	t.Run("all locators failing returns all errors", func(t *testing.T) {
		errFirst := errors.New("first failed")
		errSecond := errors.New("second failed")
		chain := NewChain(log, &mockLocator{name: "a", err: errFirst}, &mockLocator{name: "b", err: errSecond})
		_, err := chain.Locate(t.Context())
		if !errors.Is(err, errFirst) || !errors.Is(err, errSecond) {
			t.Errorf("expected both errors to be returned, got %v", err)
		}
	})
	t.Run("empty chain fails", func(t *testing.T) {
		chain := NewChain(log)
		if _, err := chain.Locate(t.Context()); !errors.Is(err, ErrNoLocators) {
			t.Errorf("expected error to be %s, got %v", ErrNoLocators, err)
		}
		if chain.Len() != 0 {
			t.Errorf("expected empty chain, got %d locators", chain.Len())
		}
	})
	t.Run("cancelled context stops the chain", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		locator := &mockLocator{name: "first"}
		if _, err := NewChain(log, locator).Locate(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("expected error to be %s, got %v", context.Canceled, err)
		}
		if locator.calls != 0 {
			t.Error("expected locator not to be asked")
		}
	})
}

func TestBiasFor(t *testing.T) {
	tests := []struct {
		name   string
		acc    float64
		radius int
	}{
		{"precise locations use the minimum radius", 5, MinRadius},
		{"city accuracy", AccuracyCity, AccuracyCity},
		{"fractions are rounded up", 1500.2, 1501},
		{"huge accuracy is clamped", 1e9, places.DefaultRadius},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bias := BiasFor(Coordinate{Lat: 48.8534275, Lon: 2.3582788, Acc: tc.acc})
			if bias.Radius != tc.radius {
				t.Errorf("expected radius to be %d, got %d", tc.radius, bias.Radius)
			}
			if bias.Latitude != 48.8534275 || bias.Longitude != 2.3582788 {
				t.Errorf("unexpected bias position: %+v", bias)
			}
		})
	}
}

