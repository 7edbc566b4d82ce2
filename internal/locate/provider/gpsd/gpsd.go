// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package gpsd

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/stratoberry/go-gpsd"

	"github.com/wneessen/places-autocomplete/internal/locate"
)

const (
	DefaultAddr    = "localhost:2947"
	DefaultTimeout = time.Second * 5
	name           = "gpsd"

	fallbackAccuracy3DFix = 10  // ~10 m typical consumer GPS in open sky
	fallbackAccuracy2DFix = 25  // worse than 3D, but still accurate enough
	fallbackAccuracyNoFix = 1e6 // effectively unusable
)

var (
	ErrNoFix            = errors.New("gpsd did not report a position fix")
	ErrConnectionClosed = errors.New("gpsd connection closed before a fix was reported")
)

// Fix is a single TPV report from gpsd
type Fix struct {
	Lat  float64
	Lon  float64
	Epx  float64
	Epy  float64
	Mode gpsd.Mode
}

// Has2DFix reports whether the fix has at least a 2D fix.
func (f Fix) Has2DFix() bool {
	return f.Mode >= gpsd.Mode2D
}

// Accuracy returns the horizontal accuracy of the fix in meters
func (f Fix) Accuracy() float64 {
	if f.Epx > 0 && f.Epy > 0 {
		return math.Hypot(f.Epx, f.Epy)
	}
	switch f.Mode {
	case gpsd.Mode3D:
		return fallbackAccuracy3DFix
	case gpsd.Mode2D:
		return fallbackAccuracy2DFix
	default:
		return fallbackAccuracyNoFix
	}
}

// GPSD locates the host through a gpsd daemon
type GPSD struct {
	addr     string
	timeout  time.Duration
	locateFn func(ctx context.Context) (Fix, error)
}

// New returns a gpsd locator for the given address. An empty address uses DefaultAddr.
func New(addr string) *GPSD {
	if addr == "" {
		addr = DefaultAddr
	}
	provider := &GPSD{
		addr:    addr,
		timeout: DefaultTimeout,
	}
	provider.locateFn = provider.watch
	return provider
}

func (p *GPSD) Name() string {
	return name
}

// Locate waits for the first TPV report with at least a 2D fix
func (p *GPSD) Locate(ctx context.Context) (locate.Coordinate, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	fix, err := p.locateFn(ctx)
	if err != nil {
		return locate.Coordinate{}, err
	}
	if !fix.Has2DFix() {
		return locate.Coordinate{}, ErrNoFix
	}
	return locate.Coordinate{Lat: fix.Lat, Lon: fix.Lon, Acc: fix.Accuracy(), Source: name}, nil
}

func (p *GPSD) watch(ctx context.Context) (Fix, error) {
	session, err := gpsd.DialTimeout(p.addr, p.timeout)
	if err != nil {
		return Fix{}, fmt.Errorf("failed to connect to gpsd at %q: %w", p.addr, err)
	}
	defer func() {
		_ = session.Close()
	}()

	fixes := make(chan Fix, 1)
	session.AddFilter("TPV", func(r interface{}) {
		tpv, ok := r.(*gpsd.TPVReport)
		if !ok {
			return
		}
		fix := Fix{Lat: tpv.Lat, Lon: tpv.Lon, Epx: tpv.Epx, Epy: tpv.Epy, Mode: tpv.Mode}
		if !fix.Has2DFix() {
			return
		}
		select {
		case fixes <- fix:
		default:
		}
	})

	done := session.Watch()
	select {
	case <-ctx.Done():
		return Fix{}, ctx.Err()
	case fix := <-fixes:
		return fix, nil
	case <-done:
		return Fix{}, ErrConnectionClosed
	}
}
