// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package file

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/wneessen/places-autocomplete/internal/locate"
)

// Accuracy is the accuracy of a location read from file. We consider a user provided location
// as the most accurate data available.
const Accuracy = 5

const name = "geolocation_file"

var ErrNoCoordinates = errors.New("no valid coordinates found in geolocation file")

// File reads a "lat, lon" position from a file. Empty lines and lines starting with # are
// ignored.
type File struct {
	path string
}

func New(path string) *File {
	return &File{path: path}
}

func (f *File) Name() string {
	return name
}

func (f *File) Locate(context.Context) (locate.Coordinate, error) {
	lat, lon, err := f.readFile()
	if err != nil {
		return locate.Coordinate{}, err
	}
	return locate.Coordinate{Lat: lat, Lon: lon, Acc: Accuracy, Source: name}, nil
}

func (f *File) readFile() (lat, lon float64, err error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read geolocation file %q: %w", f.path, err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return parseCoordinates(line)
	}
	return 0, 0, fmt.Errorf("geolocation file %q: %w", f.path, ErrNoCoordinates)
}

func parseCoordinates(line string) (lat, lon float64, err error) {
	coords := strings.Split(line, ",")
	if len(coords) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrNoCoordinates, line)
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(coords[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse latitude: %w", err)
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(coords[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse longitude: %w", err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("%w: %q is out of range", ErrNoCoordinates, line)
	}
	return lat, lon, nil
}
