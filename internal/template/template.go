// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package template

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/mattn/go-runewidth"

	"github.com/wneessen/places-autocomplete/internal/places"
)

const (
	DefaultPlaceTpl   = `{{pad .Index 3}} {{trunc .Description 72}}`
	DefaultDetailsTpl = "{{.Name}}\n{{if .Address}}{{.Address}}\n{{end}}" +
		`{{floatFormat .Latitude 7}}, {{floatFormat .Longitude 7}}{{if .Missing}} (missing: {{join .Missing ", "}}){{end}}`
)

// PlaceData is the data the place template is rendered with
type PlaceData struct {
	Index       int
	ID          string
	Description string
	Types       []string
}

// DetailsData is the data the details template is rendered with
type DetailsData struct {
	PlaceID   string
	Name      string
	Latitude  float64
	Longitude float64
	Address   string
	Types     []string
	Missing   []string
}

type Templates struct {
	Place   *template.Template
	Details *template.Template
}

// New parses the place and details templates. Empty templates fall back to the defaults.
func New(placeTpl, detailsTpl string) (*Templates, error) {
	if placeTpl == "" {
		placeTpl = DefaultPlaceTpl
	}
	if detailsTpl == "" {
		detailsTpl = DefaultDetailsTpl
	}

	tpls := new(Templates)
	tpl, err := template.New("place").Funcs(templateFuncMap()).Parse(placeTpl)
	if err != nil {
		return tpls, fmt.Errorf("failed to parse place template: %w", err)
	}
	tpls.Place = tpl

	tpl, err = template.New("details").Funcs(templateFuncMap()).Parse(detailsTpl)
	if err != nil {
		return tpls, fmt.Errorf("failed to parse details template: %w", err)
	}
	tpls.Details = tpl

	return tpls, nil
}

// RenderPlace renders a single suggestion with its position in the result list
func (t *Templates) RenderPlace(index int, place places.Place) (string, error) {
	data := PlaceData{
		Index:       index,
		ID:          place.ID,
		Description: place.Description,
		Types:       place.Types,
	}
	buf := bytes.NewBuffer(nil)
	if err := t.Place.Execute(buf, data); err != nil {
		return "", fmt.Errorf("failed to render place template: %w", err)
	}
	return buf.String(), nil
}

// RenderDetails renders the details of a place. Missing fields render as zero values and are
// listed in DetailsData.Missing.
func (t *Templates) RenderDetails(details places.PlaceDetails) (string, error) {
	data := DetailsData{
		PlaceID:   details.PlaceID,
		Name:      details.Name.Value(),
		Latitude:  details.Latitude.Value(),
		Longitude: details.Longitude.Value(),
		Address:   details.Address,
		Types:     details.Types,
		Missing:   details.Missing(),
	}
	buf := bytes.NewBuffer(nil)
	if err := t.Details.Execute(buf, data); err != nil {
		return "", fmt.Errorf("failed to render details template: %w", err)
	}
	return buf.String(), nil
}

func templateFuncMap() template.FuncMap {
	return template.FuncMap{
		"floatFormat": floatFormat,
		"pad":         pad,
		"trunc":       trunc,
		"join":        strings.Join,
		"lc":          strings.ToLower,
		"uc":          strings.ToUpper,
	}
}

func floatFormat(val float64, precision int) string {
	return fmt.Sprintf("%.*f", precision, val)
}

// pad right-aligns val to the given display width
func pad(val any, width int) string {
	return runewidth.FillLeft(fmt.Sprint(val), width)
}

// trunc cuts val to the given display width, marking the cut with an ellipsis
func trunc(val string, width int) string {
	return runewidth.Truncate(val, width, "…")
}
