// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package query builds canonical query strings for the places API.
//
// Keys are always sorted so that the same parameter set yields byte-identical output. Keys and
// values are escaped with a stricter profile than url.Values.Encode uses: only the RFC 3986
// unreserved characters are left as-is, everything else (including space) is percent-encoded.
package query

import (
	"net/url"
	"slices"
	"strings"
)

// Build returns the canonical query string for the given parameters. Keys are sorted ascending
// and joined as key=value pairs separated by "&". An empty or nil map yields an empty string.
func Build(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	var builder strings.Builder
	for i, key := range keys {
		if i > 0 {
			builder.WriteByte('&')
		}
		builder.WriteString(Escape(key))
		builder.WriteByte('=')
		builder.WriteString(Escape(params[key]))
	}
	return builder.String()
}

// Escape percent-encodes every byte of s that is not an unreserved character.
//
// url.QueryEscape already escapes the reserved set, but encodes space as "+". Since a literal
// "+" is always escaped to %2B, any "+" left in its output stands for a space.
func Escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Values converts the given parameters into url.Values
func Values(params map[string]string) url.Values {
	values := make(url.Values, len(params))
	for key, val := range params {
		values.Set(key, val)
	}
	return values
}

// Merge returns a new map holding the keys of all given maps. Later maps take precedence over
// earlier ones on key collision.
func Merge(sources ...map[string]string) map[string]string {
	size := 0
	for _, src := range sources {
		size += len(src)
	}
	merged := make(map[string]string, size)
	for _, src := range sources {
		for key, val := range src {
			merged[key] = val
		}
	}
	return merged
}
