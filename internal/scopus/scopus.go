// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scopus wraps the Scopus APIs with typed request builders and
// result accessors. Each wrapper assembles one request, resolves it
// through the caching engine, and decodes the payload so callers never
// touch raw response JSON.
// Implements: prd004-domain-wrappers (R1-R6);
//
//	docs/ARCHITECTURE § Wrappers.
package scopus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pdiddy/biblio-engine/internal/engine"
)

// result is embedded by every wrapper and exposes the engine record
// backing it.
type result struct {
	rec *engine.Record
}

// Record returns the raw engine record behind this wrapper, including
// its quota accessors.
func (r result) Record() *engine.Record { return r.rec }

// FromCache reports whether the response was served from disk.
func (r result) FromCache() bool { return r.rec.FromCache }

// CacheAge returns the backing cache file's age in whole days.
func (r result) CacheAge() int { return r.rec.CacheAge() }

// CacheModifiedAt returns the cache file's modification time in local
// time, e.g. "2026-05-01 09:30:00".
func (r result) CacheModifiedAt() string { return r.rec.CacheModifiedAt() }

// TextValue unwraps the {"$": "..."} objects the provider uses for
// attributed values.
type TextValue struct {
	Value string `json:"$"`
}

// YearValue pairs a metric value with the year it was measured. Both
// fields arrive as strings or bare numbers depending on the API.
type YearValue struct {
	Year  string
	Value string
}

func (y *YearValue) UnmarshalJSON(data []byte) error {
	var raw struct {
		Year  flexString `json:"@year"`
		Value flexString `json:"$"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	y.Year, y.Value = string(raw.Year), string(raw.Value)
	return nil
}

// SubjectArea is one ASJC subject classification attached to an author
// or a serial.
type SubjectArea struct {
	Code      string `json:"@code"`
	Abbrev    string `json:"@abbrev"`
	Frequency string `json:"@frequency"`
	Name      string `json:"$"`
}

// oneOrMany accepts a JSON value the provider serializes either as a
// single object or as an array of objects, depending on cardinality.
type oneOrMany[T any] []T

func (o *oneOrMany[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '[' {
		return json.Unmarshal(data, (*[]T)(o))
	}
	var single T
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*o = []T{single}
	return nil
}

// checkValue rejects an option value outside its allowed set.
func checkValue(got, name string, allowed ...string) error {
	for _, a := range allowed {
		if got == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %s, got %q", name, strings.Join(allowed, ", "), got)
}

// stripPrefixes rebuilds a JSON object with namespace prefixes removed
// from its keys, so "prism:issn" and "ce:surname" decode through plain
// field tags.
func stripPrefixes(raw json.RawMessage) (json.RawMessage, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		if i := strings.Index(k, ":"); i >= 0 {
			k = k[i+1:]
		}
		out[k] = v
	}
	return json.Marshal(out)
}

// trailingID returns the numeric tail of an EID-shaped identifier:
// "9-s2.0-7102648837" becomes "7102648837". Bare IDs pass through.
func trailingID(id string) string {
	if i := strings.LastIndex(id, "-"); i >= 0 {
		return id[i+1:]
	}
	return id
}

// atoi converts the provider's numeric strings, returning 0 for
// anything unparsable.
func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// flexInt reads a JSON number that the provider sometimes serializes as
// a string.
func flexInt(raw json.RawMessage) int {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return atoi(s)
	}
	return 0
}

// flexString holds a scalar the provider serializes as either a JSON
// string or a bare number. Other shapes decode to "".
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexString(n.String())
	}
	return nil
}
