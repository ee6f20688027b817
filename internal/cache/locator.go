// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache resolves, reads, and writes the on-disk response cache.
// Implements: prd001-cache-engine (R1, R2);
//
//	docs/ARCHITECTURE § Cache.
package cache

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/pdiddy/biblio-engine/pkg/types"
)

// maxStemLen bounds the file name length derived from an identifier.
// Longer identifiers (typically raw search queries) are hashed instead.
const maxStemLen = 100

// Key addresses one cached response: the API it came from, the requested
// view or sub-resource, and the identifier or query that produced it.
type Key struct {
	API  string
	View string
	ID   string
}

// Locator maps a Key to a deterministic file path below the configured
// cache root. Resolution is side-effect-free; directories are created only
// when a record is written.
type Locator struct {
	base      string
	overrides map[string]string
}

// NewLocator builds a Locator from the cache configuration.
func NewLocator(cfg types.CacheConfig) *Locator {
	return &Locator{base: cfg.BaseDir, overrides: cfg.Overrides}
}

// Resolve returns the cache file path for key. The layout is
// base/<api_in_snake_case>/<VIEW>/<stem>; an override for the API name
// replaces the base/<api> part.
func (l *Locator) Resolve(key Key) string {
	dir, ok := l.overrides[key.API]
	if !ok {
		dir = filepath.Join(l.base, snakeCase(key.API))
	}
	if key.View != "" {
		dir = filepath.Join(dir, key.View)
	}
	return filepath.Join(dir, Stem(key.ID))
}

// Stem converts an identifier into a safe file name. Path separators are
// replaced, and identifiers that are too long or contain characters outside
// [A-Za-z0-9._-] (raw query strings, mostly) collapse to a stable hash.
func Stem(id string) string {
	s := strings.ReplaceAll(id, "/", "_")
	if s != "" && len(s) <= maxStemLen && isPlainStem(s) {
		return s
	}
	return fmt.Sprintf("q-%016x", xxhash.Sum64String(id))
}

func isPlainStem(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

// snakeCase converts an API name like "AbstractRetrieval" to
// "abstract_retrieval" for use as a directory name.
func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
