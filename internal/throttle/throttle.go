// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package throttle paces outbound requests per API so sustained crawls
// stay inside the provider's advertised queries-per-second limits.
// Implements: prd002-transport (R4);
//
//	docs/ARCHITECTURE § Transport.
package throttle

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// limits holds the provider's published queries-per-second ceiling for
// each API. Zero means unthrottled.
var limits = map[string]int{
	"AbstractRetrieval":      9,
	"AffiliationRetrieval":   9,
	"AffiliationSearch":      6,
	"AuthorRetrieval":        3,
	"AuthorSearch":           2,
	"CitationOverview":       4,
	"ScopusSearch":           9,
	"SerialSearch":           6,
	"SerialTitle":            6,
	"PlumXMetrics":           6,
	"SubjectClassifications": 0,

	"AuthorLookup":           6,
	"CountryLookup":          6,
	"CountryGroupLookup":     6,
	"InstitutionLookup":      6,
	"InstitutionGroupLookup": 6,
	"PublicationLookup":      6,
	"ScopusSourceLookup":     6,
	"SubjectAreaLookup":      6,
	"TopicLookup":            6,
	"TopicClusterLookup":     6,
	"WorldLookup":            6,
}

// Limit returns the queries-per-second ceiling for an API, or 0 when the
// API is unknown or unthrottled.
func Limit(api string) int {
	return limits[api]
}

// Gate hands out one token-bucket limiter per API and blocks callers
// until their next request is allowed. Safe for concurrent use.
type Gate struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	disabled bool
}

// NewGate builds a Gate. A disabled gate admits every request
// immediately, which keeps offline tests fast.
func NewGate(enabled bool) *Gate {
	return &Gate{
		limiters: make(map[string]*rate.Limiter),
		disabled: !enabled,
	}
}

// Wait blocks until the API's limiter admits one request, or until ctx
// is done. APIs without a published limit pass through untouched.
func (g *Gate) Wait(ctx context.Context, api string) error {
	if g.disabled {
		return nil
	}
	qps := Limit(api)
	if qps <= 0 {
		return nil
	}

	g.mu.Lock()
	lim, ok := g.limiters[api]
	if !ok {
		// Burst of one keeps spacing even under concurrent callers.
		lim = rate.NewLimiter(rate.Limit(qps), 1)
		g.limiters[api] = lim
	}
	g.mu.Unlock()

	return lim.Wait(ctx)
}
