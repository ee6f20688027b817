// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scival

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/pdiddy/biblio-engine/internal/cache"
	"github.com/pdiddy/biblio-engine/internal/engine"
	"github.com/pdiddy/biblio-engine/internal/fetch"
	"github.com/pdiddy/biblio-engine/pkg/types"
)

// AuthorLookup holds one author's SciVal identity and the metrics
// requested with it.
type AuthorLookup struct {
	result
	ID string

	author     authorIdentity
	metrics    []Metric
	dataSource map[string]string
}

// AuthorLookupOptions tune an Author Lookup request.
type AuthorLookupOptions struct {
	// MetricTypes lists the metrics fetched alongside the identity.
	// Empty means ScholarlyOutput.
	MetricTypes []string

	// Refresh controls cache reuse. The zero value serves any cached
	// file regardless of age.
	Refresh types.RefreshPolicy

	// Extra is merged into the query parameters as-is.
	Extra url.Values
}

// NewAuthorLookup fetches the SciVal profile of one author. id may be
// a bare author ID or an author EID; the "9-s2.0-" prefix is stripped.
func NewAuthorLookup(ctx context.Context, eng *engine.Engine, id string, opts AuthorLookupOptions) (*AuthorLookup, error) {
	metricTypes := opts.MetricTypes
	if len(metricTypes) == 0 {
		metricTypes = []string{"ScholarlyOutput"}
	}
	for _, mt := range metricTypes {
		if err := checkValue(mt, "metric type", MetricTypes); err != nil {
			return nil, err
		}
	}
	authorID := trailingID(id)

	base, err := fetch.Endpoint("AuthorLookup")
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	for k, vs := range opts.Extra {
		params[k] = append(params[k], vs...)
	}
	params.Set("authors", authorID)
	params.Set("metricTypes", strings.Join(metricTypes, ","))

	rec, err := eng.Fetch(ctx, engine.Request{
		API:      "AuthorLookup",
		URL:      base + "metrics",
		Kind:     engine.KindRetrieval,
		Params:   params,
		Key:      cache.Key{API: "AuthorLookup", ID: authorID},
		Refresh:  opts.Refresh,
		Download: true,
	}, nil)
	if err != nil {
		return nil, err
	}

	results, source, err := parseLookup(rec.Doc(), "AuthorLookup")
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no SciVal profile found for author %s", authorID)
	}

	l := &AuthorLookup{
		result:     result{rec: rec},
		ID:         authorID,
		metrics:    results[0].Metrics,
		dataSource: source,
	}
	if len(results[0].Author) > 0 {
		if err := json.Unmarshal(results[0].Author, &l.author); err != nil {
			return nil, fmt.Errorf("parsing AuthorLookup identity: %w", err)
		}
	}
	return l, nil
}

// Name returns the author's display name, or "Unknown" when the
// provider omits it.
func (l *AuthorLookup) Name() string {
	if l.author.Name == "" {
		return "Unknown"
	}
	return l.author.Name
}

// AuthorID returns the author ID the provider reports.
func (l *AuthorLookup) AuthorID() string { return string(l.author.ID) }

// URI returns the provider's resource URI for the author.
func (l *AuthorLookup) URI() string { return l.author.URI }

// Metrics returns the metrics fetched with the profile.
func (l *AuthorLookup) Metrics() []Metric { return l.metrics }

// DataSource describes the dataset the metrics were computed from,
// e.g. its name and last update date.
func (l *AuthorLookup) DataSource() map[string]string { return l.dataSource }

// FetchMetrics requests further metrics for this author, for instance
// a different metric type or measurement window. Each combination is
// cached separately.
func (l *AuthorLookup) FetchMetrics(ctx context.Context, eng *engine.Engine, opts MetricsOptions) ([]Metric, error) {
	return fetchMetrics(ctx, eng, "AuthorLookup", "authors", l.ID, opts)
}

// authorIdentity is the author object of a lookup result.
type authorIdentity struct {
	Name string     `json:"name"`
	ID   flexString `json:"id"`
	URI  string     `json:"uri"`
}
