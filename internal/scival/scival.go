// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scival wraps the SciVal lookup APIs. Lookups resolve one
// entity (an author, a country) and expose its identity and research
// metrics through typed accessors.
// Implements: prd004-domain-wrappers (R7, R8);
//
//	docs/ARCHITECTURE § Wrappers.
package scival

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/biblio-engine/internal/cache"
	"github.com/pdiddy/biblio-engine/internal/engine"
	"github.com/pdiddy/biblio-engine/internal/fetch"
	"github.com/pdiddy/biblio-engine/pkg/types"
)

// result is embedded by every lookup and exposes the engine record
// backing it.
type result struct {
	rec *engine.Record
}

// Record returns the raw engine record behind this lookup, including
// its quota accessors.
func (r result) Record() *engine.Record { return r.rec }

// FromCache reports whether the response was served from disk.
func (r result) FromCache() bool { return r.rec.FromCache }

// CacheAge returns the backing cache file's age in whole days.
func (r result) CacheAge() int { return r.rec.CacheAge() }

// CacheModifiedAt returns the cache file's modification time in local
// time, e.g. "2026-05-01 09:30:00".
func (r result) CacheModifiedAt() string { return r.rec.CacheModifiedAt() }

// Allowed values for the metric request knobs, as the provider
// documents them.
var (
	MetricTypes = []string{
		"AcademicCorporateCollaboration", "AcademicCorporateCollaborationImpact",
		"Collaboration", "CollaborationImpact", "CitationCount",
		"CitationsPerPublication", "CitedPublications",
		"FieldWeightedCitationImpact", "ScholarlyOutput",
		"PublicationsInTopJournalPercentiles", "OutputsInTopCitationPercentiles",
	}
	YearRanges = []string{
		"3yrs", "3yrsAndCurrent", "3yrsAndCurrentAndFuture",
		"5yrs", "5yrsAndCurrent", "5yrsAndCurrentAndFuture", "10yrs",
	}
	IncludedDocs = []string{
		"AllPublicationTypes", "ArticlesOnly", "ArticlesReviews",
		"ArticlesReviewsConferencePapers",
		"ArticlesReviewsConferencePapersBooksAndBookChapters",
		"ConferencePapersOnly", "ArticlesConferencePapers", "BooksAndBookChapters",
	}
	JournalImpactTypes = []string{"CiteScore", "SNIP", "SJR"}
	IndexTypes         = []string{"hIndex", "h5Index", "gIndex", "mIndex"}
)

// Metric is one research metric of a looked-up entity. Simple metrics
// carry Value and ValueByYear; collaboration and percentile metrics
// split into per-class Values instead.
type Metric struct {
	Type             string             `json:"metricType"`
	Value            float64            `json:"value"`
	ValueByYear      map[string]float64 `json:"valueByYear"`
	PercentageByYear map[string]float64 `json:"percentageByYear"`
	Values           []MetricValue      `json:"values"`
}

// MetricValue is one class of a collaboration or percentile metric,
// e.g. the "International collaboration" share or the top-10% slice.
type MetricValue struct {
	CollabType       string             `json:"collabType"`
	Threshold        int                `json:"threshold"`
	Value            float64            `json:"value"`
	ValueByYear      map[string]float64 `json:"valueByYear"`
	PercentageByYear map[string]float64 `json:"percentageByYear"`
}

// MetricsOptions tune a metrics request. The zero value asks for
// ScholarlyOutput over the last five years, counting self-citations and
// all publication types.
type MetricsOptions struct {
	// Types lists the metrics to compute. Empty means ScholarlyOutput.
	Types []string

	// YearRange is the measurement window (default "5yrs").
	YearRange string

	// ExcludeSelfCitations drops the entity's own citations from
	// citation metrics.
	ExcludeSelfCitations bool

	// IncludedDocs restricts which publication types count (default
	// "AllPublicationTypes").
	IncludedDocs string

	// JournalImpactType selects the journal metric behind the
	// percentile metrics (default "CiteScore").
	JournalImpactType string

	// IndexType selects the h-index family variant (default "hIndex").
	IndexType string

	// ShowAsFieldWeighted reports field-weighted values.
	ShowAsFieldWeighted bool

	// Refresh controls cache reuse. The zero value serves any cached
	// file regardless of age.
	Refresh types.RefreshPolicy
}

// fetchMetrics resolves a metrics request for one entity. idParam names
// the API's entity parameter ("authors", "countryIds") and id carries
// its value.
func fetchMetrics(ctx context.Context, eng *engine.Engine, api, idParam, id string, opts MetricsOptions) ([]Metric, error) {
	metricTypes := opts.Types
	if len(metricTypes) == 0 {
		metricTypes = []string{"ScholarlyOutput"}
	}
	for _, mt := range metricTypes {
		if err := checkValue(mt, "metric type", MetricTypes); err != nil {
			return nil, err
		}
	}
	yearRange := opts.YearRange
	if yearRange == "" {
		yearRange = "5yrs"
	}
	if err := checkValue(yearRange, "year range", YearRanges); err != nil {
		return nil, err
	}
	includedDocs := opts.IncludedDocs
	if includedDocs == "" {
		includedDocs = "AllPublicationTypes"
	}
	if err := checkValue(includedDocs, "included docs", IncludedDocs); err != nil {
		return nil, err
	}
	impact := opts.JournalImpactType
	if impact == "" {
		impact = "CiteScore"
	}
	if err := checkValue(impact, "journal impact type", JournalImpactTypes); err != nil {
		return nil, err
	}
	indexType := opts.IndexType
	if indexType == "" {
		indexType = "hIndex"
	}
	if err := checkValue(indexType, "index type", IndexTypes); err != nil {
		return nil, err
	}

	base, err := fetch.Endpoint(api)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set(idParam, id)
	params.Set("metricTypes", strings.Join(metricTypes, ","))
	params.Set("yearRange", yearRange)
	params.Set("includeSelfCitations", strconv.FormatBool(!opts.ExcludeSelfCitations))
	params.Set("byYear", "true")
	params.Set("includedDocs", includedDocs)
	params.Set("journalImpactType", impact)
	params.Set("showAsFieldWeighted", strconv.FormatBool(opts.ShowAsFieldWeighted))
	params.Set("indexType", indexType)

	// Each metric/window combination gets its own cache slot.
	stem := fmt.Sprintf("%s-%s-%s", id, strings.Join(metricTypes, "_"), yearRange)
	rec, err := eng.Fetch(ctx, engine.Request{
		API:      api,
		URL:      base + "metrics",
		Kind:     engine.KindRetrieval,
		Params:   params,
		Key:      cache.Key{API: api, ID: stem},
		Refresh:  opts.Refresh,
		Download: true,
	}, nil)
	if err != nil {
		return nil, err
	}

	results, _, err := parseLookup(rec.Doc(), api)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%s metrics response holds no results", api)
	}
	return results[0].Metrics, nil
}

// lookupResult is one element of a lookup response's results array.
type lookupResult struct {
	Metrics []Metric        `json:"metrics"`
	Author  json.RawMessage `json:"author"`

	// Country results carry the entity fields inline.
	Name        string     `json:"name"`
	ID          flexString `json:"id"`
	URI         string     `json:"uri"`
	CountryCode string     `json:"countryCode"`
}

// parseLookup splits a lookup response into its results and data
// source description.
func parseLookup(doc json.RawMessage, api string) ([]lookupResult, map[string]string, error) {
	var env struct {
		Results    []lookupResult        `json:"results"`
		DataSource map[string]flexString `json:"dataSource"`
	}
	if err := json.Unmarshal(doc, &env); err != nil {
		return nil, nil, fmt.Errorf("parsing %s response: %w", api, err)
	}
	source := make(map[string]string, len(env.DataSource))
	for k, v := range env.DataSource {
		if v != "" {
			source[k] = string(v)
		}
	}
	return env.Results, source, nil
}

// checkValue rejects an option value outside its allowed set.
func checkValue(got, name string, allowed []string) error {
	for _, a := range allowed {
		if got == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %s, got %q", name, strings.Join(allowed, ", "), got)
}

// trailingID returns the numeric tail of an EID-shaped identifier:
// "9-s2.0-7102648837" becomes "7102648837". Bare IDs pass through.
func trailingID(id string) string {
	if i := strings.LastIndex(id, "-"); i >= 0 {
		return id[i+1:]
	}
	return id
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
