// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scival

import (
	"context"
	"strings"
	"testing"
)

const authorLookupJSON = `{"dataSource":{"sourceName":"Scopus","lastUpdated":"2026-08-01","metricStartYear":2021,"metricEndYear":2026},"results":[{"metrics":[{"metricType":"ScholarlyOutput","value":12,"valueByYear":{"2021":2,"2022":3,"2023":7}}],"author":{"name":"Okafor, Chinedu","id":112233,"uri":"Author/112233"}}]}`

func TestAuthorLookupParsesProfile(t *testing.T) {
	svc := &lookupFixture{doc: authorLookupJSON}
	eng := newTestEngine(t, svc.handler())

	l, err := NewAuthorLookup(context.Background(), eng, "9-s2.0-112233", AuthorLookupOptions{})
	if err != nil {
		t.Fatalf("NewAuthorLookup: %v", err)
	}

	if len(svc.paths) != 1 {
		t.Fatalf("requests = %d, want 1", len(svc.paths))
	}
	if want := "/analytics/scival/author/metrics"; svc.paths[0] != want {
		t.Errorf("path = %q, want %q", svc.paths[0], want)
	}
	p := svc.params[0]
	if p.Get("authors") != "112233" || p.Get("metricTypes") != "ScholarlyOutput" {
		t.Errorf("params = %v", p)
	}

	if l.Name() != "Okafor, Chinedu" {
		t.Errorf("Name = %q", l.Name())
	}
	if l.AuthorID() != "112233" {
		t.Errorf("AuthorID = %q", l.AuthorID())
	}
	if l.URI() != "Author/112233" {
		t.Errorf("URI = %q", l.URI())
	}

	metrics := l.Metrics()
	if len(metrics) != 1 {
		t.Fatalf("metrics = %d, want 1", len(metrics))
	}
	if metrics[0].Type != "ScholarlyOutput" || metrics[0].Value != 12 {
		t.Errorf("metric = %+v", metrics[0])
	}
	if metrics[0].ValueByYear["2022"] != 3 {
		t.Errorf("ValueByYear = %v", metrics[0].ValueByYear)
	}

	source := l.DataSource()
	if source["sourceName"] != "Scopus" || source["metricEndYear"] != "2026" {
		t.Errorf("DataSource = %v", source)
	}
}

func TestAuthorLookupUnknownName(t *testing.T) {
	svc := &lookupFixture{doc: `{"results":[{"author":{"id":42}}]}`}
	eng := newTestEngine(t, svc.handler())

	l, err := NewAuthorLookup(context.Background(), eng, "42", AuthorLookupOptions{})
	if err != nil {
		t.Fatalf("NewAuthorLookup: %v", err)
	}
	if l.Name() != "Unknown" {
		t.Errorf("Name = %q, want Unknown", l.Name())
	}
	if l.AuthorID() != "42" {
		t.Errorf("AuthorID = %q", l.AuthorID())
	}
}

func TestAuthorLookupNoProfile(t *testing.T) {
	svc := &lookupFixture{doc: `{"results":[]}`}
	eng := newTestEngine(t, svc.handler())

	_, err := NewAuthorLookup(context.Background(), eng, "404", AuthorLookupOptions{})
	if err == nil || !strings.Contains(err.Error(), "no SciVal profile found for author 404") {
		t.Fatalf("err = %v, want no-profile error", err)
	}
}

func TestAuthorLookupRejectsMetricType(t *testing.T) {
	eng := newTestEngine(t, (&lookupFixture{doc: authorLookupJSON}).handler())

	_, err := NewAuthorLookup(context.Background(), eng, "42", AuthorLookupOptions{MetricTypes: []string{"Magic"}})
	if err == nil || !strings.Contains(err.Error(), "metric type must be one of") {
		t.Fatalf("err = %v, want metric type validation error", err)
	}
}

func TestAuthorLookupFetchMetrics(t *testing.T) {
	svc := &lookupFixture{doc: authorLookupJSON}
	eng := newTestEngine(t, svc.handler())
	ctx := context.Background()

	l, err := NewAuthorLookup(ctx, eng, "112233", AuthorLookupOptions{})
	if err != nil {
		t.Fatalf("NewAuthorLookup: %v", err)
	}

	metrics, err := l.FetchMetrics(ctx, eng, MetricsOptions{
		Types:                []string{"CitationCount"},
		YearRange:            "3yrs",
		ExcludeSelfCitations: true,
	})
	if err != nil {
		t.Fatalf("FetchMetrics: %v", err)
	}
	if len(metrics) != 1 {
		t.Fatalf("metrics = %d, want 1", len(metrics))
	}

	// The metric request misses the profile's cache slot.
	if len(svc.paths) != 2 {
		t.Fatalf("requests = %d, want 2", len(svc.paths))
	}
	p := svc.params[1]
	want := map[string]string{
		"authors":              "112233",
		"metricTypes":          "CitationCount",
		"yearRange":            "3yrs",
		"includeSelfCitations": "false",
		"byYear":               "true",
		"includedDocs":         "AllPublicationTypes",
		"journalImpactType":    "CiteScore",
		"indexType":            "hIndex",
		"showAsFieldWeighted":  "false",
	}
	for k, v := range want {
		if got := p.Get(k); got != v {
			t.Errorf("param %s = %q, want %q", k, got, v)
		}
	}

	// Asking again with the same knobs is a cache hit.
	if _, err := l.FetchMetrics(ctx, eng, MetricsOptions{
		Types:                []string{"CitationCount"},
		YearRange:            "3yrs",
		ExcludeSelfCitations: true,
	}); err != nil {
		t.Fatalf("FetchMetrics again: %v", err)
	}
	if len(svc.paths) != 2 {
		t.Errorf("requests = %d after repeat, want 2", len(svc.paths))
	}

	_, err = l.FetchMetrics(ctx, eng, MetricsOptions{YearRange: "forever"})
	if err == nil || !strings.Contains(err.Error(), "year range must be one of") {
		t.Fatalf("err = %v, want year range validation error", err)
	}
}
