// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scival

import (
	"context"
	"strings"
	"testing"
)

const countryJSON = `{"dataSource":{"sourceName":"Scopus"},"results":[{"name":"France","id":19,"uri":"Country/19","countryCode":"FRA"}]}`

const regionJSON = `{"results":[{"name":"France","id":19,"uri":"Country/19","countryCode":"FRA"},{"name":"Germany","id":20,"uri":"Country/20","countryCode":"DEU"},{"name":"Italy","id":26,"uri":"Country/26","countryCode":"ITA"}]}`

func TestCountryLookupByName(t *testing.T) {
	svc := &lookupFixture{doc: countryJSON}
	eng := newTestEngine(t, svc.handler())

	l, err := NewCountryLookup(context.Background(), eng, "France", CountryLookupOptions{})
	if err != nil {
		t.Fatalf("NewCountryLookup: %v", err)
	}

	if len(svc.paths) != 1 {
		t.Fatalf("requests = %d, want 1", len(svc.paths))
	}
	if want := "/analytics/scival/country/search"; svc.paths[0] != want {
		t.Errorf("path = %q, want %q", svc.paths[0], want)
	}
	p := svc.params[0]
	if p.Get("query") != "name(france)" || p.Get("limit") != "100" || p.Get("offset") != "0" {
		t.Errorf("params = %v", p)
	}

	if l.Name() != "France" || l.CountryID() != "19" || l.Code() != "FRA" {
		t.Errorf("country = %q / %q / %q", l.Name(), l.CountryID(), l.Code())
	}
	if l.URI() != "Country/19" {
		t.Errorf("URI = %q", l.URI())
	}
}

func TestCountryLookupByRegion(t *testing.T) {
	svc := &lookupFixture{doc: regionJSON}
	eng := newTestEngine(t, svc.handler())

	l, err := NewCountryLookup(context.Background(), eng, "europe", CountryLookupOptions{ByRegion: true, Limit: 10})
	if err != nil {
		t.Fatalf("NewCountryLookup: %v", err)
	}

	p := svc.params[0]
	if p.Get("query") != "region(Europe)" || p.Get("limit") != "10" {
		t.Errorf("params = %v", p)
	}

	countries := l.Countries()
	if len(countries) != 3 {
		t.Fatalf("countries = %d, want 3", len(countries))
	}
	if countries[1].Name != "Germany" || countries[1].Code != "DEU" {
		t.Errorf("countries[1] = %+v", countries[1])
	}

	// A name query for the same string must not reuse the region query's
	// cache slot.
	if _, err := NewCountryLookup(context.Background(), eng, "europe", CountryLookupOptions{}); err != nil {
		t.Fatalf("NewCountryLookup by name: %v", err)
	}
	if len(svc.paths) != 2 {
		t.Errorf("requests = %d, want 2 (region and name queries cached separately)", len(svc.paths))
	}
}

func TestCountryLookupNoMatch(t *testing.T) {
	svc := &lookupFixture{doc: `{"results":[]}`}
	eng := newTestEngine(t, svc.handler())

	_, err := NewCountryLookup(context.Background(), eng, "Atlantis", CountryLookupOptions{})
	if err == nil || !strings.Contains(err.Error(), `no country matches "Atlantis"`) {
		t.Fatalf("err = %v, want no-match error", err)
	}

	_, err = NewCountryLookup(context.Background(), eng, "  ", CountryLookupOptions{})
	if err == nil || !strings.Contains(err.Error(), "needs a name") {
		t.Fatalf("err = %v, want empty-name error", err)
	}
}

func TestCountryLookupFetchMetrics(t *testing.T) {
	svc := &lookupFixture{doc: `{"results":[{"name":"France","id":19,"countryCode":"FRA","metrics":[{"metricType":"ScholarlyOutput","value":118490,"valueByYear":{"2024":58210,"2025":60280}}]}]}`}
	eng := newTestEngine(t, svc.handler())
	ctx := context.Background()

	l, err := NewCountryLookup(ctx, eng, "France", CountryLookupOptions{})
	if err != nil {
		t.Fatalf("NewCountryLookup: %v", err)
	}

	metrics, err := l.FetchMetrics(ctx, eng, MetricsOptions{})
	if err != nil {
		t.Fatalf("FetchMetrics: %v", err)
	}
	if len(metrics) != 1 || metrics[0].Type != "ScholarlyOutput" {
		t.Fatalf("metrics = %+v", metrics)
	}
	if metrics[0].ValueByYear["2025"] != 60280 {
		t.Errorf("ValueByYear = %v", metrics[0].ValueByYear)
	}

	if len(svc.paths) != 2 {
		t.Fatalf("requests = %d, want 2", len(svc.paths))
	}
	if want := "/analytics/scival/country/metrics"; svc.paths[1] != want {
		t.Errorf("path = %q, want %q", svc.paths[1], want)
	}
	p := svc.params[1]
	if p.Get("countryIds") != "19" || p.Get("metricTypes") != "ScholarlyOutput" || p.Get("yearRange") != "5yrs" {
		t.Errorf("params = %v", p)
	}
}
