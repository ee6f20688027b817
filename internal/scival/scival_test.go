// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scival

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/biblio-engine/internal/cache"
	"github.com/pdiddy/biblio-engine/internal/engine"
	"github.com/pdiddy/biblio-engine/internal/fetch"
	"github.com/pdiddy/biblio-engine/internal/throttle"
	"github.com/pdiddy/biblio-engine/pkg/types"
)

// newTestEngine builds an engine talking to h and caching under a temp
// dir. The lookup URL base points at the test server for the test's
// duration.
func newTestEngine(t *testing.T, h http.Handler) *engine.Engine {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	oldLookup := fetch.LookupBase
	fetch.LookupBase = srv.URL + "/analytics/scival/"
	t.Cleanup(func() { fetch.LookupBase = oldLookup })

	cfg := types.RequestsConfig{Timeout: 10 * time.Second, Retries: 1}
	client := fetch.NewClient(cfg, types.AuthConfig{APIKeys: []string{"test-key"}}, throttle.NewGate(false))
	loc := cache.NewLocator(types.CacheConfig{BaseDir: t.TempDir()})
	return engine.New(client, loc, nil, cfg)
}

// lookupFixture serves one fixed document and records the paths and
// parameters it was asked for.
type lookupFixture struct {
	doc    string
	paths  []string
	params []url.Values
}

func (f *lookupFixture) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.paths = append(f.paths, r.URL.Path)
		f.params = append(f.params, r.URL.Query())
		fmt.Fprint(w, f.doc)
	}
}

func TestCheckValue(t *testing.T) {
	if err := checkValue("5yrs", "year range", YearRanges); err != nil {
		t.Errorf("allowed value rejected: %v", err)
	}
	err := checkValue("forever", "year range", YearRanges)
	if err == nil {
		t.Fatal("expected an error for a value outside the set")
	}
	for _, want := range []string{"year range", "5yrs", `"forever"`} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestCapitalize(t *testing.T) {
	cases := map[string]string{
		"europe": "Europe",
		"EUROPE": "Europe",
		"asia":   "Asia",
		"":       "",
	}
	for in, want := range cases {
		if got := capitalize(in); got != want {
			t.Errorf("capitalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseLookupDataSource(t *testing.T) {
	doc := `{"dataSource":{"sourceName":"Scopus","metricStartYear":2021,"detail":{"nested":true}},"results":[]}`
	_, source, err := parseLookup([]byte(doc), "AuthorLookup")
	if err != nil {
		t.Fatalf("parseLookup: %v", err)
	}
	if source["sourceName"] != "Scopus" || source["metricStartYear"] != "2021" {
		t.Errorf("source = %v", source)
	}
	if _, ok := source["detail"]; ok {
		t.Error("nested dataSource value survived as a field")
	}
}
