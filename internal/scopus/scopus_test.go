// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scopus

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
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
// dir. The package-level URL bases point at the test server for the
// test's duration.
func newTestEngine(t *testing.T, h http.Handler) *engine.Engine {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	oldRetrieval, oldSearch := fetch.RetrievalBase, fetch.SearchBase
	fetch.RetrievalBase = srv.URL + "/content/"
	fetch.SearchBase = srv.URL + "/content/search/"
	t.Cleanup(func() {
		fetch.RetrievalBase, fetch.SearchBase = oldRetrieval, oldSearch
	})

	cfg := types.RequestsConfig{Timeout: 10 * time.Second, Retries: 1}
	client := fetch.NewClient(cfg, types.AuthConfig{APIKeys: []string{"test-key"}}, throttle.NewGate(false))
	loc := cache.NewLocator(types.CacheConfig{BaseDir: t.TempDir()})
	return engine.New(client, loc, nil, cfg)
}

// searchFixture pages a fixed document list the way the search APIs
// do, slicing by offset or by cursor token.
type searchFixture struct {
	docs     []string
	requests []url.Values
}

func (f *searchFixture) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f.requests = append(f.requests, q)

		count, _ := strconv.Atoi(q.Get("count"))
		if count <= 0 {
			count = 25
		}
		start := 0
		if q.Has("cursor") {
			if cur := q.Get("cursor"); cur != "*" && cur != "" {
				start, _ = strconv.Atoi(cur)
			}
		} else {
			start, _ = strconv.Atoi(q.Get("start"))
		}
		end := min(start+count, len(f.docs))

		fmt.Fprintf(w, `{"search-results":{"opensearch:totalResults":"%d","cursor":{"@next":"%d"},"entry":[%s]}}`,
			len(f.docs), end, strings.Join(f.docs[start:end], ","))
	}
}

// retrievalFixture serves one fixed document and records the paths and
// parameters it was asked for.
type retrievalFixture struct {
	doc    string
	paths  []string
	params []url.Values
}

func (f *retrievalFixture) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.paths = append(f.paths, r.URL.Path)
		f.params = append(f.params, r.URL.Query())
		fmt.Fprint(w, f.doc)
	}
}

func TestCheckValue(t *testing.T) {
	if err := checkValue("COMPLETE", "view", "STANDARD", "COMPLETE"); err != nil {
		t.Errorf("allowed value rejected: %v", err)
	}
	err := checkValue("FANCY", "view", "STANDARD", "COMPLETE")
	if err == nil {
		t.Fatal("expected an error for a value outside the set")
	}
	for _, want := range []string{"view", "STANDARD, COMPLETE", `"FANCY"`} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestStripPrefixes(t *testing.T) {
	raw := json.RawMessage(`{"prism:issn":"12345678","ce:surname":"Doe","authid":"7","@code":"ar"}`)
	plain, err := stripPrefixes(raw)
	if err != nil {
		t.Fatalf("stripPrefixes: %v", err)
	}
	var m map[string]string
	if err := json.Unmarshal(plain, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	want := map[string]string{"issn": "12345678", "surname": "Doe", "authid": "7", "@code": "ar"}
	for k, v := range want {
		if m[k] != v {
			t.Errorf("key %q = %q, want %q", k, m[k], v)
		}
	}
	if len(m) != len(want) {
		t.Errorf("got %d keys, want %d: %v", len(m), len(want), m)
	}
}

func TestTrailingID(t *testing.T) {
	cases := map[string]string{
		"9-s2.0-7102648837":  "7102648837",
		"2-s2.0-85102439684": "85102439684",
		"7102648837":         "7102648837",
	}
	for in, want := range cases {
		if got := trailingID(in); got != want {
			t.Errorf("trailingID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOneOrMany(t *testing.T) {
	var single oneOrMany[TextValue]
	if err := json.Unmarshal([]byte(`{"$":"60021784"}`), &single); err != nil {
		t.Fatalf("single object: %v", err)
	}
	if len(single) != 1 || single[0].Value != "60021784" {
		t.Errorf("single = %+v, want one element 60021784", single)
	}

	var many oneOrMany[TextValue]
	if err := json.Unmarshal([]byte(`[{"$":"1"},{"$":"2"}]`), &many); err != nil {
		t.Fatalf("array: %v", err)
	}
	if len(many) != 2 || many[1].Value != "2" {
		t.Errorf("many = %+v, want two elements", many)
	}

	var none oneOrMany[TextValue]
	if err := json.Unmarshal([]byte(`null`), &none); err != nil {
		t.Fatalf("null: %v", err)
	}
	if none != nil {
		t.Errorf("null decoded to %+v, want nil", none)
	}
}

func TestFlexString(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{`"27"`, "27"},
		{`27`, "27"},
		{`1.426`, "1.426"},
		{`null`, ""},
		{`{"nested":true}`, ""},
	}
	for _, tc := range cases {
		var f flexString
		if err := json.Unmarshal([]byte(tc.raw), &f); err != nil {
			t.Errorf("flexString(%s): %v", tc.raw, err)
			continue
		}
		if string(f) != tc.want {
			t.Errorf("flexString(%s) = %q, want %q", tc.raw, f, tc.want)
		}
	}
}
