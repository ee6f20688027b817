// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/biblio-engine/internal/throttle"
	"github.com/pdiddy/biblio-engine/pkg/types"
)

func testRequestsConfig() types.RequestsConfig {
	return types.RequestsConfig{
		Timeout:   10 * time.Second,
		Retries:   5,
		UserAgent: "biblio-engine-test/0.1",
	}
}

func testClient(keys []string, insttoken string) *Client {
	auth := types.AuthConfig{APIKeys: keys, InstToken: insttoken}
	return NewClient(testRequestsConfig(), auth, throttle.NewGate(false))
}

func TestEndpoint(t *testing.T) {
	tests := []struct {
		api  string
		want string
	}{
		{"AbstractRetrieval", "https://api.elsevier.com/content/abstract/"},
		{"ScopusSearch", "https://api.elsevier.com/content/search/scopus"},
		{"AuthorSearch", "https://api.elsevier.com/content/search/author"},
		{"AuthorRetrieval", "https://api.elsevier.com/content/author/author_id/"},
		{"CitationOverview", "https://api.elsevier.com/content/abstract/citations/"},
		{"AuthorLookup", "https://api.elsevier.com/analytics/scival/author/"},
		{"CountryLookup", "https://api.elsevier.com/analytics/scival/country/"},
		{"PlumXMetrics", "https://api.elsevier.com/analytics/plumx/"},
	}
	for _, tt := range tests {
		t.Run(tt.api, func(t *testing.T) {
			got, err := Endpoint(tt.api)
			if err != nil {
				t.Fatalf("Endpoint(%q): %v", tt.api, err)
			}
			if got != tt.want {
				t.Errorf("Endpoint(%q) = %q, want %q", tt.api, got, tt.want)
			}
		})
	}
}

func TestEndpointUnknown(t *testing.T) {
	_, err := Endpoint("FooBar")
	if err == nil {
		t.Fatal("expected error for unknown API")
	}
	if !strings.Contains(err.Error(), "FooBar") {
		t.Errorf("error should name the API, got %q", err.Error())
	}
}

func TestEndpointTracksBaseOverride(t *testing.T) {
	orig := SearchBase
	SearchBase = "http://127.0.0.1:9/search/"
	defer func() { SearchBase = orig }()

	got, err := Endpoint("ScopusSearch")
	if err != nil {
		t.Fatal(err)
	}
	if got != "http://127.0.0.1:9/search/scopus" {
		t.Errorf("Endpoint after override = %q", got)
	}
}

func TestKnownAPIs(t *testing.T) {
	names := KnownAPIs()
	if len(names) != len(endpoints) {
		t.Fatalf("KnownAPIs returned %d names, want %d", len(names), len(endpoints))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("KnownAPIs not sorted: %q before %q", names[i-1], names[i])
		}
	}
}

func TestParseQuota(t *testing.T) {
	h := http.Header{}
	h.Set("X-RateLimit-Remaining", "4321")
	h.Set("X-RateLimit-Reset", "1767225600")

	q, ok := ParseQuota(h)
	if !ok {
		t.Fatal("expected quota to parse")
	}
	if q.Remaining != 4321 {
		t.Errorf("Remaining = %d, want 4321", q.Remaining)
	}
	if !q.ResetAt.Equal(time.Unix(1767225600, 0)) {
		t.Errorf("ResetAt = %v, want %v", q.ResetAt, time.Unix(1767225600, 0))
	}
}

func TestParseQuotaAbsent(t *testing.T) {
	tests := []struct {
		name string
		h    http.Header
	}{
		{"no headers", http.Header{}},
		{"unparsable remaining", http.Header{"X-Ratelimit-Remaining": {"lots"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := ParseQuota(tt.h); ok {
				t.Error("expected ok=false")
			}
		})
	}
}

func TestParseQuotaWithoutReset(t *testing.T) {
	h := http.Header{}
	h.Set("X-RateLimit-Remaining", "10")

	q, ok := ParseQuota(h)
	if !ok {
		t.Fatal("expected quota to parse without reset header")
	}
	if !q.ResetAt.IsZero() {
		t.Errorf("ResetAt = %v, want zero", q.ResetAt)
	}
}

func TestGetSendsAuthHeaders(t *testing.T) {
	var gotKey, gotToken, gotAccept, gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-ELS-APIKey")
		gotToken = r.Header.Get("X-ELS-Insttoken")
		gotAccept = r.Header.Get("Accept")
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer ts.Close()

	c := testClient([]string{"key-a"}, "inst-1")
	resp, err := c.Get(context.Background(), ts.URL, "ScopusSearch", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Errorf("Status = %d, want 200", resp.Status)
	}
	if string(resp.Body) != `{"ok":true}` {
		t.Errorf("Body = %q", resp.Body)
	}
	if gotKey != "key-a" {
		t.Errorf("X-ELS-APIKey = %q, want %q", gotKey, "key-a")
	}
	if gotToken != "inst-1" {
		t.Errorf("X-ELS-Insttoken = %q, want %q", gotToken, "inst-1")
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q", gotAccept)
	}
	if gotUA != "biblio-engine-test/0.1" {
		t.Errorf("User-Agent = %q", gotUA)
	}
}

func TestGetMergesParams(t *testing.T) {
	var gotQuery url.Values
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		fmt.Fprint(w, `{}`)
	}))
	defer ts.Close()

	c := testClient(nil, "")
	params := url.Values{}
	params.Set("query", "AU-ID(123)")
	params.Set("count", "25")

	if _, err := c.Get(context.Background(), ts.URL+"/search/scopus?view=COMPLETE", "ScopusSearch", params); err != nil {
		t.Fatalf("Get: %v", err)
	}

	if gotQuery.Get("query") != "AU-ID(123)" {
		t.Errorf("query param = %q", gotQuery.Get("query"))
	}
	if gotQuery.Get("count") != "25" {
		t.Errorf("count param = %q", gotQuery.Get("count"))
	}
	if gotQuery.Get("view") != "COMPLETE" {
		t.Errorf("existing URL query lost, view = %q", gotQuery.Get("view"))
	}
}

func TestGetStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"service-error":{"status":{"statusCode":"RESOURCE_NOT_FOUND"}}}`, http.StatusNotFound)
	}))
	defer ts.Close()

	c := testClient([]string{"key-a"}, "")
	_, err := c.Get(context.Background(), ts.URL, "AbstractRetrieval", nil)
	if err == nil {
		t.Fatal("expected error for 404")
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error type = %T, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", statusErr.StatusCode)
	}
	if statusErr.API != "AbstractRetrieval" {
		t.Errorf("API = %q", statusErr.API)
	}
	if !strings.Contains(statusErr.Error(), "RESOURCE_NOT_FOUND") {
		t.Errorf("error should carry body snippet, got %q", statusErr.Error())
	}
}

func TestGetRotatesKeyOn429(t *testing.T) {
	var seenKeys []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-ELS-APIKey")
		seenKeys = append(seenKeys, key)
		if key == "spent-key" {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{}`)
	}))
	defer ts.Close()

	c := testClient([]string{"spent-key", "fresh-key"}, "")
	start := time.Now()
	resp, err := c.Get(context.Background(), ts.URL, "ScopusSearch", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Errorf("Status = %d, want 200", resp.Status)
	}
	// Rotation must not wait out a backoff.
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("rotation took %v, should be immediate", elapsed)
	}
	want := []string{"spent-key", "fresh-key"}
	if len(seenKeys) != 2 || seenKeys[0] != want[0] || seenKeys[1] != want[1] {
		t.Errorf("seenKeys = %v, want %v", seenKeys, want)
	}
}

func TestGetBacksOffAfterKeysExhausted(t *testing.T) {
	origDelay := RetryBaseDelay
	RetryBaseDelay = time.Millisecond
	defer func() { RetryBaseDelay = origDelay }()

	attempts := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{}`)
	}))
	defer ts.Close()

	c := testClient([]string{"only-key"}, "")
	resp, err := c.Get(context.Background(), ts.URL, "ScopusSearch", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Errorf("Status = %d, want 200", resp.Status)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestGetGivesUpAfter429Retries(t *testing.T) {
	origDelay := RetryBaseDelay
	RetryBaseDelay = time.Millisecond
	defer func() { RetryBaseDelay = origDelay }()

	attempts := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	auth := types.AuthConfig{APIKeys: []string{"only-key"}}
	cfg := testRequestsConfig()
	cfg.Retries = 2
	c := NewClient(cfg, auth, throttle.NewGate(false))

	_, err := c.Get(context.Background(), ts.URL, "ScopusSearch", nil)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error type = %T, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d, want 429", statusErr.StatusCode)
	}
	// One initial attempt plus two backoff retries.
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestGetContextCancelDuringBackoff(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	// Default RetryBaseDelay is far longer than the deadline, so the
	// cancel fires mid-backoff.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := testClient([]string{"only-key"}, "")
	_, err := c.Get(ctx, ts.URL, "ScopusSearch", nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want context.DeadlineExceeded", err)
	}
}

func TestGetTransportError(t *testing.T) {
	c := testClient(nil, "")
	// Port 1 is never listening.
	_, err := c.Get(context.Background(), "http://127.0.0.1:1/", "ScopusSearch", nil)
	if err == nil {
		t.Fatal("expected transport error")
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		t.Error("transport failures should not be StatusError")
	}
	if !strings.Contains(err.Error(), "ScopusSearch") {
		t.Errorf("error should name the API, got %q", err.Error())
	}
}
