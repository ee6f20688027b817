// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scival

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/pdiddy/biblio-engine/internal/cache"
	"github.com/pdiddy/biblio-engine/internal/engine"
	"github.com/pdiddy/biblio-engine/internal/fetch"
	"github.com/pdiddy/biblio-engine/pkg/types"
)

// Country is one country row of a Country Lookup response.
type Country struct {
	Name string
	ID   string
	URI  string
	Code string
}

// CountryLookup holds the countries matched by a name or region query.
// The first match is the principal result.
type CountryLookup struct {
	result
	Query string

	countries []Country
}

// CountryLookupOptions tune a Country Lookup request.
type CountryLookupOptions struct {
	// ByRegion searches by region name ("Europe") instead of country
	// name, matching every country of the region.
	ByRegion bool

	// Limit caps the number of matches (default 100).
	Limit int

	// Refresh controls cache reuse. The zero value serves any cached
	// file regardless of age.
	Refresh types.RefreshPolicy

	// Extra is merged into the query parameters as-is.
	Extra url.Values
}

// NewCountryLookup searches SciVal's country catalog by name, or by
// region when opts.ByRegion is set.
func NewCountryLookup(ctx context.Context, eng *engine.Engine, name string, opts CountryLookupOptions) (*CountryLookup, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("country lookup needs a name")
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	// The catalog matches case-sensitively: country names are stored
	// lowercase, region names capitalized. Region queries also get their
	// own cache slot, so "europe" by name and by region coexist.
	query := "name(" + strings.ToLower(name) + ")"
	key := cache.Key{API: "CountryLookup", ID: name}
	if opts.ByRegion {
		query = "region(" + capitalize(name) + ")"
		key.View = "region"
	}

	base, err := fetch.Endpoint("CountryLookup")
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	for k, vs := range opts.Extra {
		params[k] = append(params[k], vs...)
	}
	params.Set("query", query)
	params.Set("limit", fmt.Sprintf("%d", limit))
	params.Set("offset", "0")

	rec, err := eng.Fetch(ctx, engine.Request{
		API:      "CountryLookup",
		URL:      base + "search",
		Kind:     engine.KindRetrieval,
		Params:   params,
		Key:      key,
		Refresh:  opts.Refresh,
		Download: true,
	}, nil)
	if err != nil {
		return nil, err
	}

	results, _, err := parseLookup(rec.Doc(), "CountryLookup")
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no country matches %q", name)
	}

	l := &CountryLookup{result: result{rec: rec}, Query: name}
	for _, r := range results {
		l.countries = append(l.countries, Country{
			Name: r.Name,
			ID:   string(r.ID),
			URI:  r.URI,
			Code: r.CountryCode,
		})
	}
	return l, nil
}

// Name returns the principal match's country name.
func (l *CountryLookup) Name() string { return l.countries[0].Name }

// CountryID returns the principal match's SciVal ID.
func (l *CountryLookup) CountryID() string { return l.countries[0].ID }

// URI returns the provider's resource URI for the principal match.
func (l *CountryLookup) URI() string { return l.countries[0].URI }

// Code returns the principal match's ISO country code.
func (l *CountryLookup) Code() string { return l.countries[0].Code }

// Countries returns every match, which for region queries is the whole
// region.
func (l *CountryLookup) Countries() []Country { return l.countries }

// FetchMetrics requests research metrics for the principal match. Each
// metric/window combination is cached separately.
func (l *CountryLookup) FetchMetrics(ctx context.Context, eng *engine.Engine, opts MetricsOptions) ([]Metric, error) {
	return fetchMetrics(ctx, eng, "CountryLookup", "countryIds", l.CountryID(), opts)
}

// capitalize uppercases the first letter and lowercases the rest, the
// way region names are stored ("europe" becomes "Europe").
func capitalize(s string) string {
	s = strings.ToLower(s)
	r := []rune(s)
	if len(r) > 0 {
		r[0] = unicode.ToUpper(r[0])
	}
	return string(r)
}
