// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scopus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/pdiddy/biblio-engine/internal/cache"
	"github.com/pdiddy/biblio-engine/internal/engine"
	"github.com/pdiddy/biblio-engine/internal/fetch"
	"github.com/pdiddy/biblio-engine/pkg/types"
)

// AuthorSearch holds the author profiles matched by an Author Search
// query such as "AUTHLAST(Einstein) and AUTHFIRST(Albert)".
type AuthorSearch struct {
	result
	Query string

	hits  []AuthorHit
	total int
}

// AffiliationSearch holds the institutions matched by an Affiliation
// Search query such as "AFFIL(Max Planck)".
type AffiliationSearch struct {
	result
	Query string

	hits  []AffiliationHit
	total int
}

// ProfileSearchOptions tune an author or affiliation search. Both APIs
// page by offset, so large result sets hit the provider's entry ceiling.
type ProfileSearchOptions struct {
	// Count overrides the page size (default 200, the API maximum).
	Count int

	// Refresh controls cache reuse. The zero value serves any cached
	// file regardless of age.
	Refresh types.RefreshPolicy

	// CountOnly stops after the first page, keeping the match count but
	// no profiles. Nothing is persisted.
	CountOnly bool

	// Verbose receives page-by-page download progress.
	Verbose io.Writer

	// Extra is merged into the query parameters as-is.
	Extra url.Values
}

// NewAuthorSearch resolves query against the Author Search API.
func NewAuthorSearch(ctx context.Context, eng *engine.Engine, query string, opts ProfileSearchOptions) (*AuthorSearch, error) {
	rec, err := profileSearch(ctx, eng, "AuthorSearch", query, opts)
	if err != nil {
		return nil, err
	}
	s := &AuthorSearch{result: result{rec: rec}, Query: query, total: rec.Total}
	for i, raw := range rec.Entries {
		var h AuthorHit
		if err := json.Unmarshal(raw, &h); err != nil {
			return nil, fmt.Errorf("parsing AuthorSearch entry %d: %w", i+1, err)
		}
		s.hits = append(s.hits, h)
	}
	return s, nil
}

// Results returns the matched author profiles in service-return order.
func (s *AuthorSearch) Results() []AuthorHit { return s.hits }

// Total returns the number of matches the service reported.
func (s *AuthorSearch) Total() int { return s.total }

// NewAffiliationSearch resolves query against the Affiliation Search API.
func NewAffiliationSearch(ctx context.Context, eng *engine.Engine, query string, opts ProfileSearchOptions) (*AffiliationSearch, error) {
	rec, err := profileSearch(ctx, eng, "AffiliationSearch", query, opts)
	if err != nil {
		return nil, err
	}
	s := &AffiliationSearch{result: result{rec: rec}, Query: query, total: rec.Total}
	for i, raw := range rec.Entries {
		var h AffiliationHit
		if err := json.Unmarshal(raw, &h); err != nil {
			return nil, fmt.Errorf("parsing AffiliationSearch entry %d: %w", i+1, err)
		}
		s.hits = append(s.hits, h)
	}
	return s, nil
}

// Results returns the matched institutions in service-return order.
func (s *AffiliationSearch) Results() []AffiliationHit { return s.hits }

// Total returns the number of matches the service reported.
func (s *AffiliationSearch) Total() int { return s.total }

// profileSearch runs the shared offset-paginated request of the two
// profile search APIs.
func profileSearch(ctx context.Context, eng *engine.Engine, api, query string, opts ProfileSearchOptions) (*engine.Record, error) {
	count := opts.Count
	if count <= 0 {
		count = 200
	}
	base, err := fetch.Endpoint(api)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	for k, vs := range opts.Extra {
		params[k] = append(params[k], vs...)
	}
	params.Set("query", query)
	params.Set("view", "STANDARD")
	params.Set("count", strconv.Itoa(count))
	params.Set("start", "0")

	return eng.Fetch(ctx, engine.Request{
		API:      api,
		URL:      base,
		Kind:     engine.KindSearch,
		Params:   params,
		Key:      cache.Key{API: api, View: "STANDARD", ID: query},
		Refresh:  opts.Refresh,
		Download: !opts.CountOnly,
	}, opts.Verbose)
}

// AuthorHit is one Author Search entry.
type AuthorHit struct {
	EID           string                 `json:"eid"`
	ORCID         string                 `json:"orcid"`
	DocumentCount string                 `json:"document-count"`
	Preferred     AuthorName             `json:"preferred-name"`
	Variants      oneOrMany[AuthorName]  `json:"name-variant"`
	Subjects      oneOrMany[SubjectArea] `json:"subject-area"`
	Affiliation   AffiliationRef         `json:"affiliation-current"`
}

// ID returns the bare author identifier, stripping the EID prefix.
func (h AuthorHit) ID() string {
	return trailingID(h.EID)
}

// AuthorName is the name record the provider attaches to author
// profiles.
type AuthorName struct {
	IndexedName string `json:"indexed-name"`
	Surname     string `json:"surname"`
	GivenName   string `json:"given-name"`
	Initials    string `json:"initials"`
}

// AffiliationRef is the current affiliation attached to an author
// profile.
type AffiliationRef struct {
	ID      string `json:"affiliation-id"`
	Name    string `json:"affiliation-name"`
	City    string `json:"affiliation-city"`
	Country string `json:"affiliation-country"`
}

// AffiliationHit is one Affiliation Search entry.
type AffiliationHit struct {
	EID           string               `json:"eid"`
	Name          string               `json:"affiliation-name"`
	Variants      oneOrMany[TextValue] `json:"name-variant"`
	DocumentCount string               `json:"document-count"`
	City          string               `json:"city"`
	Country       string               `json:"country"`
	ParentID      string               `json:"parent-affiliation-id"`
}

// ID returns the bare affiliation identifier, stripping the EID prefix.
func (h AffiliationHit) ID() string {
	return trailingID(h.EID)
}

// NameVariants lists the alternate names the provider records for the
// institution.
func (h AffiliationHit) NameVariants() []string {
	out := make([]string, 0, len(h.Variants))
	for _, v := range h.Variants {
		out = append(out, v.Value)
	}
	return out
}
