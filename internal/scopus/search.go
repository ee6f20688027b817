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

// Search holds the documents matched by a Scopus Search query.
type Search struct {
	result
	Query string

	docs  []Document
	total int
}

// SearchOptions tune a Scopus Search request. The zero value asks for
// the COMPLETE view, cursor pagination, and a full download.
type SearchOptions struct {
	// View selects the response detail level, STANDARD or COMPLETE.
	// Empty means COMPLETE.
	View string

	// Count overrides the page size. Zero picks the view's maximum:
	// 25 for COMPLETE, 200 for STANDARD.
	Count int

	// Refresh controls cache reuse. The zero value serves any cached
	// file regardless of age.
	Refresh types.RefreshPolicy

	// NoCursor switches to offset pagination, which non-subscriber keys
	// require. Offset queries fail beyond the provider's entry ceiling;
	// cursor queries have no ceiling.
	NoCursor bool

	// CountOnly stops after the first page, keeping the match count but
	// no documents. Nothing is persisted.
	CountOnly bool

	// Verbose receives page-by-page download progress.
	Verbose io.Writer

	// Extra is merged into the query parameters as-is.
	Extra url.Values
}

// NewSearch resolves query against the Scopus Search API, serving from
// cache when the refresh policy permits.
func NewSearch(ctx context.Context, eng *engine.Engine, query string, opts SearchOptions) (*Search, error) {
	view := opts.View
	if view == "" {
		view = "COMPLETE"
	}
	if err := checkValue(view, "view", "STANDARD", "COMPLETE"); err != nil {
		return nil, err
	}
	count := opts.Count
	if count <= 0 {
		count = 25
		if view == "STANDARD" {
			count = 200
		}
	}

	base, err := fetch.Endpoint("ScopusSearch")
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	for k, vs := range opts.Extra {
		params[k] = append(params[k], vs...)
	}
	params.Set("query", query)
	params.Set("view", view)
	params.Set("count", strconv.Itoa(count))
	if opts.NoCursor {
		params.Set("start", "0")
	} else {
		params.Set("cursor", "*")
	}

	rec, err := eng.Fetch(ctx, engine.Request{
		API:      "ScopusSearch",
		URL:      base,
		Kind:     engine.KindSearch,
		Params:   params,
		Key:      cache.Key{API: "ScopusSearch", View: view, ID: query},
		Refresh:  opts.Refresh,
		Download: !opts.CountOnly,
	}, opts.Verbose)
	if err != nil {
		return nil, err
	}

	s := &Search{result: result{rec: rec}, Query: query, total: rec.Total}
	for i, raw := range rec.Entries {
		var d Document
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("parsing ScopusSearch entry %d: %w", i+1, err)
		}
		s.docs = append(s.docs, d)
	}
	return s, nil
}

// Results returns the matched documents in service-return order. Empty
// for count-only searches.
func (s *Search) Results() []Document { return s.docs }

// Total returns the number of matches the service reported, which for a
// count-only search exceeds the number of downloaded documents.
func (s *Search) Total() int { return s.total }

// EIDs lists the EID of every downloaded document.
func (s *Search) EIDs() []string {
	out := make([]string, 0, len(s.docs))
	for _, d := range s.docs {
		out = append(out, d.EID)
	}
	return out
}

// Document is one Scopus Search entry. Author and affiliation details
// beyond the creator are only present in the COMPLETE view.
type Document struct {
	EID              string `json:"eid"`
	DOI              string `json:"prism:doi"`
	PII              string `json:"pii"`
	Title            string `json:"dc:title"`
	Subtype          string `json:"subtype"`
	SubtypeDesc      string `json:"subtypeDescription"`
	Creator          string `json:"dc:creator"`
	CoverDate        string `json:"prism:coverDate"`
	CoverDisplayDate string `json:"prism:coverDisplayDate"`
	PublicationName  string `json:"prism:publicationName"`
	ISSN             string `json:"prism:issn"`
	EISSN            string `json:"prism:eIssn"`
	SourceID         string `json:"source-id"`
	AggregationType  string `json:"prism:aggregationType"`
	Volume           string `json:"prism:volume"`
	IssueIdentifier  string `json:"prism:issueIdentifier"`
	PageRange        string `json:"prism:pageRange"`
	CitedByCount     string `json:"citedby-count"`
	OpenAccess       string `json:"openaccess"`

	Authors      []DocumentAuthor          `json:"author"`
	Affiliations oneOrMany[DocAffiliation] `json:"affiliation"`
}

// DocumentAuthor is one author entry of a COMPLETE-view document.
type DocumentAuthor struct {
	ID        string               `json:"authid"`
	Name      string               `json:"authname"`
	Surname   string               `json:"surname"`
	GivenName string               `json:"given-name"`
	Initials  string               `json:"initials"`
	AFIDs     oneOrMany[TextValue] `json:"afid"`
}

// AffiliationIDs lists the Scopus IDs of the author's affiliations.
func (a DocumentAuthor) AffiliationIDs() []string {
	out := make([]string, 0, len(a.AFIDs))
	for _, v := range a.AFIDs {
		out = append(out, v.Value)
	}
	return out
}

// DocAffiliation is one affiliation referenced by a document.
type DocAffiliation struct {
	ID      string `json:"afid"`
	Name    string `json:"affilname"`
	City    string `json:"affiliation-city"`
	Country string `json:"affiliation-country"`
}
