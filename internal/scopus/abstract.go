// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scopus

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

// AbstractRetrieval holds one document fetched from the Abstract
// Retrieval API.
type AbstractRetrieval struct {
	result
	ID string

	core    abstractCore
	authors []AbstractAuthor
}

// AbstractOptions tune an Abstract Retrieval request.
type AbstractOptions struct {
	// View selects the response detail level: META, META_ABS, REF or
	// FULL. Empty means META_ABS.
	View string

	// IDType names what kind of identifier was passed: eid, doi, pii,
	// pubmed_id or scopus_id. Empty means detect it from the
	// identifier's shape.
	IDType string

	// Refresh controls cache reuse. The zero value serves any cached
	// file regardless of age.
	Refresh types.RefreshPolicy

	// Extra is merged into the query parameters as-is.
	Extra url.Values
}

// NewAbstractRetrieval fetches the document identified by id, which may
// be an EID, DOI, PII, Pubmed ID or Scopus ID.
func NewAbstractRetrieval(ctx context.Context, eng *engine.Engine, id string, opts AbstractOptions) (*AbstractRetrieval, error) {
	view := opts.View
	if view == "" {
		view = "META_ABS"
	}
	if err := checkValue(view, "view", "META", "META_ABS", "REF", "FULL"); err != nil {
		return nil, err
	}
	idType := opts.IDType
	if idType == "" {
		var err error
		idType, err = DetectIDType(id)
		if err != nil {
			return nil, err
		}
	} else if err := checkValue(idType, "id_type", "eid", "doi", "pii", "pubmed_id", "scopus_id"); err != nil {
		return nil, err
	}

	base, err := fetch.Endpoint("AbstractRetrieval")
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	for k, vs := range opts.Extra {
		params[k] = append(params[k], vs...)
	}
	params.Set("view", view)

	rec, err := eng.Fetch(ctx, engine.Request{
		API:      "AbstractRetrieval",
		URL:      base + idType + "/" + id,
		Kind:     engine.KindRetrieval,
		Params:   params,
		Key:      cache.Key{API: "AbstractRetrieval", View: view, ID: id},
		Refresh:  opts.Refresh,
		Download: true,
	}, nil)
	if err != nil {
		return nil, err
	}

	var env struct {
		Resp struct {
			Coredata json.RawMessage `json:"coredata"`
			Authors  struct {
				Author []AbstractAuthor `json:"author"`
			} `json:"authors"`
		} `json:"abstracts-retrieval-response"`
	}
	if err := json.Unmarshal(rec.Doc(), &env); err != nil {
		return nil, fmt.Errorf("parsing AbstractRetrieval response: %w", err)
	}

	a := &AbstractRetrieval{result: result{rec: rec}, ID: id, authors: env.Resp.Authors.Author}
	if len(env.Resp.Coredata) > 0 {
		if err := json.Unmarshal(env.Resp.Coredata, &a.core); err != nil {
			return nil, fmt.Errorf("parsing AbstractRetrieval coredata: %w", err)
		}
	}
	return a, nil
}

// Title returns the document title.
func (a *AbstractRetrieval) Title() string { return a.core.Title }

// DOI returns the document's DOI, if the provider knows one.
func (a *AbstractRetrieval) DOI() string { return a.core.DOI }

// EID returns the document's EID.
func (a *AbstractRetrieval) EID() string { return a.core.EID }

// ScopusID returns the bare Scopus ID, stripping the "SCOPUS_ID:"
// prefix of the identifier field.
func (a *AbstractRetrieval) ScopusID() string {
	return strings.TrimPrefix(a.core.Identifier, "SCOPUS_ID:")
}

// PublicationName returns the source title the document appeared in.
func (a *AbstractRetrieval) PublicationName() string { return a.core.PublicationName }

// ISSN returns the source's print ISSN.
func (a *AbstractRetrieval) ISSN() string { return a.core.ISSN }

// Volume returns the source volume.
func (a *AbstractRetrieval) Volume() string { return a.core.Volume }

// IssueIdentifier returns the source issue.
func (a *AbstractRetrieval) IssueIdentifier() string { return a.core.IssueIdentifier }

// PageRange returns the page range, e.g. "307-309".
func (a *AbstractRetrieval) PageRange() string { return a.core.PageRange }

// CoverDate returns the publication date as the provider reports it,
// e.g. "1992-01-01".
func (a *AbstractRetrieval) CoverDate() string { return a.core.CoverDate }

// AggregationType returns the source type, e.g. "Journal".
func (a *AbstractRetrieval) AggregationType() string { return a.core.AggregationType }

// CitedByCount returns the document's citation count.
func (a *AbstractRetrieval) CitedByCount() int { return atoi(a.core.CitedByCount) }

// Authors returns the document's author list. Empty in the META view.
func (a *AbstractRetrieval) Authors() []AbstractAuthor { return a.authors }

// Abstract returns the abstract text. The provider serializes it either
// as a plain string or as a structured paragraph object, depending on
// view; both forms are handled, and anything else returns "".
func (a *AbstractRetrieval) Abstract() string {
	raw := a.core.Description
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var structured struct {
		Abstract struct {
			Para json.RawMessage `json:"ce:para"`
		} `json:"abstract"`
	}
	if err := json.Unmarshal(raw, &structured); err != nil {
		return ""
	}
	para := structured.Abstract.Para
	if err := json.Unmarshal(para, &s); err == nil {
		return s
	}
	var paras []string
	if err := json.Unmarshal(para, &paras); err == nil {
		return strings.Join(paras, "\n")
	}
	return ""
}

// abstractCore is the coredata section of an abstract response.
type abstractCore struct {
	Identifier      string          `json:"dc:identifier"`
	EID             string          `json:"eid"`
	DOI             string          `json:"prism:doi"`
	PII             string          `json:"pii"`
	Title           string          `json:"dc:title"`
	Description     json.RawMessage `json:"dc:description"`
	Creator         json.RawMessage `json:"dc:creator"`
	CoverDate       string          `json:"prism:coverDate"`
	PublicationName string          `json:"prism:publicationName"`
	ISSN            string          `json:"prism:issn"`
	Volume          string          `json:"prism:volume"`
	IssueIdentifier string          `json:"prism:issueIdentifier"`
	PageRange       string          `json:"prism:pageRange"`
	AggregationType string          `json:"prism:aggregationType"`
	SubtypeDesc     string          `json:"subtypeDescription"`
	CitedByCount    string          `json:"citedby-count"`
	OpenAccess      string          `json:"openaccess"`
}

// AbstractAuthor is one author of a retrieved document.
type AbstractAuthor struct {
	AUID        string `json:"@auid"`
	Seq         string `json:"@seq"`
	IndexedName string `json:"ce:indexed-name"`
	Surname     string `json:"ce:surname"`
	GivenName   string `json:"ce:given-name"`
	Initials    string `json:"ce:initials"`
}

// DetectIDType guesses what kind of document identifier id is, the same
// way interactive users label them: EIDs carry the "2-s2.0-" prefix,
// DOIs contain a slash or dot, PIIs are 16-17 characters, short numbers
// are Pubmed IDs and long numbers Scopus IDs.
func DetectIDType(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("cannot detect the ID type of an empty identifier")
	}
	if !isNumeric(id) {
		switch {
		case strings.HasPrefix(id, "2-s2.0-"):
			return "eid", nil
		case strings.ContainsAny(id, "/."):
			return "doi", nil
		case len(id) == 16 || len(id) == 17:
			return "pii", nil
		}
		return "", fmt.Errorf("cannot detect the ID type of %q", id)
	}
	if len(id) < 10 {
		return "pubmed_id", nil
	}
	return "scopus_id", nil
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
