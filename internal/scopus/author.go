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

// AuthorRetrieval holds one author profile fetched from the Author
// Retrieval API.
type AuthorRetrieval struct {
	result
	ID string

	data authorData
}

// AuthorOptions tune an Author Retrieval request.
type AuthorOptions struct {
	// View selects the response detail level: METRICS, LIGHT, STANDARD
	// or ENHANCED. Empty means ENHANCED, which contains every field of
	// the other views.
	View string

	// Refresh controls cache reuse. The zero value serves any cached
	// file regardless of age.
	Refresh types.RefreshPolicy

	// Extra is merged into the query parameters as-is.
	Extra url.Values
}

// NewAuthorRetrieval fetches the profile of one author. id may be a
// bare author ID or an author EID; the "9-s2.0-" prefix is stripped.
func NewAuthorRetrieval(ctx context.Context, eng *engine.Engine, id string, opts AuthorOptions) (*AuthorRetrieval, error) {
	view := opts.View
	if view == "" {
		view = "ENHANCED"
	}
	if err := checkValue(view, "view", "METRICS", "LIGHT", "STANDARD", "ENHANCED"); err != nil {
		return nil, err
	}
	authorID := trailingID(id)

	base, err := fetch.Endpoint("AuthorRetrieval")
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	for k, vs := range opts.Extra {
		params[k] = append(params[k], vs...)
	}
	params.Set("view", view)

	rec, err := eng.Fetch(ctx, engine.Request{
		API:      "AuthorRetrieval",
		URL:      base + authorID,
		Kind:     engine.KindRetrieval,
		Params:   params,
		Key:      cache.Key{API: "AuthorRetrieval", View: view, ID: authorID},
		Refresh:  opts.Refresh,
		Download: true,
	}, nil)
	if err != nil {
		return nil, err
	}

	// The provider wraps the single profile in a one-element array.
	var env struct {
		Resp []authorData `json:"author-retrieval-response"`
	}
	if err := json.Unmarshal(rec.Doc(), &env); err != nil {
		return nil, fmt.Errorf("parsing AuthorRetrieval response: %w", err)
	}
	if len(env.Resp) == 0 {
		return nil, fmt.Errorf("AuthorRetrieval response for %s holds no profile", authorID)
	}

	return &AuthorRetrieval{result: result{rec: rec}, ID: authorID, data: env.Resp[0]}, nil
}

// IndexedName returns the author's indexed name, e.g. "Lindqvist A.".
func (a *AuthorRetrieval) IndexedName() string {
	return a.data.Profile.Preferred.IndexedName
}

// Surname returns the author's surname.
func (a *AuthorRetrieval) Surname() string { return a.data.Profile.Preferred.Surname }

// GivenName returns the author's given name.
func (a *AuthorRetrieval) GivenName() string { return a.data.Profile.Preferred.GivenName }

// ORCID returns the author's ORCID, if linked.
func (a *AuthorRetrieval) ORCID() string { return a.data.Coredata.ORCID }

// AuthorID returns the profile's own author ID, which can differ from
// the requested one when profiles have been merged.
func (a *AuthorRetrieval) AuthorID() string {
	return strings.TrimPrefix(a.data.Coredata.Identifier, "AUTHOR_ID:")
}

// EID returns the author's EID.
func (a *AuthorRetrieval) EID() string { return a.data.Coredata.EID }

// DocumentCount returns the number of documents on the profile.
func (a *AuthorRetrieval) DocumentCount() int { return atoi(a.data.Coredata.DocumentCount) }

// CitedByCount returns the number of distinct documents citing this
// author.
func (a *AuthorRetrieval) CitedByCount() int { return atoi(a.data.Coredata.CitedByCount) }

// CitationCount returns the total number of citations the author's
// documents received.
func (a *AuthorRetrieval) CitationCount() int { return atoi(a.data.Coredata.CitationCount) }

// HIndex returns the author's h-index. Zero outside the METRICS and
// ENHANCED views.
func (a *AuthorRetrieval) HIndex() int { return atoi(a.data.HIndex) }

// CoauthorCount returns the number of distinct coauthors. Zero outside
// the METRICS and ENHANCED views.
func (a *AuthorRetrieval) CoauthorCount() int { return atoi(a.data.CoauthorCount) }

// PublicationRange returns the first and last year the author
// published.
func (a *AuthorRetrieval) PublicationRange() (start, end int) {
	return atoi(a.data.Profile.PublicationRange.Start), atoi(a.data.Profile.PublicationRange.End)
}

// Affiliation returns the author's current affiliation.
func (a *AuthorRetrieval) Affiliation() AffiliationRef {
	aff := a.data.Profile.AffiliationCurrent.Affiliation
	return AffiliationRef{
		ID:      aff.ID,
		Name:    aff.IPDoc.Name,
		City:    aff.IPDoc.Address.City,
		Country: aff.IPDoc.Address.Country,
	}
}

// Subjects returns the author's subject areas.
func (a *AuthorRetrieval) Subjects() []SubjectArea {
	return a.data.SubjectAreas.Area
}

// authorData is one element of the author-retrieval-response array.
type authorData struct {
	Coredata struct {
		Identifier    string `json:"dc:identifier"`
		EID           string `json:"eid"`
		ORCID         string `json:"orcid"`
		DocumentCount string `json:"document-count"`
		CitedByCount  string `json:"cited-by-count"`
		CitationCount string `json:"citation-count"`
	} `json:"coredata"`

	HIndex        string `json:"h-index"`
	CoauthorCount string `json:"coauthor-count"`

	SubjectAreas struct {
		Area []SubjectArea `json:"subject-area"`
	} `json:"subject-areas"`

	Profile struct {
		Preferred        AuthorName `json:"preferred-name"`
		PublicationRange struct {
			Start string `json:"@start"`
			End   string `json:"@end"`
		} `json:"publication-range"`
		AffiliationCurrent struct {
			Affiliation struct {
				ID    string `json:"@affiliation-id"`
				IPDoc struct {
					Name    string `json:"afdispname"`
					Address struct {
						City    string `json:"city"`
						Country string `json:"country"`
					} `json:"address"`
				} `json:"ip-doc"`
			} `json:"affiliation"`
		} `json:"affiliation-current"`
	} `json:"author-profile"`
}
