// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scopus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/pdiddy/biblio-engine/internal/cache"
	"github.com/pdiddy/biblio-engine/internal/engine"
	"github.com/pdiddy/biblio-engine/internal/fetch"
	"github.com/pdiddy/biblio-engine/pkg/types"
)

// CitationOverview holds the year-by-year citation trajectory of one
// document. Access to the Citation Overview API requires a key cleared
// by the provider's integration team.
type CitationOverview struct {
	result
	EID string

	start, end int
	hIndex     string
	info       citeInfo
	legend     citeLegend
}

// CitationOverviewOptions tune a Citation Overview request.
type CitationOverviewOptions struct {
	// End is the last year citations are counted for. Zero means the
	// current year.
	End int

	// Citation excludes a citation class from the counts:
	// "exclude-self" or "exclude-books". Empty counts everything.
	Citation string

	// Refresh controls cache reuse. The zero value serves any cached
	// file regardless of age.
	Refresh types.RefreshPolicy

	// Extra is merged into the query parameters as-is.
	Extra url.Values
}

// NewCitationOverview fetches yearly citation counts for the document
// with the given EID, from start through opts.End.
func NewCitationOverview(ctx context.Context, eng *engine.Engine, eid string, start int, opts CitationOverviewOptions) (*CitationOverview, error) {
	if opts.Citation != "" {
		if err := checkValue(opts.Citation, "citation", "exclude-self", "exclude-books"); err != nil {
			return nil, err
		}
	}
	end := opts.End
	if end == 0 {
		end = time.Now().Year()
	}
	if start > end {
		return nil, fmt.Errorf("citation range starts in %d but ends in %d", start, end)
	}

	base, err := fetch.Endpoint("CitationOverview")
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	for k, vs := range opts.Extra {
		params[k] = append(params[k], vs...)
	}
	params.Set("view", "STANDARD")
	params.Set("date", fmt.Sprintf("%d-%d", start, end))
	params.Set("scopus_id", trailingID(eid))
	if opts.Citation != "" {
		params.Set("citation", opts.Citation)
	}

	// Exclusion filters get their own cache slot so filtered and
	// unfiltered trajectories for one document coexist.
	rec, err := eng.Fetch(ctx, engine.Request{
		API:      "CitationOverview",
		URL:      base + eid,
		Kind:     engine.KindRetrieval,
		Params:   params,
		Key:      cache.Key{API: "CitationOverview", View: "STANDARD", ID: eid + opts.Citation},
		Refresh:  opts.Refresh,
		Download: true,
	}, nil)
	if err != nil {
		return nil, err
	}

	var env struct {
		Resp struct {
			HIndex json.RawMessage `json:"h-index"`
			Legend struct {
				Identifier []json.RawMessage `json:"identifier"`
			} `json:"identifier-legend"`
			Matrix struct {
				XML struct {
					Matrix struct {
						CiteInfo []json.RawMessage `json:"citeInfo"`
					} `json:"citationMatrix"`
				} `json:"citeInfoMatrixXML"`
			} `json:"citeInfoMatrix"`
		} `json:"abstract-citations-response"`
	}
	if err := json.Unmarshal(rec.Doc(), &env); err != nil {
		return nil, fmt.Errorf("parsing CitationOverview response: %w", err)
	}
	if len(env.Resp.Matrix.XML.Matrix.CiteInfo) == 0 {
		return nil, fmt.Errorf("CitationOverview response for %s holds no citation matrix", eid)
	}

	c := &CitationOverview{
		result: result{rec: rec},
		EID:    eid,
		start:  start,
		end:    end,
	}
	if len(env.Resp.HIndex) > 0 {
		c.hIndex = fmt.Sprintf("%d", flexInt(env.Resp.HIndex))
	}

	// Matrix and legend keys arrive namespace-prefixed; strip them
	// before decoding, like every consumer of this API does.
	info, err := stripPrefixes(env.Resp.Matrix.XML.Matrix.CiteInfo[0])
	if err != nil {
		return nil, fmt.Errorf("parsing CitationOverview citation matrix: %w", err)
	}
	if err := json.Unmarshal(info, &c.info); err != nil {
		return nil, fmt.Errorf("parsing CitationOverview citation matrix: %w", err)
	}
	if len(env.Resp.Legend.Identifier) > 0 {
		legend, err := stripPrefixes(env.Resp.Legend.Identifier[0])
		if err != nil {
			return nil, fmt.Errorf("parsing CitationOverview identifier legend: %w", err)
		}
		if err := json.Unmarshal(legend, &c.legend); err != nil {
			return nil, fmt.Errorf("parsing CitationOverview identifier legend: %w", err)
		}
	}
	return c, nil
}

// YearCount pairs a year with its citation count.
type YearCount struct {
	Year  int
	Count int
}

// CitationsByYear returns one count per year of the requested range, in
// year order. Documents without citations get zero rows.
func (c *CitationOverview) CitationsByYear() []YearCount {
	out := make([]YearCount, 0, c.end-c.start+1)
	for year := c.start; year <= c.end; year++ {
		count := 0
		if i := year - c.start; i < len(c.info.CC) {
			count = atoi(string(c.info.CC[i].Value))
		}
		out = append(out, YearCount{Year: year, Count: count})
	}
	return out
}

// Authors returns the document's authors as the citation matrix lists
// them.
func (c *CitationOverview) Authors() []CitedAuthor {
	out := make([]CitedAuthor, 0, len(c.info.Authors))
	for _, raw := range c.info.Authors {
		plain, err := stripPrefixes(raw)
		if err != nil {
			continue
		}
		var a CitedAuthor
		if err := json.Unmarshal(plain, &a); err != nil {
			continue
		}
		out = append(out, a)
	}
	return out
}

// HIndex returns the document's h-index.
func (c *CitationOverview) HIndex() int { return atoi(c.hIndex) }

// PCC returns the number of citations before the requested range.
func (c *CitationOverview) PCC() int { return atoi(string(c.info.PCC)) }

// LCC returns the number of citations after the requested range.
func (c *CitationOverview) LCC() int { return atoi(string(c.info.LCC)) }

// RangeCount returns the number of citations inside the requested
// range.
func (c *CitationOverview) RangeCount() int { return atoi(string(c.info.RangeCount)) }

// RowTotal returns the all-time citation count.
func (c *CitationOverview) RowTotal() int { return atoi(string(c.info.RowTotal)) }

// Title returns the document title.
func (c *CitationOverview) Title() string { return c.info.Title }

// PublicationName returns the source the document appeared in.
func (c *CitationOverview) PublicationName() string { return c.info.PublicationName }

// ISSN returns the source's ISSN. When the E-ISSN is known too, both
// appear separated by a blank.
func (c *CitationOverview) ISSN() string { return c.info.ISSN }

// Volume returns the source volume.
func (c *CitationOverview) Volume() string { return c.info.Volume }

// IssueIdentifier returns the source issue.
func (c *CitationOverview) IssueIdentifier() string { return c.info.IssueIdentifier }

// StartingPage returns the first page of the document.
func (c *CitationOverview) StartingPage() string { return c.info.StartingPage }

// EndingPage returns the last page of the document.
func (c *CitationOverview) EndingPage() string { return c.info.EndingPage }

// CitationType returns the document type as a short code and its long
// form, e.g. "ar" and "Article".
func (c *CitationOverview) CitationType() (code, long string) {
	return c.info.CitationType.Code, c.info.CitationType.Long
}

// DOI returns the document's DOI from the identifier legend.
func (c *CitationOverview) DOI() string { return c.legend.DOI }

// PII returns the document's PII from the identifier legend.
func (c *CitationOverview) PII() string { return c.legend.PII }

// ScopusID returns the document's Scopus ID, which can differ from the
// requested one when documents have been merged.
func (c *CitationOverview) ScopusID() string { return c.legend.ScopusID }

// CitedAuthor is one author row of the citation matrix.
type CitedAuthor struct {
	Name     string `json:"index-name"`
	Surname  string `json:"surname"`
	Initials string `json:"initials"`
	ID       string `json:"authid"`
	URL      string `json:"author-url"`
}

// citeInfo is the first citeInfo element of the citation matrix, with
// namespace prefixes already stripped from its keys. The count fields
// use flexString because the provider mixes strings and bare numbers
// here.
type citeInfo struct {
	Authors []json.RawMessage `json:"author"`
	CC      []struct {
		Value flexString `json:"$"`
	} `json:"cc"`

	CitationType struct {
		Long string `json:"$"`
		Code string `json:"@code"`
	} `json:"citationType"`

	Title           string `json:"title"`
	PublicationName string `json:"publicationName"`
	ISSN            string `json:"issn"`
	Volume          string `json:"volume"`
	IssueIdentifier string `json:"issueIdentifier"`
	StartingPage    string `json:"startingPage"`
	EndingPage      string `json:"endingPage"`

	PCC        flexString `json:"pcc"`
	LCC        flexString `json:"lcc"`
	RangeCount flexString `json:"rangeCount"`
	RowTotal   flexString `json:"rowTotal"`
}

// citeLegend maps the document to its other identifiers.
type citeLegend struct {
	DOI      string `json:"doi"`
	PII      string `json:"pii"`
	ScopusID string `json:"scopus_id"`
}
