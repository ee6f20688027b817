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

// SerialTitle holds the metadata of one serial source looked up by
// ISSN.
type SerialTitle struct {
	result
	ISSN string

	entry serialEntry
}

// SerialTitleOptions tune a Serial Title request.
type SerialTitleOptions struct {
	// View selects the response detail level: STANDARD, ENHANCED or
	// CITESCORE. Empty means ENHANCED.
	View string

	// Years is a year or hyphenated year range, e.g. "2019-2021",
	// restricting which yearly SNIP and SJR values are reported.
	Years string

	// Refresh controls cache reuse. The zero value serves any cached
	// file regardless of age.
	Refresh types.RefreshPolicy

	// Extra is merged into the query parameters as-is.
	Extra url.Values
}

// NewSerialTitle fetches the metadata of the serial with the given
// ISSN.
func NewSerialTitle(ctx context.Context, eng *engine.Engine, issn string, opts SerialTitleOptions) (*SerialTitle, error) {
	view := opts.View
	if view == "" {
		view = "ENHANCED"
	}
	if err := checkValue(view, "view", "STANDARD", "ENHANCED", "CITESCORE"); err != nil {
		return nil, err
	}

	base, err := fetch.Endpoint("SerialTitle")
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	for k, vs := range opts.Extra {
		params[k] = append(params[k], vs...)
	}
	params.Set("view", view)
	if opts.Years != "" {
		params.Set("date", opts.Years)
	}

	rec, err := eng.Fetch(ctx, engine.Request{
		API:      "SerialTitle",
		URL:      base + issn,
		Kind:     engine.KindRetrieval,
		Params:   params,
		Key:      cache.Key{API: "SerialTitle", View: view, ID: issn},
		Refresh:  opts.Refresh,
		Download: true,
	}, nil)
	if err != nil {
		return nil, err
	}

	var env struct {
		Resp struct {
			Entry []serialEntry `json:"entry"`
		} `json:"serial-metadata-response"`
	}
	if err := json.Unmarshal(rec.Doc(), &env); err != nil {
		return nil, fmt.Errorf("parsing SerialTitle response: %w", err)
	}
	if len(env.Resp.Entry) == 0 {
		return nil, fmt.Errorf("no serial found for ISSN %s", issn)
	}

	return &SerialTitle{result: result{rec: rec}, ISSN: issn, entry: env.Resp.Entry[0]}, nil
}

// Title returns the serial's title.
func (s *SerialTitle) Title() string { return s.entry.Title }

// Publisher returns the serial's publisher.
func (s *SerialTitle) Publisher() string { return s.entry.Publisher }

// EISSN returns the serial's electronic ISSN.
func (s *SerialTitle) EISSN() string { return s.entry.EISSN }

// AggregationType returns the source type, e.g. "journal".
func (s *SerialTitle) AggregationType() string { return s.entry.AggregationType }

// SourceID returns the serial's Scopus source ID.
func (s *SerialTitle) SourceID() string { return string(s.entry.SourceID) }

// Subjects returns the serial's ASJC subject areas.
func (s *SerialTitle) Subjects() []SubjectArea { return s.entry.Subjects }

// SNIP returns the yearly source-normalized impact per paper values.
func (s *SerialTitle) SNIP() []YearValue { return s.entry.SNIPList.SNIP }

// SJR returns the yearly SCImago journal rank values.
func (s *SerialTitle) SJR() []YearValue { return s.entry.SJRList.SJR }

// CiteScore returns the current CiteScore and the running tracker
// value for the year in progress.
func (s *SerialTitle) CiteScore() (current, tracker string) {
	return string(s.entry.CiteScoreInfo.CurrentMetric), string(s.entry.CiteScoreInfo.Tracker)
}

// serialEntry is one entry of a serial-metadata-response.
type serialEntry struct {
	Title           string                 `json:"dc:title"`
	Publisher       string                 `json:"dc:publisher"`
	ISSN            string                 `json:"prism:issn"`
	EISSN           string                 `json:"prism:eIssn"`
	AggregationType string                 `json:"prism:aggregationType"`
	SourceID        flexString             `json:"source-id"`
	Subjects        oneOrMany[SubjectArea] `json:"subject-area"`

	SNIPList struct {
		SNIP oneOrMany[YearValue] `json:"SNIP"`
	} `json:"SNIPList"`
	SJRList struct {
		SJR oneOrMany[YearValue] `json:"SJR"`
	} `json:"SJRList"`
	CiteScoreInfo struct {
		CurrentMetric     flexString `json:"citeScoreCurrentMetric"`
		CurrentMetricYear flexString `json:"citeScoreCurrentMetricYear"`
		Tracker           flexString `json:"citeScoreTracker"`
		TrackerYear       flexString `json:"citeScoreTrackerYear"`
	} `json:"citeScoreYearInfoList"`
}

// SerialSearch holds the serial sources matched by a field query such
// as {"title": "computational"}. The provider serves the whole result
// in a single response, so only its first page is available.
type SerialSearch struct {
	result
	Query map[string]string

	matches int
	results []map[string]string
}

// SerialSearchOptions tune a Serial Search request.
type SerialSearchOptions struct {
	// View selects the response detail level: STANDARD, ENHANCED or
	// CITESCORE. Empty means ENHANCED.
	View string

	// Refresh controls cache reuse. The zero value serves any cached
	// file regardless of age.
	Refresh types.RefreshPolicy
}

// serialQueryKeys are the search fields the Serial Title API accepts.
var serialQueryKeys = []string{
	"title", "issn", "date", "pub", "subj", "subjCode", "content", "oa", "field",
}

// NewSerialSearch searches serial sources by field values. Allowed
// query keys are title, issn, date, pub, subj, subjCode, content, oa
// and field.
func NewSerialSearch(ctx context.Context, eng *engine.Engine, query map[string]string, opts SerialSearchOptions) (*SerialSearch, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("serial search needs at least one query field")
	}
	view := opts.View
	if view == "" {
		view = "ENHANCED"
	}
	if err := checkValue(view, "view", "STANDARD", "ENHANCED", "CITESCORE"); err != nil {
		return nil, err
	}

	params := url.Values{}
	for k, v := range query {
		if err := checkValue(k, "query field", serialQueryKeys...); err != nil {
			return nil, err
		}
		params.Set(k, v)
	}
	// Encode() sorts keys, giving equal queries one cache slot.
	id := params.Encode()
	params.Set("view", view)

	base, err := fetch.Endpoint("SerialSearch")
	if err != nil {
		return nil, err
	}

	rec, err := eng.Fetch(ctx, engine.Request{
		API:      "SerialSearch",
		URL:      base,
		Kind:     engine.KindRetrieval,
		Params:   params,
		Key:      cache.Key{API: "SerialSearch", View: view, ID: id},
		Refresh:  opts.Refresh,
		Download: true,
	}, nil)
	if err != nil {
		return nil, err
	}

	var env struct {
		Resp struct {
			Total json.RawMessage   `json:"opensearch:totalResults"`
			Entry []json.RawMessage `json:"entry"`
		} `json:"serial-metadata-response"`
	}
	if err := json.Unmarshal(rec.Doc(), &env); err != nil {
		return nil, fmt.Errorf("parsing SerialSearch response: %w", err)
	}

	s := &SerialSearch{
		result:  result{rec: rec},
		Query:   query,
		matches: flexInt(env.Resp.Total),
	}
	for i, raw := range env.Resp.Entry {
		flat, err := flattenSerialEntry(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing SerialSearch entry %d: %w", i+1, err)
		}
		s.results = append(s.results, flat)
	}
	return s, nil
}

// Results returns one flattened field map per matched serial. Nested
// provider structures collapse into flat keys: subject areas join into
// subject_area_codes, subject_area_abbrevs and subject_area_names,
// yearly metrics become SNIP_<year> and SJR_<year>, and the
// scopus-source link becomes url.
func (s *SerialSearch) Results() []map[string]string { return s.results }

// Matches returns the total match count the service reported, which
// can exceed the entries of the single served page.
func (s *SerialSearch) Matches() int { return s.matches }

// flattenSerialEntry converts one serial entry into a flat string map.
func flattenSerialEntry(raw json.RawMessage) (map[string]string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(fields))
	for key, value := range fields {
		switch key {
		case "@_fa":
			// Pagination artifact, not data.
		case "subject-area":
			var subs oneOrMany[SubjectArea]
			if err := json.Unmarshal(value, &subs); err != nil {
				return nil, err
			}
			codes := make([]string, 0, len(subs))
			abbrevs := make([]string, 0, len(subs))
			names := make([]string, 0, len(subs))
			for _, sub := range subs {
				codes = append(codes, sub.Code)
				abbrevs = append(abbrevs, sub.Abbrev)
				names = append(names, sub.Name)
			}
			out["subject_area_codes"] = strings.Join(codes, ";")
			out["subject_area_abbrevs"] = strings.Join(abbrevs, ";")
			out["subject_area_names"] = strings.Join(names, ";")
		case "SNIPList", "SJRList":
			var lists map[string]oneOrMany[YearValue]
			if err := json.Unmarshal(value, &lists); err != nil {
				return nil, err
			}
			for metric, values := range lists {
				for _, yv := range values {
					out[metric+"_"+yv.Year] = yv.Value
				}
			}
		case "citeScoreYearInfoList":
			var info map[string]flexString
			if err := json.Unmarshal(value, &info); err != nil {
				return nil, err
			}
			// The CITESCORE view nests year details here; only the
			// flat summary fields survive the flatten.
			for k, v := range info {
				if v != "" {
					out[k] = string(v)
				}
			}
		case "link":
			var links []struct {
				Ref  string `json:"@ref"`
				Href string `json:"@href"`
			}
			if err := json.Unmarshal(value, &links); err != nil {
				return nil, err
			}
			for _, l := range links {
				if l.Ref == "scopus-source" {
					out["url"] = l.Href
				}
			}
		default:
			if i := strings.Index(key, ":"); i >= 0 {
				key = key[i+1:]
			}
			var v flexString
			if err := json.Unmarshal(value, &v); err == nil && v != "" {
				out[key] = string(v)
			}
		}
	}
	return out, nil
}
