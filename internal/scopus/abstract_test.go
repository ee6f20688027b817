// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scopus

import (
	"context"
	"strings"
	"testing"
)

const abstractJSON = `{"abstracts-retrieval-response":{"coredata":{"dc:identifier":"SCOPUS_ID:33845299101","eid":"2-s2.0-33845299101","prism:doi":"10.1016/0165-1889(94)90037-X","pii":"016518899490037X","dc:title":"Fiscal rules and monetary policy coordination","dc:description":"A comparative analysis of coordination regimes.","prism:coverDate":"1994-05-01","prism:publicationName":"Journal of Economic Dynamics and Control","prism:issn":"01651889","prism:volume":"18","prism:issueIdentifier":"3-4","prism:pageRange":"527-544","prism:aggregationType":"Journal","subtypeDescription":"Article","citedby-count":"1","openaccess":"0"},"authors":{"author":[{"@auid":"56330881200","@seq":"1","ce:indexed-name":"Verhoeven L.","ce:surname":"Verhoeven","ce:given-name":"Lotte","ce:initials":"L."}]}}}`

func TestAbstractRetrievalByDOI(t *testing.T) {
	svc := &retrievalFixture{doc: abstractJSON}
	eng := newTestEngine(t, svc.handler())

	a, err := NewAbstractRetrieval(context.Background(), eng, "10.1016/0165-1889(94)90037-X", AbstractOptions{})
	if err != nil {
		t.Fatalf("NewAbstractRetrieval: %v", err)
	}

	if len(svc.paths) != 1 {
		t.Fatalf("requests = %d, want 1", len(svc.paths))
	}
	wantPath := "/content/abstract/doi/10.1016/0165-1889(94)90037-X"
	if svc.paths[0] != wantPath {
		t.Errorf("path = %q, want %q", svc.paths[0], wantPath)
	}
	if got := svc.params[0].Get("view"); got != "META_ABS" {
		t.Errorf("view = %q, want META_ABS", got)
	}

	if a.Title() != "Fiscal rules and monetary policy coordination" {
		t.Errorf("Title = %q", a.Title())
	}
	if a.ScopusID() != "33845299101" {
		t.Errorf("ScopusID = %q", a.ScopusID())
	}
	if a.EID() != "2-s2.0-33845299101" {
		t.Errorf("EID = %q", a.EID())
	}
	if a.CitedByCount() != 1 {
		t.Errorf("CitedByCount = %d, want 1", a.CitedByCount())
	}
	if a.PublicationName() != "Journal of Economic Dynamics and Control" || a.ISSN() != "01651889" {
		t.Errorf("source = %q / %q", a.PublicationName(), a.ISSN())
	}
	if a.Volume() != "18" || a.IssueIdentifier() != "3-4" || a.PageRange() != "527-544" {
		t.Errorf("issue = %q %q %q", a.Volume(), a.IssueIdentifier(), a.PageRange())
	}
	if a.Abstract() != "A comparative analysis of coordination regimes." {
		t.Errorf("Abstract = %q", a.Abstract())
	}

	authors := a.Authors()
	if len(authors) != 1 {
		t.Fatalf("authors = %d, want 1", len(authors))
	}
	if authors[0].AUID != "56330881200" || authors[0].IndexedName != "Verhoeven L." {
		t.Errorf("author = %+v", authors[0])
	}
}

func TestAbstractRetrievalExplicitIDType(t *testing.T) {
	svc := &retrievalFixture{doc: abstractJSON}
	eng := newTestEngine(t, svc.handler())

	_, err := NewAbstractRetrieval(context.Background(), eng, "33845299101", AbstractOptions{
		IDType: "pubmed_id",
		View:   "FULL",
	})
	if err != nil {
		t.Fatalf("NewAbstractRetrieval: %v", err)
	}

	if want := "/content/abstract/pubmed_id/33845299101"; svc.paths[0] != want {
		t.Errorf("path = %q, want %q", svc.paths[0], want)
	}
	if got := svc.params[0].Get("view"); got != "FULL" {
		t.Errorf("view = %q, want FULL", got)
	}
}

func TestAbstractStructuredDescription(t *testing.T) {
	doc := `{"abstracts-retrieval-response":{"coredata":{"dc:title":"T","dc:description":{"abstract":{"ce:para":"Structured abstract text."}}}}}`
	svc := &retrievalFixture{doc: doc}
	eng := newTestEngine(t, svc.handler())

	a, err := NewAbstractRetrieval(context.Background(), eng, "2-s2.0-1", AbstractOptions{})
	if err != nil {
		t.Fatalf("NewAbstractRetrieval: %v", err)
	}
	if a.Abstract() != "Structured abstract text." {
		t.Errorf("Abstract = %q", a.Abstract())
	}
}

func TestAbstractRejectsUnknownView(t *testing.T) {
	eng := newTestEngine(t, (&retrievalFixture{doc: abstractJSON}).handler())

	_, err := NewAbstractRetrieval(context.Background(), eng, "2-s2.0-1", AbstractOptions{View: "EVERYTHING"})
	if err == nil || !strings.Contains(err.Error(), "view must be one of") {
		t.Fatalf("err = %v, want view validation error", err)
	}
}

func TestDetectIDType(t *testing.T) {
	cases := []struct {
		id   string
		want string
	}{
		{"2-s2.0-33845299101", "eid"},
		{"10.1016/0165-1889(94)90037-X", "doi"},
		{"10.1000/m.0001", "doi"},
		{"016518899490037X", "pii"},
		{"S016518899490037X", "pii"},
		{"12345678", "pubmed_id"},
		{"33845299101", "scopus_id"},
	}
	for _, tc := range cases {
		got, err := DetectIDType(tc.id)
		if err != nil {
			t.Errorf("DetectIDType(%q): %v", tc.id, err)
			continue
		}
		if got != tc.want {
			t.Errorf("DetectIDType(%q) = %q, want %q", tc.id, got, tc.want)
		}
	}

	for _, id := range []string{"", "abc", "weird-id-shape"} {
		if got, err := DetectIDType(id); err == nil {
			t.Errorf("DetectIDType(%q) = %q, want error", id, got)
		}
	}
}
