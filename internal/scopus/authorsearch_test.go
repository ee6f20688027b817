// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scopus

import (
	"context"
	"testing"
)

const authorHitJSON = `{"@_fa":"true","eid":"9-s2.0-55554444333","orcid":"0000-0001-2345-6789","document-count":"42","preferred-name":{"surname":"Curie","given-name":"Marie","initials":"M."},"name-variant":[{"surname":"Sklodowska-Curie","given-name":"Marie","initials":"M."}],"subject-area":[{"@abbrev":"PHYS","@frequency":"61","$":"Physics and Astronomy"},{"@abbrev":"CHEM","@frequency":"22","$":"Chemistry"}],"affiliation-current":{"affiliation-id":"60008134","affiliation-name":"Sorbonne","affiliation-city":"Paris","affiliation-country":"France"}}`

func TestAuthorSearchParsesProfiles(t *testing.T) {
	svc := &searchFixture{docs: []string{authorHitJSON}}
	eng := newTestEngine(t, svc.handler())

	s, err := NewAuthorSearch(context.Background(), eng, "AUTHLAST(Curie)", ProfileSearchOptions{})
	if err != nil {
		t.Fatalf("NewAuthorSearch: %v", err)
	}

	first := svc.requests[0]
	if got := first.Get("view"); got != "STANDARD" {
		t.Errorf("view = %q, want STANDARD", got)
	}
	if got := first.Get("count"); got != "200" {
		t.Errorf("count = %q, want 200", got)
	}
	if got := first.Get("start"); got != "0" {
		t.Errorf("start = %q, want 0", got)
	}

	if s.Total() != 1 {
		t.Fatalf("Total = %d, want 1", s.Total())
	}
	hit := s.Results()[0]
	if hit.ID() != "55554444333" {
		t.Errorf("ID = %q, want 55554444333", hit.ID())
	}
	if hit.Preferred.Surname != "Curie" || hit.Preferred.GivenName != "Marie" {
		t.Errorf("preferred name = %+v", hit.Preferred)
	}
	if len(hit.Variants) != 1 || hit.Variants[0].Surname != "Sklodowska-Curie" {
		t.Errorf("variants = %+v", hit.Variants)
	}
	if len(hit.Subjects) != 2 || hit.Subjects[0].Abbrev != "PHYS" || hit.Subjects[0].Name != "Physics and Astronomy" {
		t.Errorf("subjects = %+v", hit.Subjects)
	}
	if hit.Affiliation.Name != "Sorbonne" || hit.Affiliation.Country != "France" {
		t.Errorf("affiliation = %+v", hit.Affiliation)
	}
	if hit.DocumentCount != "42" {
		t.Errorf("DocumentCount = %q, want 42", hit.DocumentCount)
	}
}

func TestAuthorSearchCountOnly(t *testing.T) {
	svc := &searchFixture{docs: []string{authorHitJSON, authorHitJSON}}
	eng := newTestEngine(t, svc.handler())

	s, err := NewAuthorSearch(context.Background(), eng, "AUTHLAST(Smith)", ProfileSearchOptions{CountOnly: true})
	if err != nil {
		t.Fatalf("NewAuthorSearch: %v", err)
	}
	if len(svc.requests) != 1 {
		t.Errorf("requests = %d, want 1", len(svc.requests))
	}
	if s.Total() != 2 || len(s.Results()) != 0 {
		t.Errorf("Total = %d with %d results, want 2 with none", s.Total(), len(s.Results()))
	}
}

func TestAffiliationSearchParsesInstitutions(t *testing.T) {
	svc := &searchFixture{docs: []string{
		`{"@_fa":"true","eid":"10-s2.0-60021784","affiliation-name":"Max Planck Institute","name-variant":[{"@_fa":"true","$":"MPI"},{"@_fa":"true","$":"Max-Planck-Institut"}],"document-count":"91820","city":"Munich","country":"Germany","parent-affiliation-id":"60000000"}`,
	}}
	eng := newTestEngine(t, svc.handler())

	s, err := NewAffiliationSearch(context.Background(), eng, "AFFIL(Max Planck)", ProfileSearchOptions{Count: 50})
	if err != nil {
		t.Fatalf("NewAffiliationSearch: %v", err)
	}

	if got := svc.requests[0].Get("count"); got != "50" {
		t.Errorf("count = %q, want 50", got)
	}

	hit := s.Results()[0]
	if hit.ID() != "60021784" {
		t.Errorf("ID = %q, want 60021784", hit.ID())
	}
	if hit.Name != "Max Planck Institute" || hit.City != "Munich" {
		t.Errorf("hit = %+v", hit)
	}
	variants := hit.NameVariants()
	if len(variants) != 2 || variants[0] != "MPI" {
		t.Errorf("NameVariants = %v", variants)
	}
	if hit.ParentID != "60000000" {
		t.Errorf("ParentID = %q", hit.ParentID)
	}
}
