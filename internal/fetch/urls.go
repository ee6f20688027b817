// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"fmt"
	"sort"
)

// Base URLs for the provider's API families. Package variables so tests
// can point them at a local server.
var (
	RetrievalBase = "https://api.elsevier.com/content/"
	SearchBase    = "https://api.elsevier.com/content/search/"
	LookupBase    = "https://api.elsevier.com/analytics/scival/"
	PlumXBase     = "https://api.elsevier.com/analytics/plumx/"
)

type endpoint struct {
	base   *string
	suffix string
}

// endpoints maps API names to their URL prefix. The base is held by
// pointer so overriding the package variables above takes effect at
// call time.
var endpoints = map[string]endpoint{
	"AbstractRetrieval":      {&RetrievalBase, "abstract/"},
	"AffiliationRetrieval":   {&RetrievalBase, "affiliation/affiliation_id/"},
	"AffiliationSearch":      {&SearchBase, "affiliation"},
	"AuthorRetrieval":        {&RetrievalBase, "author/author_id/"},
	"AuthorSearch":           {&SearchBase, "author"},
	"CitationOverview":       {&RetrievalBase, "abstract/citations/"},
	"ScopusSearch":           {&SearchBase, "scopus"},
	"SerialSearch":           {&RetrievalBase, "serial/title"},
	"SerialTitle":            {&RetrievalBase, "serial/title/issn/"},
	"SubjectClassifications": {&RetrievalBase, "subject/scopus"},
	"PlumXMetrics":           {&PlumXBase, ""},

	"AuthorLookup":           {&LookupBase, "author/"},
	"CountryLookup":          {&LookupBase, "country/"},
	"CountryGroupLookup":     {&LookupBase, "countryGroup/"},
	"InstitutionLookup":      {&LookupBase, "institution/"},
	"InstitutionGroupLookup": {&LookupBase, "institutionGroup/"},
	"PublicationLookup":      {&LookupBase, "publication/"},
	"ScopusSourceLookup":     {&LookupBase, "scopusSource/"},
	"SubjectAreaLookup":      {&LookupBase, "subjectArea/"},
	"TopicLookup":            {&LookupBase, "topic/"},
	"TopicClusterLookup":     {&LookupBase, "topicCluster/"},
	"WorldLookup":            {&LookupBase, "world/"},
}

// Endpoint returns the URL prefix for an API name. Retrieval-style
// prefixes end in "/" and expect an identifier appended; search-style
// prefixes are complete resource URLs.
func Endpoint(api string) (string, error) {
	ep, ok := endpoints[api]
	if !ok {
		return "", fmt.Errorf("unknown API %q", api)
	}
	return *ep.base + ep.suffix, nil
}

// KnownAPIs lists every API name in the catalog, sorted for stable help
// output.
func KnownAPIs() []string {
	names := make([]string, 0, len(endpoints))
	for name := range endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
