// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/biblio-engine/internal/scopus"
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve <api> <id>",
	Short: "Fetch one document, author, or serial and cache it",
	Long: `Retrieve resolves a single entity through the cache: the first call
downloads and stores it, later calls read from disk.

APIs and identifiers:
  abstract   a document by EID, DOI, PII, Pubmed ID, or Scopus ID
  author     an author profile by author ID or EID
  citations  a document's yearly citation counts by EID (needs --start)
  serial     a journal by ISSN
  serials    journals matched by field query, e.g. 'title=software,oa=full'`,
	Args: cobra.ExactArgs(2),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().String("view", "", "response detail level (API-specific)")
	retrieveCmd.Flags().String("id-type", "", "identifier kind for abstract: eid, doi, pii, pubmed_id, scopus_id")
	retrieveCmd.Flags().Int("start", 0, "first year of the citation range (citations only)")
	retrieveCmd.Flags().Int("end", 0, "last year of the citation range (default: current year)")
	retrieveCmd.Flags().String("citation", "", "citation classes to exclude: exclude-self or exclude-books")
	retrieveCmd.Flags().String("years", "", "restrict yearly serial metrics, e.g. 2019-2021")
	retrieveCmd.Flags().String("refresh", "", "refetch policy: true, false, or a maximum cache age in days")
	retrieveCmd.Flags().Bool("json", false, "output the raw cached document as JSON")

	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	api, id := args[0], args[1]

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	eng, jrnl, err := newEngine(cfg)
	if err != nil {
		return err
	}
	defer jrnl.Close()

	refresh, err := refreshFromFlag(cmd)
	if err != nil {
		return err
	}
	view, _ := cmd.Flags().GetString("view")
	jsonOut, _ := cmd.Flags().GetBool("json")

	ctx := cmd.Context()
	switch api {
	case "abstract":
		idType, _ := cmd.Flags().GetString("id-type")
		a, err := scopus.NewAbstractRetrieval(ctx, eng, id, scopus.AbstractOptions{
			View:    view,
			IDType:  idType,
			Refresh: refresh,
		})
		if err != nil {
			return err
		}
		if jsonOut {
			return printRawDoc(a.Record().Doc())
		}
		printAbstract(a)

	case "author":
		a, err := scopus.NewAuthorRetrieval(ctx, eng, id, scopus.AuthorOptions{
			View:    view,
			Refresh: refresh,
		})
		if err != nil {
			return err
		}
		if jsonOut {
			return printRawDoc(a.Record().Doc())
		}
		printAuthor(a)

	case "citations":
		start, _ := cmd.Flags().GetInt("start")
		if start == 0 {
			return fmt.Errorf("citations needs --start, the first year of the range")
		}
		end, _ := cmd.Flags().GetInt("end")
		citation, _ := cmd.Flags().GetString("citation")
		c, err := scopus.NewCitationOverview(ctx, eng, id, start, scopus.CitationOverviewOptions{
			End:      end,
			Citation: citation,
			Refresh:  refresh,
		})
		if err != nil {
			return err
		}
		if jsonOut {
			return printRawDoc(c.Record().Doc())
		}
		printCitations(c)

	case "serial":
		years, _ := cmd.Flags().GetString("years")
		s, err := scopus.NewSerialTitle(ctx, eng, id, scopus.SerialTitleOptions{
			View:    view,
			Years:   years,
			Refresh: refresh,
		})
		if err != nil {
			return err
		}
		if jsonOut {
			return printRawDoc(s.Record().Doc())
		}
		printSerial(s)

	case "serials":
		query, err := parseFieldQuery(id)
		if err != nil {
			return err
		}
		s, err := scopus.NewSerialSearch(ctx, eng, query, scopus.SerialSearchOptions{
			View:    view,
			Refresh: refresh,
		})
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(s.Results())
		}
		printSerialSearch(s)

	default:
		return fmt.Errorf("unknown retrieval API %q: use abstract, author, citations, serial, or serials", api)
	}
	return nil
}

// parseFieldQuery splits "title=software,oa=full" into a field map.
func parseFieldQuery(s string) (map[string]string, error) {
	query := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("malformed query part %q: want field=value", pair)
		}
		query[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return query, nil
}

func printAbstract(a *scopus.AbstractRetrieval) {
	fmt.Printf("Title:        %s\n", a.Title())
	names := make([]string, 0, len(a.Authors()))
	for _, au := range a.Authors() {
		names = append(names, au.IndexedName)
	}
	fmt.Printf("Authors:      %s\n", strings.Join(names, "; "))
	fmt.Printf("Published in: %s", a.PublicationName())
	if a.Volume() != "" {
		fmt.Printf(" %s", a.Volume())
		if a.IssueIdentifier() != "" {
			fmt.Printf("(%s)", a.IssueIdentifier())
		}
	}
	if a.PageRange() != "" {
		fmt.Printf(", pp. %s", a.PageRange())
	}
	fmt.Println()
	fmt.Printf("Date:         %s\n", a.CoverDate())
	fmt.Printf("DOI:          %s\n", a.DOI())
	fmt.Printf("EID:          %s\n", a.EID())
	fmt.Printf("Cited by:     %d\n", a.CitedByCount())
	if abstract := a.Abstract(); abstract != "" {
		fmt.Printf("\n%s\n", abstract)
	}
	printProvenance(a.FromCache(), a.CacheModifiedAt())
}

func printAuthor(a *scopus.AuthorRetrieval) {
	fmt.Printf("Name:         %s, %s\n", a.Surname(), a.GivenName())
	fmt.Printf("Author ID:    %s\n", a.AuthorID())
	if a.ORCID() != "" {
		fmt.Printf("ORCID:        %s\n", a.ORCID())
	}
	aff := a.Affiliation()
	fmt.Printf("Affiliation:  %s (%s, %s)\n", aff.Name, aff.City, aff.Country)
	start, end := a.PublicationRange()
	fmt.Printf("Active:       %d-%d\n", start, end)
	fmt.Printf("Documents:    %d\n", a.DocumentCount())
	fmt.Printf("Citations:    %d (by %d documents)\n", a.CitationCount(), a.CitedByCount())
	fmt.Printf("h-index:      %d\n", a.HIndex())
	if subjects := a.Subjects(); len(subjects) > 0 {
		names := make([]string, 0, len(subjects))
		for _, s := range subjects {
			names = append(names, s.Name)
		}
		fmt.Printf("Subjects:     %s\n", strings.Join(names, "; "))
	}
	printProvenance(a.FromCache(), a.CacheModifiedAt())
}

func printCitations(c *scopus.CitationOverview) {
	fmt.Printf("Title:        %s\n", c.Title())
	fmt.Printf("Published in: %s\n", c.PublicationName())
	fmt.Printf("Before range: %d\n", c.PCC())
	for _, yc := range c.CitationsByYear() {
		fmt.Printf("  %d:       %d\n", yc.Year, yc.Count)
	}
	fmt.Printf("After range:  %d\n", c.LCC())
	fmt.Printf("Total:        %d\n", c.RowTotal())
	printProvenance(c.FromCache(), c.CacheModifiedAt())
}

func printSerial(s *scopus.SerialTitle) {
	fmt.Printf("Title:        %s\n", s.Title())
	fmt.Printf("Publisher:    %s\n", s.Publisher())
	fmt.Printf("ISSN:         %s", s.ISSN)
	if s.EISSN() != "" {
		fmt.Printf(" (electronic %s)", s.EISSN())
	}
	fmt.Println()
	fmt.Printf("Source ID:    %s\n", s.SourceID())
	if current, tracker := s.CiteScore(); current != "" {
		fmt.Printf("CiteScore:    %s (tracker %s)\n", current, tracker)
	}
	for _, yv := range s.SNIP() {
		fmt.Printf("SNIP %s:    %s\n", yv.Year, yv.Value)
	}
	for _, yv := range s.SJR() {
		fmt.Printf("SJR %s:     %s\n", yv.Year, yv.Value)
	}
	printProvenance(s.FromCache(), s.CacheModifiedAt())
}

func printSerialSearch(s *scopus.SerialSearch) {
	results := s.Results()
	fmt.Fprintf(os.Stdout, "%-10s  %-44s  %s\n", "ISSN", "Title", "Publisher")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 84))
	for _, r := range results {
		fmt.Fprintf(os.Stdout, "%-10s  %-44s  %s\n",
			r["issn"], truncate(r["title"], 44), truncate(r["publisher"], 26))
	}
	fmt.Fprintf(os.Stdout, "\n%d of %d serials%s\n", len(results), s.Matches(), cacheNote(s.FromCache(), s.CacheAge()))
}

// printProvenance reports where the data came from, on stderr so it
// never mixes into piped output.
func printProvenance(fromCache bool, modifiedAt string) {
	if fromCache {
		fmt.Fprintf(os.Stderr, "served from cache, written %s\n", modifiedAt)
		return
	}
	fmt.Fprintln(os.Stderr, "downloaded from the API")
}

// printRawDoc re-indents one cached document for the terminal.
func printRawDoc(doc json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, doc, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(os.Stdout)
	return err
}
