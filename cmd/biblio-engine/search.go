// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/biblio-engine/internal/scopus"
)

var searchCmd = &cobra.Command{
	Use:   "search <api> <query>",
	Short: "Run a paginated search and cache every page",
	Long: `Search runs a query against one of the search APIs and downloads every
result page into the cache. Subsequent identical searches are served
from disk without spending quota.

APIs: scopus (documents), author (author profiles), affiliation
(institution profiles).

The query uses the provider's boolean syntax, e.g.
  biblio-engine search scopus 'TITLE-ABS-KEY(network resilience) AND PUBYEAR > 2020'`,
	Args: cobra.ExactArgs(2),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("view", "", "response detail level (scopus only: STANDARD or COMPLETE)")
	searchCmd.Flags().Int("count", 0, "page size (0 = the API's maximum)")
	searchCmd.Flags().Int("max-entries", 0, "abort threshold for offset-paginated result counts (0 = config value)")
	searchCmd.Flags().Bool("no-download", false, "only report the match count, download nothing")
	searchCmd.Flags().Bool("no-cursor", false, "page by offset instead of cursor (scopus only)")
	searchCmd.Flags().String("refresh", "", "refetch policy: true, false, or a maximum cache age in days")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().Bool("yaml", false, "output results as YAML")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	api, query := args[0], args[1]

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if maxEntries, _ := cmd.Flags().GetInt("max-entries"); maxEntries > 0 {
		cfg.Requests.MaxSearchEntries = maxEntries
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
	count, _ := cmd.Flags().GetInt("count")
	countOnly, _ := cmd.Flags().GetBool("no-download")
	noCursor, _ := cmd.Flags().GetBool("no-cursor")

	ctx := cmd.Context()
	switch api {
	case "scopus":
		s, err := scopus.NewSearch(ctx, eng, query, scopus.SearchOptions{
			View:      view,
			Count:     count,
			Refresh:   refresh,
			NoCursor:  noCursor,
			CountOnly: countOnly,
			Verbose:   os.Stderr,
		})
		if err != nil {
			return err
		}
		return printScopusSearch(cmd, s, countOnly)

	case "author":
		s, err := scopus.NewAuthorSearch(ctx, eng, query, scopus.ProfileSearchOptions{
			Count:     count,
			Refresh:   refresh,
			CountOnly: countOnly,
			Verbose:   os.Stderr,
		})
		if err != nil {
			return err
		}
		if countOnly {
			fmt.Printf("%d matching author profiles\n", s.Total())
			return nil
		}
		return printAuthorSearch(cmd, s)

	case "affiliation":
		s, err := scopus.NewAffiliationSearch(ctx, eng, query, scopus.ProfileSearchOptions{
			Count:     count,
			Refresh:   refresh,
			CountOnly: countOnly,
			Verbose:   os.Stderr,
		})
		if err != nil {
			return err
		}
		if countOnly {
			fmt.Printf("%d matching affiliations\n", s.Total())
			return nil
		}
		return printAffiliationSearch(cmd, s)

	default:
		return fmt.Errorf("unknown search API %q: use scopus, author, or affiliation", api)
	}
}

func printScopusSearch(cmd *cobra.Command, s *scopus.Search, countOnly bool) error {
	if countOnly {
		fmt.Printf("%d matching documents\n", s.Total())
		return nil
	}
	if done, err := structuredOutput(cmd, s.Results()); done {
		return err
	}

	docs := s.Results()
	fmt.Fprintf(os.Stdout, "%-20s  %-10s  %-7s  %s\n", "EID", "Date", "Cited", "Title")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))
	for _, d := range docs {
		fmt.Fprintf(os.Stdout, "%-20s  %-10s  %-7s  %s\n",
			d.EID, d.CoverDate, d.CitedByCount, truncate(d.Title, 48))
	}
	fmt.Fprintf(os.Stdout, "\n%d of %d documents%s\n", len(docs), s.Total(), cacheNote(s.FromCache(), s.CacheAge()))
	return nil
}

func printAuthorSearch(cmd *cobra.Command, s *scopus.AuthorSearch) error {
	if done, err := structuredOutput(cmd, s.Results()); done {
		return err
	}

	hits := s.Results()
	fmt.Fprintf(os.Stdout, "%-12s  %-24s  %-30s  %s\n", "ID", "Name", "Affiliation", "Docs")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 78))
	for _, h := range hits {
		fmt.Fprintf(os.Stdout, "%-12s  %-24s  %-30s  %s\n",
			h.ID(), truncate(h.Preferred.IndexedName, 24), truncate(h.Affiliation.Name, 30), h.DocumentCount)
	}
	fmt.Fprintf(os.Stdout, "\n%d of %d author profiles%s\n", len(hits), s.Total(), cacheNote(s.FromCache(), s.CacheAge()))
	return nil
}

func printAffiliationSearch(cmd *cobra.Command, s *scopus.AffiliationSearch) error {
	if done, err := structuredOutput(cmd, s.Results()); done {
		return err
	}

	hits := s.Results()
	fmt.Fprintf(os.Stdout, "%-12s  %-36s  %-18s  %s\n", "ID", "Name", "City", "Country")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 80))
	for _, h := range hits {
		fmt.Fprintf(os.Stdout, "%-12s  %-36s  %-18s  %s\n",
			h.ID(), truncate(h.Name, 36), truncate(h.City, 18), h.Country)
	}
	fmt.Fprintf(os.Stdout, "\n%d of %d affiliations%s\n", len(hits), s.Total(), cacheNote(s.FromCache(), s.CacheAge()))
	return nil
}

// structuredOutput emits v as JSON or YAML when the matching flag is
// set, reporting whether it handled the output.
func structuredOutput(cmd *cobra.Command, v any) (bool, error) {
	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		return true, printJSON(v)
	}
	if yamlOut, _ := cmd.Flags().GetBool("yaml"); yamlOut {
		return true, printYAML(v)
	}
	return false, nil
}

// cacheNote renders the provenance suffix of a result summary.
func cacheNote(fromCache bool, ageDays int) string {
	if !fromCache {
		return ""
	}
	return fmt.Sprintf(" (cached, %dd old)", ageDays)
}
