// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/biblio-engine/internal/scival"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <api> <id>",
	Short: "Resolve a SciVal entity and its research metrics",
	Long: `Lookup resolves one SciVal entity and prints its identity together
with the requested research metrics. Responses are cached per entity
and metric combination.

APIs and identifiers:
  author   an author by Scopus author ID or EID
  country  a country by name, or a whole region with --region

Metric types: ` + strings.Join(scival.MetricTypes, ", ") + `.`,
	Args: cobra.ExactArgs(2),
	RunE: runLookup,
}

func init() {
	lookupCmd.Flags().String("metrics", "", "metric types to fetch, comma-separated (default ScholarlyOutput)")
	lookupCmd.Flags().String("year-range", "", "measurement window, e.g. 5yrs or 10yrs")
	lookupCmd.Flags().Bool("exclude-self-citations", false, "drop the entity's own citations from citation metrics")
	lookupCmd.Flags().Bool("region", false, "treat the identifier as a region name (country only)")
	lookupCmd.Flags().Int("limit", 0, "maximum country matches (default 100)")
	lookupCmd.Flags().String("refresh", "", "refetch policy: true, false, or a maximum cache age in days")
	lookupCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
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
	metricsFlag, _ := cmd.Flags().GetString("metrics")
	var metricTypes []string
	if metricsFlag != "" {
		for _, m := range strings.Split(metricsFlag, ",") {
			metricTypes = append(metricTypes, strings.TrimSpace(m))
		}
	}
	jsonOut, _ := cmd.Flags().GetBool("json")

	ctx := cmd.Context()
	switch api {
	case "author":
		l, err := scival.NewAuthorLookup(ctx, eng, id, scival.AuthorLookupOptions{
			MetricTypes: metricTypes,
			Refresh:     refresh,
		})
		if err != nil {
			return err
		}
		metrics := l.Metrics()
		yearRange, _ := cmd.Flags().GetString("year-range")
		excludeSelf, _ := cmd.Flags().GetBool("exclude-self-citations")
		if yearRange != "" || excludeSelf {
			metrics, err = l.FetchMetrics(ctx, eng, scival.MetricsOptions{
				Types:                metricTypes,
				YearRange:            yearRange,
				ExcludeSelfCitations: excludeSelf,
				Refresh:              refresh,
			})
			if err != nil {
				return err
			}
		}
		if jsonOut {
			return printJSON(struct {
				Name    string            `json:"name"`
				ID      string            `json:"id"`
				URI     string            `json:"uri"`
				Metrics []scival.Metric   `json:"metrics"`
				Source  map[string]string `json:"dataSource,omitempty"`
			}{l.Name(), l.AuthorID(), l.URI(), metrics, l.DataSource()})
		}
		fmt.Printf("Name:       %s\n", l.Name())
		fmt.Printf("Author ID:  %s\n", l.AuthorID())
		printMetrics(metrics)
		printDataSource(l.DataSource())

	case "country":
		byRegion, _ := cmd.Flags().GetBool("region")
		limit, _ := cmd.Flags().GetInt("limit")
		l, err := scival.NewCountryLookup(ctx, eng, id, scival.CountryLookupOptions{
			ByRegion: byRegion,
			Limit:    limit,
			Refresh:  refresh,
		})
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(l.Countries())
		}
		for _, c := range l.Countries() {
			fmt.Printf("%-4s  %-6s  %s\n", c.ID, c.Code, c.Name)
		}
		if len(metricTypes) > 0 {
			yearRange, _ := cmd.Flags().GetString("year-range")
			excludeSelf, _ := cmd.Flags().GetBool("exclude-self-citations")
			metrics, err := l.FetchMetrics(ctx, eng, scival.MetricsOptions{
				Types:                metricTypes,
				YearRange:            yearRange,
				ExcludeSelfCitations: excludeSelf,
				Refresh:              refresh,
			})
			if err != nil {
				return err
			}
			fmt.Printf("\nMetrics for %s:\n", l.Name())
			printMetrics(metrics)
		}

	default:
		return fmt.Errorf("unknown lookup API %q: use author or country", api)
	}
	return nil
}

// printMetrics renders each metric with its yearly breakdown.
func printMetrics(metrics []scival.Metric) {
	for _, m := range metrics {
		fmt.Printf("%s:", m.Type)
		if len(m.Values) == 0 {
			fmt.Printf(" %v\n", m.Value)
			printByYear(m.ValueByYear)
			continue
		}
		fmt.Println()
		for _, v := range m.Values {
			label := v.CollabType
			if label == "" {
				label = fmt.Sprintf("top %d%%", v.Threshold)
			}
			fmt.Printf("  %s: %v\n", label, v.Value)
			printByYear(v.ValueByYear)
		}
	}
}

func printByYear(byYear map[string]float64) {
	years := make([]string, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Strings(years)
	for _, y := range years {
		fmt.Printf("    %s: %v\n", y, byYear[y])
	}
}

func printDataSource(source map[string]string) {
	if len(source) == 0 {
		return
	}
	keys := make([]string, 0, len(source))
	for k := range source {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+source[k])
	}
	fmt.Printf("Data source: %s\n", strings.Join(parts, " "))
}
