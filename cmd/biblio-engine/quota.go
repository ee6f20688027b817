// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/biblio-engine/internal/journal"
)

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Show recent API spend from the request journal",
	Long: `Quota reads the request journal and reports the most recently observed
rate-limit quota together with the requests that spent it. The journal
must be enabled in the configuration (journal.enabled: true); without
it the engine never records spend.

Use --prune-days to drop journal entries older than the given number
of days.`,
	RunE: runQuota,
}

func init() {
	quotaCmd.Flags().Int("history", 20, "number of journal entries to list")
	quotaCmd.Flags().Int("prune-days", 0, "delete entries older than this many days")

	rootCmd.AddCommand(quotaCmd)
}

func runQuota(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cfg.Journal.Enabled {
		fmt.Println("The request journal is disabled; set journal.enabled: true to record API spend.")
		return nil
	}

	jrnl, err := journal.Open(cfg.Journal)
	if err != nil {
		return err
	}
	defer jrnl.Close()

	ctx := cmd.Context()
	if pruneDays, _ := cmd.Flags().GetInt("prune-days"); pruneDays > 0 {
		removed, err := jrnl.Prune(ctx, time.Now().AddDate(0, 0, -pruneDays))
		if err != nil {
			return err
		}
		fmt.Printf("pruned %d journal entries older than %d days\n", removed, pruneDays)
	}

	history, _ := cmd.Flags().GetInt("history")
	entries, err := jrnl.Recent(ctx, history)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No requests recorded yet.")
		return nil
	}

	// Entries come newest first, so the first quota-bearing one is the
	// latest word from the provider.
	for _, e := range entries {
		if e.QuotaRemaining >= 0 {
			fmt.Printf("Remaining quota: %d (as of %s)\n\n",
				e.QuotaRemaining, e.StartedAt.Local().Format("2006-01-02 15:04:05"))
			break
		}
	}

	fmt.Fprintf(os.Stdout, "%-16s  %-18s  %-10s  %-5s  %-7s  %-10s  %s\n",
		"When", "API", "Status", "Pages", "Entries", "Quota", "Duration")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 86))
	for _, e := range entries {
		quota := "-"
		if e.QuotaRemaining >= 0 {
			quota = fmt.Sprintf("%d", e.QuotaRemaining)
		}
		fmt.Fprintf(os.Stdout, "%-16s  %-18s  %-10s  %-5d  %-7d  %-10s  %s\n",
			e.StartedAt.Local().Format("01-02 15:04:05"), truncate(e.API, 18), e.Status,
			e.Pages, e.Entries, quota, e.Duration.Round(time.Millisecond))
	}
	fmt.Fprintf(os.Stdout, "\n%d journal entries\n", len(entries))
	return nil
}
