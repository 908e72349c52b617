// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/genescout/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect past runs (list, stats)",
	Long: `History reads the run-history SQLite database. Use list to see recent
runs with their evidence counts and token spend, or stats for per-tool
call counts, failure rates, and mean latency across all runs.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	RunE:  runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := history.NewStore(historyConfigFromViper())
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Recent(context.Background())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-19s  %-44s  %-8s  %-6s  %s\n",
		"ID", "When", "Query", "Records", "Tokens", "Status")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for _, r := range runs {
		query := r.Query
		if len(query) > 44 {
			query = query[:41] + "..."
		}
		status := "ok"
		if !r.Success {
			status = "failed: " + r.Error
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-19s  %-44s  %-8d  %-6d  %s\n",
			r.ID, r.Timestamp.Format("2006-01-02 15:04:05"), query,
			r.EvidenceCount, r.PromptTokens+r.CompletionTokens, status)
	}
	return nil
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-tool call counts, failures, and mean latency",
	RunE:  runHistoryStats,
}

func runHistoryStats(cmd *cobra.Command, args []string) error {
	store, err := history.NewStore(historyConfigFromViper())
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Stats(context.Background())
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-24s  %-6s  %-8s  %s\n", "Tool", "Calls", "Failures", "Avg (s)")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 54))
	for _, t := range stats {
		fmt.Fprintf(os.Stdout, "%-24s  %-6d  %-8d  %.2f\n", t.Tool, t.Calls, t.Failures, t.AvgDuration)
	}
	return nil
}

func init() {
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyStatsCmd)
	rootCmd.AddCommand(historyCmd)
}
