package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ca-srg/minisearch/internal/metrics"
	"github.com/ca-srg/minisearch/internal/search"
)

var (
	statsDBPath string
	statsDays   int
	statsOutput string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show search outcome statistics",
	Long: `
Show how many searches ended with each outcome, as recorded by the server
in the statistics database (STATS_DB_PATH, default ~/.minisearch/stats.db).

Examples:
  minisearch stats
  minisearch stats --days 30
  minisearch stats --output json
`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsDBPath, "db", "", "Statistics database path (overrides STATS_DB_PATH)")
	statsCmd.Flags().IntVarP(&statsDays, "days", "d", 7, "Number of days to include in the daily breakdown")
	statsCmd.Flags().StringVarP(&statsOutput, "output", "o", outputText, "Output format: text|json|yaml")
}

// ResetStatsState restores the stats flags to their defaults.
func ResetStatsState() {
	statsDBPath = ""
	statsDays = 7
	statsOutput = outputText
}

type statsReport struct {
	Database string                   `json:"database" yaml:"database"`
	Totals   map[search.Outcome]int64 `json:"totals" yaml:"totals"`
	Daily    []dailyStats             `json:"daily" yaml:"daily"`
}

type dailyStats struct {
	Date    string         `json:"date" yaml:"date"`
	Outcome search.Outcome `json:"outcome" yaml:"outcome"`
	Count   int64          `json:"count" yaml:"count"`
}

func runStats(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(strings.TrimSpace(statsOutput))
	switch format {
	case outputText, outputJSON, outputYAML:
	default:
		return fmt.Errorf("unsupported output format %q (want text, json or yaml)", statsOutput)
	}

	dbPath := statsDBPath
	if dbPath == "" {
		cfg, _, err := loadConfig(io.Discard)
		if err != nil {
			return err
		}
		if !cfg.StatsEnabled {
			return fmt.Errorf("search statistics are disabled (STATS_ENABLED=false)")
		}
		dbPath = cfg.StatsDBPath
	}

	store, err := metrics.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open statistics database: %w", err)
	}
	defer store.Close()

	totals, err := store.GetAllTotals()
	if err != nil {
		return err
	}
	daily, err := store.GetDailyCounts(statsDays)
	if err != nil {
		return err
	}

	report := statsReport{Database: dbPath, Totals: totals, Daily: make([]dailyStats, 0, len(daily))}
	for _, dc := range daily {
		report.Daily = append(report.Daily, dailyStats{Date: dc.Date, Outcome: dc.Outcome, Count: dc.Count})
	}

	return printStats(os.Stdout, format, report)
}

func printStats(w io.Writer, format string, report statsReport) error {
	switch format {
	case outputJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	case outputYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(report); err != nil {
			return err
		}
		return encoder.Close()
	}

	var total int64
	for _, count := range report.Totals {
		total += count
	}

	fmt.Fprintf(w, "Search statistics (%s)\n", report.Database)
	fmt.Fprintf(w, "Total searches: %d\n\n", total)
	fmt.Fprintln(w, "By outcome:")
	for _, outcome := range search.AllOutcomes {
		fmt.Fprintf(w, "  %-18s %d\n", outcome, report.Totals[outcome])
	}

	fmt.Fprintln(w, "\nDaily breakdown:")
	if len(report.Daily) == 0 {
		fmt.Fprintln(w, "  (no searches recorded)")
		return nil
	}
	for _, dc := range report.Daily {
		fmt.Fprintf(w, "  %s  %-18s %d\n", dc.Date, dc.Outcome, dc.Count)
	}
	return nil
}
