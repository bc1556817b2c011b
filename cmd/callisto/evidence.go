package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"mercator-hq/callisto/pkg/cli"
	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/evidence"
	"mercator-hq/callisto/pkg/evidence/export"
	"mercator-hq/callisto/pkg/evidence/query"
	"mercator-hq/callisto/pkg/evidence/retention"
)

var evidenceFlags struct {
	backend        string
	timeRange      string
	framework      string
	control        string
	correlationKey string
	status         string
	limit          int
	offset         int
	sortBy         string
	sortOrder      string
	format         string
	output         string
}

var evidenceCmd = &cobra.Command{
	Use:   "evidence",
	Short: "Query the evidence archive",
	Long: `Query and export archived evidence records for audit.

The evidence command provides access to the local evidence archive for
querying, exporting, and retention enforcement.

Subcommands:
  query   - Query evidence records with filters
  prune   - Enforce the retention policy once

Examples:
  # Query the last day
  callisto evidence query --time-range "2026-08-23T00:00:00Z/2026-08-24T00:00:00Z"

  # All evidence for one business operation
  callisto evidence query --correlation-key "req-9f2c"

  # Export GDPR evidence to a CSV file
  callisto evidence query --framework gdpr --format csv --output evidence.csv`,
}

var evidenceQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query evidence records",
	Long: `Query archived evidence records with various filters.

Time Range Format:
  RFC3339 interval format: "start/end"
  Example: "2026-08-23T00:00:00Z/2026-08-24T00:00:00Z"

Examples:
  # Filter by framework and control
  callisto evidence query --framework gdpr --control Art.15

  # Failed operations only
  callisto evidence query --status ended_error

  # Export to JSON
  callisto evidence query --format json --output evidence.json`,
	RunE: queryEvidence,
}

var evidencePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Enforce the retention policy once",
	Long: `Delete archived evidence records outside the configured retention
window and above the configured record cap, archiving them to files
first when archive_before_delete is set. Uses the retention settings
from the config file.`,
	RunE: pruneEvidence,
}

func init() {
	rootCmd.AddCommand(evidenceCmd)
	evidenceCmd.AddCommand(evidenceQueryCmd, evidencePruneCmd)

	// Flags for query command
	evidenceQueryCmd.Flags().StringVar(&evidenceFlags.backend, "backend", "", "backend: sqlite, memory (uses config if not specified)")
	evidenceQueryCmd.Flags().StringVar(&evidenceFlags.timeRange, "time-range", "", "time range (RFC3339 interval: start/end)")
	evidenceQueryCmd.Flags().StringVar(&evidenceFlags.framework, "framework", "", "filter by framework")
	evidenceQueryCmd.Flags().StringVar(&evidenceFlags.control, "control", "", "filter by control id")
	evidenceQueryCmd.Flags().StringVar(&evidenceFlags.correlationKey, "correlation-key", "", "filter by correlation key")
	evidenceQueryCmd.Flags().StringVar(&evidenceFlags.status, "status", "", "filter by status (ended_ok, ended_error)")
	evidenceQueryCmd.Flags().IntVar(&evidenceFlags.limit, "limit", 100, "max results")
	evidenceQueryCmd.Flags().IntVar(&evidenceFlags.offset, "offset", 0, "pagination offset")
	evidenceQueryCmd.Flags().StringVar(&evidenceFlags.sortBy, "sort-by", "", "sort field (started_at, ended_at, recorded_at)")
	evidenceQueryCmd.Flags().StringVar(&evidenceFlags.sortOrder, "sort-order", "", "sort order (asc, desc)")
	evidenceQueryCmd.Flags().StringVar(&evidenceFlags.format, "format", "text", "output format: text, json, csv")
	evidenceQueryCmd.Flags().StringVarP(&evidenceFlags.output, "output", "o", "", "output file (default: stdout)")

	// Flags for prune command
	evidencePruneCmd.Flags().StringVar(&evidenceFlags.backend, "backend", "", "backend: sqlite, memory")
}

// openArchive opens the archive backend named by the --backend flag,
// falling back to the configured one.
func openArchive(cfg *config.Config) (evidence.Storage, error) {
	if evidenceFlags.backend != "" {
		cfg.Archive.Backend = evidenceFlags.backend
	}
	return buildStorage(cfg)
}

func queryEvidence(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	store, err := openArchive(cfg)
	if err != nil {
		return cli.NewCommandError("evidence", err)
	}
	defer store.Close()

	// Build query
	q := &evidence.Query{
		Framework:      evidenceFlags.framework,
		ControlID:      evidenceFlags.control,
		CorrelationKey: evidenceFlags.correlationKey,
		Status:         evidenceFlags.status,
		Limit:          evidenceFlags.limit,
		Offset:         evidenceFlags.offset,
		SortBy:         evidenceFlags.sortBy,
		SortOrder:      evidenceFlags.sortOrder,
	}

	// Parse time range
	if evidenceFlags.timeRange != "" {
		parts := strings.Split(evidenceFlags.timeRange, "/")
		if len(parts) != 2 {
			return fmt.Errorf("invalid time range format (expected: start/end)")
		}

		startTime, err := time.Parse(time.RFC3339, parts[0])
		if err != nil {
			return fmt.Errorf("invalid start time: %w", err)
		}
		q.StartTime = &startTime

		endTime, err := time.Parse(time.RFC3339, parts[1])
		if err != nil {
			return fmt.Errorf("invalid end time: %w", err)
		}
		q.EndTime = &endTime
	}

	query.ApplyDefaults(q)
	if err := query.Validate(q); err != nil {
		return cli.NewCommandError("evidence", err)
	}

	ctx := context.Background()
	records, err := store.Query(ctx, q)
	if err != nil {
		return cli.NewCommandError("evidence", fmt.Errorf("query failed: %w", err))
	}

	// Output results
	var output *os.File
	if evidenceFlags.output != "" {
		output, err = os.Create(evidenceFlags.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer output.Close()
	} else {
		output = os.Stdout
	}

	switch evidenceFlags.format {
	case "json":
		return export.NewJSONExporter(true).Export(ctx, records, output)
	case "csv":
		return export.NewCSVExporter(true).Export(ctx, records, output)
	default:
		return outputEvidenceText(output, records, q)
	}
}

func outputEvidenceText(output *os.File, records []*evidence.EvidenceRecord, q *evidence.Query) error {
	if q.StartTime != nil && q.EndTime != nil {
		fmt.Fprintf(output, "Time range: %s to %s\n",
			q.StartTime.Format(time.RFC3339),
			q.EndTime.Format(time.RFC3339))
	}
	fmt.Fprintf(output, "Total records: %d\n", len(records))
	fmt.Fprintln(output)

	if len(records) == 0 {
		fmt.Fprintln(output, "No records found.")
		return nil
	}

	for i, record := range records {
		if i > 0 {
			fmt.Fprintln(output)
		}

		fmt.Fprintf(output, "Span ID: %s\n", record.SpanID)
		fmt.Fprintf(output, "Control: %s/%s", record.Framework, record.ControlID)
		if record.ControlTitle != "" {
			fmt.Fprintf(output, " (%s)", record.ControlTitle)
		}
		fmt.Fprintln(output)
		fmt.Fprintf(output, "Correlation Key: %s\n", record.CorrelationKey)
		fmt.Fprintf(output, "Status: %s\n", record.Status)
		fmt.Fprintf(output, "Started: %s\n", record.StartedAt.Format(time.RFC3339))
		fmt.Fprintf(output, "Duration: %s\n", record.EndedAt.Sub(record.StartedAt))
		if record.Error != nil {
			fmt.Fprintf(output, "Error: %s", record.Error.Message)
			if record.Error.Kind != "" {
				fmt.Fprintf(output, " (kind: %s)", record.Error.Kind)
			}
			fmt.Fprintln(output)
		}
		for _, attr := range record.Inputs {
			fmt.Fprintf(output, "  in  %s = %v\n", attr.Key, attr.Value)
		}
		for _, attr := range record.Outputs {
			fmt.Fprintf(output, "  out %s = %v\n", attr.Key, attr.Value)
		}

		// Show limited output for large result sets
		if i >= 9 && len(records) > 10 {
			remaining := len(records) - 10
			fmt.Fprintln(output)
			fmt.Fprintf(output, "... and %d more records\n", remaining)
			fmt.Fprintf(output, "Use --limit and --offset for pagination.\n")
			break
		}
	}

	return nil
}

func pruneEvidence(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	store, err := openArchive(cfg)
	if err != nil {
		return cli.NewCommandError("evidence", err)
	}
	defer store.Close()

	ctx := context.Background()
	pruner := retention.NewPruner(store, &retention.Config{
		RetentionDays:       cfg.Retention.Days,
		ArchiveBeforeDelete: cfg.Retention.ArchiveBeforeDelete,
		ArchivePath:         cfg.Retention.ArchivePath,
		MaxRecords:          cfg.Retention.MaxRecords,
	})
	pruned, err := pruner.Prune(ctx)
	if err != nil {
		return cli.NewCommandError("evidence", err)
	}

	remaining, err := store.Count(ctx, &evidence.Query{})
	if err != nil {
		return cli.NewCommandError("evidence", fmt.Errorf("count failed: %w", err))
	}

	fmt.Printf("✓ Pruned %d records (%d remaining)\n", pruned, remaining)
	return nil
}
