package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	smerrors "github.com/Aman-CERP/searchmark/internal/errors"
	"github.com/Aman-CERP/searchmark/internal/output"
	"github.com/Aman-CERP/searchmark/internal/telemetry"
)

func newStatsCmd(a *app) *cobra.Command {
	var (
		jsonOutput bool
		days       int
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show highlight telemetry",
		Long: `Display statistics recorded by highlight and batch runs with telemetry
enabled:
  - Highlight, zero-match and truncation totals
  - Query type distribution (simple/phrase/complex)
  - Latency distribution
  - Top query terms and recent zero-match queries`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.cfg.Telemetry.DBPath
			if _, err := os.Stat(path); err != nil {
				return smerrors.New(smerrors.ErrCodeFileNotFound, "no telemetry recorded yet", err).
					WithDetail("path", path).
					WithSuggestion("Enable telemetry.enabled in the config, or pass --telemetry to highlight or batch")
			}

			store, err := smerrors.RetryWithResult(cmd.Context(), smerrors.DefaultRetryConfig(),
				func() (*telemetry.SQLiteMetricsStore, error) {
					return telemetry.OpenSQLiteMetricsStore(path)
				})
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			report, err := telemetry.BuildReport(store, a.now(), days, limit)
			if err != nil {
				return smerrors.StorageError("failed to read telemetry", err)
			}

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			w := cmd.OutOrStdout()
			printReport(w, output.New(w, a.color(w), false), report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().IntVar(&days, "days", 7, "Number of days to include")
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of top terms and zero-match queries")

	return cmd
}

func printReport(w io.Writer, out *output.Writer, r *telemetry.Report) {
	_, _ = fmt.Fprintf(w, "Highlight statistics %s to %s\n\n", r.From, r.To)
	out.Summary([]output.KV{
		{Key: "highlights", Value: fmt.Sprint(r.Totals.Highlights)},
		{Key: "zero-match", Value: fmt.Sprintf("%d (%.1f%%)", r.Totals.ZeroMatch, r.ZeroMatchPct)},
		{Key: "truncated", Value: fmt.Sprint(r.Totals.Truncated)},
	})

	if len(r.QueryTypeCounts) > 0 {
		_, _ = fmt.Fprintln(w, "\nQuery types:")
		var rows []output.KV
		for _, qt := range []string{"simple", "phrase", "complex"} {
			if n, ok := r.QueryTypeCounts[qt]; ok {
				rows = append(rows, output.KV{Key: qt, Value: fmt.Sprint(n)})
			}
		}
		out.Summary(rows)
	}

	if len(r.LatencyDistribution) > 0 {
		_, _ = fmt.Fprintln(w, "\nLatency:")
		labels := map[telemetry.LatencyBucket]string{
			telemetry.BucketLT1:  "<1ms",
			telemetry.BucketLT5:  "1-5ms",
			telemetry.BucketLT10: "5-10ms",
			telemetry.BucketLT50: "10-50ms",
			telemetry.BucketSlow: ">=50ms",
		}
		var rows []output.KV
		for _, b := range telemetry.LatencyBuckets {
			if n, ok := r.LatencyDistribution[b]; ok {
				rows = append(rows, output.KV{Key: labels[b], Value: fmt.Sprint(n)})
			}
		}
		out.Summary(rows)
	}

	if len(r.TopTerms) > 0 {
		_, _ = fmt.Fprintln(w, "\nTop terms:")
		for i, tc := range r.TopTerms {
			_, _ = fmt.Fprintf(w, "  %d. %s (%d)\n", i+1, tc.Term, tc.Count)
		}
	} else {
		_, _ = fmt.Fprintln(w, "\nTop terms: (none recorded yet)")
	}

	if len(r.ZeroMatchQueries) > 0 {
		_, _ = fmt.Fprintln(w, "\nRecent zero-match queries:")
		for _, q := range r.ZeroMatchQueries {
			_, _ = fmt.Fprintf(w, "  - %q\n", q)
		}
	} else {
		_, _ = fmt.Fprintln(w, "\nRecent zero-match queries: (none)")
	}
}
