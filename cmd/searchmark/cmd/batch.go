package cmd

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	smerrors "github.com/Aman-CERP/searchmark/internal/errors"
	"github.com/Aman-CERP/searchmark/internal/highlight"
	"github.com/Aman-CERP/searchmark/internal/memo"
	"github.com/Aman-CERP/searchmark/internal/results"
)

type batchFlags struct {
	query       string
	inputFormat string
	format      string
	workers     int
	cacheSize   int
	telemetry   bool
	quiet       bool
}

func newBatchCmd(a *app) *cobra.Command {
	var f batchFlags

	cmd := &cobra.Command{
		Use:   "batch <file|->",
		Short: "Highlight a file of search results",
		Long: `Highlight every result in a JSON, JSON-lines or YAML file concurrently.

Each result may carry title, content, author, tags, matched_fields and a
search_context. Output keeps input order. When --query is empty each
result's search_context.normalized_query is used.`,
		Example: `  searchmark batch -q "go servers" results.json
  upstream-search | searchmark batch --input-format jsonl --format json -
  searchmark batch --workers 16 --telemetry -q rust results.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, a, f, args[0])
		},
	}

	cmd.Flags().StringVarP(&f.query, "query", "q", "", "Search query (default: each result's search context)")
	cmd.Flags().StringVar(&f.inputFormat, "input-format", "", "Input format: json, jsonl or yaml (default: from extension)")
	cmd.Flags().StringVar(&f.format, "format", "", "Output format: text, json, yaml or html (default from config)")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Concurrent workers (default from config)")
	cmd.Flags().IntVar(&f.cacheSize, "cache-size", 0, "Memoized field results, 0 disables (default from config)")
	cmd.Flags().BoolVar(&f.telemetry, "telemetry", false, "Record this batch in local telemetry")
	cmd.Flags().BoolVar(&f.quiet, "quiet", false, "Suppress progress and summary on stderr")

	return cmd
}

func runBatch(cmd *cobra.Command, a *app, f batchFlags, path string) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	inFormat := results.FormatFromPath(path)
	if f.inputFormat != "" {
		var err error
		if inFormat, err = results.ParseFormat(f.inputFormat); err != nil {
			return err
		}
	}
	outFormat := strings.ToLower(f.format)
	if outFormat == "" {
		outFormat = strings.ToLower(a.cfg.Output.Format)
	}
	if outFormat != "yaml" {
		var err error
		if outFormat, err = outputFormat(outFormat, ""); err != nil {
			return err
		}
	}

	data, err := a.readInput(path)
	if err != nil {
		return err
	}
	items, err := results.Decode(bytes.NewReader(data), inFormat)
	if err != nil {
		return err
	}
	if limit := a.cfg.Limits.MaxBatchItems; limit > 0 && len(items) > limit {
		return smerrors.New(smerrors.ErrCodeInvalidInput,
			fmt.Sprintf("batch has %d results, limit is %d", len(items), limit), nil).
			WithSuggestion("Raise limits.max_batch_items in the config, or split the input")
	}

	workers := a.cfg.Batch.Workers
	if flags.Changed("workers") {
		workers = f.workers
	}
	var cache *memo.Cache
	cacheSize := a.cfg.Batch.CacheSize
	if flags.Changed("cache-size") {
		cacheSize = f.cacheSize
	}
	if cacheSize > 0 {
		cache = memo.New(cacheSize)
	}

	metrics, closeMetrics := a.openMetrics(ctx, f.telemetry || a.cfg.Telemetry.Enabled)
	defer closeMetrics()

	status := a.status(cmd)
	hcfg := results.Config{
		Workers:   workers,
		Overrides: a.cfg.FieldOverrides(),
		Cache:     cache,
		Metrics:   metrics,
		Logger:    a.logger,
	}
	if !f.quiet {
		hcfg.Progress = func(done, total int) {
			status.Progress(done, total, "highlighting")
		}
	}
	h := results.New(hcfg)

	batch, err := h.HighlightBatch(ctx, items, f.query)
	if err != nil {
		return smerrors.New(smerrors.ErrCodeCanceled, "batch cancelled", err)
	}

	degraded := 0
	for _, r := range batch.Results {
		degraded += countDegraded(r)
	}
	attrs := []any{
		slog.String("run_id", batch.RunID),
		slog.Int("results", len(batch.Results)),
		slog.Int("degraded_fields", degraded),
	}
	if cache != nil {
		st := cache.Stats()
		attrs = append(attrs, slog.Int("cache_hits", int(st.Hits)), slog.Int("cache_misses", int(st.Misses)))
	}
	a.logger.Info("batch_written", attrs...)

	if err := writeBatch(cmd.OutOrStdout(), a, outFormat, batch); err != nil {
		return err
	}

	if !f.quiet {
		status.Successf("highlighted %d results in %s (run %s)",
			len(batch.Results), msToDuration(batch.ElapsedMs).Round(time.Millisecond), shortID(batch.RunID))
		if degraded > 0 {
			status.Warningf("%d fields fell back to plain text", degraded)
		}
	}
	return nil
}

func writeBatch(w io.Writer, a *app, format string, b *results.Batch) error {
	switch format {
	case "json":
		return writeJSON(w, b)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(b); err != nil {
			return err
		}
		return enc.Close()
	case "html":
		return writeBatchHTML(w, b)
	default:
		r := a.renderer(w)
		for i, hr := range b.Results {
			if i > 0 {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			if err := r.Result(w, hr); err != nil {
				return err
			}
		}
		return nil
	}
}

// writeBatchHTML writes one <article> per result. Field markup is already
// sanitized; ids and labels are escaped here.
func writeBatchHTML(w io.Writer, b *results.Batch) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<section class=\"search-results\" data-run-id=\"%s\">\n", html.EscapeString(b.RunID))
	for _, hr := range b.Results {
		fmt.Fprintf(&sb, "<article data-id=\"%s\">\n", html.EscapeString(hr.ID))
		for _, f := range append(append([]highlight.FieldType{}, hr.Primary...), hr.Secondary...) {
			for _, res := range fieldResults(hr, f) {
				if res.HTML == "" {
					continue
				}
				fmt.Fprintf(&sb, "  <div class=\"field field-%s\">%s</div>\n", f, res.HTML)
			}
		}
		sb.WriteString("</article>\n")
	}
	sb.WriteString("</section>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func fieldResults(hr results.HighlightedResult, f highlight.FieldType) []highlight.Result {
	switch f {
	case highlight.FieldTitle:
		return []highlight.Result{hr.Title}
	case highlight.FieldContent:
		return []highlight.Result{hr.Content}
	case highlight.FieldAuthor:
		return []highlight.Result{hr.Author}
	case highlight.FieldTags:
		return hr.Tags
	default:
		return nil
	}
}

func countDegraded(hr results.HighlightedResult) int {
	n := 0
	for _, f := range highlight.Fields() {
		for _, res := range fieldResults(hr, f) {
			if res.Degraded {
				n++
			}
		}
	}
	return n
}

func msToDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
