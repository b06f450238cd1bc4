package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	smerrors "github.com/Aman-CERP/searchmark/internal/errors"
	"github.com/Aman-CERP/searchmark/internal/highlight"
	"github.com/Aman-CERP/searchmark/internal/query"
	"github.com/Aman-CERP/searchmark/internal/telemetry"
)

type highlightFlags struct {
	query         string
	field         string
	maxLength     int
	caseSensitive bool
	noEllipsis    bool
	singleColor   bool
	format        string
	telemetry     bool
}

func newHighlightCmd(a *app) *cobra.Command {
	var f highlightFlags

	cmd := &cobra.Command{
		Use:   "highlight [text|-]",
		Short: "Highlight query terms in a piece of text",
		Long: `Highlight the terms of --query inside text.

The text is the first argument, or standard input when the argument is "-"
or missing. --field applies that field's profile (length limit, color
variant) before the flags given here.`,
		Example: `  searchmark highlight -q "fast go" "Go makes fast servers"
  cat article.txt | searchmark highlight -q '"error handling"' -f content --max-length 200
  searchmark highlight -q rob -f author --format html "Rob Pike"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHighlight(cmd, a, f, args)
		},
	}

	cmd.Flags().StringVarP(&f.query, "query", "q", "", "Search query (required)")
	cmd.Flags().StringVarP(&f.field, "field", "f", "content", "Field profile: title, content, author or tags")
	cmd.Flags().IntVar(&f.maxLength, "max-length", 0, "Truncate output to this many characters (0 disables)")
	cmd.Flags().BoolVar(&f.caseSensitive, "case-sensitive", false, "Match case exactly")
	cmd.Flags().BoolVar(&f.noEllipsis, "no-ellipsis", false, "Do not append ... to truncated output")
	cmd.Flags().BoolVar(&f.singleColor, "single-color", false, "Use one color for every term")
	cmd.Flags().StringVar(&f.format, "format", "", "Output format: text, json or html (default from config)")
	cmd.Flags().BoolVar(&f.telemetry, "telemetry", false, "Record this call in local telemetry")
	_ = cmd.MarkFlagRequired("query")

	return cmd
}

func runHighlight(cmd *cobra.Command, a *app, f highlightFlags, args []string) error {
	field, err := parseField(f.field)
	if err != nil {
		return err
	}
	format, err := outputFormat(f.format, a.cfg.Output.Format)
	if err != nil {
		return err
	}

	var text string
	if len(args) == 1 && args[0] != "-" {
		text = args[0]
	} else {
		data, err := a.readInput("-")
		if err != nil {
			return err
		}
		text = strings.TrimRight(string(data), "\r\n")
	}

	opts := a.cfg.HighlightOptions(field)
	flags := cmd.Flags()
	if flags.Changed("max-length") {
		opts.MaxLength = highlight.Int(f.maxLength)
	}
	if flags.Changed("case-sensitive") {
		opts.CaseSensitive = highlight.Bool(f.caseSensitive)
	}
	if flags.Changed("no-ellipsis") {
		opts.ShowEllipsis = highlight.Bool(!f.noEllipsis)
	}
	if flags.Changed("single-color") {
		opts.SingleColor = highlight.Bool(f.singleColor)
	}

	engine := highlight.New(highlight.WithClock(telemetry.SystemClock))
	res := engine.WithFieldContext(text, f.query, field, opts)

	a.logger.Debug("highlight",
		slog.String("field", string(field)),
		slog.Int("matches", res.TotalMatches()),
		slog.Bool("truncated", res.Truncated),
		slog.Float64("execution_ms", res.Performance.ExecutionTime))
	if res.Degraded {
		a.logger.Warn("highlight_sanitize_fallback", slog.String("field", string(field)))
		a.status(cmd).Warning("markup could not be sanitized; printing plain text")
	}

	metrics, closeMetrics := a.openMetrics(cmd.Context(), f.telemetry || a.cfg.Telemetry.Enabled)
	defer closeMetrics()
	if metrics != nil {
		metrics.Record(telemetry.HighlightEvent{
			Query:      f.query,
			QueryType:  query.ParseSearchQuery(f.query).QueryType.String(),
			Terms:      query.ExtractTerms(f.query),
			MatchCount: res.TotalMatches(),
			Truncated:  res.Truncated,
			Latency:    msToDuration(res.Performance.ExecutionTime),
		})
	}

	return writeHighlight(cmd.OutOrStdout(), a, format, res)
}

func writeHighlight(w io.Writer, a *app, format string, res highlight.Result) error {
	switch format {
	case "json":
		return writeJSON(w, res)
	case "html":
		_, err := fmt.Fprintln(w, res.HTML)
		return err
	default:
		_, err := fmt.Fprintln(w, a.renderer(w).Markup(res.HTML))
		return err
	}
}

// parseField validates a --field value.
func parseField(s string) (highlight.FieldType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "tag" {
		return highlight.FieldTags, nil
	}
	for _, f := range highlight.Fields() {
		if string(f) == name {
			return f, nil
		}
	}
	return "", smerrors.New(smerrors.ErrCodeInvalidField, fmt.Sprintf("unknown field %q", s), nil).
		WithSuggestion("Use one of: title, content, author, tags")
}

// outputFormat resolves --format against the configured default.
func outputFormat(flag, configured string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(flag))
	if f == "" {
		f = strings.ToLower(configured)
	}
	switch f {
	case "", "text":
		return "text", nil
	case "json", "html":
		return f, nil
	default:
		return "", smerrors.New(smerrors.ErrCodeInvalidFormat, fmt.Sprintf("unknown output format %q", flag), nil).
			WithSuggestion("Use one of: text, json, html")
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
