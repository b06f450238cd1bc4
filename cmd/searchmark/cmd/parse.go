package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/searchmark/internal/output"
	"github.com/Aman-CERP/searchmark/internal/query"
)

func newParseCmd(a *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "parse <query>",
		Short: "Show how a query is classified",
		Long: `Parse a search query and print its type (simple, phrase or complex),
quoted phrases, boolean operators, word count and normalized form.`,
		Example: `  searchmark parse '"error handling" AND go'
  searchmark parse --json 'go OR rust AND zig'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := query.ParseSearchQuery(strings.Join(args, " "))
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), p)
			}

			w := cmd.OutOrStdout()
			out := output.New(w, a.color(w), false)
			out.Summary([]output.KV{
				{Key: "type", Value: p.QueryType.String()},
				{Key: "normalized", Value: p.NormalizedQuery},
				{Key: "words", Value: fmt.Sprint(p.WordCount)},
				{Key: "phrases", Value: quoteAll(p.PhraseParts)},
				{Key: "operators", Value: strings.Join(p.DetectedOperators, " ")},
			})
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newTermsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "terms <query>",
		Short: "List the terms a query highlights",
		Long: `Print the match terms extracted from a query, one per line, in the
order they are extracted: each phrase followed by its words, then the
remaining words. Highlighting matches longer terms first.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			terms := query.ExtractTerms(strings.Join(args, " "))
			a.logger.Debug("terms", "count", len(terms))
			for _, t := range terms {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), t); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func quoteAll(parts []string) string {
	q := make([]string, len(parts))
	for i, p := range parts {
		q[i] = fmt.Sprintf("%q", p)
	}
	return strings.Join(q, ", ")
}
