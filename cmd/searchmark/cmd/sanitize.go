package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/searchmark/internal/sanitize"
)

func newSanitizeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sanitize [file|-]",
		Short: "Strip markup down to safe highlight elements",
		Long: `Read markup from a file or standard input and print it with every
element except the highlight marker removed and all text escaped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			data, err := a.readInput(path)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), sanitize.Sanitize(string(data)))
			return err
		},
	}
}
