package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/spf13/cobra"

	smerrors "github.com/Aman-CERP/searchmark/internal/errors"
	"github.com/Aman-CERP/searchmark/internal/logging"
)

func newLogsCmd(a *app) *cobra.Command {
	var (
		lines   int
		follow  bool
		level   string
		pattern string
		runID   string
		file    string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View searchmark logs",
		Long: `Print recent entries of the searchmark log file, optionally following it.

Entries can be filtered by minimum level, by a regular expression over the
raw line, or by the run id of one batch.`,
		Example: `  searchmark logs -n 50
  searchmark logs --level warn -f
  searchmark logs --run 3f2a9c1e`,
		Annotations: map[string]string{configOptional: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := logging.FindLogFile(file, a.cfg.Logging.File)
			if err != nil {
				return err
			}

			vcfg := logging.ViewerConfig{Level: level, RunID: runID}
			vcfg.NoColor = !a.color(cmd.OutOrStdout())
			if pattern != "" {
				re, err := regexp.Compile(pattern)
				if err != nil {
					return smerrors.ValidationError(fmt.Sprintf("invalid --grep pattern %q", pattern), err)
				}
				vcfg.Pattern = re
			}
			v := logging.NewViewer(vcfg, cmd.OutOrStdout())

			entries, err := v.Tail(path, lines)
			if err != nil {
				return err
			}
			v.Print(entries)
			if !follow {
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return followLog(ctx, v, path)
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new entries")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level: debug, info, warn or error")
	cmd.Flags().StringVar(&pattern, "grep", "", "Only entries matching this regular expression")
	cmd.Flags().StringVar(&runID, "run", "", "Only entries from this batch run id")
	cmd.Flags().StringVar(&file, "file", "", "Log file (default from config)")

	return cmd
}

func followLog(ctx context.Context, v *logging.Viewer, path string) error {
	entries := make(chan logging.Entry, 64)
	errc := make(chan error, 1)
	go func() {
		errc <- v.Follow(ctx, path, entries)
	}()
	for {
		select {
		case e := <-entries:
			v.Print([]logging.Entry{e})
		case err := <-errc:
			return err
		}
	}
}
