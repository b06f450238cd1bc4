// Package cmd provides the CLI commands for searchmark.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/searchmark/internal/config"
	smerrors "github.com/Aman-CERP/searchmark/internal/errors"
	"github.com/Aman-CERP/searchmark/internal/logging"
	"github.com/Aman-CERP/searchmark/internal/output"
	"github.com/Aman-CERP/searchmark/internal/profiling"
	"github.com/Aman-CERP/searchmark/internal/render"
	"github.com/Aman-CERP/searchmark/pkg/version"
)

// configOptional marks commands that still run on an unreadable config.
const configOptional = "config-optional"

// app is the state shared by one invocation of the root command.
type app struct {
	debug   bool
	noColor bool
	profile profiling.Options

	cfg     *config.Config
	logger  *slog.Logger
	session *profiling.Session
	cleanup []func()

	stdin io.Reader
	now   func() time.Time
}

func newApp() *app {
	return &app{
		cfg:    config.NewConfig(),
		logger: logging.Nop(),
		stdin:  os.Stdin,
		now:    time.Now,
	}
}

// NewRootCmd creates the root command for the searchmark CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(newApp())
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "searchmark",
		Short: "Highlight search terms in search results",
		Long: `searchmark marks the terms of a search query inside result text.

It parses the query into words and quoted phrases, wraps every match in a
colored <mark> element, truncates long fields around the first match and
sanitizes the output. Results can be printed on the terminal, as JSON or as
HTML, one text at a time or as concurrent batches.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("searchmark version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging (mirrored to stderr)")
	cmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")
	cmd.PersistentFlags().StringVar(&a.profile.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&a.profile.Mem, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&a.profile.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = a.start
	cmd.PersistentPostRunE = func(*cobra.Command, []string) error { return a.stop() }

	cmd.AddCommand(newHighlightCmd(a))
	cmd.AddCommand(newParseCmd(a))
	cmd.AddCommand(newTermsCmd(a))
	cmd.AddCommand(newSanitizeCmd(a))
	cmd.AddCommand(newBatchCmd(a))
	cmd.AddCommand(newStatsCmd(a))
	cmd.AddCommand(newConfigCmd(a))
	cmd.AddCommand(newLogsCmd(a))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// start loads config, then sets up logging and profiling.
func (a *app) start(cmd *cobra.Command, _ []string) error {
	root, err := config.FindProjectRoot(".")
	if err != nil {
		root, _ = os.Getwd()
	}
	cfg, loadErr := config.Load(root)
	if loadErr != nil {
		if cmd.Annotations[configOptional] == "" {
			return loadErr
		}
		cfg = config.NewConfig()
	}
	a.cfg = cfg

	logCfg := logging.Config{
		Level:     cfg.Logging.Level,
		FilePath:  cfg.Logging.File,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
	}
	if a.debug {
		logCfg.Level = "debug"
		logCfg.Stderr = cmd.ErrOrStderr()
	}
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return err
	}
	a.logger = logger
	prev := slog.Default()
	slog.SetDefault(logger)
	a.cleanup = append(a.cleanup, func() {
		slog.SetDefault(prev)
		cleanup()
	})

	if loadErr != nil {
		logger.LogAttrs(cmd.Context(), slog.LevelWarn, "config_load_failed", smerrors.LogAttrs(loadErr)...)
	}
	logger.Debug("command_start",
		slog.String("command", cmd.CommandPath()),
		slog.String("project_root", root),
		slog.String("version", version.Version))

	if a.profile.Enabled() {
		s, err := profiling.Start(a.profile)
		if err != nil {
			return err
		}
		a.session = s
	}
	return nil
}

// stop ends profiling and closes the log. Safe to call more than once.
func (a *app) stop() error {
	var err error
	if a.session != nil {
		err = a.session.Stop()
		a.session = nil
	}
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
	a.cleanup = nil
	return err
}

// color reports whether output to w should be colored.
func (a *app) color(w io.Writer) bool {
	if a.noColor {
		return false
	}
	return render.ParseColorMode(a.cfg.Output.Color).Enabled(w)
}

// renderer returns a terminal renderer for w.
func (a *app) renderer(w io.Writer) *render.Renderer {
	if a.noColor {
		return render.NewForMode(w, render.ColorNever)
	}
	return render.NewForMode(w, render.ParseColorMode(a.cfg.Output.Color))
}

// status returns a writer for progress and status lines on stderr.
func (a *app) status(cmd *cobra.Command) *output.Writer {
	w := cmd.ErrOrStderr()
	return output.New(w, a.color(w), render.IsTTY(w))
}

// Execute runs the root command and prints any error to stderr.
func Execute() error {
	a := newApp()
	cmd := newRootCmd(a)
	err := cmd.Execute()
	_ = a.stop()
	if err != nil {
		_, _ = fmt.Fprint(os.Stderr, smerrors.FormatForCLI(err))
	}
	return err
}
