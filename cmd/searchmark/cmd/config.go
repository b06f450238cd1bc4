package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/searchmark/configs"
	"github.com/Aman-CERP/searchmark/internal/config"
	smerrors "github.com/Aman-CERP/searchmark/internal/errors"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage searchmark configuration files.

Configuration precedence (lowest to highest):
  1. Built-in defaults
  2. User config (~/.config/searchmark/config.yaml)
  3. Project config (.searchmark.yaml)
  4. Environment variables (SEARCHMARK_*)`,
		Example: `  # Create user config from template
  searchmark config init

  # Create a project config in the current directory
  searchmark config init --project

  # Show effective configuration
  searchmark config show`,
		Annotations: map[string]string{configOptional: "true"},
	}

	for _, sub := range []*cobra.Command{
		newConfigInitCmd(a),
		newConfigShowCmd(a),
		newConfigPathCmd(),
		newConfigBackupsCmd(),
		newConfigRestoreCmd(a),
	} {
		sub.Annotations = map[string]string{configOptional: "true"}
		cmd.AddCommand(sub)
	}
	return cmd
}

func newConfigInitCmd(a *app) *cobra.Command {
	var force, project bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file from the template",
		Long: `Create the user configuration file, or with --project a .searchmark.yaml
in the current directory. An existing file is kept unless --force is given,
in which case it is backed up first.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := a.status(cmd)

			path, template := config.GetUserConfigPath(), configs.UserConfigTemplate
			if project {
				cwd, err := os.Getwd()
				if err != nil {
					return smerrors.IOError("failed to get current directory", err)
				}
				path, template = filepath.Join(cwd, config.ProjectConfigFile), configs.ProjectConfigTemplate
			}

			var backup string
			if _, err := os.Stat(path); err == nil {
				if !force {
					return smerrors.New(smerrors.ErrCodeConfigExists, "configuration already exists", nil).
						WithDetail("path", path).
						WithSuggestion("Use --force to replace it (a backup is kept)")
				}
				b, err := config.BackupFile(path, a.now())
				if err != nil {
					return err
				}
				backup = b
			}

			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return smerrors.New(smerrors.ErrCodeConfigPermission, "failed to create config directory", err)
			}
			if err := os.WriteFile(path, []byte(template), 0o644); err != nil {
				return smerrors.New(smerrors.ErrCodeConfigPermission, "failed to write config file", err).
					WithDetail("path", path)
			}

			out.Successf("Created %s", path)
			if backup != "" {
				out.Statusf("", "Backup: %s", backup)
			}
			out.Status("", "Run 'searchmark config show' to verify")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing file, keeping a backup")
	cmd.Flags().BoolVar(&project, "project", false, "Create .searchmark.yaml in the current directory")
	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	var (
		jsonOutput bool
		source     string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Long: `Show the configuration after merging all sources, or a single source
with --source user|defaults.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var cfg *config.Config
			switch source {
			case "merged":
				// Reload so a broken file is reported rather than masked.
				root, err := config.FindProjectRoot(".")
				if err != nil {
					return err
				}
				if cfg, err = config.Load(root); err != nil {
					return err
				}
			case "user":
				user, err := config.LoadUserConfig()
				if err != nil {
					return err
				}
				if user == nil {
					return smerrors.New(smerrors.ErrCodeConfigNotFound, "no user configuration file", nil).
						WithDetail("path", config.GetUserConfigPath()).
						WithSuggestion("Run 'searchmark config init' to create one")
				}
				cfg = user
			case "defaults":
				cfg = config.NewConfig()
			default:
				return smerrors.ValidationError(fmt.Sprintf("unknown source %q (use merged, user or defaults)", source), nil)
			}

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), cfg)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return smerrors.InternalError("failed to encode config", err)
			}
			return enc.Close()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&source, "source", "merged", "Config source: merged, user or defaults")
	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print config file paths",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(w, config.GetUserConfigPath())
			if root, err := config.FindProjectRoot("."); err == nil {
				if p := config.ProjectConfigPath(root); p != "" {
					_, _ = fmt.Fprintln(w, p)
				}
			}
			return nil
		},
	}
}

func newConfigBackupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backups",
		Short: "List user config backups, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			backups, err := config.ListUserConfigBackups()
			if err != nil {
				return err
			}
			for _, b := range backups {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), b)
			}
			return nil
		},
	}
}

func newConfigRestoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore [backup]",
		Short: "Restore the user config from a backup (default: newest)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var backup string
			if len(args) == 1 {
				backup = args[0]
			} else {
				backups, err := config.ListUserConfigBackups()
				if err != nil {
					return err
				}
				if len(backups) == 0 {
					return smerrors.New(smerrors.ErrCodeConfigNotFound, "no config backups found", nil)
				}
				backup = backups[0]
			}
			if err := config.RestoreUserConfig(backup); err != nil {
				return err
			}
			a.status(cmd).Successf("Restored %s", backup)
			return nil
		},
	}
}
