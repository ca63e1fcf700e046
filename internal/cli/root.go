package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"slidedeck-cli/internal/deck"
	"slidedeck-cli/internal/format"

	"github.com/spf13/cobra"
)

type App struct {
	ConfigDir  string
	OutDir     string
	Overwrite  bool
	LogLevel   string
	PrettyJSON bool
	Format     string
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "slidedeck",
		Short:        "Slide deck builder (CLI + TUI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive editor
  slidedeck

  # Scriptable commands
  slidedeck slides add --heading "Welcome"
  slidedeck slides list
  slidedeck export archive --out ./dist

  # Direct slide lookup (shortcut for: slidedeck slides show 2)
  slidedeck 2
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive editor.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.ConfigDir, "config-dir", envOr("SLIDEDECK_CONFIG_DIR", ""), "Config/storage dir (default: ~/.slidedeck)")
	cmd.PersistentFlags().StringVar(&app.OutDir, "out", "", "Directory for exported and saved files (default: export.out_dir)")
	cmd.PersistentFlags().BoolVar(&app.Overwrite, "overwrite", false, "Replace existing files in the output directory")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "Log level (default: log.level)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("SLIDEDECK_FORMAT", "json"), "Output format (json|toml)")

	cmd.AddCommand(newSlidesCmd(app))
	cmd.AddCommand(newBoxesCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newProjectCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	var uae deck.UserActionError
	if errors.As(err, &uae) {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: "+err.Error())
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
