package cli

import (
	"context"
	"errors"

	"slidedeck-cli/internal/tui"

	"github.com/spf13/cobra"
)

// runTUI starts the interactive editor. Logs go to <config-dir>/slidedeck.log so
// they do not draw over the screen.
func runTUI(cmd *cobra.Command, app *App) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	dir, _, err := resolveConfig(app)
	if err != nil {
		return writeErr(cmd, err)
	}
	f, err := logFile(dir)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer f.Close()

	s, err := openSession(ctx, app, f)
	if err != nil {
		return writeErr(cmd, err)
	}
	runErr := tui.Run(ctx, tui.Deps{
		Deck:      s.Deck,
		Form:      s.Form,
		Persister: s.Persister,
		Exporter:  s.Exporter,
		Autosaver: s.Autosaver,
		Log:       s.Log,
	})
	// The program may have been stopped by ctx; flushing still needs a live one.
	if err := errors.Join(runErr, s.Close(context.WithoutCancel(ctx))); err != nil {
		return writeErr(cmd, err)
	}
	return nil
}
