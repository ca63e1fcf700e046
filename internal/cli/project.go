package cli

import (
	"errors"
	"io"
	"os"
	"strings"

	"slidedeck-cli/internal/deck"
	"slidedeck-cli/internal/persist"

	"github.com/spf13/cobra"
)

func newProjectCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Save, load and inspect the project",
	}
	cmd.AddCommand(newProjectSaveCmd(app))
	cmd.AddCommand(newProjectLoadCmd(app))
	cmd.AddCommand(newProjectShowCmd(app))
	cmd.AddCommand(newProjectClearCmd(app))
	return cmd
}

func newProjectSaveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Write the project file to the output directory and to storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(s *Session) error {
				f, err := s.Persister.Save(cmd.Context())
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": toFileRow(f)})
			})
		},
	}
}

func newProjectLoadCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "load <file|->",
		Short: "Replace the deck with a saved project file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				b   []byte
				err error
			)
			if strings.TrimSpace(args[0]) == "-" {
				b, err = io.ReadAll(cmd.InOrStdin())
			} else {
				b, err = os.ReadFile(args[0])
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			return withSession(cmd, app, func(s *Session) error {
				proj, err := s.Persister.Load(cmd.Context(), b)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{
					"version":   proj.Version,
					"timestamp": proj.Timestamp,
					"slides":    len(proj.Slides),
				}})
			})
		},
	}
}

func newProjectShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the project held in storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(s *Session) error {
				proj, err := s.Persister.Stored(cmd.Context())
				if errors.Is(err, persist.ErrSlotEmpty) {
					return deck.UserActionError{Msg: "nothing saved yet"}
				}
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": proj})
			})
		},
	}
}

func newProjectClearCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget the project held in storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(s *Session) error {
				if !yes && !promptConfirm(cmd)("Clear the saved project?") {
					return deck.UserActionError{Msg: "clear cancelled"}
				}
				if err := s.Persister.Clear(cmd.Context()); err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"cleared": true}})
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
