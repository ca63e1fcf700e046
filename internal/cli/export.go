package cli

import (
	"context"

	"slidedeck-cli/internal/artifact"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

type fileRow struct {
	Name  string `json:"name"`
	Path  string `json:"path,omitempty"`
	Bytes int    `json:"bytes"`
	Size  string `json:"size"`
}

func toFileRow(f artifact.File) fileRow {
	return fileRow{Name: f.Name, Path: f.Path, Bytes: f.Size, Size: humanize.Bytes(uint64(f.Size))}
}

func newExportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export slides as HTML",
	}
	cmd.AddCommand(newExportSingleCmd(app))
	cmd.AddCommand(newExportAllCmd(app))
	cmd.AddCommand(newExportArchiveCmd(app))
	return cmd
}

func newExportSingleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "single [position]",
		Short: "Export one slide as a self-contained document (default: current slide)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(s *Session) error {
				ctx := cmd.Context()
				var (
					f   artifact.File
					err error
				)
				if len(args) == 1 {
					idx, perr := parsePosition(args[0], s.Deck.Count())
					if perr != nil {
						return perr
					}
					f, err = s.Exporter.ExportSingle(ctx, idx)
				} else {
					f, err = s.Exporter.ExportCurrent(ctx)
				}
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": toFileRow(f)})
			})
		},
	}
}

func newExportAllCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Export every slide as its own self-contained document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(s *Session) error {
				files, err := s.Exporter.ExportAll(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([]fileRow, 0, len(files))
				for _, f := range files {
					rows = append(rows, toFileRow(f))
				}
				return writeOut(cmd, app, map[string]any{"data": rows})
			})
		},
	}
}

func newExportArchiveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "archive",
		Short: "Export a zip with every slide, a shared stylesheet and an index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(s *Session) error {
				ctx := cmd.Context()
				ch, err := s.Exporter.ExportArchive(ctx)
				if err != nil {
					return err
				}
				select {
				case res := <-ch:
					if res.Err != nil {
						return res.Err
					}
					return writeOut(cmd, app, map[string]any{"data": toFileRow(res.File)})
				case <-ctx.Done():
					return context.Cause(ctx)
				}
			})
		},
	}
}
