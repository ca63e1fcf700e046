package cli

import (
	"fmt"
	"strconv"
	"strings"

	"slidedeck-cli/internal/form"
	"slidedeck-cli/internal/model"

	"github.com/spf13/cobra"
)

// Box ids are assigned in slide order each time a slide is loaded, so within one
// command they match the order `boxes list` prints.
type boxRow struct {
	ID       int           `json:"id"`
	Type     model.BoxType `json:"type"`
	Heading  string        `json:"heading"`
	Content  string        `json:"content"`
	ImageURL string        `json:"imageURL,omitempty"`
}

func boxRows(f *form.Form) []boxRow {
	rows := make([]boxRow, 0)
	for _, b := range f.Boxes() {
		rows = append(rows, boxRow{
			ID:       b.ID,
			Type:     b.Type,
			Heading:  b.Heading.Value,
			Content:  b.Content.Value,
			ImageURL: b.ImageURL.Value,
		})
	}
	return rows
}

func newBoxesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "boxes",
		Aliases: []string{"box"},
		Short:   "Content box commands",
	}
	cmd.AddCommand(newBoxesListCmd(app))
	cmd.AddCommand(newBoxesAddCmd(app))
	cmd.AddCommand(newBoxesDeleteCmd(app))
	return cmd
}

func newBoxesListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list <position>",
		Short: "List the boxes of a slide",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(s *Session) error {
				if _, err := selectArg(s, args[0]); err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": boxRows(s.Form)})
			})
		},
	}
}

func newBoxesAddCmd(app *App) *cobra.Command {
	var (
		typ     string
		heading string
		content string
		image   string
	)
	cmd := &cobra.Command{
		Use:   "add <position>",
		Short: "Append a box to a slide",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(s *Session) error {
				if _, err := selectArg(s, args[0]); err != nil {
					return err
				}
				t := model.BoxType(strings.ToLower(strings.TrimSpace(typ)))
				// Checked up front so a rejected flag does not leave a half-built box behind.
				if cmd.Flags().Changed("image") && t != model.BoxTypeCharacter {
					return fmt.Errorf("%s boxes have no image", t)
				}
				id, err := s.Form.AddBox(t)
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("heading") {
					if err := s.Form.SetBoxField(id, form.FieldBoxHeading, heading); err != nil {
						return err
					}
				}
				if cmd.Flags().Changed("content") {
					if err := s.Form.SetBoxField(id, form.FieldBoxContent, content); err != nil {
						return err
					}
				}
				if cmd.Flags().Changed("image") {
					if err := s.Form.SetBoxField(id, form.FieldBoxImageURL, image); err != nil {
						return err
					}
				}
				for _, r := range boxRows(s.Form) {
					if r.ID == id {
						return writeOut(cmd, app, map[string]any{"data": r})
					}
				}
				return errNotFound("box", strconv.Itoa(id))
			})
		},
	}
	cmd.Flags().StringVar(&typ, "type", string(model.BoxTypeDescription), "Box type (description|character)")
	cmd.Flags().StringVar(&heading, "heading", "", "Box heading")
	cmd.Flags().StringVar(&content, "content", "", "Box content (supports **bold** and *italic*)")
	cmd.Flags().StringVar(&image, "image", "", "Image URL (character boxes)")
	return cmd
}

func newBoxesDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <position> <box-id>",
		Short: "Delete a box from a slide",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(s *Session) error {
				if _, err := selectArg(s, args[0]); err != nil {
					return err
				}
				id, err := strconv.Atoi(strings.TrimSpace(args[1]))
				if err != nil {
					return fmt.Errorf("invalid box id %q", args[1])
				}
				if !s.Form.DeleteBox(id) {
					return errNotFound("box", args[1])
				}
				return writeOut(cmd, app, map[string]any{"data": boxRows(s.Form)})
			})
		},
	}
}
