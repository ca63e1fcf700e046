package cli

import (
	"bufio"
	"fmt"
	"strings"

	"slidedeck-cli/internal/deck"
	"slidedeck-cli/internal/export"
	"slidedeck-cli/internal/form"
	"slidedeck-cli/internal/model"
	"slidedeck-cli/internal/render"

	"github.com/spf13/cobra"
)

type slideRow struct {
	Position    int    `json:"position"`
	Number      int    `json:"number"`
	ID          string `json:"id"`
	BannerTitle string `json:"bannerTitle"`
	MainHeading string `json:"mainHeading"`
	Boxes       int    `json:"boxes"`
	Current     bool   `json:"current"`
}

type slideDetail struct {
	Position int `json:"position"`
	model.Slide
}

func newSlidesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "slides",
		Aliases: []string{"slide"},
		Short:   "Slide commands",
	}
	cmd.AddCommand(newSlidesListCmd(app))
	cmd.AddCommand(newSlidesAddCmd(app))
	cmd.AddCommand(newSlidesShowCmd(app))
	cmd.AddCommand(newSlidesPreviewCmd(app))
	cmd.AddCommand(newSlidesEditCmd(app))
	cmd.AddCommand(newSlidesDeleteCmd(app))
	cmd.AddCommand(newSlidesMoveCmd(app))
	return cmd
}

func newSlidesListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List slides in presentation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(s *Session) error {
				cur := s.Deck.CurrentIndex()
				rows := make([]slideRow, 0)
				for i, sl := range s.Deck.Snapshot() {
					rows = append(rows, slideRow{
						Position:    i + 1,
						Number:      sl.Number,
						ID:          sl.ID,
						BannerTitle: sl.BannerTitle,
						MainHeading: sl.MainHeading,
						Boxes:       len(sl.Boxes),
						Current:     i == cur,
					})
				}
				return writeOut(cmd, app, map[string]any{"data": rows})
			})
		},
	}
}

// slideFlags are the slide-level fields settable from the command line. Description
// takes source markup (**bold**, *italic*).
type slideFlags struct {
	banner      string
	heading     string
	description string
}

func (f *slideFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.banner, "banner", "", "Banner title")
	cmd.Flags().StringVar(&f.heading, "heading", "", "Main heading")
	cmd.Flags().StringVar(&f.description, "description", "", "Description (supports **bold** and *italic*)")
}

func (f *slideFlags) apply(cmd *cobra.Command, fm *form.Form) error {
	set := []struct {
		flag  string
		field form.Field
		value string
	}{
		{"banner", form.FieldBannerTitle, f.banner},
		{"heading", form.FieldMainHeading, f.heading},
		{"description", form.FieldDescription, f.description},
	}
	for _, s := range set {
		if !cmd.Flags().Changed(s.flag) {
			continue
		}
		if err := fm.SetField(s.field, s.value); err != nil {
			return err
		}
	}
	return nil
}

func currentDetail(s *Session) (slideDetail, error) {
	cur, ok := s.Deck.Current()
	if !ok {
		return slideDetail{}, deck.ErrNoSelection
	}
	return slideDetail{Position: s.Deck.CurrentIndex() + 1, Slide: cur}, nil
}

func newSlidesAddCmd(app *App) *cobra.Command {
	var flags slideFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a slide",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(s *Session) error {
				s.Deck.AddSlide()
				if err := flags.apply(cmd, s.Form); err != nil {
					return err
				}
				d, err := currentDetail(s)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": d})
			})
		},
	}
	flags.register(cmd)
	return cmd
}

// selectArg selects the slide named by a 1-based position argument.
func selectArg(s *Session, arg string) (int, error) {
	idx, err := parsePosition(arg, s.Deck.Count())
	if err != nil {
		return 0, err
	}
	s.Deck.SelectSlide(idx)
	return idx, nil
}

func newSlidesShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <position>",
		Short: "Show a slide",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(s *Session) error {
				if _, err := selectArg(s, args[0]); err != nil {
					return err
				}
				d, err := currentDetail(s)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": d})
			})
		},
	}
}

func newSlidesPreviewCmd(app *App) *cobra.Command {
	var document bool
	cmd := &cobra.Command{
		Use:   "preview <position>",
		Short: "Print the rendered HTML of a slide",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(s *Session) error {
				idx, err := selectArg(s, args[0])
				if err != nil {
					return err
				}
				cur, _ := s.Deck.Current()
				if !document {
					_, err := fmt.Fprint(cmd.OutOrStdout(), render.Fragment(cur))
					return err
				}
				b, err := export.Document(cur, idx, true)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(b)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&document, "document", false, "Print the standalone document instead of the fragment")
	return cmd
}

func newSlidesEditCmd(app *App) *cobra.Command {
	var flags slideFlags
	cmd := &cobra.Command{
		Use:   "edit <position>",
		Short: "Edit slide fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(s *Session) error {
				if _, err := selectArg(s, args[0]); err != nil {
					return err
				}
				if err := flags.apply(cmd, s.Form); err != nil {
					return err
				}
				d, err := currentDetail(s)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": d})
			})
		},
	}
	flags.register(cmd)
	return cmd
}

// promptConfirm asks on stderr and reads the answer from stdin.
func promptConfirm(cmd *cobra.Command) deck.ConfirmFunc {
	return func(prompt string) bool {
		fmt.Fprint(cmd.ErrOrStderr(), prompt+" [y/N] ")
		line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	}
}

func newSlidesDeleteCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <position>",
		Short: "Delete a slide",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(s *Session) error {
				idx, err := parsePosition(args[0], s.Deck.Count())
				if err != nil {
					return err
				}
				confirm := promptConfirm(cmd)
				if yes {
					confirm = deck.Confirmed
				}
				if !s.Deck.DeleteSlide(idx, confirm) {
					return deck.UserActionError{Msg: "delete cancelled"}
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{
					"deleted":   idx + 1,
					"remaining": s.Deck.Count(),
				}})
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newSlidesMoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move <from> <to>",
		Short: "Move a slide to another position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(s *Session) error {
				n := s.Deck.Count()
				from, err := parsePosition(args[0], n)
				if err != nil {
					return err
				}
				to, err := parsePosition(args[1], n)
				if err != nil {
					return err
				}
				moved := s.Deck.Reorder(from, to)
				return writeOut(cmd, app, map[string]any{"data": map[string]any{
					"from":  from + 1,
					"to":    to + 1,
					"moved": moved,
				}})
			})
		},
	}
}
