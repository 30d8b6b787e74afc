package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/songdeck/internal/models"
)

// NewModelsCommand creates the 'songdeck models' command
func NewModelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List installed models",
		Long: `List the models a config file can name in its models option.

Builtin models ship with songdeck. Install more by adding a model card
(a markdown file with name and entrypoint frontmatter) to the models
directory under the songdeck home.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			reg, err := a.registry()
			if err != nil {
				return err
			}
			printModels(a.out, reg.Cards(), a.settings.ModelsDir)
			return nil
		},
	}
}

func printModels(w io.Writer, cards []*models.Card, dir string) {
	cyan := color.New(color.FgCyan, color.Bold)
	gray := color.New(color.FgHiBlack)

	for _, c := range cards {
		cyan.Fprintf(w, "%s", c.Name)
		if c.Builtin {
			gray.Fprintf(w, " (builtin)")
		}
		fmt.Fprintln(w)
		if c.Title != c.Name {
			fmt.Fprintf(w, "  %s\n", c.Title)
		}
		if c.Description != "" {
			fmt.Fprintf(w, "  %s\n", c.Description)
		} else if c.Summary != "" {
			fmt.Fprintf(w, "  %s\n", c.Summary)
		}
		fmt.Fprintf(w, "  entrypoint: %s\n", c.Entrypoint)
		if c.Path != "" {
			gray.Fprintf(w, "  %s\n", c.Path)
		}
	}
	gray.Fprintf(w, "\nmodels directory: %s\n", dir)
}
