package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/songdeck/internal/config"
	"github.com/harrison/songdeck/internal/logger"
	"github.com/harrison/songdeck/internal/schema"
)

// NewValidateCommand creates and returns the validate subcommand
func NewValidateCommand() *cobra.Command {
	var (
		sections []string
		purpose  string
	)

	cmd := &cobra.Command{
		Use:   "validate <config.toml>",
		Short: "Check a config file without running anything",
		Long: `Parse and validate a config file, checking for:
  - Unknown sections and options
  - Both [TRAIN] and [LEARNCURVE] in one file
  - Missing required options for the active purpose
  - Option types, paths and installed models
  - Mutually exclusive options

Use --sections to check only some sections. Sections left out are not
parsed at all, so errors in them are not reported.

Exit code: 0 if valid, 1 if errors found`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			p, err := schema.ParsePurpose(purpose)
			if err != nil {
				return err
			}
			path, err := absConfig(args[0])
			if err != nil {
				return err
			}
			reg, err := a.registry()
			if err != nil {
				return err
			}
			cfg, err := config.FromPath(path, config.LoadOptions{
				Sections: sections,
				Purpose:  p,
				Registry: reg,
			})
			if err != nil {
				return err
			}
			printValidation(a.out, a.log, cfg)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&sections, "sections", nil, "Only validate these sections (e.g. PREP,SPECT_PARAMS)")
	cmd.Flags().StringVar(&purpose, "purpose", "", "Validate as if for this command: train, learncurve, eval, predict")

	return cmd
}

func printValidation(out io.Writer, log logger.Logger, cfg *config.Config) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen, color.Bold)

	bold.Fprintf(out, "%s\n", cfg.Path)
	fmt.Fprintf(out, "  purpose: %s\n", cfg.Purpose)
	for _, s := range cfg.Parsed() {
		v := cfg.Values(s)
		sch, _ := schema.Lookup(s)
		set, total := len(v.Raw()), len(sch.Options)
		logger.LogSectionParsed(log, string(s), set, total)
		fmt.Fprintf(out, "  [%s] %d of %d options set\n", s, set, total)
	}
	green.Fprintln(out, "valid")
}
