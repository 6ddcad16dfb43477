package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-p4form/internal/prompt"
)

func newFixCommand(a *app) *cobra.Command {
	var (
		rulesPath string
		output    string
		yes       bool
	)

	cmd := &cobra.Command{
		Use:   "fix <form>",
		Short: "Interactively repair the invalid fields of a job form",
		Long: `Validate a job form, then prompt for a new value for every field that
fails its rule. Answers are checked against the same rule; an empty answer
removes the field. The repaired form is printed (or written to --output).

The command exits with status 2 when fields are still invalid afterwards.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			f, err := readForm(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			table, source, err := a.rulesTable(rulesPath)
			if err != nil {
				return err
			}
			checker, err := a.checker()
			if err != nil {
				return err
			}
			if err := checker.CheckTable(table); err != nil {
				return fmt.Errorf("cli: rules %s: %w", source, err)
			}

			invalid, err := f.Validate(ctx, checker, table)
			if err != nil {
				return err
			}

			driver := a.opts.driver
			if driver == nil {
				driver = prompt.NewSurveyDriver(cmd.ErrOrStderr())
			}
			if len(invalid) == 0 {
				if err := driver.Info(ctx, "All fields are valid."); err != nil {
					return err
				}
			}

			repairer := prompt.NewRepairer(driver, checker, table,
				prompt.WithConfirm(!yes),
				prompt.WithLogger(a.logger.Named("prompt")))
			repaired, remaining, err := repairer.Repair(ctx, f, invalid)
			if err != nil {
				return err
			}
			a.logger.Debug("repair finished",
				zap.Strings("invalid", invalid),
				zap.Strings("remaining", remaining))

			if err := writeOutput(cmd.OutOrStdout(), output, func(w io.Writer) error {
				return repaired.Print(w)
			}); err != nil {
				return err
			}
			if len(remaining) > 0 {
				return fmt.Errorf("%w: %v still invalid", ErrInvalidForms, remaining)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&rulesPath, "rules", "r", "", "Rule table file or directory")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the repaired form to a file")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Apply changes without asking for confirmation")
	return cmd
}
