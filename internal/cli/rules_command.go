package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-p4form/pkg/validators"
)

func newRulesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect rule tables",
	}
	cmd.AddCommand(newRulesCheckCommand(a), newRulesPredicatesCommand())
	return cmd
}

func newRulesCheckCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check [path]...",
		Short: "Compile every rule in a table without querying the server",
		Long: `Compile every rule of one or more rule tables (files or directories) and
report malformed expressions, unknown predicates and wrong argument counts.
Without arguments the table from the configuration file is checked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{""}
			}
			checker, err := a.checker()
			if err != nil {
				return err
			}
			for _, path := range args {
				table, source, err := a.rulesTable(path)
				if err != nil {
					return err
				}
				if err := checker.CheckTable(table); err != nil {
					return fmt.Errorf("cli: rules %s: %w", source, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rule(s) ok\n", source, len(table.Fields()))
			}
			return nil
		},
	}
}

func newRulesPredicatesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "predicates",
		Short: "List the predicates rules may call",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), strings.Join(validators.Names(), "\n"))
			return err
		},
	}
}
