package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-p4form/pkg/form"
)

func newParseCommand(a *app) *cobra.Command {
	var reserved bool

	cmd := &cobra.Command{
		Use:   "parse <form>",
		Short: "Parse a job form and print its fields",
		Long: `Parse a job form and print every field as "name: value" followed by a
blank line. Comments and the reserved EJPUserID, EJPChain and EJPRevNum fields
are not reproduced; pass --reserved to print them as comments first.

Use "-" to read the form from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := readForm(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if reserved {
				if uid, ok := f.UserID(); ok {
					fmt.Fprintf(out, "# %s: %s\n", form.FieldUserID, uid)
				}
				fmt.Fprintf(out, "# %s: %s\n", form.FieldChain, strings.Join(f.Chain(), " "))
				fmt.Fprintf(out, "# %s: %s\n\n", form.FieldRevNum, strings.Join(f.RevNum(), " "))
			}
			return f.Print(out)
		},
	}

	cmd.Flags().BoolVar(&reserved, "reserved", false, "Print the reserved fields as comments")
	return cmd
}
