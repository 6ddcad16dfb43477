package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEmailCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "email <user>...",
		Short: "Print the email address on file for each user",
		Long: `Print "user<TAB>email" for each user. Arguments that already contain "@"
are echoed unchanged. Users without an address are printed with an empty
email and make the command exit with status 2.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			set, err := a.validators()
			if err != nil {
				return err
			}

			var missing []string
			for _, user := range args {
				email, ok := set.Email(ctx, user)
				if !ok {
					missing = append(missing, user)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", user, email)
			}
			if len(missing) > 0 {
				return fmt.Errorf("%w: %v", ErrNoEmail, missing)
			}
			return nil
		},
	}
}
