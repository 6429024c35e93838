package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewListWorksCommand creates the list-works command.
func NewListWorksCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "list-works",
		Short:         "List registered works",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			session := NewSession(rootOpts)
			defer session.Close()

			st, err := session.Store()
			if err != nil {
				return err
			}
			works, err := st.ListWorks(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "list works", err)
			}
			if len(works) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No works registered.")
				return nil
			}
			renderWorks(cmd.OutOrStdout(), works)
			return nil
		},
	}
	return cmd
}
