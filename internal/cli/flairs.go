package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewListFlairsCommand creates the list-flairs command.
func NewListFlairsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list-flairs <destination>",
		Short: "List the link flairs a destination offers",
		Long: `List the link flairs available at a destination, with the ids the
--flair-id flags expect. Moderator-only flairs are omitted.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			session := NewSession(rootOpts)
			defer session.Close()

			provider, err := session.Boards()
			if err != nil {
				return err
			}
			flairs, err := provider.LinkFlairs(cmd.Context(), args[0])
			if err != nil {
				return WrapExitError(ExitFailure, "list flairs", err)
			}

			usable := 0
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			for _, f := range flairs {
				if f.ModOnly {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\n", f.Text, f.ID)
				usable++
			}
			tw.Flush()

			if usable == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No usable flairs at %s.\n", args[0])
			}
			return nil
		},
	}
	return cmd
}
