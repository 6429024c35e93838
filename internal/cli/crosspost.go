package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/errant/internal/store"
)

// CrosspostOptions holds flags for the crosspost command.
type CrosspostOptions struct {
	*RootOptions

	Destinations []string
	FlairID      string
	Tag          string
}

// NewCrosspostCommand creates the crosspost command.
func NewCrosspostCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CrosspostOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "crosspost <work-id>",
		Short: "Post an already-registered work to more destinations",
		Long: `Attach new destinations to a registered work and post to them.

Destinations the work is already paired with are skipped; policy failures
(missing series, missing flair) are reported per destination without
failing the rest.

Example:
  errant crosspost 42 -d sketches,wallpapers --flair-id art-1`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrosspost(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Destinations, "destinations", "d", nil, "destinations to post to (comma-separated)")
	cmd.Flags().StringVar(&opts.FlairID, "flair-id", "", "flair to apply at every destination")
	cmd.Flags().StringVar(&opts.Tag, "tag", "", "title tag to append at tag-requiring destinations")
	_ = cmd.MarkFlagRequired("destinations")

	return cmd
}

func runCrosspost(cmd *cobra.Command, opts *CrosspostOptions, arg string) error {
	workID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return NewExitError(ExitCommandError, "work id must be a number")
	}

	ctx := cmd.Context()
	session := NewSession(opts.RootOptions)
	defer session.Close()

	st, err := session.Store()
	if err != nil {
		return err
	}

	work, err := st.WorkByID(ctx, workID)
	if err != nil {
		return WrapExitError(ExitFailure, "look up work", err)
	}

	specs := submissionSpecs(opts.Destinations, opts.FlairID, opts.Tag)
	reportAddResults(cmd.OutOrStdout(), st.AddSubmissions(ctx, work.ID, specs))

	eng, err := session.Engine()
	if err != nil {
		return err
	}
	if _, err := eng.UploadIfNeeded(ctx, work); err != nil {
		return WrapExitError(ExitFailure, "mirror image", err)
	}

	return postFiltered(cmd, eng, store.PendingFilter{
		WorkIDs:      []int64{work.ID},
		Destinations: opts.Destinations,
	})
}
