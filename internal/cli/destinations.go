package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/errant/internal/boards"
	"github.com/roach88/errant/internal/store"
)

// DestinationOptions holds the policy flags shared by add-destination and
// edit-destination.
type DestinationOptions struct {
	*RootOptions

	TagSeries    bool
	RequireFlair bool
	RequireTag   bool
	SFWOnly      bool
	Disabled     bool
	SpacePosts   bool
	NoRehost     bool
	FlairID      string
	Force        bool
}

// NewAddDestinationCommand creates the add-destination command.
func NewAddDestinationCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DestinationOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add-destination <name>...",
		Short: "Register destinations without touching existing ones",
		Long: `Register destinations with the given policy.

Each name is checked against the provider first; boards that don't exist or
aren't writable are skipped unless --force is set. Names already registered
are left untouched - use edit-destination to change a stored policy.

Example:
  errant add-destination painting conceptart --require-flair --space-posts`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEditDestinations(cmd, opts, args, false)
		},
	}

	addPolicyFlags(cmd, opts)

	return cmd
}

// NewEditDestinationCommand creates the edit-destination command.
func NewEditDestinationCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DestinationOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "edit-destination <name>...",
		Short: "Change the stored policy of destinations",
		Long: `Change the stored policy of registered destinations.

Only the flags given on the command line are written; omitted fields keep
their stored values. Editing an unregistered name registers it.

Example:
  errant edit-destination painting --disabled
  errant edit-destination sketches --flair-id art-2 --require-flair`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEditDestinations(cmd, opts, args, true)
		},
	}

	addPolicyFlags(cmd, opts)

	return cmd
}

func addPolicyFlags(cmd *cobra.Command, opts *DestinationOptions) {
	cmd.Flags().BoolVar(&opts.TagSeries, "tag-series", false, "append the series to post titles")
	cmd.Flags().BoolVar(&opts.RequireFlair, "require-flair", false, "reject submissions without a flair")
	cmd.Flags().BoolVar(&opts.RequireTag, "require-tag", false, "reject submissions without a title tag")
	cmd.Flags().BoolVar(&opts.SFWOnly, "sfw-only", false, "never post NSFW works here")
	cmd.Flags().BoolVar(&opts.Disabled, "disabled", false, "keep submissions pending, never post")
	cmd.Flags().BoolVar(&opts.SpacePosts, "space-posts", false, "hold posts until a day after the previous one")
	cmd.Flags().BoolVar(&opts.NoRehost, "no-rehost", false, "link the original image instead of the mirrored copy")
	cmd.Flags().StringVar(&opts.FlairID, "flair-id", "", "default flair for submissions here")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "save even when the board is missing, private, or banned")
}

// destinationEdit builds the sparse edit from the flags actually given.
// Cobra's Changed tracking is what lets edit-destination leave omitted
// fields alone.
func destinationEdit(cmd *cobra.Command, opts *DestinationOptions) store.DestinationEdit {
	edit := store.DestinationEdit{}
	set := func(name string, target **bool, value bool) {
		if cmd.Flags().Changed(name) {
			v := value
			*target = &v
		}
	}
	set("tag-series", &edit.TagSeries, opts.TagSeries)
	set("require-flair", &edit.RequireFlair, opts.RequireFlair)
	set("require-tag", &edit.RequireTag, opts.RequireTag)
	set("sfw-only", &edit.SFWOnly, opts.SFWOnly)
	set("disabled", &edit.Disabled, opts.Disabled)
	set("space-posts", &edit.SpacePosts, opts.SpacePosts)
	set("no-rehost", &edit.Rehost, !opts.NoRehost)
	if cmd.Flags().Changed("flair-id") {
		f := opts.FlairID
		edit.FlairID = &f
	}
	return edit
}

func runEditDestinations(cmd *cobra.Command, opts *DestinationOptions, names []string, overwrite bool) error {
	ctx := cmd.Context()
	session := NewSession(opts.RootOptions)
	defer session.Close()

	eng, err := session.Engine()
	if err != nil {
		return err
	}

	edit := destinationEdit(cmd, opts)
	results, err := eng.EditDestinations(ctx, names, edit, opts.Force, overwrite)
	if err != nil {
		return WrapExitError(ExitFailure, "save destinations", err)
	}

	for _, res := range results {
		switch {
		case res.Status != boards.StatusOK && !res.Written:
			fmt.Fprintf(cmd.OutOrStdout(), "Skipped %s: board is %s\n", res.Name, res.Status)
		case res.Created:
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (board is %s)\n", res.Name, res.Status)
		case res.Written:
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s (board is %s)\n", res.Name, res.Status)
		default:
			fmt.Fprintf(cmd.OutOrStdout(), "Left %s unchanged; use edit-destination to modify it\n", res.Name)
		}
	}
	return nil
}

// NewListDestinationsCommand creates the list-destinations command.
func NewListDestinationsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "list-destinations",
		Short:         "List registered destinations and their policies",
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
			dests, err := st.ListDestinations(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "list destinations", err)
			}
			if len(dests) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No destinations registered.")
				return nil
			}
			renderDestinations(cmd.OutOrStdout(), dests)
			return nil
		},
	}
	return cmd
}
