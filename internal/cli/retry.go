package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/errant/internal/engine"
)

// RetryOptions holds the shared selector flags of the retry commands.
type RetryOptions struct {
	*RootOptions

	Last         bool
	All          bool
	Destinations []string
}

// NewRetryPostCommand creates the retry-post command.
func NewRetryPostCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RetryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "retry-post [work-id...]",
		Short: "Retry pending submissions",
		Long: `Post every pending submission of the selected works.

Works are selected by explicit ids, by --last (the most recently registered
work), or by --all (every pending submission). Already-posted pairings are
never touched; a run over an all-posted selection reports nothing to do.

Example:
  errant retry-post 42 43
  errant retry-post 42 --destinations painting
  errant retry-post --last`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRetryPost(cmd, opts, args)
		},
	}

	addSelectorFlags(cmd, opts)
	cmd.Flags().StringSliceVar(&opts.Destinations, "destinations", nil, "restrict explicit work ids to these destinations")

	return cmd
}

// NewRetryUploadCommand creates the retry-upload command.
func NewRetryUploadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RetryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "retry-upload [work-id...]",
		Short: "Retry mirroring images that failed to upload",
		Long: `Mirror the images of selected works that still lack a hosted copy.

Album uploads resume with the first missing page; completed pages are never
re-uploaded.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRetryUpload(cmd, opts, args)
		},
	}

	addSelectorFlags(cmd, opts)

	return cmd
}

func addSelectorFlags(cmd *cobra.Command, opts *RetryOptions) {
	cmd.Flags().BoolVar(&opts.Last, "last", false, "select the most recently registered work")
	cmd.Flags().BoolVar(&opts.All, "all", false, "select every work")
	cmd.MarkFlagsMutuallyExclusive("last", "all")
}

// parseSelector turns positional work ids and the selector flags into an
// engine selector.
func parseSelector(opts *RetryOptions, args []string) (engine.Selector, error) {
	sel := engine.Selector{
		Last:         opts.Last,
		All:          opts.All,
		Destinations: opts.Destinations,
	}
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return engine.Selector{}, fmt.Errorf("work id %q must be a number", arg)
		}
		sel.WorkIDs = append(sel.WorkIDs, id)
	}
	if err := sel.Validate(); err != nil {
		return engine.Selector{}, err
	}
	return sel, nil
}

func runRetryPost(cmd *cobra.Command, opts *RetryOptions, args []string) error {
	sel, err := parseSelector(opts, args)
	if err != nil {
		return WrapExitError(ExitCommandError, "bad selection", err)
	}

	ctx := cmd.Context()
	session := NewSession(opts.RootOptions)
	defer session.Close()

	st, err := session.Store()
	if err != nil {
		return err
	}
	filter, err := engine.ResolveSelector(ctx, st, sel)
	if err != nil {
		return WrapExitError(ExitFailure, "resolve selection", err)
	}

	eng, err := session.Engine()
	if err != nil {
		return err
	}
	return postFiltered(cmd, eng, filter)
}

func runRetryUpload(cmd *cobra.Command, opts *RetryOptions, args []string) error {
	sel, err := parseSelector(opts, args)
	if err != nil {
		return WrapExitError(ExitCommandError, "bad selection", err)
	}

	ctx := cmd.Context()
	session := NewSession(opts.RootOptions)
	defer session.Close()

	st, err := session.Store()
	if err != nil {
		return err
	}
	filter, err := engine.ResolveSelector(ctx, st, sel)
	if err != nil {
		return WrapExitError(ExitFailure, "resolve selection", err)
	}

	eng, err := session.Engine()
	if err != nil {
		return err
	}
	n, err := eng.UploadPending(ctx, filter)
	if err != nil {
		return WrapExitError(ExitFailure, "mirror images", err)
	}
	if n == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to upload.")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Mirrored %d work(s).\n", n)
	return nil
}
