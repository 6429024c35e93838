package cli

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// DeletePostOptions holds flags for the delete-post command.
type DeletePostOptions struct {
	*RootOptions

	Ref        string
	KeepRemote bool
}

// NewDeletePostCommand creates the delete-post command.
func NewDeletePostCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeletePostOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "delete-post [submission-id]",
		Short: "Take a post down and return its submission to pending",
		Long: `Delete a submission's remote post (and the bot's replies under it) and
clear its posted state so a later retry posts it again.

The submission is named either by its id or by --ref with the provider post
reference or permalink URL. A submission that was never posted is simply
cleared; --keep-remote clears the local state without touching the post.

Example:
  errant delete-post 17
  errant delete-post --ref https://boards.example/r/painting/comments/ab12cd/dawn/`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeletePost(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.Ref, "ref", "", "provider post reference or permalink URL")
	cmd.Flags().BoolVar(&opts.KeepRemote, "keep-remote", false, "clear local state only, leave the remote post up")

	return cmd
}

func runDeletePost(cmd *cobra.Command, opts *DeletePostOptions, args []string) error {
	if (len(args) == 0) == (opts.Ref == "") {
		return NewExitError(ExitCommandError, "name the submission by id or by --ref, not both")
	}

	ctx := cmd.Context()
	session := NewSession(opts.RootOptions)
	defer session.Close()

	eng, err := session.Engine()
	if err != nil {
		return err
	}

	if len(args) > 0 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return NewExitError(ExitCommandError, "submission id must be a number")
		}
		if err := eng.UndoPost(ctx, id, opts.KeepRemote); err != nil {
			return WrapExitError(ExitFailure, "delete post", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Submission %d returned to pending.\n", id)
		return nil
	}

	ref, err := parsePostRef(opts.Ref)
	if err != nil {
		return WrapExitError(ExitCommandError, "bad --ref", err)
	}
	if err := eng.UndoPostByRef(ctx, ref, opts.KeepRemote); err != nil {
		return WrapExitError(ExitFailure, "delete post", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Post %s returned to pending.\n", ref)
	return nil
}

// parsePostRef accepts either a bare provider post reference or a permalink
// URL with a /comments/{ref}/ path segment.
func parsePostRef(s string) (string, error) {
	if !strings.Contains(s, "/") {
		return s, nil
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", s, err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, part := range parts {
		if part == "comments" && i+1 < len(parts) {
			return parts[i+1], nil
		}
	}
	return "", fmt.Errorf("no post reference in %q", s)
}
