package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/errant/internal/extract"
)

// ExtractOptions holds flags for the extract command.
type ExtractOptions struct {
	*RootOptions

	Index          int
	Album          bool
	PreferUsername bool
}

// NewExtractCommand creates the extract command, a dry-run preview of what
// add would register from a source page.
func NewExtractCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExtractOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "extract <source-url>",
		Short: "Preview the metadata extracted from a source page",
		Long: `Fetch a source page and print the metadata add would register, without
writing anything. Useful for checking what a site yields before committing
a work.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, opts, args[0])
		},
	}

	cmd.Flags().IntVar(&opts.Index, "index", 0, "pick the nth image of a multi-image page (1-based)")
	cmd.Flags().BoolVar(&opts.Album, "album", false, "extract every image of the page as an album")
	cmd.Flags().BoolVar(&opts.PreferUsername, "prefer-username", false, "credit the artist by account handle instead of display name")
	cmd.MarkFlagsMutuallyExclusive("index", "album")

	return cmd
}

func runExtract(cmd *cobra.Command, opts *ExtractOptions, sourceURL string) error {
	session := NewSession(opts.RootOptions)
	defer session.Close()

	md, err := session.Extractors().Extract(cmd.Context(), sourceURL, extract.Options{
		Index:          opts.Index,
		Album:          opts.Album,
		PreferUsername: opts.PreferUsername,
	})
	if err != nil {
		var unsupported *extract.UnsupportedSourceError
		if errors.As(err, &unsupported) {
			return WrapExitError(ExitCommandError, "unsupported source", err)
		}
		return WrapExitError(ExitFailure, "extract metadata", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Title:   %s\n", md.Title)
	for i, artist := range md.Artists {
		label := "Artist:"
		if i > 0 {
			label = "Alias: "
		}
		fmt.Fprintf(out, "%s  %s\n", label, artist)
	}
	if md.Series != nil {
		fmt.Fprintf(out, "Series:  %s\n", *md.Series)
	}
	fmt.Fprintf(out, "NSFW:    %s\n", yn(md.NSFW))
	if len(md.ImageURLs) > 0 {
		fmt.Fprintf(out, "Album:   %d images\n", len(md.ImageURLs))
		for i, u := range md.ImageURLs {
			fmt.Fprintf(out, "  %d. %s\n", i+1, u)
		}
	} else {
		fmt.Fprintf(out, "Image:   %s\n", md.ImageURL)
	}
	fmt.Fprintf(out, "Source:  %s\n", md.SourceURL)
	return nil
}
