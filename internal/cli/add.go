package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/errant/internal/engine"
	"github.com/roach88/errant/internal/extract"
	"github.com/roach88/errant/internal/store"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions

	Title          string
	Artist         string
	Series         string
	NSFW           bool
	SFW            bool
	Index          int
	Album          bool
	PreferUsername bool

	Destinations []string
	FlairID      string
	Tag          string
	NoPost       bool
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <source-url>",
		Short: "Register a work and cross-post it",
		Long: `Register a work from a source page URL, mirror its image, and post it
to the named destinations.

Metadata (title, artist, rating, image) is extracted from the source page
where the site is supported; any extracted field can be overridden with a
flag. Bare image URLs are accepted too, but then --title and --artist are
required.

Example:
  errant add https://www.artstation.com/artwork/abc123 -d painting,conceptart
  errant add https://cdn.example.com/piece.png --title "Dawn" --artist "ren" -d painting`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "", "override the extracted title")
	cmd.Flags().StringVar(&opts.Artist, "artist", "", "override the extracted artist name")
	cmd.Flags().StringVar(&opts.Series, "series", "", "series the work belongs to (omit for original works)")
	cmd.Flags().BoolVar(&opts.NSFW, "nsfw", false, "mark the work as NSFW regardless of the source rating")
	cmd.Flags().BoolVar(&opts.SFW, "sfw", false, "mark the work as SFW regardless of the source rating")
	cmd.Flags().IntVar(&opts.Index, "index", 0, "pick the nth image of a multi-image page (1-based)")
	cmd.Flags().BoolVar(&opts.Album, "album", false, "register every image of the page as an album")
	cmd.Flags().BoolVar(&opts.PreferUsername, "prefer-username", false, "credit the artist by account handle instead of display name")
	cmd.Flags().StringSliceVarP(&opts.Destinations, "destinations", "d", nil, "destinations to post to (comma-separated)")
	cmd.Flags().StringVar(&opts.FlairID, "flair-id", "", "flair to apply at every destination")
	cmd.Flags().StringVar(&opts.Tag, "tag", "", "title tag to append at tag-requiring destinations")
	cmd.Flags().BoolVar(&opts.NoPost, "no-post", false, "register and mirror only, don't post")
	cmd.MarkFlagsMutuallyExclusive("nsfw", "sfw")
	cmd.MarkFlagsMutuallyExclusive("index", "album")

	return cmd
}

func runAdd(cmd *cobra.Command, opts *AddOptions, sourceURL string) error {
	ctx := cmd.Context()
	session := NewSession(opts.RootOptions)
	defer session.Close()

	md, err := session.Extractors().Extract(ctx, sourceURL, extract.Options{
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

	applyOverrides(cmd, opts, &md)
	if md.Title == "" || len(md.Artists) == 0 {
		return NewExitError(ExitCommandError,
			"the source page does not carry a title and artist; supply --title and --artist")
	}

	st, err := session.Store()
	if err != nil {
		return err
	}

	artist, err := st.ResolveArtist(ctx, md.Artists[0])
	if err != nil {
		return WrapExitError(ExitFailure, "resolve artist", err)
	}
	if err := st.RecordAliases(ctx, artist, md.Artists); err != nil {
		return WrapExitError(ExitFailure, "record artist aliases", err)
	}

	work, err := st.CreateWork(ctx, store.NewWork{
		Title:     md.Title,
		Series:    md.Series,
		ArtistID:  artist.ID,
		SourceURL: md.SourceURL,
		NSFW:      md.NSFW,
		ImageURL:  md.ImageURL,
		ImageURLs: md.ImageURLs,
	})
	if err != nil {
		if store.IsKind(err, store.KindAlreadyExists) {
			return WrapExitError(ExitFailure,
				"work already registered; use crosspost to add destinations", err)
		}
		return WrapExitError(ExitFailure, "save work", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved work %d: %s (%s)\n", work.ID, work.Title, work.Artist)

	if len(opts.Destinations) > 0 {
		specs := submissionSpecs(opts.Destinations, opts.FlairID, opts.Tag)
		reportAddResults(cmd.OutOrStdout(), st.AddSubmissions(ctx, work.ID, specs))
	}

	eng, err := session.Engine()
	if err != nil {
		return err
	}
	if _, err := eng.UploadIfNeeded(ctx, work); err != nil {
		return WrapExitError(ExitFailure, "mirror image", err)
	}

	if opts.NoPost || len(opts.Destinations) == 0 {
		return nil
	}

	report, err := eng.PostSubmissions(ctx, store.PendingFilter{WorkIDs: []int64{work.ID}})
	if err != nil {
		return WrapExitError(ExitFailure, "post submissions", err)
	}
	renderReport(cmd.OutOrStdout(), report)
	return nil
}

// applyOverrides replaces extracted fields with explicitly given flags. Flag
// presence is what matters: --sfw must be able to override an extracted NSFW
// rating.
func applyOverrides(cmd *cobra.Command, opts *AddOptions, md *extract.Metadata) {
	if opts.Title != "" {
		md.Title = opts.Title
	}
	if opts.Artist != "" {
		md.Artists = append([]string{opts.Artist}, md.Artists...)
	}
	if opts.Series != "" {
		md.Series = &opts.Series
	}
	if cmd.Flags().Changed("nsfw") {
		md.NSFW = true
	}
	if cmd.Flags().Changed("sfw") {
		md.NSFW = false
	}
}

// submissionSpecs expands the shared flair/tag flags over the destination
// list.
func submissionSpecs(destinations []string, flairID, tag string) []store.SubmissionSpec {
	specs := make([]store.SubmissionSpec, 0, len(destinations))
	for _, name := range destinations {
		spec := store.SubmissionSpec{Destination: name}
		if flairID != "" {
			f := flairID
			spec.FlairID = &f
		}
		if tag != "" {
			t := tag
			spec.Tag = &t
		}
		specs = append(specs, spec)
	}
	return specs
}

// reportAddResults prints the per-destination outcome of attaching
// submissions. Policy failures are reported and skipped; they never fail the
// command.
func reportAddResults(w io.Writer, results []store.AddResult) {
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(w, "Skipped %s: %v\n", res.Destination, res.Err)
			continue
		}
		fmt.Fprintf(w, "Queued for %s (submission %d)\n", res.Destination, res.Submission.ID)
	}
}

// postFiltered posts the pending submissions matched by the filter and
// renders the report. Shared by crosspost and retry-post.
func postFiltered(cmd *cobra.Command, eng *engine.Engine, filter store.PendingFilter) error {
	report, err := eng.PostSubmissions(cmd.Context(), filter)
	if err != nil {
		return WrapExitError(ExitFailure, "post submissions", err)
	}
	renderReport(cmd.OutOrStdout(), report)
	return nil
}
