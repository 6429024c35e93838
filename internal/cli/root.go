// Package cli wires the errant commands: registering works and
// destinations, mirroring images, posting batches, and undoing posts.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Database string
	Secrets  string
	Verbose  bool
}

// NewRootCommand creates the root command for the errant CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "errant",
		Short: "errant - artwork cross-posting bot",
		Long: `errant registers artworks, mirrors their images to an image host,
and cross-posts them to discussion boards, tracking every pairing in a
local database so reruns pick up exactly where they stopped.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logLevel := slog.LevelWarn
			if opts.Verbose {
				logLevel = slog.LevelDebug
			}
			handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: logLevel,
			})
			slog.SetDefault(slog.New(handler))
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "errant.db", "path to SQLite database")
	cmd.PersistentFlags().StringVar(&opts.Secrets, "secrets", "secrets.yaml", "path to secrets file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewCrosspostCommand(opts))
	cmd.AddCommand(NewRetryPostCommand(opts))
	cmd.AddCommand(NewRetryUploadCommand(opts))
	cmd.AddCommand(NewDeletePostCommand(opts))
	cmd.AddCommand(NewAddDestinationCommand(opts))
	cmd.AddCommand(NewEditDestinationCommand(opts))
	cmd.AddCommand(NewListDestinationsCommand(opts))
	cmd.AddCommand(NewListWorksCommand(opts))
	cmd.AddCommand(NewListFlairsCommand(opts))
	cmd.AddCommand(NewExtractCommand(opts))

	return cmd
}
