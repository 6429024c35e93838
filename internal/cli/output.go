package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/roach88/errant/internal/engine"
	"github.com/roach88/errant/internal/store"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution, including "nothing to do"
	ExitFailure      = 1 // Operational failure (store unreachable, upload failed, ...)
	ExitCommandError = 2 // Command error (bad arguments, unsupported source, ...)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// renderDestinations prints the destination table.
func renderDestinations(w io.Writer, dests []store.Destination) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSERIES\tFLAIR\tTAG\tSFW ONLY\tSPACED\tREHOST\tDISABLED\tDEFAULT FLAIR\tLAST POST")
	for _, d := range dests {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			d.Name,
			yn(d.TagSeries), yn(d.RequireFlair), yn(d.RequireTag),
			yn(d.SFWOnly), yn(d.SpacePosts), yn(d.Rehost), yn(d.Disabled),
			orDash(d.FlairID),
			formatTime(d.LastPostedAt),
		)
	}
	tw.Flush()
}

// renderWorks prints the work table.
func renderWorks(w io.Writer, works []store.Work) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tARTIST\tSERIES\tNSFW\tALBUM\tHOSTED\tSOURCE")
	for _, wk := range works {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			wk.ID, wk.Title, wk.Artist, orDash(wk.Series),
			yn(wk.NSFW), yn(wk.Album), yn(wk.Uploaded()), wk.SourceURL,
		)
	}
	tw.Flush()
}

// renderReport prints the per-row outcome of a post batch.
func renderReport(w io.Writer, report engine.BatchReport) {
	if report.Empty() {
		fmt.Fprintln(w, "Nothing to do.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "SUBMISSION\tDESTINATION\tSTATUS\tDETAIL")
	for _, r := range report.Results {
		detail := r.Reason
		if r.Status == engine.RowPosted {
			detail = r.Permalink
			if r.Notes != "" {
				detail += " (" + r.Notes + ")"
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.SubmissionID, r.Destination, r.Status, detail)
	}
	tw.Flush()

	posted, skipped, failed := report.Counts()
	fmt.Fprintf(w, "\n%d posted, %d skipped, %d failed\n", posted, skipped, failed)
}

func yn(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDash(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return "-"
	}
	return *s
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
