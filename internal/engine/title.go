package engine

import (
	"fmt"

	"github.com/roach88/errant/internal/store"
)

// ComposeTitle builds the post title for one pending row:
//
//	"{title} ({artist})" + " [{series}]" when the destination tags series
//	                     + " {tag}"      when the submission carries one
//
// A series-tagging destination normally never sees a series-less work (the
// gate blocks it), but if policy changed after the submission was created
// the tag falls back to "Original".
func ComposeTitle(p store.PendingSubmission) string {
	title := fmt.Sprintf("%s (%s)", p.Work.Title, p.Work.Artist)

	if p.Destination.TagSeries {
		series := "Original"
		if p.Work.Series != nil {
			series = *p.Work.Series
		}
		title += " [" + series + "]"
	}

	if p.Tag != nil {
		title += " " + *p.Tag
	}

	return title
}

// uploadTitle is the caption attached to the hosted mirror copy.
func uploadTitle(w store.Work) string {
	return fmt.Sprintf("%s (%s)", w.Title, w.Artist)
}

// uploadDescription links the mirror copy back to where the work came from.
func uploadDescription(w store.Work) string {
	return "Source: " + w.SourceURL
}

// sourceReply is the fixed comment posted beneath each submission.
func sourceReply(w store.Work) string {
	return fmt.Sprintf("[Source](%s)", w.SourceURL)
}
