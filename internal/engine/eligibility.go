package engine

import (
	"fmt"
	"time"

	"github.com/roach88/errant/internal/store"
)

// SpacingWindow is the minimum gap between successive posts to a
// destination that enforces spacing.
const SpacingWindow = 24 * time.Hour

// BlockReason categorizes why a pending submission may not be attempted now.
type BlockReason string

const (
	// BlockDisabled: the destination is switched off.
	BlockDisabled BlockReason = "disabled"

	// BlockRequiresSeries: the destination tags series and the work has none.
	BlockRequiresSeries BlockReason = "requires_series"

	// BlockSFWOnly: the destination refuses adult content and the work is
	// flagged NSFW.
	BlockSFWOnly BlockReason = "sfw_only"

	// BlockCooldown: the destination's spacing window has not elapsed.
	BlockCooldown BlockReason = "cooldown"
)

// Verdict is the outcome of the eligibility gate for one pending row.
// Wait is only set for cooldown blocks, floored to whole seconds.
type Verdict struct {
	Eligible bool
	Reason   BlockReason
	Wait     time.Duration
}

// String renders the verdict as a human-readable skip reason.
func (v Verdict) String() string {
	if v.Eligible {
		return "eligible"
	}
	if v.Reason == BlockCooldown {
		return fmt.Sprintf("%s (%s remaining)", v.Reason, v.Wait)
	}
	return string(v.Reason)
}

// Evaluate is the eligibility gate: a pure decision over one pending
// submission and its destination policy, with no side effects. It is
// evaluated immediately before each attempt so a blocked row can be skipped
// and retried later without mutating any state.
func Evaluate(p store.PendingSubmission, now time.Time) Verdict {
	d := p.Destination

	if d.Disabled {
		return Verdict{Reason: BlockDisabled}
	}

	if d.TagSeries && p.Work.Series == nil {
		return Verdict{Reason: BlockRequiresSeries}
	}

	if d.SFWOnly && p.Work.NSFW {
		return Verdict{Reason: BlockSFWOnly}
	}

	if d.SpacePosts && d.LastPostedAt != nil {
		elapsed := now.Sub(*d.LastPostedAt)
		if elapsed < SpacingWindow {
			// No sub-second precision in the reported wait.
			wait := (SpacingWindow - elapsed).Truncate(time.Second)
			return Verdict{Reason: BlockCooldown, Wait: wait}
		}
	}

	return Verdict{Eligible: true}
}
