package engine

import (
	"context"
	"log/slog"
)

// UndoPost returns a submission to pending after a manual takedown.
//
// When the submission carries a posted state and keepRemote is false, the
// provider post and the bot's own replies beneath it are deleted first.
// Remote deletion failures are reported but never block the local clear -
// the point of undo is to make the row retryable again.
//
// Undoing a submission that was never posted is a no-op clear: the
// already-null posted fields are cleared without any external call.
func (e *Engine) UndoPost(ctx context.Context, submissionID int64, keepRemote bool) error {
	sub, err := e.store.SubmissionByID(ctx, submissionID)
	if err != nil {
		return err
	}

	if sub.Posted() && !keepRemote {
		e.deleteRemote(ctx, *sub.PostRef)
	}

	if err := e.store.ClearPosted(ctx, sub.ID); err != nil {
		return err
	}

	slog.Info("submission returned to pending", "submission", sub.ID)
	return nil
}

// UndoPostByRef resolves a provider post reference to its submission and
// undoes it.
func (e *Engine) UndoPostByRef(ctx context.Context, postRef string, keepRemote bool) error {
	sub, err := e.store.SubmissionByPostRef(ctx, postRef)
	if err != nil {
		return err
	}
	return e.UndoPost(ctx, sub.ID, keepRemote)
}

// deleteRemote removes the post and the bot's replies under it, logging
// failures instead of propagating them.
func (e *Engine) deleteRemote(ctx context.Context, postRef string) {
	replies, err := e.boards.OwnReplies(ctx, postRef)
	if err != nil {
		slog.Warn("could not list own replies", "post", postRef, "error", err)
	}
	for _, reply := range replies {
		if err := e.boards.DeleteReply(ctx, reply); err != nil {
			slog.Warn("could not delete reply", "reply", reply, "error", err)
		}
	}

	if err := e.boards.DeletePost(ctx, postRef); err != nil {
		slog.Warn("could not delete post", "post", postRef, "error", err)
		return
	}
	slog.Info("remote post deleted", "post", postRef)
}
