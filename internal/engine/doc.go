// Package engine decides which pending submissions may be attempted now,
// performs the upload and post attempts, and records each outcome durably
// before moving to the next row.
//
// The engine is strictly sequential: one batch per operator invocation, one
// row at a time, each row's posted state committed before the next attempt.
// A crash mid-batch therefore leaves a clean split between posted and
// pending rows, and rerunning the batch skips the posted ones.
package engine
