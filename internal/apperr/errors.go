// Package apperr defines the error taxonomy shared across the lifecycle core.
//
// Configuration and backup failures are fatal to a whole batch run;
// everything else fails a single note only and is captured in its report
// entry. Callers match with errors.Is.
package apperr

import "errors"

var (
	// ErrNotFound reports a note that does not exist in the vault.
	ErrNotFound = errors.New("not found")

	// ErrConfiguration reports an unmapped note type or a missing
	// destination root. Fatal: the whole run cannot be trusted.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidTransition reports a status change not permitted by the
	// lifecycle state graph.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrPromotion reports a note that cannot be promoted: missing type,
	// or a filename collision at the destination.
	ErrPromotion = errors.New("promotion refused")

	// ErrMoveVerification reports a failed post-move integrity check.
	// The move has been rolled back by the time this surfaces.
	ErrMoveVerification = errors.New("move verification failed")

	// ErrBackupFailure reports that a snapshot could not be created.
	// Fatal: no mutation may proceed without a confirmed backup.
	ErrBackupFailure = errors.New("backup failure")
)
