package attendance

import "errors"

// Attendance domain errors
var (
	// Submission errors
	ErrInvalidKind      = errors.New("unknown attendance event kind")
	ErrLocationRequired = errors.New("location is required to register attendance")
	ErrOutOfSequence    = errors.New("check-in and check-out must alternate")

	// Commit-or-queue errors; these are the only ones that risk data loss
	// when swallowed, so they always reach the caller.
	ErrRemoteWrite      = errors.New("failed to write attendance record to remote store")
	ErrQueuePersistence = errors.New("failed to persist attendance record to local queue")

	ErrEventNotFound = errors.New("attendance record not found")
)
