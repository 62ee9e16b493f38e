package pipeline

import (
	"errors"
	"fmt"
)

// Stage names the pipeline step a hard failure came from.
type Stage string

const (
	StagePublish Stage = "publish"
	StageWrite   Stage = "write"
)

// ErrAlreadyRunning is returned when a submission arrives while the same
// session's previous run is still in flight.
var ErrAlreadyRunning = errors.New("a capture run is already in progress")

// StageError wraps a hard failure with the stage it aborted in, so callers
// can tell "nothing happened" from "asset published but record missing".
type StageError struct {
	Stage Stage
	Err   error
	// Asset paths published before the failure, if any. Empty for publish
	// failures, populated for write failures so callers can clean up.
	StoragePath   string
	ThumbnailPath string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline %s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Orphaned reports whether the failure left a published asset without a
// record.
func (e *StageError) Orphaned() bool { return e.Stage == StageWrite }
