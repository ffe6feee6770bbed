package tracker

import (
	"errors"
	"fmt"
)

// ErrArchival marks a failed rotation of the previous outputs.
var ErrArchival = errors.New("archival failed")

// WriteError reports a failure to write a new artifact, the history or the change log.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
