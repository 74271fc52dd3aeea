package pipeline

import (
	"errors"
	"fmt"
)

// ErrAborted is returned by an AnswerSource when the operator ends input
// during the interview. It is always fatal.
var ErrAborted = errors.New("aborted by operator")

// StageError wraps a failure with the stage where the run stopped.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
