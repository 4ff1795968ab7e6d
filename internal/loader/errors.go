package loader

import (
	"errors"
	"fmt"
)

// ErrModelNotLoaded is returned by FindAnswer before the model is ready.
var ErrModelNotLoaded = errors.New("model not loaded")

// ErrClosed is returned by Load when the loader was closed before the model became ready.
var ErrClosed = errors.New("loader closed")

// Stage names the load step that failed.
type Stage string

const (
	StageIntercept   Stage = "intercept"
	StageBackend     Stage = "backend"
	StageFetch       Stage = "fetch"
	StageInstantiate Stage = "instantiate"
)

// LoadError is the normalized failure of a load attempt. It is terminal: the
// loader never retries.
type LoadError struct {
	Stage Stage
	Cause error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("model load failed during %s: %v", e.Stage, e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// InferenceError wraps a failure raised by the model while answering.
type InferenceError struct {
	Cause error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed: %v", e.Cause)
}

func (e *InferenceError) Unwrap() error {
	return e.Cause
}
