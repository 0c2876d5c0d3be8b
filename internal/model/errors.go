package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures for the answer contract.
type ErrorKind string

const (
	ErrAmbiguous        ErrorKind = "intent_ambiguous"
	ErrUnderspecified   ErrorKind = "intent_underspecified"
	ErrNoMapping        ErrorKind = "source_no_mapping"
	ErrInsufficientData ErrorKind = "query_insufficient_data"
	ErrExecutionFailed  ErrorKind = "query_execution_failed"
	ErrLiveUnavailable  ErrorKind = "live_fetch_unavailable"
)

// PipelineError carries the failure taxonomy through the pipeline. All
// terminal errors still produce a valid answer shape for the consumer.
type PipelineError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// Ambiguous reports an intent that two keyword sets claim with equal strength.
func Ambiguous(msg string) error {
	return &PipelineError{Kind: ErrAmbiguous, Msg: msg}
}

// Underspecified reports an intent missing its minimum entity requirement.
func Underspecified(msg string) error {
	return &PipelineError{Kind: ErrUnderspecified, Msg: msg}
}

// NoMapping reports a metric with no known backing source.
func NoMapping(msg string) error {
	return &PipelineError{Kind: ErrNoMapping, Msg: msg}
}

// InsufficientData reports too few rows for the requested statistic.
func InsufficientData(msg string) error {
	return &PipelineError{Kind: ErrInsufficientData, Msg: msg}
}

// ExecutionFailed wraps an analytic store failure.
func ExecutionFailed(msg string, err error) error {
	return &PipelineError{Kind: ErrExecutionFailed, Msg: msg, Err: err}
}

// LiveUnavailable wraps a live portal failure; the pipeline treats it as
// recoverable via the historical fallback.
func LiveUnavailable(msg string, err error) error {
	return &PipelineError{Kind: ErrLiveUnavailable, Msg: msg, Err: err}
}

// KindOf extracts the taxonomy kind from an error chain, or "" when the
// error is not a pipeline error.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsKind reports whether err carries the given taxonomy kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
