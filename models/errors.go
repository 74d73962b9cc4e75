package models

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is matched by every InvalidInputError
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError reports a run that was rejected before any backend call
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func ErrInvalid(format string, args ...any) error {
	return &InvalidInputError{Reason: fmt.Sprintf(format, args...)}
}

// TemplateLoadError reports a template that is missing or unreadable
type TemplateLoadError struct {
	Name string
	Path string
	Err  error
}

func (e *TemplateLoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to load template '%s' from %s: %v", e.Name, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to load template '%s': %v", e.Name, e.Err)
}

func (e *TemplateLoadError) Unwrap() error {
	return e.Err
}

// BackendErrorKind distinguishes credential rejections from every other failure
type BackendErrorKind string

const (
	BackendAuthFailure BackendErrorKind = "auth"
	BackendCallFailure BackendErrorKind = "call"
)

// BackendError wraps a failure of a text or video generation backend.
// The message of the wrapped error is surfaced verbatim.
type BackendError struct {
	Backend string
	Kind    BackendErrorKind
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s backend: %v", e.Backend, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// IsAuthFailure reports whether err is a BackendError of kind BackendAuthFailure
func IsAuthFailure(err error) bool {
	var be *BackendError
	return errors.As(err, &be) && be.Kind == BackendAuthFailure
}

// StageError reports the stage at which a run aborted
type StageError struct {
	StageID string
	Index   int
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage '%s' (%d) failed: %v", e.StageID, e.Index+1, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

type MissingConfigError struct {
	Key string
}

func (e *MissingConfigError) Error() string {
	return "missing required configuration key: " + e.Key
}

func ErrMissingConfig(key string) error {
	return &MissingConfigError{Key: key}
}

type InterpolateError struct {
	Key   string
	Value any
}

func (e *InterpolateError) Error() string {
	return fmt.Sprintf("failed to interpolate value for key '%s': %v", e.Key, e.Value)
}

func ErrInterpolate(key string, value any) error {
	return &InterpolateError{Key: key, Value: value}
}
