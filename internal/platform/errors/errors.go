package errors

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindConfig             Kind = "config"
	KindValidation         Kind = "validation"
	KindBackendTimeout     Kind = "backend_timeout"
	KindBackendUnavailable Kind = "backend_unavailable"
	KindBackendError       Kind = "backend_error"
	KindStage              Kind = "stage"
	KindTotalFailure       Kind = "total_failure"
	KindStorage            Kind = "storage"
	KindTransport          Kind = "transport"
	KindBootstrap          Kind = "bootstrap"
	KindVision             Kind = "vision"
	KindUnknown            Kind = "unknown"
)

type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Kind, e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func Wrap(kind Kind, op, message string, err error) *Error {
	if err == nil {
		return nil
	}

	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}

	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
		Cause:   err,
	}
}

func New(kind Kind, op, message string) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
	}
}

// IsKind checks whether any error in the chain matches the provided kind.
func IsKind(err error, kind Kind) bool {
	var target *Error
	for err != nil {
		if errors.As(err, &target) {
			return target.Kind == kind
		}
		err = errors.Unwrap(err)
	}
	return false
}

// KindOf extracts the kind of the first typed error in the chain,
// falling back to KindUnknown for plain errors.
func KindOf(err error) Kind {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind
	}
	return KindUnknown
}

// Retryable reports whether the error kind participates in the
// retry/fallback protocol. Validation and stage failures surface
// immediately and are never retried.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindBackendTimeout, KindBackendUnavailable, KindBackendError:
		return true
	default:
		return false
	}
}
