// ABOUTME: Error taxonomy shared by ingestion, retrieval, and the HTTP surface
// ABOUTME: Every failure carries a Kind so callers can tell retryable from caller-input errors
package models

import (
	"errors"
	"fmt"
)

// Kind classifies a failure
type Kind string

const (
	KindUnsupportedFormat Kind = "UnsupportedFormat"
	KindEmptyContent      Kind = "EmptyContent"
	KindEmbeddingFailure  Kind = "EmbeddingFailure"
	KindGenerationFailure Kind = "GenerationFailure"
	KindDuplicateIdentity Kind = "DuplicateIdentity"
	KindInvalidMode       Kind = "InvalidMode"
	KindDimensionMismatch Kind = "DimensionMismatch"
	KindTimeout           Kind = "Timeout"
	KindStoreUnavailable  Kind = "StoreUnavailable"
	KindInvalidInput      Kind = "InvalidInput"
	KindCanceled          Kind = "Canceled"
	KindInternal          Kind = "Internal"
)

// Sentinels for errors.Is comparisons against a kind
var (
	ErrUnsupportedFormat = &Error{Kind: KindUnsupportedFormat}
	ErrEmptyContent      = &Error{Kind: KindEmptyContent}
	ErrEmbeddingFailure  = &Error{Kind: KindEmbeddingFailure}
	ErrGenerationFailure = &Error{Kind: KindGenerationFailure}
	ErrDuplicateIdentity = &Error{Kind: KindDuplicateIdentity}
	ErrInvalidMode       = &Error{Kind: KindInvalidMode}
	ErrDimensionMismatch = &Error{Kind: KindDimensionMismatch}
	ErrTimeout           = &Error{Kind: KindTimeout}
	ErrStoreUnavailable  = &Error{Kind: KindStoreUnavailable}
	ErrInvalidInput      = &Error{Kind: KindInvalidInput}
	ErrCanceled          = &Error{Kind: KindCanceled}
)

// Error is a classified failure with a human-readable reason
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so sentinels work with errors.Is
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Reason returns the message without the operation prefix, for user-facing bodies
func (e *Error) Reason() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

// NewError builds a classified error
func NewError(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// WrapError classifies an underlying error
func WrapError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first classified error in the chain.
// Unclassified errors report KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsRetryable reports whether a caller may retry the same input
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindEmbeddingFailure, KindGenerationFailure, KindTimeout, KindStoreUnavailable:
		return true
	}
	return false
}

// IsCallerError reports whether the failure stems from the request itself
func IsCallerError(err error) bool {
	switch KindOf(err) {
	case KindUnsupportedFormat, KindEmptyContent, KindInvalidMode, KindDuplicateIdentity, KindInvalidInput:
		return true
	}
	return false
}
