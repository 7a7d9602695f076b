package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is a stable machine-readable failure category, independent of the
// transport that surfaces it.
type ErrorKind string

const (
	KindValidation             ErrorKind = "validation"
	KindNotFound               ErrorKind = "not_found"
	KindConflict               ErrorKind = "conflict"
	KindCycle                  ErrorKind = "cycle"
	KindFileTooLarge           ErrorKind = "file_too_large"
	KindUnsupportedFileType    ErrorKind = "unsupported_file_type"
	KindFilesystemInconsistent ErrorKind = "filesystem_inconsistent"
	KindNotImplemented         ErrorKind = "not_implemented"
	KindInternal               ErrorKind = "internal"
)

// AppError carries a kind plus a human-readable message. Reason optionally
// names the violated rule (e.g. "duplicate_name") for API clients.
type AppError struct {
	Kind    ErrorKind
	Message string
	Reason  string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// WithReason attaches a machine-readable reason and returns the error.
func (e *AppError) WithReason(reason string) *AppError {
	e.Reason = reason
	return e
}

func NewError(kind ErrorKind, format string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError keeps the cause available through errors.Unwrap.
func WrapError(kind ErrorKind, err error, format string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func Validationf(format string, args ...interface{}) *AppError {
	return NewError(KindValidation, format, args...)
}

func NotFoundf(format string, args ...interface{}) *AppError {
	return NewError(KindNotFound, format, args...)
}

func Conflictf(format string, args ...interface{}) *AppError {
	return NewError(KindConflict, format, args...)
}

func Cyclef(format string, args ...interface{}) *AppError {
	return NewError(KindCycle, format, args...)
}

func Internalf(err error, format string, args ...interface{}) *AppError {
	return WrapError(KindInternal, err, format, args...)
}

// KindOf extracts the kind from any error, defaulting to Internal.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps an error kind to the response status code.
func HTTPStatus(kind ErrorKind) int {
	switch kind {
	case KindValidation, KindCycle:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindUnsupportedFileType:
		return http.StatusUnsupportedMediaType
	case KindNotImplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
