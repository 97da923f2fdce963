// Package domainerrors carries coded errors from the ledger core to its
// boundaries. Services return these values; transports translate the code
// into a status and the legacy ledger code.
package domainerrors

import "errors"

// Code identifies the precise failure kind. Codes are stable strings and are
// returned to clients in error envelopes.
type Code string

const (
	CodeBadRequest       Code = "bad_request"
	CodeInvalidInput     Code = "invalid_input"
	CodeInputTooLong     Code = "input_too_long"
	CodeTimeRangeInvalid Code = "time_range_invalid"
	CodeConflict         Code = "conflict"
	CodeNotFound         Code = "not_found"
	CodeRevoked          Code = "revoked"
	CodeForbidden        Code = "forbidden"
	CodeUnauthorized     Code = "unauthorized"
	CodeFullCapacity     Code = "full_capacity"
	CodeInvalidProof     Code = "invalid_proof"
	CodeTimeout          Code = "timeout"
	// CodeConcurrentUpdate means the apply lost a race with another writer
	// and changed nothing. The call may be resubmitted as is.
	CodeConcurrentUpdate Code = "concurrent_update"
	CodeInternal         Code = "internal_error"
)

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error. The cause stays
// reachable through errors.Is / errors.As.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf returns the code of the outermost coded error, or CodeInternal if
// err carries no code.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether the outermost coded error in err's chain has code.
func HasCode(err error, code Code) bool {
	var de *Error
	if !errors.As(err, &de) {
		return false
	}
	return de.Code == code
}

// Is is an alias of HasCode kept for call sites that read better with it.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// Message returns the client-safe message of a coded error.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
