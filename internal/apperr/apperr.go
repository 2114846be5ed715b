// Package apperr defines the error taxonomy surfaced to GraphQL clients.
// Storage diagnostics are logged at the mutation boundary and never carried
// in the client-facing message.
package apperr

import "errors"

type Code string

const (
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeForbidden         Code = "FORBIDDEN"
	CodeNotFound          Code = "NOT_FOUND"
	CodeTransactionFailed Code = "TRANSACTION_FAILED"
	CodeValidationFailed  Code = "VALIDATION_FAILED"
)

// Error carries a stable machine code alongside a client-safe message.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string { return e.Message }

// Extensions exposes the code through GraphQL error extensions.
func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": string(e.Code)}
}

func Unauthorized(msg string) *Error      { return &Error{Code: CodeUnauthorized, Message: msg} }
func Forbidden(msg string) *Error         { return &Error{Code: CodeForbidden, Message: msg} }
func NotFound(msg string) *Error          { return &Error{Code: CodeNotFound, Message: msg} }
func TransactionFailed(msg string) *Error { return &Error{Code: CodeTransactionFailed, Message: msg} }
func ValidationFailed(msg string) *Error  { return &Error{Code: CodeValidationFailed, Message: msg} }

// Is matches on code so callers can use errors.Is with a template error.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// CodeOf extracts the code from err, or empty when err is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
