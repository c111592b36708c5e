package domainerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies an expected domain failure. The set is closed; handlers map
// each code to a fixed HTTP status and a fixed client-safe message.
type Code string

const (
	CodeTenantRequired    Code = "TENANT_REQUIRED"
	CodeAuthorityMissing  Code = "AUTHORITY_MISSING"
	CodeAuthorityInvalid  Code = "AUTHORITY_INVALID"
	CodeTenantMismatch    Code = "TENANT_MISMATCH"
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeNotFound          Code = "NOT_FOUND"
	CodeConflict          Code = "CONFLICT"
	CodeAlreadyFinalized  Code = "ALREADY_FINALIZED"
	CodeInvalidTransition Code = "INVALID_TRANSITION"
	CodeForbidden         Code = "FORBIDDEN"
	CodePersistence       Code = "PERSISTENCE_ERROR"
)

// messages is the only text that ever reaches a client. Raw causes and field
// values stay server-side.
var messages = map[Code]string{
	CodeTenantRequired:    "Tenant context required",
	CodeAuthorityMissing:  "Authority context required",
	CodeAuthorityInvalid:  "Authority context invalid",
	CodeTenantMismatch:    "Tenant mismatch",
	CodeValidation:        "Validation failed",
	CodeNotFound:          "Resource not found",
	CodeConflict:          "Resource conflict",
	CodeAlreadyFinalized:  "Resource conflict",
	CodeInvalidTransition: "Invalid state transition",
	CodeForbidden:         "Access denied",
	CodePersistence:       "Internal error",
}

var statuses = map[Code]int{
	CodeTenantRequired:    http.StatusBadRequest,
	CodeAuthorityMissing:  http.StatusBadRequest,
	CodeAuthorityInvalid:  http.StatusForbidden,
	CodeTenantMismatch:    http.StatusForbidden,
	CodeValidation:        http.StatusUnprocessableEntity,
	CodeNotFound:          http.StatusNotFound,
	CodeConflict:          http.StatusConflict,
	CodeAlreadyFinalized:  http.StatusConflict,
	CodeInvalidTransition: http.StatusUnprocessableEntity,
	CodeForbidden:         http.StatusForbidden,
	CodePersistence:       http.StatusInternalServerError,
}

// Error is the discriminated outcome for every expected domain condition.
// Details are populated only for validation failures and contain field names
// plus generic descriptions, never values.
type Error struct {
	Code    Code
	Details []string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.cause)
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.cause }

// Message returns the fixed client-safe message for the error's code.
func (e *Error) Message() string {
	if m, ok := messages[e.Code]; ok {
		return m
	}
	return messages[CodePersistence]
}

// HTTPStatus returns the fixed transport status for the error's code.
func (e *Error) HTTPStatus() int {
	if s, ok := statuses[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func New(code Code) *Error {
	return &Error{Code: code}
}

// Validation builds a VALIDATION_ERROR carrying field-level details.
func Validation(details ...string) *Error {
	return &Error{Code: CodeValidation, Details: details}
}

// Persistence wraps an infrastructure fault. The cause is preserved for
// server-side logs and never serialized to a client.
func Persistence(cause error) *Error {
	return &Error{Code: CodePersistence, cause: cause}
}

// As extracts a domain error from an error chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	de, ok := As(err)
	return ok && de.Code == code
}
