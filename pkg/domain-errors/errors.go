// Package domainerrors defines typed failures returned by services.
//
// Every rejected operation carries a Code naming the exact violated precondition.
// Stores never return these directly; they return sentinel infrastructure errors
// (see pkg/platform/sentinel) which services translate into a Code.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code classifies a domain failure.
type Code string

const (
	CodeUnauthorized            Code = "unauthorized"
	CodeNotRegistered           Code = "not_registered"
	CodeAlreadyRegistered       Code = "already_registered"
	CodeRequestAlreadyPending   Code = "request_already_pending"
	CodeInvalidRole             Code = "invalid_role"
	CodeValidation              Code = "validation_error"
	CodeNotFound                Code = "not_found"
	CodeInvalidRoleTransition   Code = "invalid_role_transition"
	CodeInvalidStatusTransition Code = "invalid_status_transition"

	// Transport and infrastructure codes.
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeInvariantViolation Code = "invariant_violation"
	CodeConflict           Code = "conflict"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal_error"
)

// Error is a coded domain error. The optional wrapped error keeps the cause
// available to errors.Is/As without leaking it into API responses.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a coded error.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode reports whether any coded error in the chain carries code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf returns the outermost code in the chain, or CodeInternal for uncoded errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the client-safe message for err.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// ToHTTPStatus maps a code to the HTTP status used by handlers.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidInput, CodeValidation, CodeInvalidRole:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeNotRegistered:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyRegistered, CodeRequestAlreadyPending, CodeConflict:
		return http.StatusConflict
	case CodeInvalidRoleTransition, CodeInvalidStatusTransition, CodeInvariantViolation:
		return http.StatusUnprocessableEntity
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
