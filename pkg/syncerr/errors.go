// Package syncerr defines the fault taxonomy shared by the subsync adapters.
package syncerr

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of a fault raised by an adapter
type ErrorType string

const (
	// TypeNetwork covers unreachable endpoints and non-2xx responses
	TypeNetwork ErrorType = "network"
	// TypeMalformedResponse covers payloads that do not have the expected shape
	TypeMalformedResponse ErrorType = "malformed_response"
	// TypeSync covers failures updating the local working copy
	TypeSync ErrorType = "sync"
	// TypeAuth covers credential rejection by the Reddit token endpoint
	TypeAuth ErrorType = "auth"
	// TypeAPI covers rejected stylesheet or wiki writes
	TypeAPI ErrorType = "api"
)

// Error is a classified adapter fault
type Error struct {
	Type    ErrorType `json:"type"`
	Op      string    `json:"op,omitempty"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
	// StatusCode is the HTTP status when the fault came from a response
	StatusCode int `json:"status_code,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if e.Cause != nil && msg == "" {
		msg = e.Cause.Error()
	} else if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s error during %s: %s", e.Type, e.Op, msg)
	}
	return fmt.Sprintf("%s error: %s", e.Type, msg)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a classified error
func New(errorType ErrorType, op, message string, cause error) *Error {
	return &Error{
		Type:    errorType,
		Op:      op,
		Message: message,
		Cause:   cause,
	}
}

// Network creates a network error
func Network(op string, cause error) *Error {
	return New(TypeNetwork, op, "", cause)
}

// Malformed creates a malformed response error
func Malformed(op, message string, cause error) *Error {
	return New(TypeMalformedResponse, op, message, cause)
}

// Sync creates a version-control sync error
func Sync(op, message string, cause error) *Error {
	return New(TypeSync, op, message, cause)
}

// Auth creates an authentication error
func Auth(op, message string, cause error) *Error {
	return New(TypeAuth, op, message, cause)
}

// API creates an API rejection error carrying the response status
func API(op string, statusCode int, message string) *Error {
	e := New(TypeAPI, op, message, nil)
	e.StatusCode = statusCode
	return e
}

// TypeOf returns the type of the first classified error in err's chain,
// or the empty string when err carries none
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ""
}

// Is reports whether err's chain contains a classified error of the given type
func Is(err error, errorType ErrorType) bool {
	return err != nil && TypeOf(err) == errorType
}
