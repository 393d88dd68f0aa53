package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures seen by callers of the planner client
type ErrorKind string

const (
	KindNetworkFailure    ErrorKind = "network_failure"
	KindUnauthenticated   ErrorKind = "unauthenticated"
	KindSessionExpired    ErrorKind = "session_expired"
	KindServerRejected    ErrorKind = "server_rejected"
	KindServerFault       ErrorKind = "server_fault"
	KindMalformedResponse ErrorKind = "malformed_response"
	KindInvalidTransition ErrorKind = "invalid_transition"
	KindInvalidInput      ErrorKind = "invalid_input"
	KindCredentialStore   ErrorKind = "credential_store"
)

// Error is the single error type surfaced by the gateway, the planner client
// and the lifecycle controller. Code carries the HTTP status for
// ServerRejected and ServerFault.
type Error struct {
	Kind    ErrorKind
	Code    int
	Message string
	Err     error
}

// Sentinels for errors.Is matching on kind alone
var (
	ErrNetworkFailure    = &Error{Kind: KindNetworkFailure}
	ErrUnauthenticated   = &Error{Kind: KindUnauthenticated}
	ErrSessionExpired    = &Error{Kind: KindSessionExpired}
	ErrServerRejected    = &Error{Kind: KindServerRejected}
	ErrServerFault       = &Error{Kind: KindServerFault}
	ErrMalformedResponse = &Error{Kind: KindMalformedResponse}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
	ErrInvalidInput      = &Error{Kind: KindInvalidInput}
	ErrCredentialStore   = &Error{Kind: KindCredentialStore}
)

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Code)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind, and by code when the target sets one
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == 0 || t.Code == e.Code
}

// NewError builds an *Error of the given kind
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Rejected builds a ServerRejected error for a 4xx response
func Rejected(code int, message string) *Error {
	return &Error{Kind: KindServerRejected, Code: code, Message: message}
}

// Fault builds a ServerFault error for a 5xx response
func Fault(code int, message string) *Error {
	return &Error{Kind: KindServerFault, Code: code, Message: message}
}

// InvalidTransition builds a local lifecycle guard violation
func InvalidTransition(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidTransition, Message: fmt.Sprintf(format, args...)}
}

// IsLocalFailure reports failures of the local credential store. They are
// neither retryable against the backend nor fixed by signing in again.
func IsLocalFailure(err error) bool {
	return KindOf(err) == KindCredentialStore
}

// KindOf returns the kind of err, or "" when err is not a *Error
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsRetryable reports failures a caller may retry unchanged
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindNetworkFailure, KindServerFault:
		return true
	}
	return false
}

// NeedsReauth reports failures that require the user to sign in again
func NeedsReauth(err error) bool {
	switch KindOf(err) {
	case KindUnauthenticated, KindSessionExpired:
		return true
	}
	return false
}
