package paystack

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	pkgerrors "github.com/angelmondragon/gymhub-backend/pkg/errors"
)

// Kind classifies gateway failures.
type Kind string

const (
	KindNetwork Kind = "network"
	KindClient  Kind = "client"
	KindServer  Kind = "server"
)

// Error is the normalized failure returned by every Client operation. Message
// is the gateway's own message; raw response bodies are never attached.
type Error struct {
	Kind       Kind
	StatusCode int
	Op         string
	Message    string
	cause      error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("paystack %s: %s (status %d): %s", e.Op, e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("paystack %s: %s: %s", e.Op, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Retryable reports whether repeating the same request could succeed.
func (e *Error) Retryable() bool {
	if e == nil {
		return false
	}
	return e.Kind == KindNetwork || e.Kind == KindServer
}

// AsError extracts a *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var perr *Error
	if errors.As(err, &perr) {
		return perr, true
	}
	return nil, false
}

// IsNotFound reports whether the gateway answered 404.
func IsNotFound(err error) bool {
	perr, ok := AsError(err)
	return ok && perr.StatusCode == http.StatusNotFound
}

// ToDomain wraps a gateway failure in the service error taxonomy.
func ToDomain(err error, message string) error {
	if err == nil {
		return nil
	}
	if _, ok := AsError(err); ok {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, message)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, message)
}

func networkError(op string, err error) *Error {
	msg := "request failed"
	if errors.Is(err, context.DeadlineExceeded) {
		msg = "request timed out"
	}
	return &Error{Kind: KindNetwork, Op: op, Message: msg, cause: err}
}

func statusError(op string, status int, message string) *Error {
	kind := KindClient
	if status >= http.StatusInternalServerError {
		kind = KindServer
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return &Error{Kind: kind, StatusCode: status, Op: op, Message: message}
}
