package openaiapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"github.com/openai/openai-go"
)

// FailureKind classifies a completion failure. Connection and timeout
// failures are transient and retried; protocol and auth failures are fatal,
// since retrying an identical rejected request cannot self-correct.
type FailureKind int

const (
	FailureConnection FailureKind = iota
	FailureTimeout
	FailureProtocol
	FailureAuth
)

func (k FailureKind) String() string {
	switch k {
	case FailureConnection:
		return "connection failure"
	case FailureTimeout:
		return "timeout failure"
	case FailureProtocol:
		return "protocol failure"
	case FailureAuth:
		return "auth failure"
	}
	return "unknown failure"
}

// Failure is a classified completion failure.
type Failure struct {
	Kind FailureKind
	err  error
}

func newFailure(kind FailureKind, err error) *Failure {
	return &Failure{Kind: kind, err: err}
}

func failuref(kind FailureKind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, err: fmt.Errorf(format, args...)}
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Kind, f.err)
}

func (f *Failure) Unwrap() error { return f.err }

// Transient reports whether a retry of the identical request may succeed.
func (f *Failure) Transient() bool {
	return f.Kind == FailureConnection || f.Kind == FailureTimeout
}

// AsFailure extracts a classified failure from an error chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// classify maps an error from the API layer onto the failure taxonomy.
func classify(err error) *Failure {
	if f, ok := AsFailure(err); ok {
		return f
	}

	var apierr *openai.Error
	if errors.As(err, &apierr) {
		switch apierr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return newFailure(FailureAuth, err)
		default:
			return newFailure(FailureProtocol, err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return newFailure(FailureTimeout, err)
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return newFailure(FailureTimeout, err)
	}

	var uerr *url.Error
	if errors.As(err, &uerr) {
		return newFailure(FailureConnection, err)
	}
	var operr *net.OpError
	if errors.As(err, &operr) {
		return newFailure(FailureConnection, err)
	}
	var dnserr *net.DNSError
	if errors.As(err, &dnserr) {
		return newFailure(FailureConnection, err)
	}

	// The server answered, but with something the client cannot use.
	return newFailure(FailureProtocol, err)
}
