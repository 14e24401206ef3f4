package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

type ErrorKind string

const (
	KindAuth        ErrorKind = "auth_error"
	KindRateLimited ErrorKind = "rate_limited"
	KindConnection  ErrorKind = "connection_error"
	KindProvider    ErrorKind = "provider_error"
	KindUnknown     ErrorKind = "unknown"
)

// ServiceError is a classified failure of the completion service.
type ServiceError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Classify maps a transport-level error onto a ServiceError. Provider clients
// handle their own API error types first and fall back to this.
func Classify(err error) *ServiceError {
	if err == nil {
		return nil
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ServiceError{Kind: KindConnection, Message: "request timed out", Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &ServiceError{Kind: KindUnknown, Message: "request canceled", Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &ServiceError{Kind: KindConnection, Err: err}
	}
	return &ServiceError{Kind: KindUnknown, Err: err}
}

// KindOf returns the classified kind of err, or "" if err is nil.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	return Classify(err).Kind
}

// UserMessage renders err as something a person at the keyboard can act on.
func UserMessage(err error) string {
	se := Classify(err)
	if se == nil {
		return ""
	}
	switch se.Kind {
	case KindAuth:
		return "Authentication with the AI service failed, check your API key."
	case KindRateLimited:
		return "The AI service is rate limiting requests, try again later."
	case KindConnection:
		return "Could not reach the AI service, check your connection and try again."
	case KindProvider:
		if se.Message != "" {
			return "The AI service returned an error: " + se.Message
		}
		return "The AI service returned an error, try again later."
	default:
		return fmt.Sprintf("Unexpected error: %v", se.Err)
	}
}
