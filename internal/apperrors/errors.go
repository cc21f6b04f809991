// Package apperrors normalizes failures into a single shape carrying a user
// message, severity and a retryable flag. Services classify errors at their
// boundary; handlers map the kind onto an HTTP status.
package apperrors

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Kind classifies where a failure originated.
type Kind string

const (
	KindNetwork       Kind = "network"
	KindAPI           Kind = "api"
	KindValidation    Kind = "validation"
	KindAuth          Kind = "auth"
	KindConfiguration Kind = "configuration"
	KindParse         Kind = "parse"
	KindUnknown       Kind = "unknown"
)

// Severity drives toast styling and duration on the client; critical errors
// never auto-dismiss.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Auth error codes surfaced as distinguished, user-messageable outcomes.
const (
	CodeUserExists         = "USER_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeWeakPassword       = "WEAK_PASSWORD"
	CodeEmailNotConfirmed  = "EMAIL_NOT_CONFIRMED"
	CodeSessionCorrupted   = "SESSION_CORRUPTED"
)

// AppError is the normalized error record.
type AppError struct {
	ID          string                 `json:"id"`
	Kind        Kind                   `json:"kind"`
	Severity    Severity               `json:"severity"`
	Code        string                 `json:"code,omitempty"`
	Message     string                 `json:"-"`
	UserMessage string                 `json:"message"`
	Retryable   bool                   `json:"retryable"`
	Context     map[string]interface{} `json:"context,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
	cause       error
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.UserMessage
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *AppError) Unwrap() error { return e.cause }

// WithContext attaches a key/value pair to the error's context bag.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithCause records the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.cause = err
	if e.Message == "" && err != nil {
		e.Message = err.Error()
	}
	return e
}

func newError(kind Kind, severity Severity, message, userMessage string, retryable bool) *AppError {
	return &AppError{
		ID:          uuid.New().String(),
		Kind:        kind,
		Severity:    severity,
		Message:     message,
		UserMessage: userMessage,
		Retryable:   retryable,
		Timestamp:   time.Now(),
	}
}

// NewNetwork reports a transport, timeout or offline failure.
func NewNetwork(message string) *AppError {
	return newError(KindNetwork, SeverityHigh, message, "Connection problem. Please check your network and try again.", true)
}

// NewAPI reports a non-2xx or malformed provider response.
func NewAPI(message string) *AppError {
	return newError(KindAPI, SeverityHigh, message, "The service is having trouble right now. Please try again.", true)
}

// NewValidation reports a rejected input.
func NewValidation(message, userMessage string) *AppError {
	return newError(KindValidation, SeverityMedium, message, userMessage, false)
}

// NewAuth reports a credential or session failure with a distinguished code.
func NewAuth(code, message, userMessage string) *AppError {
	e := newError(KindAuth, SeverityHigh, message, userMessage, false)
	e.Code = code
	return e
}

// NewConfiguration reports a missing credential. The affected feature is
// degraded rather than the whole process crashing.
func NewConfiguration(message string) *AppError {
	return newError(KindConfiguration, SeverityCritical, message, "This feature is not configured. Please contact support.", false)
}

// NewParse reports a provider response that was not valid JSON or had the
// wrong shape.
func NewParse(message, userMessage string) *AppError {
	return newError(KindParse, SeverityHigh, message, userMessage, true)
}

// NewUnknown is the fallback classification.
func NewUnknown(message string) *AppError {
	return newError(KindUnknown, SeverityMedium, message, "Something went wrong. Please try again.", true)
}

// From returns err as an *AppError, classifying unrecognized errors as
// unknown.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewUnknown(err.Error()).WithCause(err)
}
