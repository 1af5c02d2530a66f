package models

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	apperrors "github.com/kyvra-tech/iss-flyover-tracker/pkg/errors"
)

// ErrorCode represents a custom error code for the application
type ErrorCode string

const (
	// General errors
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeTimeout           ErrorCode = "REQUEST_TIMEOUT"

	// Upstream lookup errors
	ErrCodeUpstreamUnreachable ErrorCode = "UPSTREAM_UNREACHABLE"
	ErrCodeUpstreamStatus      ErrorCode = "UPSTREAM_STATUS"
	ErrCodeUpstreamMalformed   ErrorCode = "UPSTREAM_MALFORMED"
)

// Stage identifies one of the sequential lookups of an orchestration run
type Stage string

const (
	StageIP          Stage = "ip"
	StageCoordinates Stage = "coordinates"
	StagePasses      Stage = "iss"
)

// Label is the wording used in error messages ("when fetching <label>")
func (s Stage) Label() string {
	switch s {
	case StageIP:
		return "IP"
	case StageCoordinates:
		return "coordinates"
	case StagePasses:
		return "ISS info"
	default:
		return string(s)
	}
}

// TransportError means the request never produced a response
type TransportError struct {
	Stage Stage
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error when fetching %s: %v", e.Stage.Label(), e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == apperrors.ErrTransport }

// Timeout reports whether the underlying cause was a deadline
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// RemoteServiceError means the upstream answered with a non-success status
type RemoteServiceError struct {
	Stage      Stage
	StatusCode int
	Body       string
}

func (e *RemoteServiceError) Error() string {
	return fmt.Sprintf("Status Code %d when fetching %s. Response: %s", e.StatusCode, e.Stage.Label(), e.Body)
}

func (e *RemoteServiceError) Is(target error) bool { return target == apperrors.ErrRemoteService }

// MalformedResponseError means the body was not JSON or lacked a required field
type MalformedResponseError struct {
	Stage Stage
	Body  string
	Err   error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response when fetching %s: %v", e.Stage.Label(), e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

func (e *MalformedResponseError) Is(target error) bool {
	return target == apperrors.ErrMalformedResponse
}

// AppError represents a structured application error
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	StatusCode int                    `json:"-"`
	Internal   error                  `json:"-"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Code, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the internal error for error chain support
func (e *AppError) Unwrap() error {
	return e.Internal
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithMetadata adds metadata to the error
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// Common error constructors

func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Code:       ErrCodeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   err,
	}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{
		Code:       ErrCodeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewRateLimitError(message string) *AppError {
	return &AppError{
		Code:       ErrCodeRateLimitExceeded,
		Message:    message,
		StatusCode: http.StatusTooManyRequests,
	}
}

func NewTimeoutError(message string) *AppError {
	return &AppError{
		Code:       ErrCodeTimeout,
		Message:    message,
		StatusCode: http.StatusGatewayTimeout,
	}
}

// NewUpstreamError maps a stage failure onto an API error. Anything that is
// not a stage error becomes an internal error.
func NewUpstreamError(err error) *AppError {
	var (
		transport *TransportError
		remote    *RemoteServiceError
		malformed *MalformedResponseError
	)

	switch {
	case errors.As(err, &transport):
		status := http.StatusBadGateway
		if transport.Timeout() {
			status = http.StatusGatewayTimeout
		}
		return (&AppError{
			Code:       ErrCodeUpstreamUnreachable,
			Message:    fmt.Sprintf("Could not reach the service used for fetching %s", transport.Stage.Label()),
			StatusCode: status,
			Internal:   err,
		}).WithDetails(transport.Err.Error()).WithMetadata("stage", transport.Stage)

	case errors.As(err, &remote):
		return (&AppError{
			Code:       ErrCodeUpstreamStatus,
			Message:    fmt.Sprintf("Upstream error when fetching %s", remote.Stage.Label()),
			StatusCode: http.StatusBadGateway,
			Internal:   err,
		}).WithDetails(remote.Body).
			WithMetadata("stage", remote.Stage).
			WithMetadata("status_code", remote.StatusCode)

	case errors.As(err, &malformed):
		return (&AppError{
			Code:       ErrCodeUpstreamMalformed,
			Message:    fmt.Sprintf("Unexpected response when fetching %s", malformed.Stage.Label()),
			StatusCode: http.StatusBadGateway,
			Internal:   err,
		}).WithDetails(malformed.Err.Error()).WithMetadata("stage", malformed.Stage)
	}

	return NewInternalError("Failed to determine ISS passes", err)
}
