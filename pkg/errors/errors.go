package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport indicates an upstream request could not be completed
	ErrTransport = errors.New("upstream transport failure")

	// ErrRemoteService indicates an upstream answered with a non-success status
	ErrRemoteService = errors.New("upstream returned an error status")

	// ErrMalformedResponse indicates an upstream body did not have the expected shape
	ErrMalformedResponse = errors.New("malformed upstream response")
)

// Wrapf wraps an error with a formatted message
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// IsTransport reports whether the upstream could not be reached
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsRemoteService reports whether the upstream answered with an error status
func IsRemoteService(err error) bool {
	return errors.Is(err, ErrRemoteService)
}

// IsMalformedResponse reports whether an upstream body could not be understood
func IsMalformedResponse(err error) bool {
	return errors.Is(err, ErrMalformedResponse)
}
