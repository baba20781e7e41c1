package shared

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks malformed or missing caller input.
	ErrValidation = errors.New("validation failed")
	// ErrUpstream marks a failed call to an external vendor.
	ErrUpstream = errors.New("upstream unavailable")
	// ErrConfig marks a missing credential or identifier.
	ErrConfig = errors.New("configuration incomplete")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrValidation) match.
func (e ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ConfigError names the settings that are required but absent.
type ConfigError struct {
	Settings []string
}

func (e ConfigError) Error() string {
	return "missing configuration: " + strings.Join(e.Settings, ", ")
}

// Is lets errors.Is(err, ErrConfig) match.
func (e ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// UpstreamError carries the vendor response for diagnostics. StatusCode is
// zero when the vendor could not be reached at all.
type UpstreamError struct {
	Vendor     string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s unreachable: %v", e.Vendor, e.Err)
	}
	body := e.Body
	if len(body) > 256 {
		body = body[:256]
	}
	msg := fmt.Sprintf("%s returned status %d: %s", e.Vendor, e.StatusCode, body)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrUpstream) match.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}
