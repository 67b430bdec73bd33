package vultrdns

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBadResponse marks a provider response whose body did not match the
// shape the API documents. It indicates a broken contract rather than an
// error the provider reported, so it is kept distinct from APIError.
var ErrBadResponse = errors.New("unexpected response shape from vultr api")

// APIError is returned when the Vultr API responds with a status >= 400.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vultr api error (%d): %s", e.StatusCode, e.Message)
}

// DetectionError is returned when every configured IP check service failed.
// Failures holds one description per service, in the order they were tried.
type DetectionError struct {
	Failures []string
}

func (e *DetectionError) Error() string {
	var b strings.Builder
	b.WriteString("failed to detect public IP:")
	for _, f := range e.Failures {
		b.WriteString("\n  - ")
		b.WriteString(f)
	}
	return b.String()
}

// ConfigError describes a missing, unreadable, or invalid configuration.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config: %s: %s", e.Reason, e.Err)
	}
	return "config: " + e.Reason
}

func (e *ConfigError) Unwrap() error { return e.Err }
