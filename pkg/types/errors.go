package types

import (
	"errors"
	"fmt"
)

// ErrCapabilityUnavailable marks an optional subsystem that could not be used
var ErrCapabilityUnavailable = errors.New("capability unavailable")

// LoadError reports an image that could not be opened or decoded.
// Stage is "load" during analysis and "visualize" when re-reading for annotation.
type LoadError struct {
	Path  string
	Stage string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: cannot load image %q: %v", e.Stage, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports an invalid parameter rejected before processing
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

// CapabilityError wraps the reason an optional subsystem is unusable
type CapabilityError struct {
	Capability string
	Err        error
}

func (e *CapabilityError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Capability, ErrCapabilityUnavailable)
	}
	return fmt.Sprintf("%s: %v: %v", e.Capability, ErrCapabilityUnavailable, e.Err)
}

func (e *CapabilityError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrCapabilityUnavailable}
	}
	return []error{ErrCapabilityUnavailable, e.Err}
}

// NewConfigError is a shorthand for building a ConfigurationError
func NewConfigError(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
