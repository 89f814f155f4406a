package graphseq

import (
	"errors"
	"fmt"
)

// Error kinds reported by the extraction pipeline.
var (
	// ErrDiscovery indicates no run directories or no snapshot files were found.
	ErrDiscovery = errors.New("graphseq: discovery failed")

	// ErrDecode indicates a snapshot whose contents cannot form a square field.
	ErrDecode = errors.New("graphseq: snapshot decode failed")

	// ErrConfiguration indicates invalid parameters.
	ErrConfiguration = errors.New("graphseq: invalid configuration")
)

// DiscoveryError wraps ErrDiscovery with the path that yielded nothing.
type DiscoveryError struct {
	Path   string
	Reason string
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrDiscovery.Error(), e.Path, e.Reason)
}

func (e *DiscoveryError) Unwrap() error {
	return ErrDiscovery
}

// DecodeError wraps ErrDecode with the offending file.
type DecodeError struct {
	Path   string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", ErrDecode.Error(), e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrDecode, e.Err}
	}
	return []error{ErrDecode}
}

// ConfigError wraps ErrConfiguration with the offending option.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrConfiguration.Error(), e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfiguration
}

// Configf is shorthand for building a *ConfigError.
func Configf(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
