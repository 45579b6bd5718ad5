// Package errs defines the controller's error taxonomy: a single wrapping
// type carrying a classification plus the underlying cause, so callers can
// branch with errors.As/errors.Is instead of string matching.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a controller error.
type Kind string

const (
	ConfigInvalid           Kind = "ConfigInvalid"
	MarketAccessUnavailable Kind = "MarketAccessUnavailable"
	MarketDataUnavailable   Kind = "MarketDataUnavailable"
	SpreadTooWide           Kind = "SpreadTooWide"
	NoSignal                Kind = "NoSignal"
	LowConfidence           Kind = "LowConfidence"
	ProtectionPaused        Kind = "ProtectionPaused"
	StopDistanceRejected    Kind = "StopDistanceRejected"
	OrderRejected           Kind = "OrderRejected"
	FillingModeUnsupported  Kind = "FillingModeUnsupported"
	Internal                Kind = "Internal"
)

// Error wraps a classified controller error.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a *Error with the same Kind, so callers can
// do errors.Is(err, errs.New(errs.SpreadTooWide, "")).
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return other.Kind == e.Kind
	}
	return false
}

// New builds a classified error.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap builds a classified error around an underlying cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// KindOf extracts the Kind of err if it is (or wraps) a *Error, and
// Internal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Skippable reports whether the error kind should cause the bot loop to
// skip the current cycle and continue (every kind except the two that are
// only ever surfaced at bot start: ConfigInvalid, MarketAccessUnavailable).
func Skippable(kind Kind) bool {
	switch kind {
	case ConfigInvalid, MarketAccessUnavailable:
		return false
	default:
		return true
	}
}
