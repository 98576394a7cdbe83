// Package domain defines domain-specific errors.
// These errors represent engine failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
	"time"
)

// Common errors that services can return.
var (
	// ErrFetch matches any FetchError.
	ErrFetch = errors.New("fetch failed")

	// ErrDecode matches any DecodeError.
	ErrDecode = errors.New("decode failed")

	// ErrUnsupportedFormat matches any UnsupportedFormatError.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrPlaybackAborted matches any PlaybackAbortedError.
	ErrPlaybackAborted = errors.New("playback aborted")

	// ErrOutOfRange matches any OutOfRangeError.
	ErrOutOfRange = errors.New("position out of range")

	// ErrNoAssetBound is returned when playback is requested with nothing bound or loading.
	ErrNoAssetBound = errors.New("no asset bound")

	// ErrStaleAsset is returned when a bind was superseded before it completed,
	// or when a tick carries a token for an asset that is no longer bound.
	ErrStaleAsset = errors.New("asset binding superseded")

	// ErrInvalidTrackHandle is returned when an invalid track handle is used.
	ErrInvalidTrackHandle = errors.New("invalid track handle")

	// ErrInvalidVolume is returned when the volume is out of valid range (0.0-1.0).
	ErrInvalidVolume = errors.New("invalid volume: must be between 0.0 and 1.0")

	// ErrInvalidRate is returned when the playback rate is outside the supported range.
	ErrInvalidRate = errors.New("invalid playback rate")

	// ErrUnknownMode is returned for a visualization mode string that is not recognised.
	ErrUnknownMode = errors.New("unknown visualization mode")

	// ErrNotInitialized is returned when an operation is attempted on an uninitialized component.
	ErrNotInitialized = errors.New("component not initialized")

	// ErrAlreadyInitialized is returned when attempting to initialize an already initialized component.
	ErrAlreadyInitialized = errors.New("component already initialized")

	// ErrEmptyBuffer is returned when a decoded buffer holds no samples.
	ErrEmptyBuffer = errors.New("empty sample buffer")
)

// FetchError is returned when the asset bytes could not be retrieved.
// StatusCode is zero for transport failures.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch '%s' failed: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch '%s' failed: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrFetch.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// NewFetchError creates a new FetchError.
func NewFetchError(url string, statusCode int, err error) *FetchError {
	return &FetchError{URL: url, StatusCode: statusCode, Err: err}
}

// DecodeError is returned when the bytes could not be parsed as audio.
type DecodeError struct {
	URL    string
	Format string
	Err    error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("decode %s '%s' failed: %v", e.Format, e.URL, e.Err)
	}
	return fmt.Sprintf("decode '%s' failed: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrDecode.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// NewDecodeError creates a new DecodeError.
func NewDecodeError(url, format string, err error) *DecodeError {
	return &DecodeError{URL: url, Format: format, Err: err}
}

// UnsupportedFormatError is returned when the container is not one we can decode.
// Format holds the detected container name, or is empty when nothing matched.
type UnsupportedFormatError struct {
	URL    string
	Format string
}

// Error implements the error interface.
func (e *UnsupportedFormatError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("unsupported audio format for '%s': unrecognised data", e.URL)
	}
	return fmt.Sprintf("unsupported audio format for '%s': %s", e.URL, e.Format)
}

// Is reports whether target is ErrUnsupportedFormat.
func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// NewUnsupportedFormatError creates a new UnsupportedFormatError.
func NewUnsupportedFormatError(url, format string) *UnsupportedFormatError {
	return &UnsupportedFormatError{URL: url, Format: format}
}

// PlaybackAbortedError is returned when the output device refused to start.
type PlaybackAbortedError struct {
	Err error
}

// Error implements the error interface.
func (e *PlaybackAbortedError) Error() string {
	return fmt.Sprintf("playback aborted: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *PlaybackAbortedError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrPlaybackAborted.
func (e *PlaybackAbortedError) Is(target error) bool {
	return target == ErrPlaybackAborted
}

// NewPlaybackAbortedError creates a new PlaybackAbortedError.
func NewPlaybackAbortedError(err error) *PlaybackAbortedError {
	return &PlaybackAbortedError{Err: err}
}

// OutOfRangeError describes a seek target outside [0, Duration].
// It is recovered locally by clamping and never surfaced to callers.
type OutOfRangeError struct {
	Requested time.Duration
	Duration  time.Duration
}

// Error implements the error interface.
func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("seek to %v outside [0, %v]", e.Requested, e.Duration)
}

// Is reports whether target is ErrOutOfRange.
func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

// NewOutOfRangeError creates a new OutOfRangeError.
func NewOutOfRangeError(requested, duration time.Duration) *OutOfRangeError {
	return &OutOfRangeError{Requested: requested, Duration: duration}
}

// AudioEngineError represents an error from the audio engine.
// This wraps low-level audio library errors with additional context.
type AudioEngineError struct {
	Op      string // Operation that failed (e.g., "load", "play", "seek")
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AudioEngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("audio engine %s failed: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("audio engine %s failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *AudioEngineError) Unwrap() error {
	return e.Err
}

// NewAudioEngineError creates a new AudioEngineError.
func NewAudioEngineError(op, message string, err error) *AudioEngineError {
	return &AudioEngineError{Op: op, Message: message, Err: err}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string      // Field that failed validation
	Value   interface{} // Value that failed validation
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ErrorReason classifies surfaced errors for the onError notification.
type ErrorReason string

// Error reasons reported to subscribers.
const (
	ReasonFetch             ErrorReason = "FetchError"
	ReasonDecode            ErrorReason = "DecodeError"
	ReasonUnsupportedFormat ErrorReason = "UnsupportedFormatError"
	ReasonPlaybackAborted   ErrorReason = "PlaybackAbortedError"
	ReasonUnknown           ErrorReason = "UnknownError"
)

// Retryable reports whether the UI should offer a retry affordance.
func (r ErrorReason) Retryable() bool {
	return r == ReasonFetch || r == ReasonPlaybackAborted
}

// ClassifyError maps an error onto its ErrorReason.
func ClassifyError(err error) ErrorReason {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupportedFormat):
		return ReasonUnsupportedFormat
	case errors.Is(err, ErrDecode):
		return ReasonDecode
	case errors.Is(err, ErrFetch):
		return ReasonFetch
	case errors.Is(err, ErrPlaybackAborted):
		return ReasonPlaybackAborted
	default:
		return ReasonUnknown
	}
}
