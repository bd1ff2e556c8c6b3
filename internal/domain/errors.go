package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record id is absent from its collection
	ErrNotFound = errors.New("not found")

	// ErrNotConfigured is returned when an upstream credential is missing
	ErrNotConfigured = errors.New("provider not configured")

	// ErrNoFrames is returned when no frame could be decoded from a video
	ErrNoFrames = errors.New("could not extract frames from video")

	// ErrMediaDecode is returned for unusable uploads
	ErrMediaDecode = errors.New("unusable media upload")
	// ErrInvalidInput is returned when a request is missing required fields
	ErrInvalidInput = errors.New("invalid input")
)

// UpstreamError wraps a network or API failure talking to a model
type UpstreamError struct {
	Provider string
	Model    string
	Err      error
}

func (e *UpstreamError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("%s (%s) call failed: %v", e.Provider, e.Model, e.Err)
	}
	return fmt.Sprintf("%s call failed: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// ParseFailure describes model output that is not a JSON object.
// It is carried as data, callers treat it as a degraded result.
type ParseFailure struct {
	Raw   string
	Cause error
}

func (e *ParseFailure) Error() string {
	return fmt.Sprintf("parsing failed: %v", e.Cause)
}

func (e *ParseFailure) Unwrap() error {
	return e.Cause
}
