// Package services defines the business logic for generations, the asset
// library, and the user profile. This file centralizes common service-level
// error values so that they can be consistently returned by service methods
// and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the handler
// layer.
package services

import "errors"

var (
	// ErrEmptyPrompt is returned when a submission contains a blank prompt.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrPromptTooLong is returned when a prompt exceeds the configured
	// maximum length.
	ErrPromptTooLong = errors.New("prompt too long")

	// ErrInvalidTool is returned when the requested tool is not one of the
	// supported variants.
	ErrInvalidTool = errors.New("unknown tool")

	// ErrGenerationInFlight is returned when a submission arrives while a
	// previous generation is still being resolved. One generation runs at a
	// time.
	ErrGenerationInFlight = errors.New("a generation is already in progress")

	// ErrGenerationNotFound indicates that the requested generation does not
	// exist or is not accessible to the current user.
	ErrGenerationNotFound = errors.New("generation not found")

	// ErrProfileNotFound indicates the profile row has not been seeded yet.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrEmptyQuery is returned when a library search has no usable query.
	ErrEmptyQuery = errors.New("query is empty")
)
