// Package provider implements the client for the remote generative-AI
// backend and the executor that normalizes image and video generation into a
// single contract. This file centralizes the provider-level error values so
// that callers can classify failures without string matching.
//
// Every failure surfaced by this package wraps one of these sentinels (or is
// a transport error from net/http). The service layer absorbs all of them
// into item state; nothing here is fatal.
package provider

import "errors"

var (
	// ErrNoPayload is returned when an image response carries no inline
	// result data.
	ErrNoPayload = errors.New("no result payload")

	// ErrMissingResult is returned when a video job reports completion
	// without a usable result locator.
	ErrMissingResult = errors.New("missing result locator")

	// ErrFetchFailed is returned when retrieving the produced bytes from the
	// result locator does not succeed.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrJobTimeout is returned when a video job does not reach a terminal
	// state within the configured poll budget.
	ErrJobTimeout = errors.New("job timed out")

	// ErrRemote is returned when the provider answers with a non-success
	// HTTP status.
	ErrRemote = errors.New("provider error")
)
