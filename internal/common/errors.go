// Package common defines shared sentinel errors used across the client
// layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Transport-level errors.
	ErrUnavailable = errors.New("server unavailable")

	// Auth errors (rejected credentials or token).
	ErrUnauthorized = errors.New("unauthorized")

	// Resource errors.
	ErrNotFound = errors.New("not found")

	// Client-side validation failures; never reach the network.
	ErrValidation = errors.New("validation error")

	// Returned when a mutating auth operation is requested while another
	// one is still in flight.
	ErrOperationInFlight = errors.New("operation already in flight")
)
