package datalayer

import "errors"

var (
	// ErrNotAuthenticated is returned when a data-layer operation is
	// invoked without an established session. Callers must Login first;
	// the client never performs an implicit first login.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrProtocolViolation is returned when the device answered
	// successfully but the response is unusable: the token response is
	// missing its credential or scheme field, or the token payload
	// cannot be decoded.
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrRenewalLoop is returned when a freshly issued token is already
	// past its renewal watermark, which would otherwise renew forever.
	// It indicates a clock problem on the device or the host.
	ErrRenewalLoop = errors.New("fresh token already past renewal watermark")
)
