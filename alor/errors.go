package alor

import "errors"

// The client classifies every failure into one of three kinds so callers can
// decide between giving up and retrying with errors.Is.
var (
	// ErrAuth marks a rejected or missing token. Never retried.
	ErrAuth = errors.New("alor: authorization failed")

	// ErrConnection marks a transport-level failure. The quote stream retries
	// these up to its configured bound; REST calls surface them immediately.
	ErrConnection = errors.New("alor: connection failed")

	// ErrAPI marks a malformed or unexpected server response. Fatal for the
	// current call, not retried.
	ErrAPI = errors.New("alor: unexpected api response")
)
