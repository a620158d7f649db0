package auth

import "errors"

var (
	// ErrNotAuthenticated indicates an operation was attempted without an
	// active session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrExchangeFailed indicates the authorization code exchange was
	// rejected upstream.
	ErrExchangeFailed = errors.New("authentication failed")
	// ErrInvalidConfig indicates structurally invalid OAuth configuration.
	ErrInvalidConfig = errors.New("invalid oauth configuration")
)
