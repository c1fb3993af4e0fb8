package domain

import "errors"

var (
	// ErrUpstream wraps transport failures, non-2xx replies and malformed JSON from the courier.
	ErrUpstream = errors.New("courier unavailable")
	// ErrRejected wraps a courier reply whose status is not 1.
	ErrRejected = errors.New("courier rejected request")
	// ErrInvalidCredentials marks a rejection caused by a bad API key or password.
	ErrInvalidCredentials = errors.New("invalid courier credentials")
)
