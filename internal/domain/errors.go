package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidAmount   = errors.New("invalid order amount")
	ErrSigningFailed   = errors.New("signing failed")
	ErrOutcomeNotFound = errors.New("outcome not found")
	ErrTransport       = errors.New("transport error")
	ErrWSDisconnect    = errors.New("websocket disconnected")
	ErrLockHeld        = errors.New("lock already held")
)
