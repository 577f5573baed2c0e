package pricechat

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrTurnInProgress indicates Submit was called while a turn is still
	// sending or streaming.
	ErrTurnInProgress = errors.New("turn in progress")

	// ErrEmptyMessage indicates Submit was called with blank text.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrValidation indicates a request failed validation.
	ErrValidation = errors.New("validation error")

	// ErrNoActiveTurn indicates an operation that requires an open turn was
	// called while idle or closed.
	ErrNoActiveTurn = errors.New("no active turn")

	// ErrProtocol indicates the server response violated the streaming wire
	// contract in a way that cannot be recovered frame by frame.
	ErrProtocol = errors.New("protocol error")

	// ErrIncompleteStream indicates the transport closed before the
	// terminating sentinel frame arrived.
	ErrIncompleteStream = errors.New("stream ended before completion")

	// ErrUnauthorized indicates the server rejected the auth credential.
	ErrUnauthorized = errors.New("unauthorized")
)
