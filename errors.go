package graph

import "errors"

var (
	// ErrPortMismatch is returned when a connection definition pairs
	// ports of different element types or wrong directions.
	ErrPortMismatch = errors.New("port mismatch")

	// ErrAlreadyConnected is returned when a destination port already
	// has a connection.
	ErrAlreadyConnected = errors.New("already connected")

	// ErrWork is returned when a block's Work reported WorkError.
	ErrWork = errors.New("work error")
)
