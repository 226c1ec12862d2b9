package buffer

import "errors"

var (
	// ErrInvalidArgument is returned when a constructor argument is out of
	// its documented domain, e.g. a zero capacity.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrOutOfRange is returned by checked element access beyond the
	// current size.
	ErrOutOfRange = errors.New("out of range")

	// ErrResourceExhausted is returned when backing storage cannot be
	// allocated or mapped.
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrTimeout is returned by deadline-bound wait strategies when the
	// awaited sequence did not advance in time.
	ErrTimeout = errors.New("timeout")

	// ErrContractBreach marks a programming error in buffer usage, e.g.
	// consuming more samples than the acquired window holds.
	ErrContractBreach = errors.New("contract breach")
)
