package service

import "errors"

var (
	// ErrUnknownPeriod is returned by editor operations on a period ID that is
	// not part of the current generation.
	ErrUnknownPeriod = errors.New("unknown period")

	// ErrUnknownBreakdown is returned when a breakdown ID is not in the
	// editor's list.
	ErrUnknownBreakdown = errors.New("unknown breakdown")
)
