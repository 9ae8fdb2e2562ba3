package queue

import "errors"

var (
	// ErrNameRequired rejects admission when the name trims to empty.
	ErrNameRequired = errors.New("name is required")

	// ErrDayNotOpen rejects admissions and day-finish while no day is open.
	ErrDayNotOpen = errors.New("no day is open")

	// ErrDayAlreadyOpen rejects starting a day that is already open.
	ErrDayAlreadyOpen = errors.New("day is already open")

	// ErrIndexOutOfRange rejects history operations with a bad index.
	ErrIndexOutOfRange = errors.New("history index out of range")
)
