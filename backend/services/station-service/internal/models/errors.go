package models

import "errors"

var (
	// ErrStationNotFound is returned when the target station does not exist.
	ErrStationNotFound = errors.New("station not found")
	// ErrStationExists is returned when registering an id that is already taken.
	ErrStationExists = errors.New("station already exists")
	// ErrFaultCauseNotFound is returned when a referenced fault cause is not in the catalog.
	ErrFaultCauseNotFound = errors.New("fault cause not found")
	// ErrUserNotFound represents missing user rows.
	ErrUserNotFound = errors.New("user not found")
)
