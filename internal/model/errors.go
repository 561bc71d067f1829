// Package model holds the shared error variants and record types.
package model

import "errors"

var (
	// ErrConsoleUnusable is returned when the pty device can no longer be
	// read or written. The multiplexer has no purpose without the pty, so
	// observing this error terminates the process.
	ErrConsoleUnusable = errors.New("console device unusable")

	// ErrConnectionNotFound is returned when a connection audit record is
	// not found.
	ErrConnectionNotFound = errors.New("connection not found")
)
