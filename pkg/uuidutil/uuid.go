// Package uuidutil generates operator session identifiers.
package uuidutil

import "github.com/google/uuid"

// NewV4 generates a random UUID v4 string.
// Panics if the random source fails, like uuid.New.
func NewV4() string {
	return uuid.New().String()
}

// NewSessionID returns the id stamped on every audit entry of one CLI run.
func NewSessionID() string {
	return "sgov-" + NewV4()
}
