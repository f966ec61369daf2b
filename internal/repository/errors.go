// Package repository defines the persistence interfaces used by the
// services and their SQL and Redis implementations.  The sentinel errors
// below let higher layers distinguish failure scenarios regardless of the
// backend selected at startup.
package repository

import "errors"

// ErrNotFound is returned when the requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers translate this into 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write cannot proceed because of
// conflicting state, such as an overlapping booking committed by a
// concurrent writer. Handlers translate this into 409.
var ErrConflict = errors.New("conflict")

// ErrAlreadyRegistered is returned when a user RSVPs to the same event twice.
var ErrAlreadyRegistered = errors.New("already registered for this event")

// ErrEmailExists is returned when an account with the email already exists.
var ErrEmailExists = errors.New("email already exists")
