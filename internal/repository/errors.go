// Package repository implements data access against MySQL.  This file
// defines sentinel errors shared across repositories so handlers can map
// failure modes to HTTP statuses without inspecting driver errors.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update or delete cannot proceed because
// of dependent state, such as cancelling a canteen order that is already
// being prepared.  Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrNotFound is returned by lookups that target a single row the caller
// named explicitly.  Handlers translate this into HTTP 404.
var ErrNotFound = errors.New("not found")
