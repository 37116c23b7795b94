// Package services defines the business logic for contacts.
// This file centralizes service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed
// at the handler layer.
package services

import (
	"errors"
	"strings"
)

var (
	// ErrContactNotFound indicates that the requested contact does not exist
	// (or vanished between an existence check and a write).
	ErrContactNotFound = errors.New("contact not found")

	// ErrEmailTaken is returned when a create or update would give a contact
	// an email already held by another contact. It covers both the
	// pre-emptive lookup and a unique-index rejection from the store.
	ErrEmailTaken = errors.New("email already exists")
)

// ValidationError carries the per-field problems found in a payload, in the
// order name, email, phone.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "invalid contact: " + strings.Join(e.Errors, "; ")
}
