// Package repository implements the persistence layer on top of MySQL.
// This file defines sentinel error values shared across repositories so
// that handlers can map failure scenarios to HTTP statuses with
// errors.Is instead of inspecting driver errors.
package repository

import (
	"errors"
	"strings"
)

// ErrEmailExists is returned by UserRepo.Create when the email address
// is already registered. Handlers translate it into HTTP 400.
var ErrEmailExists = errors.New("email already registered")

// ErrDuplicateRequest is returned when inserting an adoption request
// violates the UNIQUE (user_id, pet_id) constraint. The constraint is
// the storage layer's last line of defense behind the explicit
// pending-request check in the lifecycle handler. Handlers translate it
// into HTTP 400.
var ErrDuplicateRequest = errors.New("adoption request already exists for this user and pet")

// ErrConflict is returned when a conditional status update matched no
// rows, meaning the record was concurrently moved out of the expected
// state. Handlers translate it into HTTP 409.
var ErrConflict = errors.New("conflict")

// isDuplicateKey reports whether err is a MySQL duplicate-entry error
// (code 1062).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
