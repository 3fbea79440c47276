// Package policy centralizes every role/ownership rule that produces a
// 403 in this API.  Handlers call Authorize with the acting user, the
// operation being attempted and the owner of the resource instead of
// spreading role comparisons across the codebase.
package policy

import (
	"errors"

	"github.com/pawhaven/pet-adoption-api/internal/model"
)

// ErrForbidden is returned whenever the actor is not permitted to
// perform the requested action.  Handlers translate it to HTTP 403.
var ErrForbidden = errors.New("forbidden")

// Actor identifies the authenticated caller.
type Actor struct {
	ID   uint64
	Role string
}

// Admin reports whether the actor carries the admin role.
func (a Actor) Admin() bool { return a.Role == model.RoleAdmin }

// Action enumerates the operations the policy knows about.
type Action int

const (
	AdoptionRead Action = iota
	AdoptionApprove
	AdoptionReject
	AdoptionCancel
	AdoptionDelete
	AdoptionListByPet
	PetWrite
	UserList
	UserRead
	UserUpdate
	UserDelete
	UserChangePassword
)

// adminOnly actions never consider ownership.
var adminOnly = map[Action]bool{
	AdoptionApprove:   true,
	AdoptionReject:    true,
	AdoptionDelete:    true,
	AdoptionListByPet: true,
	PetWrite:          true,
	UserList:          true,
	UserDelete:        true,
}

// ownerOrAdmin actions are allowed to the resource owner as well.
var ownerOrAdmin = map[Action]bool{
	AdoptionRead:       true,
	AdoptionCancel:     true,
	UserRead:           true,
	UserUpdate:         true,
	UserChangePassword: true,
}

// Authorize decides whether actor may perform action on a resource
// owned by ownerID.  For actions that ignore ownership, pass zero.
// It returns nil to allow and ErrForbidden to deny.
func Authorize(actor Actor, action Action, ownerID uint64) error {
	if actor.Admin() {
		return nil
	}
	if ownerOrAdmin[action] && actor.ID == ownerID {
		return nil
	}
	if adminOnly[action] || ownerOrAdmin[action] {
		return ErrForbidden
	}
	// Unknown actions are denied rather than silently allowed.
	return ErrForbidden
}
