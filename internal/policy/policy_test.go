package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pawhaven/pet-adoption-api/internal/model"
)

func TestAuthorizeAdminBypassesOwnership(t *testing.T) {
	admin := Actor{ID: 99, Role: model.RoleAdmin}
	for _, action := range []Action{
		AdoptionRead, AdoptionApprove, AdoptionReject, AdoptionCancel,
		AdoptionDelete, AdoptionListByPet, PetWrite,
		UserList, UserRead, UserUpdate, UserDelete, UserChangePassword,
	} {
		assert.NoError(t, Authorize(admin, action, 1), "action %d", action)
	}
}

func TestAuthorizeOwner(t *testing.T) {
	owner := Actor{ID: 7, Role: model.RoleUser}

	// Ownership grants the owner-or-admin actions.
	assert.NoError(t, Authorize(owner, AdoptionRead, 7))
	assert.NoError(t, Authorize(owner, AdoptionCancel, 7))
	assert.NoError(t, Authorize(owner, UserRead, 7))
	assert.NoError(t, Authorize(owner, UserUpdate, 7))
	assert.NoError(t, Authorize(owner, UserChangePassword, 7))

	// Ownership never grants admin-only actions.
	assert.ErrorIs(t, Authorize(owner, AdoptionApprove, 7), ErrForbidden)
	assert.ErrorIs(t, Authorize(owner, AdoptionReject, 7), ErrForbidden)
	assert.ErrorIs(t, Authorize(owner, AdoptionDelete, 7), ErrForbidden)
	assert.ErrorIs(t, Authorize(owner, AdoptionListByPet, 7), ErrForbidden)
	assert.ErrorIs(t, Authorize(owner, PetWrite, 7), ErrForbidden)
	assert.ErrorIs(t, Authorize(owner, UserList, 7), ErrForbidden)
	assert.ErrorIs(t, Authorize(owner, UserDelete, 7), ErrForbidden)
}

func TestAuthorizeStranger(t *testing.T) {
	stranger := Actor{ID: 8, Role: model.RoleUser}
	for _, action := range []Action{
		AdoptionRead, AdoptionCancel, UserRead, UserUpdate, UserChangePassword,
	} {
		assert.ErrorIs(t, Authorize(stranger, action, 7), ErrForbidden, "action %d", action)
	}
}

func TestAuthorizeUnknownActionDenied(t *testing.T) {
	assert.ErrorIs(t, Authorize(Actor{ID: 1, Role: model.RoleUser}, Action(1000), 1), ErrForbidden)
}
