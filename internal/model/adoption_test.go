package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	// Pending may move to any decision.
	assert.True(t, CanTransition(AdoptionPending, AdoptionApproved))
	assert.True(t, CanTransition(AdoptionPending, AdoptionRejected))
	assert.True(t, CanTransition(AdoptionPending, AdoptionCancelled))

	// Identity transition on Pending is not legal.
	assert.False(t, CanTransition(AdoptionPending, AdoptionPending))

	// Terminal statuses admit nothing, including re-applying the same
	// decision.
	for _, terminal := range []string{AdoptionApproved, AdoptionRejected, AdoptionCancelled} {
		for _, to := range []string{AdoptionPending, AdoptionApproved, AdoptionRejected, AdoptionCancelled} {
			assert.False(t, CanTransition(terminal, to), "%s -> %s", terminal, to)
		}
	}

	// Garbage in, false out.
	assert.False(t, CanTransition("", AdoptionApproved))
	assert.False(t, CanTransition(AdoptionPending, "Archived"))
}

func TestTerminalAdoptionStatus(t *testing.T) {
	assert.False(t, TerminalAdoptionStatus(AdoptionPending))
	assert.True(t, TerminalAdoptionStatus(AdoptionApproved))
	assert.True(t, TerminalAdoptionStatus(AdoptionRejected))
	assert.True(t, TerminalAdoptionStatus(AdoptionCancelled))
	assert.False(t, TerminalAdoptionStatus("Archived"))
}

func TestValidAdoptionStatus(t *testing.T) {
	for _, s := range []string{AdoptionPending, AdoptionApproved, AdoptionRejected, AdoptionCancelled} {
		assert.True(t, ValidAdoptionStatus(s))
	}
	assert.False(t, ValidAdoptionStatus("pending")) // case sensitive
	assert.False(t, ValidAdoptionStatus(""))
}

func TestValidResidenceType(t *testing.T) {
	for _, s := range ResidenceTypes {
		assert.True(t, ValidResidenceType(s))
	}
	assert.False(t, ValidResidenceType("Boat"))
}
