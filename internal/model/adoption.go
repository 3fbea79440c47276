package model

import "time"

// Adoption request status values stored in adoption_requests.status.
// Pending is the only non-terminal status; Approved, Rejected and
// Cancelled admit no further transitions.
const (
	AdoptionPending   = "Pending"
	AdoptionApproved  = "Approved"
	AdoptionRejected  = "Rejected"
	AdoptionCancelled = "Cancelled"
)

// CascadeRejectComment is written into sibling Pending requests when a
// competing request for the same pet is approved.
const CascadeRejectComment = "Pet was adopted by another user"

// ValidAdoptionStatus reports whether s is one of the four enum values.
func ValidAdoptionStatus(s string) bool {
	switch s {
	case AdoptionPending, AdoptionApproved, AdoptionRejected, AdoptionCancelled:
		return true
	}
	return false
}

// adoptionTransitions is the explicit state-machine table for adoption
// requests.  A transition is legal only when present here; everything
// else, including any transition out of a terminal status and the
// identity transition on Pending, is rejected up front.
var adoptionTransitions = map[string]map[string]bool{
	AdoptionPending: {
		AdoptionApproved:  true,
		AdoptionRejected:  true,
		AdoptionCancelled: true,
	},
}

// CanTransition reports whether an adoption request may move from the
// current status to the requested one.
func CanTransition(from, to string) bool {
	return adoptionTransitions[from][to]
}

// TerminalAdoptionStatus reports whether s admits no further
// transitions.
func TerminalAdoptionStatus(s string) bool {
	return ValidAdoptionStatus(s) && len(adoptionTransitions[s]) == 0
}

// AdoptionRequest represents a user's application to adopt a specific
// pet, as stored in the `adoption_requests` table.  The questionnaire
// fields are flattened into columns.  A UNIQUE KEY on (user_id, pet_id)
// means a user can hold at most one request per pet, in any status.
//
// Fields:
//  ID            – primary key identifier.
//  UserID        – applicant.
//  PetID         – pet the application targets.
//  Status        – Pending, Approved, Rejected or Cancelled.
//  ResidenceType – House, Apartment, Condo or Other.
//  HasYard, HasChildren, HasOtherPets – household flags.
//  OtherPetsDescription – free text when HasOtherPets is set.
//  PetExperience – applicant's pet care experience.
//  WorkSchedule  – applicant's work schedule.
//  AdditionalComments – optional free text from the applicant.
//  AdminComments – optional note written by the deciding admin.
//  DecisionDate  – when the request left Pending (nullable).
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type AdoptionRequest struct {
	ID                   uint64     // adoption_requests.id
	UserID               uint64     // adoption_requests.user_id
	PetID                uint64     // adoption_requests.pet_id
	Status               string     // adoption_requests.status
	ResidenceType        string     // adoption_requests.residence_type
	HasYard              bool       // adoption_requests.has_yard
	HasChildren          bool       // adoption_requests.has_children
	HasOtherPets         bool       // adoption_requests.has_other_pets
	OtherPetsDescription string     // adoption_requests.other_pets_description
	PetExperience        string     // adoption_requests.pet_experience
	WorkSchedule         string     // adoption_requests.work_schedule
	AdditionalComments   string     // adoption_requests.additional_comments
	AdminComments        string     // adoption_requests.admin_comments
	DecisionDate         *time.Time // adoption_requests.decision_date (nullable)
	CreatedAt            time.Time  // adoption_requests.created_at
	UpdatedAt            time.Time  // adoption_requests.updated_at
}

// ResidenceTypes accepted for adoption_requests.residence_type.
var ResidenceTypes = []string{"House", "Apartment", "Condo", "Other"}

// ValidResidenceType reports whether v is an accepted residence type.
func ValidResidenceType(v string) bool { return oneOf(v, ResidenceTypes) }
