// Package queue defines message payloads exchanged over the message broker.
package queue

// AdoptionDecidedEvent is published after every decision transition on
// an adoption request (approve, reject or cancel). It carries enough
// information for downstream consumers to log or notify without
// querying the primary database.
type AdoptionDecidedEvent struct {
	AdoptionID      uint64 `json:"adoption_id"`
	UserID          uint64 `json:"user_id"`
	PetID           uint64 `json:"pet_id"`
	PetName         string `json:"pet_name"`
	Status          string `json:"status"`
	PetStatus       string `json:"pet_status"`
	CascadedRejects int64  `json:"cascaded_rejects"`
	DecidedByUserID uint64 `json:"decided_by_user_id"`
	DecidedByRole   string `json:"decided_by_role"`
	DecidedAt       string `json:"decided_at"`
}
