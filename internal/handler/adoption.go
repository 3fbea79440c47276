package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pawhaven/pet-adoption-api/internal/model"
	"github.com/pawhaven/pet-adoption-api/internal/policy"
	"github.com/pawhaven/pet-adoption-api/internal/queue"
	"github.com/pawhaven/pet-adoption-api/internal/repository"
	queue_publisher "github.com/pawhaven/pet-adoption-api/internal/service"
)

// AdoptionHandler bundles dependencies for the adoption request
// lifecycle endpoints. This is where the pet status and request status
// are kept consistent, always inside a single transaction.
type AdoptionHandler struct {
	Adoptions *repository.AdoptionRepo
	Pets      *repository.PetRepo
	Publish   bool // emit adoption.decided events when true
}

// NewAdoptionHandler constructs an AdoptionHandler.
func NewAdoptionHandler(a *repository.AdoptionRepo, p *repository.PetRepo, publish bool) *AdoptionHandler {
	return &AdoptionHandler{Adoptions: a, Pets: p, Publish: publish}
}

// applicationReq binds the questionnaire. The household flags are
// pointers so an absent field is distinguishable from an explicit
// false; all three are required.
type applicationReq struct {
	ResidenceType        string `json:"residenceType"`
	HasYard              *bool  `json:"hasYard"`
	HasChildren          *bool  `json:"hasChildren"`
	HasOtherPets         *bool  `json:"hasOtherPets"`
	OtherPetsDescription string `json:"otherPetsDescription"`
	PetExperience        string `json:"petExperience"`
	WorkSchedule         string `json:"workSchedule"`
	AdditionalComments   string `json:"additionalComments"`
}

type createAdoptionReq struct {
	PetID              uint64         `json:"petId"`
	ApplicationDetails applicationReq `json:"applicationDetails"`
}

// Create submits an adoption request for a pet. The pet must be
// Available; submitting moves it to Pending so the catalog reflects
// interest immediately. The pet row is locked for the duration of the
// transaction so two applicants cannot both observe Available.
//
// POST /api/adoptions
func (h *AdoptionHandler) Create(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	var req createAdoptionReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.PetID == 0 {
		return fail(c, http.StatusBadRequest, "petId is required")
	}
	app := req.ApplicationDetails
	if !model.ValidResidenceType(app.ResidenceType) {
		return fail(c, http.StatusBadRequest, "residenceType must be House, Apartment, Condo or Other")
	}
	if app.HasYard == nil || app.HasChildren == nil || app.HasOtherPets == nil {
		return fail(c, http.StatusBadRequest, "hasYard, hasChildren and hasOtherPets are required")
	}
	if app.PetExperience == "" || app.WorkSchedule == "" {
		return fail(c, http.StatusBadRequest, "petExperience and workSchedule are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	tx, err := h.Adoptions.DB().BeginTx(ctx, nil)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "begin transaction failed")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	pet, err := h.Pets.GetByIDTx(ctx, tx, req.PetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fail(c, http.StatusNotFound, "Pet not found")
		}
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	if pet.AdoptionStatus != model.PetAvailable {
		return fail(c, http.StatusBadRequest,
			fmt.Sprintf("Pet is not available for adoption, current status: %s", pet.AdoptionStatus))
	}
	if pending, err := h.Adoptions.HasPendingTx(ctx, tx, actor.ID, req.PetID); err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	} else if pending {
		return fail(c, http.StatusBadRequest, "You already have a pending adoption request for this pet")
	}

	a := model.AdoptionRequest{
		UserID:               actor.ID,
		PetID:                req.PetID,
		ResidenceType:        app.ResidenceType,
		HasYard:              *app.HasYard,
		HasChildren:          *app.HasChildren,
		HasOtherPets:         *app.HasOtherPets,
		OtherPetsDescription: app.OtherPetsDescription,
		PetExperience:        app.PetExperience,
		WorkSchedule:         app.WorkSchedule,
		AdditionalComments:   app.AdditionalComments,
	}
	if err := h.Adoptions.CreateTx(ctx, tx, &a); err != nil {
		if errors.Is(err, repository.ErrDuplicateRequest) {
			return fail(c, http.StatusBadRequest, "You have already submitted a request for this pet")
		}
		return fail(c, http.StatusInternalServerError, "create request failed")
	}
	// Conditional flip guards against a concurrent writer that slipped
	// in despite the row lock (e.g. an admin override between reads).
	if err := h.Pets.SetStatusIfTx(ctx, tx, req.PetID, model.PetPending, model.PetAvailable); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fail(c, http.StatusConflict, "Pet status changed while processing the request")
		}
		return fail(c, http.StatusInternalServerError, "update pet status failed")
	}
	if err := tx.Commit(); err != nil {
		return fail(c, http.StatusInternalServerError, "commit failed")
	}
	committed = true

	detail, err := h.Adoptions.GetDetail(ctx, a.ID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "load request failed")
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "Adoption request submitted successfully",
		"data":    adoptionJSON(detail),
	})
}

type updateStatusReq struct {
	Status        string `json:"status"`
	AdminComments string `json:"adminComments"`
}

// UpdateStatus decides an adoption request: Approved or Rejected by an
// admin, Cancelled by the applicant (or an admin). Approval adopts the
// pet and cascade-rejects every other pending request for it; rejection
// and cancellation return the pet to Available once no pending requests
// remain. All writes share one transaction.
//
// PUT /api/adoptions/:id/status
func (h *AdoptionHandler) UpdateStatus(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid adoption id")
	}
	var req updateStatusReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if !model.ValidAdoptionStatus(req.Status) || req.Status == model.AdoptionPending {
		return fail(c, http.StatusBadRequest, "status must be Approved, Rejected or Cancelled")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	tx, err := h.Adoptions.DB().BeginTx(ctx, nil)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "begin transaction failed")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	a, err := h.Adoptions.GetByIDTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fail(c, http.StatusNotFound, "Adoption request not found")
		}
		return fail(c, http.StatusInternalServerError, "query failed")
	}

	action := policy.AdoptionCancel
	switch req.Status {
	case model.AdoptionApproved:
		action = policy.AdoptionApprove
	case model.AdoptionRejected:
		action = policy.AdoptionReject
	}
	if err := policy.Authorize(actor, action, a.UserID); err != nil {
		return fail(c, http.StatusForbidden, "Not authorized to update this adoption request")
	}
	if !model.CanTransition(a.Status, req.Status) {
		if model.TerminalAdoptionStatus(a.Status) {
			return fail(c, http.StatusBadRequest,
				fmt.Sprintf("Cannot change status of a request that is already %s", a.Status))
		}
		return fail(c, http.StatusBadRequest,
			fmt.Sprintf("Cannot change status from %s to %s", a.Status, req.Status))
	}

	if err := h.Adoptions.UpdateDecisionTx(ctx, tx, id, req.Status, req.AdminComments); err != nil {
		return fail(c, http.StatusInternalServerError, "update request failed")
	}

	petStatus := ""
	var cascaded int64
	switch req.Status {
	case model.AdoptionApproved:
		// The pet may still read Available when an admin approves a
		// request the catalog never flipped; both are legal sources.
		if err := h.Pets.SetStatusIfTx(ctx, tx, a.PetID, model.PetAdopted,
			model.PetAvailable, model.PetPending); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fail(c, http.StatusConflict, "Pet was already adopted")
			}
			return fail(c, http.StatusInternalServerError, "update pet status failed")
		}
		petStatus = model.PetAdopted
		cascaded, err = h.Adoptions.RejectOtherPendingTx(ctx, tx, a.PetID, id)
		if err != nil {
			return fail(c, http.StatusInternalServerError, "cascade reject failed")
		}
	case model.AdoptionRejected, model.AdoptionCancelled:
		n, err := h.Adoptions.CountOtherPendingTx(ctx, tx, a.PetID, id)
		if err != nil {
			return fail(c, http.StatusInternalServerError, "query failed")
		}
		if n == 0 {
			if err := h.Pets.SetStatusIfTx(ctx, tx, a.PetID, model.PetAvailable,
				model.PetPending); err != nil && !errors.Is(err, repository.ErrConflict) {
				return fail(c, http.StatusInternalServerError, "update pet status failed")
			}
			petStatus = model.PetAvailable
		}
	}
	if err := tx.Commit(); err != nil {
		return fail(c, http.StatusInternalServerError, "commit failed")
	}
	committed = true

	detail, err := h.Adoptions.GetDetail(ctx, id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "load request failed")
	}
	if h.Publish {
		go func(ev queue.AdoptionDecidedEvent) {
			pubCtx, pubCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer pubCancel()
			_ = queue_publisher.PublishAdoptionDecided(pubCtx, ev)
		}(queue.AdoptionDecidedEvent{
			AdoptionID:      id,
			UserID:          a.UserID,
			PetID:           a.PetID,
			PetName:         detail.Pet.Name,
			Status:          req.Status,
			PetStatus:       petStatus,
			CascadedRejects: cascaded,
			DecidedByUserID: actor.ID,
			DecidedByRole:   actor.Role,
			DecidedAt:       time.Now().UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": fmt.Sprintf("Adoption request %s", strings.ToLower(req.Status)),
		"data":    adoptionJSON(detail),
	})
}

// List returns adoption requests, paginated newest first. Admins see
// every request; regular users see only their own.
//
// GET /api/adoptions
func (h *AdoptionHandler) List(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	page, limit := pageParams(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	scope := actor.ID
	if actor.Admin() {
		scope = 0 // all users
	}
	details, total, err := h.Adoptions.List(ctx, scope, page, limit)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"count":      len(details),
		"total":      total,
		"pagination": paginate(page, limit, total),
		"data":       adoptionsJSON(details),
	})
}

// Get returns one adoption request with its pet and applicant. Only
// the applicant or an admin may read it.
//
// GET /api/adoptions/:id
func (h *AdoptionHandler) Get(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid adoption id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	detail, err := h.Adoptions.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fail(c, http.StatusNotFound, "Adoption request not found")
		}
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	if err := policy.Authorize(actor, policy.AdoptionRead, detail.Request.UserID); err != nil {
		return fail(c, http.StatusForbidden, "Not authorized to view this adoption request")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": adoptionJSON(detail)})
}

// Delete removes an adoption request outright. Admin only; the pet's
// status is left untouched, use the status endpoints to release a pet.
//
// DELETE /api/adoptions/:id
func (h *AdoptionHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid adoption id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Adoptions.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fail(c, http.StatusNotFound, "Adoption request not found")
		}
		return fail(c, http.StatusInternalServerError, "delete request failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Adoption request deleted successfully"})
}

// History returns the caller's own adoption requests, every status,
// newest first.
//
// GET /api/adoptions/history
func (h *AdoptionHandler) History(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	details, err := h.Adoptions.ListByUser(ctx, actor.ID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"count":   len(details),
		"data":    adoptionsJSON(details),
	})
}

// ByPet returns every adoption request for one pet. Admin only.
//
// GET /api/adoptions/pet/:petId
func (h *AdoptionHandler) ByPet(c echo.Context) error {
	petID, ok := pathID(c, "petId")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid pet id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if _, _, err := h.Pets.GetByID(ctx, petID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fail(c, http.StatusNotFound, "Pet not found")
		}
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	details, err := h.Adoptions.ListByPet(ctx, petID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"count":   len(details),
		"data":    adoptionsJSON(details),
	})
}
