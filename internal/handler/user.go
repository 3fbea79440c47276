package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pawhaven/pet-adoption-api/internal/model"
	"github.com/pawhaven/pet-adoption-api/internal/policy"
	"github.com/pawhaven/pet-adoption-api/internal/repository"
	"github.com/pawhaven/pet-adoption-api/internal/utils"
)

// UserHandler bundles dependencies for the user management endpoints.
type UserHandler struct {
	Users      *repository.UserRepo
	Tokens     *repository.TokenRepo
	BcryptCost int
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(u *repository.UserRepo, t *repository.TokenRepo, cost int) *UserHandler {
	return &UserHandler{Users: u, Tokens: t, BcryptCost: cost}
}

// List returns a page of users. Admin only.
//
// GET /api/users
func (h *UserHandler) List(c echo.Context) error {
	page, limit := pageParams(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	users, total, err := h.Users.List(ctx, page, limit)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	out := make([]map[string]any, 0, len(users))
	for _, u := range users {
		out = append(out, userJSON(u))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"count":      len(out),
		"total":      total,
		"pagination": paginate(page, limit, total),
		"data":       out,
	})
}

// Get returns one user's profile. Self or admin.
//
// GET /api/users/:id
func (h *UserHandler) Get(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}
	if err := policy.Authorize(actor, policy.UserRead, id); err != nil {
		return fail(c, http.StatusForbidden, "Not authorized to view this user")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fail(c, http.StatusNotFound, "User not found")
		}
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": userJSON(u)})
}

type updateUserReq struct {
	Name    *string     `json:"name"`
	Phone   *string     `json:"phone"`
	Address *addressReq `json:"address"`
	Bio     *string     `json:"bio"`
}

// Update edits a user's profile fields. Self or admin. Email, role and
// password are not editable here.
//
// PUT /api/users/:id
func (h *UserHandler) Update(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}
	if err := policy.Authorize(actor, policy.UserUpdate, id); err != nil {
		return fail(c, http.StatusForbidden, "Not authorized to update this user")
	}
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fail(c, http.StatusNotFound, "User not found")
		}
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return fail(c, http.StatusBadRequest, "name cannot be empty")
		}
		u.Name = name
	}
	if req.Phone != nil {
		u.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Bio != nil {
		u.Bio = *req.Bio
	}
	if req.Address != nil {
		u.Street = req.Address.Street
		u.City = req.Address.City
		u.State = req.Address.State
		u.ZipCode = req.Address.ZipCode
		u.Country = req.Address.Country
	}
	if err := h.Users.Update(ctx, u); err != nil {
		return fail(c, http.StatusInternalServerError, "update user failed")
	}
	u, err = h.Users.GetByID(ctx, id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "load user failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": userJSON(u)})
}

// Delete removes a user account. Admin only.
//
// DELETE /api/users/:id
func (h *UserHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Users.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fail(c, http.StatusNotFound, "User not found")
		}
		return fail(c, http.StatusInternalServerError, "delete user failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "User deleted successfully"})
}

type changePasswordReq struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword sets a new password. A user must present the current
// password for their own account; admins may reset anyone without it.
// All refresh tokens for the account are revoked afterwards.
//
// PUT /api/users/:id/password
func (h *UserHandler) ChangePassword(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}
	if err := policy.Authorize(actor, policy.UserChangePassword, id); err != nil {
		return fail(c, http.StatusForbidden, "Not authorized to change this password")
	}
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if len(req.NewPassword) < 6 {
		return fail(c, http.StatusBadRequest, "password must be at least 6 characters")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fail(c, http.StatusNotFound, "User not found")
		}
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	if actor.Role != model.RoleAdmin || actor.ID == id {
		if !utils.VerifyPassword(u.PasswordHash, req.CurrentPassword) {
			return fail(c, http.StatusUnauthorized, "Current password is incorrect")
		}
	}
	if err := h.Users.UpdatePassword(ctx, id, req.NewPassword, h.BcryptCost); err != nil {
		return fail(c, http.StatusInternalServerError, "update password failed")
	}
	_ = h.Tokens.RevokeAllForUser(ctx, id)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Password updated successfully"})
}
