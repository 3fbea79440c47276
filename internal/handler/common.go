// Package handler defines the HTTP handlers for the pet adoption API.
// Every response uses the common envelope
// {success, data, count?, pagination?, message?}.
package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pawhaven/pet-adoption-api/internal/model"
	"github.com/pawhaven/pet-adoption-api/internal/policy"
	"github.com/pawhaven/pet-adoption-api/internal/repository"
)

// dbTimeout bounds every database call issued from a handler.
const dbTimeout = 5 * time.Second

// pageRef points at an adjacent page in a paginated listing.
type pageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// pagination carries the adjacent pages when they exist.
type pagination struct {
	Next *pageRef `json:"next,omitempty"`
	Prev *pageRef `json:"prev,omitempty"`
}

// paginate computes the next/prev references from the current page,
// the page size and the total number of matching records.
func paginate(page, limit int, total int64) pagination {
	var p pagination
	if int64(page*limit) < total {
		p.Next = &pageRef{Page: page + 1, Limit: limit}
	}
	if page > 1 {
		p.Prev = &pageRef{Page: page - 1, Limit: limit}
	}
	return p
}

// pageParams reads page/limit query parameters with the API defaults.
func pageParams(c echo.Context) (page, limit int) {
	page, limit = 1, 10
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

// fail writes the error envelope.
func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, echo.Map{"success": false, "message": message})
}

// getActor extracts the authenticated caller from the context values
// stored by the JWT middleware.
func getActor(c echo.Context) (policy.Actor, error) {
	id, err := contextUint64(c.Get("user_id"))
	if err != nil {
		return policy.Actor{}, err
	}
	role, _ := c.Get("role").(string)
	return policy.Actor{ID: id, Role: role}, nil
}

// contextUint64 converts a context value to uint64. JWT numeric claims
// decode as float64; other types show up in tests.
func contextUint64(v any) (uint64, error) {
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a numeric path parameter, rejecting zero.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id != 0
}

// --- response shaping ---

// photoJSON is the wire form of a pet photo.
type photoJSON struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId,omitempty"`
	IsMain   bool   `json:"isMain"`
}

func photosJSON(photos []model.PetPhoto) []photoJSON {
	out := make([]photoJSON, 0, len(photos))
	for _, ph := range photos {
		out = append(out, photoJSON{URL: ph.URL, PublicID: ph.PublicID, IsMain: ph.IsMain})
	}
	return out
}

// petJSON shapes a pet for the API: scalar columns regrouped into the
// age/medical/behavior/location objects clients expect. When sel is
// non-empty only those (validated) fields plus the id and photos are
// emitted.
func petJSON(p model.Pet, photos []model.PetPhoto, sel []string) map[string]any {
	full := map[string]any{
		"name":        p.Name,
		"species":     p.Species,
		"breed":       p.Breed,
		"age":         map[string]any{"years": p.AgeYears, "months": p.AgeMonths},
		"size":        p.Size,
		"gender":      p.Gender,
		"color":       p.Color,
		"description": p.Description,
		"medical": map[string]any{
			"vaccinated":              p.Vaccinated,
			"neutered":                p.Neutered,
			"specialNeeds":            p.SpecialNeeds,
			"specialNeedsDescription": p.SpecialNeedsDescription,
		},
		"behavior": map[string]any{
			"goodWithKids":      p.GoodWithKids,
			"goodWithOtherPets": p.GoodWithOtherPets,
			"activityLevel":     p.ActivityLevel,
		},
		"adoptionStatus": p.AdoptionStatus,
		"adoptionFee":    float64(p.AdoptionFeeCents) / 100.0,
		"location": map[string]any{
			"latitude":  p.Latitude,
			"longitude": p.Longitude,
			"street":    p.Street,
			"city":      p.City,
			"state":     p.State,
			"zipCode":   p.ZipCode,
			"country":   p.Country,
		},
		"createdAt": p.CreatedAt,
		"updatedAt": p.UpdatedAt,
	}
	out := map[string]any{"id": p.ID, "photos": photosJSON(photos)}
	if len(sel) == 0 {
		for k, v := range full {
			out[k] = v
		}
		return out
	}
	for _, f := range sel {
		if v, ok := full[f]; ok {
			out[f] = v
		}
	}
	return out
}

// adoptionJSON shapes an adoption request joined with its pet and user
// summaries.
func adoptionJSON(d repository.AdoptionDetail) map[string]any {
	a := d.Request
	out := map[string]any{
		"id":     a.ID,
		"status": a.Status,
		"applicationDetails": map[string]any{
			"residenceType":        a.ResidenceType,
			"hasYard":              a.HasYard,
			"hasChildren":          a.HasChildren,
			"hasOtherPets":         a.HasOtherPets,
			"otherPetsDescription": a.OtherPetsDescription,
			"petExperience":        a.PetExperience,
			"workSchedule":         a.WorkSchedule,
			"additionalComments":   a.AdditionalComments,
		},
		"adminComments": a.AdminComments,
		"pet":           d.Pet,
		"user":          d.User,
		"createdAt":     a.CreatedAt,
		"updatedAt":     a.UpdatedAt,
	}
	if a.DecisionDate != nil {
		out["decisionDate"] = a.DecisionDate
	}
	return out
}

func adoptionsJSON(details []repository.AdoptionDetail) []map[string]any {
	out := make([]map[string]any, 0, len(details))
	for _, d := range details {
		out = append(out, adoptionJSON(d))
	}
	return out
}

// userJSON shapes a user for the API. The password hash never leaves
// the repository layer through this function.
func userJSON(u model.User) map[string]any {
	return map[string]any{
		"id":    u.ID,
		"name":  u.Name,
		"email": u.Email,
		"role":  u.Role,
		"phone": u.Phone,
		"address": map[string]any{
			"street":  u.Street,
			"city":    u.City,
			"state":   u.State,
			"zipCode": u.ZipCode,
			"country": u.Country,
		},
		"bio":       u.Bio,
		"createdAt": u.CreatedAt,
		"updatedAt": u.UpdatedAt,
	}
}
