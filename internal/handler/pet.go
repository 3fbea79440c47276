package handler

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/pawhaven/pet-adoption-api/internal/config"
	"github.com/pawhaven/pet-adoption-api/internal/middleware"
	"github.com/pawhaven/pet-adoption-api/internal/model"
	"github.com/pawhaven/pet-adoption-api/internal/repository"
	"github.com/pawhaven/pet-adoption-api/internal/storage"
)

// PetHandler bundles dependencies for the pet catalog endpoints.
type PetHandler struct {
	Pets     *repository.PetRepo
	Photos   storage.PhotoStore
	CacheCfg config.CacheConfig
	Rdb      *redis.Client // nil disables cache invalidation
}

// NewPetHandler constructs a PetHandler.
func NewPetHandler(p *repository.PetRepo, ph storage.PhotoStore, cc config.CacheConfig, rdb *redis.Client) *PetHandler {
	return &PetHandler{Pets: p, Photos: ph, CacheCfg: cc, Rdb: rdb}
}

// invalidateCache drops cached catalog responses after a mutation.
func (h *PetHandler) invalidateCache(ctx context.Context) {
	if h.Rdb != nil {
		middleware.CacheInvalidate(ctx, h.CacheCfg, h.Rdb)
	}
}

// List serves the public pet catalog with filtering, projection,
// sorting and pagination.
//
// GET /api/pets?species=Dog&adoptionFee[lte]=200&sort=-createdAt&page=1
func (h *PetHandler) List(c echo.Context) error {
	q, err := repository.ParsePetSearchQuery(c.QueryParams())
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	pets, photos, total, err := h.Pets.Search(ctx, q)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "search failed")
	}
	out := make([]map[string]any, 0, len(pets))
	for _, p := range pets {
		out = append(out, petJSON(p, photos[p.ID], q.Select))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"count":      len(out),
		"total":      total,
		"pagination": paginate(q.Page, q.Limit, total),
		"data":       out,
	})
}

// Get serves one pet with its photos.
//
// GET /api/pets/:id
func (h *PetHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid pet id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p, photos, err := h.Pets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fail(c, http.StatusNotFound, "Pet not found")
		}
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": petJSON(p, photos, nil)})
}

// Create adds a pet listing. Admin only. The request is multipart form
// data; up to storage.MaxPhotosPerUpload photo files may be attached
// under the "photos" key, the first becoming the main photo.
//
// POST /api/pets
func (h *PetHandler) Create(c echo.Context) error {
	var p model.Pet
	p.AdoptionStatus = model.PetAvailable
	if err := formPet(c, &p); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	if err := validatePet(p); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	photos, err := h.savePhotos(c, true)
	if err != nil {
		return h.photoError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	id, err := h.Pets.Create(ctx, p, photos)
	if err != nil {
		for _, ph := range photos {
			_ = h.Photos.Remove(ph.PublicID)
		}
		return fail(c, http.StatusInternalServerError, "create pet failed")
	}
	created, createdPhotos, err := h.Pets.GetByID(ctx, id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "load pet failed")
	}
	h.invalidateCache(ctx)
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": petJSON(created, createdPhotos, nil)})
}

// Update modifies a pet listing. Admin only. Fields absent from the
// form keep their stored value; new photos are appended as non-main.
// The adoption status is not writable here, see SetStatus.
//
// PUT /api/pets/:id
func (h *PetHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid pet id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p, _, err := h.Pets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fail(c, http.StatusNotFound, "Pet not found")
		}
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	if err := formPet(c, &p); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	if err := validatePet(p); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	photos, err := h.savePhotos(c, false)
	if err != nil {
		return h.photoError(c, err)
	}

	if err := h.Pets.Update(ctx, p); err != nil {
		for _, ph := range photos {
			_ = h.Photos.Remove(ph.PublicID)
		}
		return fail(c, http.StatusInternalServerError, "update pet failed")
	}
	if len(photos) > 0 {
		if err := h.Pets.AppendPhotos(ctx, id, photos); err != nil {
			return fail(c, http.StatusInternalServerError, "store photos failed")
		}
	}
	updated, updatedPhotos, err := h.Pets.GetByID(ctx, id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "load pet failed")
	}
	h.invalidateCache(ctx)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": petJSON(updated, updatedPhotos, nil)})
}

// Delete removes a pet listing and its stored photo files. Admin only.
//
// DELETE /api/pets/:id
func (h *PetHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid pet id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	_, photos, err := h.Pets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fail(c, http.StatusNotFound, "Pet not found")
		}
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	if err := h.Pets.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fail(c, http.StatusNotFound, "Pet not found")
		}
		return fail(c, http.StatusInternalServerError, "delete pet failed")
	}
	// Files go last; a failed unlink leaves an orphan on disk, not a
	// dangling row.
	for _, ph := range photos {
		_ = h.Photos.Remove(ph.PublicID)
	}
	h.invalidateCache(ctx)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Pet deleted successfully"})
}

type setStatusReq struct {
	AdoptionStatus string `json:"adoptionStatus"`
}

// SetStatus writes the pet's adoption status verbatim. Admin only.
// This is the manual override path; it deliberately skips the
// lifecycle bookkeeping the adoption endpoints perform.
//
// PUT /api/pets/:id/status
func (h *PetHandler) SetStatus(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid pet id")
	}
	var req setStatusReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if !model.ValidPetStatus(req.AdoptionStatus) {
		return fail(c, http.StatusBadRequest, "adoptionStatus must be Available, Pending or Adopted")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Pets.SetStatus(ctx, id, req.AdoptionStatus); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fail(c, http.StatusNotFound, "Pet not found")
		}
		return fail(c, http.StatusInternalServerError, "update status failed")
	}
	p, photos, err := h.Pets.GetByID(ctx, id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "load pet failed")
	}
	h.invalidateCache(ctx)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": petJSON(p, photos, nil)})
}

// savePhotos stores any uploaded "photos" files and returns their
// records. A request without a multipart body yields no photos.
func (h *PetHandler) savePhotos(c echo.Context, mainFirst bool) ([]model.PetPhoto, error) {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil, nil
	}
	files := form.File["photos"]
	if len(files) == 0 {
		return nil, nil
	}
	return h.Photos.Save(files, mainFirst)
}

// photoError maps storage errors to the right status code.
func (h *PetHandler) photoError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, storage.ErrTooManyPhotos), errors.Is(err, storage.ErrUnsupportedPhotoType):
		return fail(c, http.StatusBadRequest, err.Error())
	default:
		return fail(c, http.StatusInternalServerError, "store photos failed")
	}
}

// ----- form parsing / validation -----

// formPet overlays present form values onto p. Absent keys leave the
// existing value untouched, which is what makes PUT behave as a
// partial update.
func formPet(c echo.Context, p *model.Pet) error {
	if err := c.Request().ParseMultipartForm(32 << 20); err != nil {
		// Fall back to urlencoded bodies for photo-less updates.
		if err := c.Request().ParseForm(); err != nil {
			return errors.New("invalid form body")
		}
	}
	get := func(key string) (string, bool) {
		vs, ok := c.Request().Form[key]
		if !ok || len(vs) == 0 {
			return "", false
		}
		return strings.TrimSpace(vs[0]), true
	}
	setStr := func(key string, dst *string) {
		if v, ok := get(key); ok {
			*dst = v
		}
	}
	setStr("name", &p.Name)
	setStr("species", &p.Species)
	setStr("breed", &p.Breed)
	setStr("size", &p.Size)
	setStr("gender", &p.Gender)
	setStr("color", &p.Color)
	setStr("description", &p.Description)
	setStr("specialNeedsDescription", &p.SpecialNeedsDescription)
	setStr("activityLevel", &p.ActivityLevel)
	setStr("street", &p.Street)
	setStr("city", &p.City)
	setStr("state", &p.State)
	setStr("zipCode", &p.ZipCode)
	setStr("country", &p.Country)

	var err error
	setU8 := func(key string, dst *uint8, max uint64) {
		v, ok := get(key)
		if !ok || err != nil {
			return
		}
		n, perr := strconv.ParseUint(v, 10, 8)
		if perr != nil || n > max {
			err = errors.New("invalid value for " + key)
			return
		}
		*dst = uint8(n)
	}
	setU8("ageYears", &p.AgeYears, 30)
	setU8("ageMonths", &p.AgeMonths, 11)

	setBool := func(key string, dst *bool) {
		v, ok := get(key)
		if !ok || err != nil {
			return
		}
		b, perr := strconv.ParseBool(v)
		if perr != nil {
			err = errors.New("invalid value for " + key)
			return
		}
		*dst = b
	}
	setBool("vaccinated", &p.Vaccinated)
	setBool("neutered", &p.Neutered)
	setBool("specialNeeds", &p.SpecialNeeds)
	setBool("goodWithKids", &p.GoodWithKids)
	setBool("goodWithOtherPets", &p.GoodWithOtherPets)

	if v, ok := get("adoptionFee"); ok && err == nil {
		fee, perr := strconv.ParseFloat(v, 64)
		if perr != nil || fee < 0 || fee > math.MaxUint32/100 {
			err = errors.New("invalid value for adoptionFee")
		} else {
			p.AdoptionFeeCents = uint32(math.Round(fee * 100))
		}
	}
	setCoord := func(key string, dst **float64, bound float64) {
		v, ok := get(key)
		if !ok || err != nil {
			return
		}
		f, perr := strconv.ParseFloat(v, 64)
		if perr != nil || f < -bound || f > bound {
			err = errors.New("invalid value for " + key)
			return
		}
		*dst = &f
	}
	setCoord("latitude", &p.Latitude, 90)
	setCoord("longitude", &p.Longitude, 180)
	return err
}

// validatePet enforces required fields and enum membership.
func validatePet(p model.Pet) error {
	switch {
	case p.Name == "":
		return errors.New("name is required")
	case len(p.Name) > 50:
		return errors.New("name cannot be more than 50 characters")
	case len(p.Description) > 1000:
		return errors.New("description cannot be more than 1000 characters")
	case !model.ValidSpecies(p.Species):
		return errors.New("invalid species")
	case !model.ValidSize(p.Size):
		return errors.New("invalid size")
	case !model.ValidGender(p.Gender):
		return errors.New("invalid gender")
	case p.ActivityLevel != "" && !model.ValidActivityLevel(p.ActivityLevel):
		return errors.New("invalid activityLevel")
	case !model.ValidPetStatus(p.AdoptionStatus):
		return errors.New("invalid adoptionStatus")
	}
	return nil
}
