package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawhaven/pet-adoption-api/internal/model"
	"github.com/pawhaven/pet-adoption-api/internal/repository"
)

func newAdoptionHandler(t *testing.T) (*AdoptionHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	h := NewAdoptionHandler(repository.NewAdoptionRepo(db), repository.NewPetRepo(db), false)
	return h, mock, func() { _ = db.Close() }
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func authedContext(req *http.Request, rec *httptest.ResponseRecorder, userID uint64, role string) echo.Context {
	c := echo.New().NewContext(req, rec)
	c.Set("user_id", userID)
	c.Set("role", role)
	return c
}

func envelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func petRowWithStatus(id uint64, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "name", "species", "breed", "age_years", "age_months", "size",
		"gender", "color", "description", "vaccinated", "neutered",
		"special_needs", "special_needs_description", "good_with_kids",
		"good_with_other_pets", "activity_level", "adoption_status",
		"adoption_fee_cents", "latitude", "longitude", "street", "city",
		"state", "zip_code", "country", "created_at", "updated_at",
	}).AddRow(id, "Rex", "Dog", "Mix", 2, 6, "Medium", "Male", "Brown", "",
		true, true, false, "", true, true, "High", status, 10000,
		nil, nil, "", "Berlin", "", "", "DE", now, now)
}

func requestRow(id, userID, petID uint64, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "user_id", "pet_id", "status", "residence_type", "has_yard",
		"has_children", "has_other_pets", "other_pets_description",
		"pet_experience", "work_schedule", "additional_comments",
		"admin_comments", "decision_date", "created_at", "updated_at",
	}).AddRow(id, userID, petID, status, "House", true, false, false, "",
		"10 years with dogs", "Remote", "", "", nil, now, now)
}

func detailRow(id, userID, petID uint64, status, petStatus string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "user_id", "pet_id", "status", "residence_type", "has_yard",
		"has_children", "has_other_pets", "other_pets_description",
		"pet_experience", "work_schedule", "additional_comments",
		"admin_comments", "decision_date", "created_at", "updated_at",
		"p_id", "p_name", "p_species", "p_breed", "p_status",
		"u_id", "u_name", "u_email", "u_phone",
	}).AddRow(id, userID, petID, status, "House", true, false, false, "",
		"10 years with dogs", "Remote", "", "", nil, now, now,
		petID, "Rex", "Dog", "Mix", petStatus,
		userID, "Ana", "ana@example.com", "")
}

const createBody = `{"petId":3,"applicationDetails":{"residenceType":"House","hasYard":true,"hasChildren":false,"hasOtherPets":false,"petExperience":"10 years with dogs","workSchedule":"Remote"}}`

func TestAdoptionCreateRequiresApplicationDetails(t *testing.T) {
	h, _, closeDB := newAdoptionHandler(t)
	defer closeDB()

	cases := []struct {
		name    string
		body    string
		message string
	}{
		{
			name:    "missing residence type",
			body:    `{"petId":3,"applicationDetails":{"hasYard":true,"hasChildren":false,"hasOtherPets":false,"petExperience":"x","workSchedule":"y"}}`,
			message: "residenceType must be House, Apartment, Condo or Other",
		},
		{
			name:    "invalid residence type",
			body:    `{"petId":3,"applicationDetails":{"residenceType":"Boat","hasYard":true,"hasChildren":false,"hasOtherPets":false,"petExperience":"x","workSchedule":"y"}}`,
			message: "residenceType must be House, Apartment, Condo or Other",
		},
		{
			name:    "missing household flags",
			body:    `{"petId":3,"applicationDetails":{"residenceType":"House","hasYard":true,"petExperience":"x","workSchedule":"y"}}`,
			message: "hasYard, hasChildren and hasOtherPets are required",
		},
		{
			name:    "missing experience",
			body:    `{"petId":3,"applicationDetails":{"residenceType":"House","hasYard":true,"hasChildren":false,"hasOtherPets":false,"workSchedule":"y"}}`,
			message: "petExperience and workSchedule are required",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := authedContext(jsonRequest(http.MethodPost, "/api/adoptions", tc.body), rec, 7, model.RoleUser)
			require.NoError(t, h.Create(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.message, envelope(t, rec)["message"])
		})
	}
}

func TestAdoptionCreateSuccess(t *testing.T) {
	h, mock, closeDB := newAdoptionHandler(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM pets WHERE id=(.+) FOR UPDATE").
		WithArgs(uint64(3)).
		WillReturnRows(petRowWithStatus(3, model.PetAvailable))
	mock.ExpectQuery("SELECT 1 FROM adoption_requests").
		WithArgs(uint64(7), uint64(3), model.AdoptionPending).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO adoption_requests")).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery("SELECT (.+) FROM adoption_requests WHERE id=").
		WithArgs(uint64(42)).
		WillReturnRows(requestRow(42, 7, 3, model.AdoptionPending))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE pets SET adoption_status=?")).
		WithArgs(model.PetPending, uint64(3), model.PetAvailable).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("JOIN pets p ON").
		WithArgs(uint64(42)).
		WillReturnRows(detailRow(42, 7, 3, model.AdoptionPending, model.PetPending))

	rec := httptest.NewRecorder()
	c := authedContext(jsonRequest(http.MethodPost, "/api/adoptions", createBody), rec, 7, model.RoleUser)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	out := envelope(t, rec)
	assert.Equal(t, true, out["success"])
	data := out["data"].(map[string]any)
	assert.Equal(t, "Pending", data["status"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdoptionCreatePetNotAvailable(t *testing.T) {
	h, mock, closeDB := newAdoptionHandler(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM pets WHERE id=(.+) FOR UPDATE").
		WithArgs(uint64(3)).
		WillReturnRows(petRowWithStatus(3, model.PetAdopted))
	mock.ExpectRollback()

	rec := httptest.NewRecorder()
	c := authedContext(jsonRequest(http.MethodPost, "/api/adoptions", createBody), rec, 7, model.RoleUser)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	out := envelope(t, rec)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "Pet is not available for adoption, current status: Adopted", out["message"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdoptionCreateMissingPet(t *testing.T) {
	h, mock, closeDB := newAdoptionHandler(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM pets WHERE id=(.+) FOR UPDATE").
		WithArgs(uint64(3)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	rec := httptest.NewRecorder()
	c := authedContext(jsonRequest(http.MethodPost, "/api/adoptions", createBody), rec, 7, model.RoleUser)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdoptionCreateConflictOnStatusFlip(t *testing.T) {
	h, mock, closeDB := newAdoptionHandler(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM pets WHERE id=(.+) FOR UPDATE").
		WithArgs(uint64(3)).
		WillReturnRows(petRowWithStatus(3, model.PetAvailable))
	mock.ExpectQuery("SELECT 1 FROM adoption_requests").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO adoption_requests")).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery("SELECT (.+) FROM adoption_requests WHERE id=").
		WillReturnRows(requestRow(42, 7, 3, model.AdoptionPending))
	// Conditional flip matches nothing: someone raced us.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE pets SET adoption_status=?")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	rec := httptest.NewRecorder()
	c := authedContext(jsonRequest(http.MethodPost, "/api/adoptions", createBody), rec, 7, model.RoleUser)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func statusUpdateContext(rec *httptest.ResponseRecorder, body string, userID uint64, role string) echo.Context {
	c := authedContext(jsonRequest(http.MethodPut, "/api/adoptions/42/status", body), rec, userID, role)
	c.SetParamNames("id")
	c.SetParamValues("42")
	return c
}

func TestAdoptionApproveCascades(t *testing.T) {
	h, mock, closeDB := newAdoptionHandler(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM adoption_requests WHERE id=(.+) FOR UPDATE").
		WithArgs(uint64(42)).
		WillReturnRows(requestRow(42, 7, 3, model.AdoptionPending))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE adoption_requests")).
		WithArgs(model.AdoptionApproved, "Great fit", "Great fit", uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE pets SET adoption_status=?")).
		WithArgs(model.PetAdopted, uint64(3), model.PetAvailable, model.PetPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Two competing pending requests get the automatic rejection.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE adoption_requests")).
		WithArgs(model.AdoptionRejected, model.CascadeRejectComment,
			uint64(3), uint64(42), model.AdoptionPending).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()
	mock.ExpectQuery("JOIN pets p ON").
		WithArgs(uint64(42)).
		WillReturnRows(detailRow(42, 7, 3, model.AdoptionApproved, model.PetAdopted))

	rec := httptest.NewRecorder()
	c := statusUpdateContext(rec, `{"status":"Approved","adminComments":"Great fit"}`, 99, model.RoleAdmin)
	require.NoError(t, h.UpdateStatus(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	out := envelope(t, rec)
	assert.Equal(t, true, out["success"])
	data := out["data"].(map[string]any)
	assert.Equal(t, "Approved", data["status"])
	pet := data["pet"].(map[string]any)
	assert.Equal(t, "Adopted", pet["adoptionStatus"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdoptionApproveConflictWhenPetAlreadyAdopted(t *testing.T) {
	h, mock, closeDB := newAdoptionHandler(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM adoption_requests WHERE id=(.+) FOR UPDATE").
		WithArgs(uint64(42)).
		WillReturnRows(requestRow(42, 7, 3, model.AdoptionPending))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE adoption_requests")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE pets SET adoption_status=?")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	rec := httptest.NewRecorder()
	c := statusUpdateContext(rec, `{"status":"Approved"}`, 99, model.RoleAdmin)
	require.NoError(t, h.UpdateStatus(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdoptionCancelRevertsPetWhenLastPending(t *testing.T) {
	h, mock, closeDB := newAdoptionHandler(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM adoption_requests WHERE id=(.+) FOR UPDATE").
		WithArgs(uint64(42)).
		WillReturnRows(requestRow(42, 7, 3, model.AdoptionPending))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE adoption_requests")).
		WithArgs(model.AdoptionCancelled, "", "", uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM adoption_requests")).
		WithArgs(uint64(3), uint64(42), model.AdoptionPending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE pets SET adoption_status=?")).
		WithArgs(model.PetAvailable, uint64(3), model.PetPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("JOIN pets p ON").
		WithArgs(uint64(42)).
		WillReturnRows(detailRow(42, 7, 3, model.AdoptionCancelled, model.PetAvailable))

	rec := httptest.NewRecorder()
	// The applicant cancels their own request.
	c := statusUpdateContext(rec, `{"status":"Cancelled"}`, 7, model.RoleUser)
	require.NoError(t, h.UpdateStatus(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdoptionApproveForbiddenForUser(t *testing.T) {
	h, mock, closeDB := newAdoptionHandler(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM adoption_requests WHERE id=(.+) FOR UPDATE").
		WithArgs(uint64(42)).
		WillReturnRows(requestRow(42, 7, 3, model.AdoptionPending))
	mock.ExpectRollback()

	rec := httptest.NewRecorder()
	// Even the applicant cannot approve their own request.
	c := statusUpdateContext(rec, `{"status":"Approved"}`, 7, model.RoleUser)
	require.NoError(t, h.UpdateStatus(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdoptionCancelForbiddenForStranger(t *testing.T) {
	h, mock, closeDB := newAdoptionHandler(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM adoption_requests WHERE id=(.+) FOR UPDATE").
		WithArgs(uint64(42)).
		WillReturnRows(requestRow(42, 7, 3, model.AdoptionPending))
	mock.ExpectRollback()

	rec := httptest.NewRecorder()
	c := statusUpdateContext(rec, `{"status":"Cancelled"}`, 8, model.RoleUser)
	require.NoError(t, h.UpdateStatus(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdoptionUpdateTerminalRejected(t *testing.T) {
	h, mock, closeDB := newAdoptionHandler(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM adoption_requests WHERE id=(.+) FOR UPDATE").
		WithArgs(uint64(42)).
		WillReturnRows(requestRow(42, 7, 3, model.AdoptionApproved))
	mock.ExpectRollback()

	rec := httptest.NewRecorder()
	c := statusUpdateContext(rec, `{"status":"Cancelled"}`, 99, model.RoleAdmin)
	require.NoError(t, h.UpdateStatus(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	out := envelope(t, rec)
	assert.Equal(t, "Cannot change status of a request that is already Approved", out["message"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdoptionUpdateRejectsPendingTarget(t *testing.T) {
	h, _, closeDB := newAdoptionHandler(t)
	defer closeDB()

	rec := httptest.NewRecorder()
	c := statusUpdateContext(rec, `{"status":"Pending"}`, 99, model.RoleAdmin)
	require.NoError(t, h.UpdateStatus(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
