package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawhaven/pet-adoption-api/internal/model"
)

func newMockTx(t *testing.T) (*sql.Tx, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectBegin()
	tx, err := db.Begin()
	require.NoError(t, err)
	return tx, mock, func() { _ = db.Close() }
}

func adoptionRow(id, userID, petID uint64, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "user_id", "pet_id", "status", "residence_type", "has_yard",
		"has_children", "has_other_pets", "other_pets_description",
		"pet_experience", "work_schedule", "additional_comments",
		"admin_comments", "decision_date", "created_at", "updated_at",
	}).AddRow(id, userID, petID, status, "House", true, false, false, "",
		"10 years with dogs", "Remote", "", "", nil, now, now)
}

func TestCreateTxPopulatesRecord(t *testing.T) {
	tx, mock, closeDB := newMockTx(t)
	defer closeDB()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO adoption_requests")).
		WithArgs(uint64(7), uint64(3), model.AdoptionPending, "House", true,
			false, false, "", "10 years with dogs", "Remote", "").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery("SELECT (.+) FROM adoption_requests WHERE id=").
		WithArgs(uint64(42)).
		WillReturnRows(adoptionRow(42, 7, 3, model.AdoptionPending))

	a := model.AdoptionRequest{
		UserID: 7, PetID: 3, ResidenceType: "House", HasYard: true,
		PetExperience: "10 years with dogs", WorkSchedule: "Remote",
	}
	require.NoError(t, NewAdoptionRepo(nil).CreateTx(context.Background(), tx, &a))
	assert.Equal(t, uint64(42), a.ID)
	assert.Equal(t, model.AdoptionPending, a.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTxDuplicateMapsToSentinel(t *testing.T) {
	tx, mock, closeDB := newMockTx(t)
	defer closeDB()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO adoption_requests")).
		WillReturnError(errors.New("Error 1062: Duplicate entry '7-3' for key 'uq_adoption_user_pet'"))

	a := model.AdoptionRequest{UserID: 7, PetID: 3, PetExperience: "x", WorkSchedule: "y"}
	err := NewAdoptionRepo(nil).CreateTx(context.Background(), tx, &a)
	assert.ErrorIs(t, err, ErrDuplicateRequest)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHasPendingTx(t *testing.T) {
	tx, mock, closeDB := newMockTx(t)
	defer closeDB()
	repo := NewAdoptionRepo(nil)

	mock.ExpectQuery("SELECT 1 FROM adoption_requests").
		WithArgs(uint64(7), uint64(3), model.AdoptionPending).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	pending, err := repo.HasPendingTx(context.Background(), tx, 7, 3)
	require.NoError(t, err)
	assert.True(t, pending)

	mock.ExpectQuery("SELECT 1 FROM adoption_requests").
		WithArgs(uint64(8), uint64(3), model.AdoptionPending).
		WillReturnError(sql.ErrNoRows)
	pending, err = repo.HasPendingTx(context.Background(), tx, 8, 3)
	require.NoError(t, err)
	assert.False(t, pending)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateDecisionTxKeepsCommentWhenEmpty(t *testing.T) {
	tx, mock, closeDB := newMockTx(t)
	defer closeDB()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE adoption_requests")).
		WithArgs(model.AdoptionApproved, "", "", uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewAdoptionRepo(nil).UpdateDecisionTx(context.Background(), tx, 42, model.AdoptionApproved, "")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRejectOtherPendingTxCascade(t *testing.T) {
	tx, mock, closeDB := newMockTx(t)
	defer closeDB()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE adoption_requests")).
		WithArgs(model.AdoptionRejected, model.CascadeRejectComment,
			uint64(3), uint64(42), model.AdoptionPending).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := NewAdoptionRepo(nil).RejectOtherPendingTx(context.Background(), tx, 3, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountOtherPendingTx(t *testing.T) {
	tx, mock, closeDB := newMockTx(t)
	defer closeDB()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM adoption_requests")).
		WithArgs(uint64(3), uint64(42), model.AdoptionPending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	n, err := NewAdoptionRepo(nil).CountOtherPendingTx(context.Background(), tx, 3, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
