package repository

import (
	"context"
	"database/sql"

	"github.com/pawhaven/pet-adoption-api/internal/model"
)

// AdoptionRepo provides CRUD operations for adoption requests. The
// lifecycle handlers drive the Tx methods so that a decision and its
// side effects on the pet and on sibling requests commit as one unit.
type AdoptionRepo struct{ db *sql.DB }

// NewAdoptionRepo returns a new AdoptionRepo bound to the given database.
func NewAdoptionRepo(db *sql.DB) *AdoptionRepo { return &AdoptionRepo{db: db} }

// DB exposes the underlying pool for handler-scoped transactions.
func (r *AdoptionRepo) DB() *sql.DB { return r.db }

const adoptionColumns = `id, user_id, pet_id, status, residence_type, has_yard, has_children,
	has_other_pets, other_pets_description, pet_experience, work_schedule,
	additional_comments, admin_comments, decision_date, created_at, updated_at`

func scanAdoption(row interface{ Scan(...any) error }) (model.AdoptionRequest, error) {
	var a model.AdoptionRequest
	var decision sql.NullTime
	err := row.Scan(&a.ID, &a.UserID, &a.PetID, &a.Status, &a.ResidenceType,
		&a.HasYard, &a.HasChildren, &a.HasOtherPets, &a.OtherPetsDescription,
		&a.PetExperience, &a.WorkSchedule, &a.AdditionalComments, &a.AdminComments,
		&decision, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return a, err
	}
	if decision.Valid {
		t := decision.Time
		a.DecisionDate = &t
	}
	return a, nil
}

// CreateTx inserts a Pending adoption request within an existing
// transaction and populates the generated ID and timestamps on the
// record. A UNIQUE (user_id, pet_id) violation maps to
// ErrDuplicateRequest. The caller commits or rolls back.
func (r *AdoptionRepo) CreateTx(ctx context.Context, tx *sql.Tx, a *model.AdoptionRequest) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO adoption_requests (user_id, pet_id, status, residence_type, has_yard,
			has_children, has_other_pets, other_pets_description, pet_experience,
			work_schedule, additional_comments)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		a.UserID, a.PetID, model.AdoptionPending, a.ResidenceType, a.HasYard,
		a.HasChildren, a.HasOtherPets, a.OtherPetsDescription, a.PetExperience,
		a.WorkSchedule, a.AdditionalComments)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateRequest
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults.
	got, err := scanAdoption(tx.QueryRowContext(ctx,
		`SELECT `+adoptionColumns+` FROM adoption_requests WHERE id=?`, a.ID))
	if err != nil {
		return err
	}
	*a = got
	return nil
}

// GetByID fetches a single adoption request.
func (r *AdoptionRepo) GetByID(ctx context.Context, id uint64) (model.AdoptionRequest, error) {
	return scanAdoption(r.db.QueryRowContext(ctx,
		`SELECT `+adoptionColumns+` FROM adoption_requests WHERE id=? LIMIT 1`, id))
}

// GetByIDTx fetches an adoption request inside a transaction with a
// row lock so the decision handler reads a stable status.
func (r *AdoptionRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.AdoptionRequest, error) {
	return scanAdoption(tx.QueryRowContext(ctx,
		`SELECT `+adoptionColumns+` FROM adoption_requests WHERE id=? LIMIT 1 FOR UPDATE`, id))
}

// HasPendingTx reports whether the user already has a Pending request
// for the pet. This explicit check is redundant with, and complementary
// to, the UNIQUE (user_id, pet_id) constraint.
func (r *AdoptionRepo) HasPendingTx(ctx context.Context, tx *sql.Tx, userID, petID uint64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM adoption_requests WHERE user_id=? AND pet_id=? AND status=? LIMIT 1`,
		userID, petID, model.AdoptionPending).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// UpdateDecisionTx records a decision on a request: the new status, the
// admin comment (the previous comment is kept when the new one is
// empty) and the decision timestamp.
func (r *AdoptionRepo) UpdateDecisionTx(ctx context.Context, tx *sql.Tx, id uint64, status, adminComments string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE adoption_requests
		 SET status=?, admin_comments=IF(?='', admin_comments, ?), decision_date=NOW()
		 WHERE id=?`,
		status, adminComments, adminComments, id)
	return err
}

// RejectOtherPendingTx cascades an approval: every other Pending
// request for the pet becomes Rejected with the automatic comment and
// its own decision timestamp. Returns the number of requests rejected.
func (r *AdoptionRepo) RejectOtherPendingTx(ctx context.Context, tx *sql.Tx, petID, excludeID uint64) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE adoption_requests
		 SET status=?, admin_comments=?, decision_date=NOW()
		 WHERE pet_id=? AND id<>? AND status=?`,
		model.AdoptionRejected, model.CascadeRejectComment, petID, excludeID, model.AdoptionPending)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountOtherPendingTx counts Pending requests for the pet excluding the
// given request. A zero count after a rejection or cancellation means
// the pet reverts to Available.
func (r *AdoptionRepo) CountOtherPendingTx(ctx context.Context, tx *sql.Tx, petID, excludeID uint64) (int64, error) {
	var n int64
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM adoption_requests WHERE pet_id=? AND id<>? AND status=?`,
		petID, excludeID, model.AdoptionPending).Scan(&n)
	return n, err
}

// PetSummary is the pet slice embedded in adoption listings, mirroring
// the reference fields the API exposes alongside a request.
type PetSummary struct {
	ID             uint64 `json:"id"`
	Name           string `json:"name"`
	Species        string `json:"species"`
	Breed          string `json:"breed"`
	AdoptionStatus string `json:"adoptionStatus"`
}

// UserSummary is the applicant slice embedded in adoption listings.
type UserSummary struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// AdoptionDetail joins a request with its pet and user summaries for
// list and detail responses.
type AdoptionDetail struct {
	Request model.AdoptionRequest
	Pet     PetSummary
	User    UserSummary
}

const adoptionDetailColumns = `a.id, a.user_id, a.pet_id, a.status, a.residence_type, a.has_yard,
	a.has_children, a.has_other_pets, a.other_pets_description, a.pet_experience,
	a.work_schedule, a.additional_comments, a.admin_comments, a.decision_date,
	a.created_at, a.updated_at,
	p.id, p.name, p.species, p.breed, p.adoption_status,
	u.id, u.name, u.email, u.phone`

func scanAdoptionDetail(row interface{ Scan(...any) error }) (AdoptionDetail, error) {
	var d AdoptionDetail
	var decision sql.NullTime
	a := &d.Request
	err := row.Scan(&a.ID, &a.UserID, &a.PetID, &a.Status, &a.ResidenceType,
		&a.HasYard, &a.HasChildren, &a.HasOtherPets, &a.OtherPetsDescription,
		&a.PetExperience, &a.WorkSchedule, &a.AdditionalComments, &a.AdminComments,
		&decision, &a.CreatedAt, &a.UpdatedAt,
		&d.Pet.ID, &d.Pet.Name, &d.Pet.Species, &d.Pet.Breed, &d.Pet.AdoptionStatus,
		&d.User.ID, &d.User.Name, &d.User.Email, &d.User.Phone)
	if err != nil {
		return d, err
	}
	if decision.Valid {
		t := decision.Time
		a.DecisionDate = &t
	}
	return d, nil
}

const adoptionDetailFrom = ` FROM adoption_requests a
	JOIN pets p ON p.id = a.pet_id
	JOIN users u ON u.id = a.user_id`

// GetDetail fetches one request joined with its pet and user.
func (r *AdoptionRepo) GetDetail(ctx context.Context, id uint64) (AdoptionDetail, error) {
	return scanAdoptionDetail(r.db.QueryRowContext(ctx,
		`SELECT `+adoptionDetailColumns+adoptionDetailFrom+` WHERE a.id=? LIMIT 1`, id))
}

// List returns a page of adoption requests newest first. When userID is
// non-zero only that user's requests are returned; admins pass zero to
// see everything. The total matching count accompanies the page.
func (r *AdoptionRepo) List(ctx context.Context, userID uint64, page, limit int) ([]AdoptionDetail, int64, error) {
	cond := "1=1"
	args := []any{}
	if userID != 0 {
		cond = "a.user_id=?"
		args = append(args, userID)
	}
	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*)`+adoptionDetailFrom+` WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	dataArgs := append(append([]any{}, args...), limit, offset)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+adoptionDetailColumns+adoptionDetailFrom+
			` WHERE `+cond+` ORDER BY a.created_at DESC LIMIT ? OFFSET ?`, dataArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]AdoptionDetail, 0, limit)
	for rows.Next() {
		d, err := scanAdoptionDetail(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListByUser returns the user's full adoption history, newest first.
func (r *AdoptionRepo) ListByUser(ctx context.Context, userID uint64) ([]AdoptionDetail, error) {
	return r.listWhere(ctx, "a.user_id=?", userID)
}

// ListByPet returns every request targeting a pet, newest first.
func (r *AdoptionRepo) ListByPet(ctx context.Context, petID uint64) ([]AdoptionDetail, error) {
	return r.listWhere(ctx, "a.pet_id=?", petID)
}

func (r *AdoptionRepo) listWhere(ctx context.Context, cond string, arg any) ([]AdoptionDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+adoptionDetailColumns+adoptionDetailFrom+
			` WHERE `+cond+` ORDER BY a.created_at DESC`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]AdoptionDetail, 0)
	for rows.Next() {
		d, err := scanAdoptionDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Delete removes an adoption request. Returns sql.ErrNoRows when no
// row matched.
func (r *AdoptionRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM adoption_requests WHERE id=?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
