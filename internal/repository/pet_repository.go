package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pawhaven/pet-adoption-api/internal/model"
)

// PetRepo provides CRUD operations for pets and their photos. The
// adoption status column is a plain field at this layer; transition
// validation and cross-entity consistency live in the lifecycle
// handlers, which drive the conditional Tx methods below.
type PetRepo struct{ db *sql.DB }

// NewPetRepo returns a new PetRepo bound to the given database.
func NewPetRepo(db *sql.DB) *PetRepo { return &PetRepo{db: db} }

// DB exposes the underlying pool so handlers can open transactions
// spanning pets and adoption_requests.
func (r *PetRepo) DB() *sql.DB { return r.db }

const petColumns = `id, name, species, breed, age_years, age_months, size, gender, color,
	description, vaccinated, neutered, special_needs, special_needs_description,
	good_with_kids, good_with_other_pets, activity_level, adoption_status,
	adoption_fee_cents, latitude, longitude, street, city, state, zip_code, country,
	created_at, updated_at`

func scanPet(row interface{ Scan(...any) error }) (model.Pet, error) {
	var p model.Pet
	var lat, lng sql.NullFloat64
	err := row.Scan(&p.ID, &p.Name, &p.Species, &p.Breed, &p.AgeYears, &p.AgeMonths,
		&p.Size, &p.Gender, &p.Color, &p.Description, &p.Vaccinated, &p.Neutered,
		&p.SpecialNeeds, &p.SpecialNeedsDescription, &p.GoodWithKids, &p.GoodWithOtherPets,
		&p.ActivityLevel, &p.AdoptionStatus, &p.AdoptionFeeCents, &lat, &lng,
		&p.Street, &p.City, &p.State, &p.ZipCode, &p.Country, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}
	if lat.Valid {
		v := lat.Float64
		p.Latitude = &v
	}
	if lng.Valid {
		v := lng.Float64
		p.Longitude = &v
	}
	return p, nil
}

// Create inserts a pet and its initial photos in one transaction and
// returns the new pet ID. Photos may be empty.
func (r *PetRepo) Create(ctx context.Context, p model.Pet, photos []model.PetPhoto) (uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO pets (name, species, breed, age_years, age_months, size, gender, color,
			description, vaccinated, neutered, special_needs, special_needs_description,
			good_with_kids, good_with_other_pets, activity_level, adoption_status,
			adoption_fee_cents, latitude, longitude, street, city, state, zip_code, country)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.Name, p.Species, p.Breed, p.AgeYears, p.AgeMonths, p.Size, p.Gender, p.Color,
		p.Description, p.Vaccinated, p.Neutered, p.SpecialNeeds, p.SpecialNeedsDescription,
		p.GoodWithKids, p.GoodWithOtherPets, p.ActivityLevel, p.AdoptionStatus,
		p.AdoptionFeeCents, p.Latitude, p.Longitude, p.Street, p.City, p.State, p.ZipCode, p.Country)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err := insertPhotosTx(ctx, tx, uint64(id), photos); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return uint64(id), nil
}

// insertPhotosTx bulk-inserts pet_photos rows within a transaction.
// Passing an empty slice has no effect and returns nil.
func insertPhotosTx(ctx context.Context, tx *sql.Tx, petID uint64, photos []model.PetPhoto) error {
	if len(photos) == 0 {
		return nil
	}
	q := `INSERT INTO pet_photos (pet_id, url, public_id, is_main) VALUES `
	args := make([]any, 0, len(photos)*4)
	for i, ph := range photos {
		if i > 0 {
			q += ","
		}
		q += "(?,?,?,?)"
		args = append(args, petID, ph.URL, ph.PublicID, ph.IsMain)
	}
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}

// AppendPhotos adds photos to an existing pet. Appended photos are
// never main; the main flag is assigned at creation only.
func (r *PetRepo) AppendPhotos(ctx context.Context, petID uint64, photos []model.PetPhoto) error {
	if len(photos) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for i := range photos {
		photos[i].IsMain = false
	}
	if err := insertPhotosTx(ctx, tx, petID, photos); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID fetches a pet and its photos. Returns sql.ErrNoRows when the
// pet does not exist.
func (r *PetRepo) GetByID(ctx context.Context, id uint64) (model.Pet, []model.PetPhoto, error) {
	p, err := scanPet(r.db.QueryRowContext(ctx,
		`SELECT `+petColumns+` FROM pets WHERE id=? LIMIT 1`, id))
	if err != nil {
		return p, nil, err
	}
	photos, err := r.photosFor(ctx, []uint64{id})
	if err != nil {
		return p, nil, err
	}
	return p, photos[id], nil
}

// GetByIDTx fetches a pet inside a transaction with a row lock so
// lifecycle decisions read a stable status.
func (r *PetRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Pet, error) {
	return scanPet(tx.QueryRowContext(ctx,
		`SELECT `+petColumns+` FROM pets WHERE id=? LIMIT 1 FOR UPDATE`, id))
}

// photosFor loads photos for the given pet IDs in one query, keyed by
// pet ID, main photo first.
func (r *PetRepo) photosFor(ctx context.Context, petIDs []uint64) (map[uint64][]model.PetPhoto, error) {
	out := make(map[uint64][]model.PetPhoto, len(petIDs))
	if len(petIDs) == 0 {
		return out, nil
	}
	placeholders := make([]string, len(petIDs))
	args := make([]any, len(petIDs))
	for i, id := range petIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, pet_id, url, public_id, is_main, created_at FROM pet_photos
		 WHERE pet_id IN (`+strings.Join(placeholders, ",")+`)
		 ORDER BY pet_id, is_main DESC, id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var ph model.PetPhoto
		if err := rows.Scan(&ph.ID, &ph.PetID, &ph.URL, &ph.PublicID, &ph.IsMain, &ph.CreatedAt); err != nil {
			return nil, err
		}
		out[ph.PetID] = append(out[ph.PetID], ph)
	}
	return out, rows.Err()
}

// Update writes every mutable column of a pet except adoption_status,
// which only SetStatus and the lifecycle Tx methods touch.
func (r *PetRepo) Update(ctx context.Context, p model.Pet) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE pets SET name=?, species=?, breed=?, age_years=?, age_months=?, size=?, gender=?,
			color=?, description=?, vaccinated=?, neutered=?, special_needs=?,
			special_needs_description=?, good_with_kids=?, good_with_other_pets=?,
			activity_level=?, adoption_fee_cents=?, latitude=?, longitude=?,
			street=?, city=?, state=?, zip_code=?, country=?
		 WHERE id=?`,
		p.Name, p.Species, p.Breed, p.AgeYears, p.AgeMonths, p.Size, p.Gender,
		p.Color, p.Description, p.Vaccinated, p.Neutered, p.SpecialNeeds,
		p.SpecialNeedsDescription, p.GoodWithKids, p.GoodWithOtherPets,
		p.ActivityLevel, p.AdoptionFeeCents, p.Latitude, p.Longitude,
		p.Street, p.City, p.State, p.ZipCode, p.Country, p.ID)
	if err != nil {
		return err
	}
	_, err = res.RowsAffected()
	return err
}

// Delete removes the pet row; photos and adoption requests cascade via
// foreign keys. Returns sql.ErrNoRows when no pet matched.
func (r *PetRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pets WHERE id=?`, id)
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

// SetStatus is the admin override: it writes the status verbatim with
// no transition validation, per the pet-management contract.
func (r *PetRepo) SetStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE pets SET adoption_status=? WHERE id=?`, status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM pets WHERE id=?`, id).Scan(&one); err != nil {
			return err
		}
	}
	return nil
}

// SetStatusIfTx flips the pet's status to next only when the current
// status is one of the allowed values. It returns ErrConflict when the
// row was concurrently moved out of the expected state, which is the
// optimistic guard preventing two approvals from both adopting one pet.
func (r *PetRepo) SetStatusIfTx(ctx context.Context, tx *sql.Tx, id uint64, next string, allowed ...string) error {
	placeholders := make([]string, len(allowed))
	args := []any{next, id}
	for i, s := range allowed {
		placeholders[i] = "?"
		args = append(args, s)
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE pets SET adoption_status=? WHERE id=? AND adoption_status IN (`+strings.Join(placeholders, ",")+`)`,
		args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}
