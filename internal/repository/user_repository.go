package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pawhaven/pet-adoption-api/internal/model"
	"github.com/pawhaven/pet-adoption-api/internal/utils"
)

// UserRepo provides CRUD operations for the users table.
type UserRepo struct{ db *sql.DB }

// NewUserRepo returns a new UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, name, email, password_hash, role, phone,
	street, city, state, zip_code, country, bio, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Phone,
		&u.Street, &u.City, &u.State, &u.ZipCode, &u.Country, &u.Bio,
		&u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create hashes the password and inserts the user, returning its ID.
// The email is normalized to lower case before insertion.
func (r *UserRepo) Create(ctx context.Context, u model.User, password string, cost int) (uint64, error) {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash, role, phone, street, city, state, zip_code, country, bio)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		u.Name, email, hash, u.Role, u.Phone, u.Street, u.City, u.State, u.ZipCode, u.Country, u.Bio)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email=? LIMIT 1`, email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id=? LIMIT 1`, id))
}

// List returns a page of users ordered by creation time descending,
// along with the total user count for pagination.
func (r *UserRepo) List(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	users := make([]model.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Update writes the mutable profile fields of a user. Role changes are
// intentionally excluded; an admin grants roles at registration only.
func (r *UserRepo) Update(ctx context.Context, u model.User) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET name=?, phone=?, street=?, city=?, state=?, zip_code=?, country=?, bio=? WHERE id=?`,
		u.Name, u.Phone, u.Street, u.City, u.State, u.ZipCode, u.Country, u.Bio, u.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// The row may exist with identical values; distinguish from a
		// missing user with a cheap existence probe.
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id=?`, u.ID).Scan(&one); err != nil {
			return err
		}
	}
	return nil
}

// UpdatePassword hashes and stores a new password for the user.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `UPDATE users SET password_hash=? WHERE id=?`, hash, id)
	return err
}

// Delete removes the user row. Refresh tokens cascade via FK.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id=?`, id)
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
