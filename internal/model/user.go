package model

import "time"

// User represents an application user record as stored in the
// `users` table.  The password hash is kept on the struct for the
// repository and auth handlers but must never be serialized in a
// response; handlers define separate response types with JSON tags.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – role name ("user" or "admin").
//  Phone        – optional contact phone number.
//  Street, City, State, ZipCode, Country – optional mailing address.
//  Bio          – optional free-form text about the user.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Name         string    // users.name
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	Phone        string    // users.phone
	Street       string    // users.street
	City         string    // users.city
	State        string    // users.state
	ZipCode      string    // users.zip_code
	Country      string    // users.country
	Bio          string    // users.bio
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// Roles recognized by the authorization policy.  Every user carries
// exactly one of these values in users.role and in the JWT "role" claim.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ValidRole reports whether s is a recognized role name.
func ValidRole(s string) bool { return s == RoleUser || s == RoleAdmin }

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and carries metadata for expiry and
// revocation.  The plain token is never stored; only its SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
