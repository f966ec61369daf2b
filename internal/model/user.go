package model

import "time"

// Role is the explicit authorization claim stored on an account when it is
// created.  It is never derived from the email address.
type Role string

const (
	RoleGuest Role = "guest" // unauthenticated caller
	RoleUser  Role = "user"  // regular member
	RoleAdmin Role = "admin" // may manage events and export bookings
)

// ParseRole returns the Role for s and whether it is one of the known
// values.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleGuest, RoleUser, RoleAdmin:
		return Role(s), true
	}
	return RoleGuest, false
}

// User represents an account record as stored in the `users` table.
//
// Fields:
//  ID           – uuid primary key.
//  Name         – display name shown on bookings and presence.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – user or admin.
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Principal is the authenticated identity attached to a request.  It is
// rebuilt from access-token claims, so it carries no secrets.
type Principal struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Authenticated reports whether the principal refers to a signed-in user.
func (p Principal) Authenticated() bool { return p.ID != "" }

// DisplayName falls back to "User" like the original client did.
func (p Principal) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return "User"
}

// Principal returns the request identity for a stored user.
func (u User) Principal() Principal {
	return Principal{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA‑256 hash of the token is stored.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
