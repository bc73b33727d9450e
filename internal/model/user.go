package model

import "time"

// Role is the closed set of account kinds.  Authorization decisions
// dispatch on this tag; there is no per-role user type.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStudent
}

// User represents an account as stored in the `users` table.  The
// password hash never leaves the process: it is excluded from JSON.
// Optional profile columns are pointers so that NULL survives a round
// trip.  Role is fixed at creation; no operation changes it.
//
// Fields:
//
//	ID           – primary key identifier.
//	Name         – display name.
//	Username     – unique login name.
//	PasswordHash – bcrypt hash of the password.
//	Role         – admin or student.
//	StudentID    – unique student number (students only).
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID                           uint64    `json:"id"`
	Name                         string    `json:"name"`
	Username                     string    `json:"username"`
	PasswordHash                 string    `json:"-"`
	Role                         Role      `json:"role"`
	StudentID                    *string   `json:"student_id"`
	Department                   *string   `json:"department"`
	Division                     *string   `json:"division"`
	Semester                     *string   `json:"semester"`
	EmergencyContactName         *string   `json:"emergency_contact_name"`
	EmergencyContactRelationship *string   `json:"emergency_contact_relationship"`
	EmergencyContactPhone        *string   `json:"emergency_contact_phone"`
	AvatarURL                    *string   `json:"avatar_url"`
	CreatedAt                    time.Time `json:"created_at"`
	UpdatedAt                    time.Time `json:"updated_at"`
}

// Identity is the resolved caller attached to a request once its token
// has been verified.  Downstream middleware and services only see this.
type Identity struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Name     string `json:"name"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// ProfileUpdate carries the user-editable profile columns.  An empty
// value means "leave unchanged"; there is no way to blank a column.
type ProfileUpdate struct {
	Name                         string
	Department                   string
	Division                     string
	Semester                     string
	EmergencyContactName         string
	EmergencyContactRelationship string
	EmergencyContactPhone        string
}

// Session models a row in the `sessions` table.  Only the SHA-256 hash
// of the issued token is stored.
//
// Fields:
//
//	ID        – primary key identifier.
//	UserID    – owner of the session.
//	TokenHash – hex SHA-256 digest of the bearer token.
//	ExpiresAt – absolute expiry, independent of the token's own exp claim.
//	CreatedAt – timestamp of creation.
type Session struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}
