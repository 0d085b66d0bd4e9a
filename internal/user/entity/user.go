package entity

// Role kinds. Franchisee roles are scoped to a franchise via ObjectID; the
// other kinds are unscoped.
const (
	RoleAdmin      = "admin"
	RoleFranchisee = "franchisee"
	RoleDiner      = "diner"
)

// Role is a single role assignment on a user.
type Role struct {
	Role     string `json:"role" db:"role"`
	ObjectID int64  `json:"objectId,omitempty" db:"object_id"`
}

// User represents a row in the users table plus its role assignments.
// Password carries the raw credential inbound only; PasswordHash never
// leaves the service (excluded from JSON).
type User struct {
	ID           int64  `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	Email        string `json:"email" db:"email"`
	Password     string `json:"password,omitempty" db:"-"`
	PasswordHash string `json:"-" db:"password_hash"`
	Roles        []Role `json:"roles" db:"-"`
}

// Public returns a copy safe for responses: credential material stripped.
func (u User) Public() User {
	u.Password = ""
	u.PasswordHash = ""
	return u
}

// HasRole reports whether the user holds the given unscoped role kind.
func (u User) HasRole(kind string) bool {
	for _, r := range u.Roles {
		if r.Role == kind {
			return true
		}
	}
	return false
}
