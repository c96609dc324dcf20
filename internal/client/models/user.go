// Package models contains data structures shared by the HomeHub client
// layers: the user identity resolved from the session token and the JSON
// shapes it travels in.
package models

// Role values as reported by the API.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
	RoleGuest = "guest"
)

// User is the identity the server resolves from a bearer token.
//
// It is owned by the session manager: other components never mutate it in
// place, they call gateway operations that return a fresh User which the
// manager then stores wholesale.
type User struct {
	ID               string `json:"id"`
	Username         string `json:"username"`
	Email            string `json:"email"`
	DisplayName      string `json:"display_name"`
	Role             string `json:"role"`
	Level            int    `json:"level"`
	Points           int    `json:"points"`
	IsEmailVerified  bool   `json:"is_email_verified"`
	ProfileCompleted bool   `json:"profile_completed"`
	DateJoined       string `json:"date_joined"`
	LastLogin        string `json:"last_login"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsGuest() bool {
	return u.Role == RoleGuest
}

// ProfileComplete reports whether the profile can be treated as completed.
// The server-side profile_completed flag can lag right after a completion
// action, so a profile that has all required fields filled in counts as
// complete even when the flag is still false.
func (u *User) ProfileComplete() bool {
	if u.ProfileCompleted {
		return true
	}
	return u.Username != "" && u.DisplayName != ""
}
