package models

import "database/sql"

// User is an identity-provider-created account. The core never inserts users;
// only the username claim mutates them.
type User struct {
	ID       string         `db:"id" json:"id"`
	Username sql.NullString `db:"username" json:"username"`
	Email    string         `db:"email" json:"email"`
	Image    string         `db:"image" json:"image"`
}

// UserSummary is the projection of a user embedded in conversations and
// messages.
type UserSummary struct {
	ID       string `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
	Image    string `db:"image" json:"image"`
}

// CreateUsernameResult distinguishes a business rejection (username taken)
// from success without raising a transport error.
type CreateUsernameResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
