// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data: similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
//
// The JSON tags are load-bearing: the persisted blobs use the same field names
// the browser version wrote into local storage, so old dumps can be imported
// without a conversion step.
package model

import (
	"time"
	"unicode"
)

// User represents a registered account in the user directory.
//
// A User exclusively owns its Prompts list. Users are created by signup and
// never deleted; login/logout and prompt mutations write back into the record.
//
// Password is stored as entered unless password hashing is enabled, in which
// case it holds a bcrypt hash. Both forms are accepted when checking credentials.
type User struct {
	ID        string           `json:"id"`
	Username  string           `json:"username"`
	Email     string           `json:"email"`
	Password  string           `json:"password"`
	Prompts   []PromptRecord   `json:"prompts"`
	CreatedAt time.Time        `json:"createdAt"`
	Settings  StylePreferences `json:"settings"`
}

// Initial returns the upper-cased first letter of the username, used as the avatar.
func (u *User) Initial() string {
	for _, r := range u.Username {
		return string(unicode.ToUpper(r))
	}
	return "?"
}

// Session references the active user.
// At most one session exists per profile; no session means legacy mode.
type Session struct {
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}
