// Package domain contains entities without logic, just meta-data
package domain

import "errors"

const (
	MaxUsernameLen = 36
	MinPasswordLen = 8
)

var (
	ErrUsernameTooLong  = errors.New("username too long")
	ErrUsernameEmpty    = errors.New("username empty")
	ErrPasswordTooShort = errors.New("password too short")
)

// UserID is the durable identifier of a registered account
// (hex form of the store's object id).
type UserID string

type User struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"-"`
}

// ValidateRegistration checks the fields a new account must carry.
func ValidateRegistration(username, password string) error {
	if len(username) == 0 {
		return ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return ErrUsernameTooLong
	}
	if len(password) < MinPasswordLen {
		return ErrPasswordTooShort
	}
	return nil
}
