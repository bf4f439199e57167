package status

import "errors"

var (
	ErrEmptyName       = errors.New("identify: name must not be empty")
	ErrInvalidContact  = errors.New("identify: contact is too short")
	ErrNotIdentified   = errors.New("session: buyer not identified")
	ErrEmptySelection  = errors.New("reserve: no numbers selected")
	ErrUnknownNumber   = errors.New("tickets: number not found")
	ErrNumbersTaken    = errors.New("reserve: numbers no longer available")
	ErrNotReserved     = errors.New("confirm: numbers not awaiting confirmation")
	ErrInvalidStatus   = errors.New("tickets: invalid status value")
	ErrWrongPassword   = errors.New("admin: wrong password")
	ErrTooManyAttempts = errors.New("admin: too many login attempts")
	ErrInvalidToken    = errors.New("admin: invalid or expired token")
)
