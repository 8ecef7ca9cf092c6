package domain

import "errors"

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
	ErrSecretNotFound  = errors.New("secret not found")
	ErrSessionNotFound = errors.New("session state not found")
	ErrAuthentication  = errors.New("authentication failed")
	ErrBudgetUnset     = errors.New("points budget read before desktop phase")
)
