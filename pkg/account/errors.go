package account

import "errors"

var (
	ErrNotFound        = errors.New("account not found")
	ErrAlreadyExists   = errors.New("account already exists")
	ErrVersionConflict = errors.New("account version conflict")
	ErrStoreFailure    = errors.New("account store failure")
)
