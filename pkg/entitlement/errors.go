package entitlement

import "errors"

var (
	ErrFailedToLoadTable = errors.New("failed to load entitlement table")
	ErrInvalidTable      = errors.New("invalid entitlement table")
)
