package alert

import "errors"

var (
	ErrInvalidConfig  = errors.New("invalid alert configuration")
	ErrFailedToNotify = errors.New("failed to deliver alert")
)
