package dedup

import "errors"

var (
	ErrNilClient  = errors.New("nil redis client")
	ErrInvalidTTL = errors.New("marker TTL must be positive")
)
