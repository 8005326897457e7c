package rate

import "errors"

var (
	// ErrRateLimited is returned once a failure budget is used up.
	ErrRateLimited      = errors.New("rate limited")
	ErrRedisUnavailable = errors.New("redis unavailable")
)
