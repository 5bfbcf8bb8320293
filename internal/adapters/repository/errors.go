package repository

import "errors"

// Sentinel kinds for repository errors. Missing subjects wrap
// model.ErrNotFound so callers can match the domain sentinel.
var (
	ErrInvalidLimit  = errors.New("invalid leaderboard limit")
	ErrUnknownDriver = errors.New("unknown store driver")
	ErrClosed        = errors.New("store closed")
)
