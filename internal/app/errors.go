package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrBackpressure   = errors.New("assessment queue full")
	ErrSourceDisabled = errors.New("upstream source not configured")
)
