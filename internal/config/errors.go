package config

import "errors"

var (
	// ErrInvalidConfig wraps every validation problem found by Validate.
	ErrInvalidConfig = errors.New("invalid maturity config")

	// ErrLoadConfig wraps failures reading .env, the YAML file or the
	// environment.
	ErrLoadConfig = errors.New("load maturity config")
)
