package config

import "errors"

// Validation errors returned by Config.Validate. Callers match them with
// errors.Is; the wrapped message carries the offending value.
var (
	ErrInvalidLevel     = errors.New("invalid anonymization level")
	ErrInvalidThreshold = errors.New("invalid MAF threshold")
	ErrInvalidSTR       = errors.New("invalid STR bounds")
	ErrInvalidWorkers   = errors.New("invalid worker count")

	// ErrConfigNotFound is returned when an explicitly named config file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
