package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// Callers can match them with errors.Is.
var (
	ErrNoSeeds            = errors.New("no seeds specified: set seeds in the config or pass them explicitly")
	ErrInvalidDepth       = errors.New("invalid max_depth: must be >= 0")
	ErrInvalidRetries     = errors.New("invalid retries: must be >= 0")
	ErrInvalidTimeout     = errors.New("invalid request_timeout_ms: must be positive")
	ErrInvalidConcurrency = errors.New("invalid concurrency: initial_concurrency and max_concurrency must be >= 1")
	ErrInvalidCooldown    = errors.New("invalid cooldown_ms: must be non-negative")
	ErrInvalidAlpha       = errors.New("invalid ranking alpha: must be within [0, 1]")
	ErrInvalidDamping     = errors.New("invalid ranking damping: must be within (0, 1)")
	ErrInvalidPattern     = errors.New("invalid filter pattern")
)
