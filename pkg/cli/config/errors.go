package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound = goerr.New("configuration file not found")
	ErrInvalidConfig  = goerr.New("invalid configuration")
	ErrDuplicateID    = goerr.New("duplicate ID")
	ErrInvalidID      = goerr.New("invalid ID format")
	ErrMissingName    = goerr.New("name is required")
	ErrInvalidFlag    = goerr.New("invalid flag value")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	EntryIDKey    = "id"
	EntryKindKey  = "kind"
	FlagKey       = "flag"
)
