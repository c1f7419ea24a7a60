package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound   = goerr.New("configuration file not found")
	ErrInvalidConfig    = goerr.New("invalid configuration")
	ErrMissingAttribute = goerr.New("directory attribute is required")
	ErrInvalidFilter    = goerr.New("invalid user search filter")
	ErrMissingFlag      = goerr.New("required flag is missing")
	ErrInvalidMode      = goerr.New("invalid avatar mode")
	ErrInvalidBackend   = goerr.New("invalid cache backend")
	ErrInvalidSchedule  = goerr.New("invalid refresh schedule")
	ErrInvalidPageSize  = goerr.New("page size must be positive")
	ErrInvalidImageSize = goerr.New("unsupported image size")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	FieldKey      = "field"
	FilterKey     = "filter"
	FlagKey       = "flag"
)
