package config

import "errors"

var (
	// ErrInvalidConfig reports a loaded value outside its allowed range.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig reports a config file or environment that could not be read.
	ErrLoadConfig = errors.New("load config failed")
)
