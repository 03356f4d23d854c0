package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrOpen    = errors.New("open store failed")
	ErrMigrate = errors.New("migrate store failed")
	ErrQuery   = errors.New("store query failed")
	ErrClosed  = errors.New("store closed")
)
