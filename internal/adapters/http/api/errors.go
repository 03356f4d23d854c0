package api

import "errors"

// ErrMissingParam is returned when a required query parameter is absent.
var ErrMissingParam = errors.New("missing query parameter")
