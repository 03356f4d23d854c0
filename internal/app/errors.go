package service

import "errors"

// Sentinel errors returned by the service. Domain parse errors are wrapped
// under ErrInvalidQuery so both kinds match errors.Is.
var (
	ErrInvalidQuery = errors.New("invalid query")
	ErrUpstream     = errors.New("upstream source failure")
	ErrNoSource     = errors.New("no source configured")
)
