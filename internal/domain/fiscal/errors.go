package fiscal

import "errors"

// Sentinel error kinds for calendar parsing.
var (
	ErrInvalidFiscalYear = errors.New("invalid fiscal year label")
	ErrInvalidQuarter    = errors.New("invalid quarter")
	ErrInvalidMonthKey   = errors.New("invalid month key")
)
