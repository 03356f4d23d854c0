package target

import "errors"

// ErrUnknownStatusType is returned for an unrecognised status type filter.
var ErrUnknownStatusType = errors.New("unknown status type")
