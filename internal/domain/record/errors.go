package record

import "errors"

// ErrMalformedRecord marks a performance value that is neither a pair nor a scalar.
var ErrMalformedRecord = errors.New("malformed performance record")
