package model

import "errors"

// ErrInvalidScope marks a target carrying both or neither scope shapes.
var ErrInvalidScope = errors.New("invalid target scope")
