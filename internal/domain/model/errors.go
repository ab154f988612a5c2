package model

import "errors"

// ErrValidation marks a malformed delivery or key rejected at the boundary.
var ErrValidation = errors.New("validation error")
