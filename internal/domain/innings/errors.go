package innings

import "errors"

// Sentinel errors for lifecycle rejections. Neither is transient; callers
// should re-read the innings status instead of retrying.
var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInningsNotActive  = errors.New("innings not active")
)
