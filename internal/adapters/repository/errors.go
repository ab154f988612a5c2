package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound        = errors.New("innings not found")
	ErrInvalidLimit    = errors.New("invalid board limit")
	ErrSnapshotVersion = errors.New("unsupported snapshot version")
)
