package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound     = errors.New("profile not found")
	ErrInvalidLimit = errors.New("invalid feed limit")
)
