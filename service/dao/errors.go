package dao

import "errors"

// Sentinel errors shared by DAO implementations, so callers can detect
// conditions with errors.Is instead of matching message text.
var (
	// ErrNotFound means the requested entity does not exist in storage.
	ErrNotFound = errors.New("dao: not found")

	// ErrInvalidID means the supplied key is empty or malformed.
	ErrInvalidID = errors.New("dao: invalid id")

	// ErrNilEntity means the caller tried to persist a nil pointer.
	ErrNilEntity = errors.New("dao: nil entity")
)
