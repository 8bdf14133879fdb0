package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrUnknownKind         = errors.New("unknown document kind")
	ErrEmptyContent        = errors.New("document content must not be empty")
	ErrLastActiveDimension = errors.New("at least one dimension must remain active")
	ErrNoDimensions        = errors.New("settings must define at least one dimension")
	ErrInvalidThreshold    = errors.New("threshold must be between 0 and 100")
	ErrInvalidDimension    = errors.New("invalid dimension")
	ErrDefaultDimension    = errors.New("default dimensions cannot be removed")
)
