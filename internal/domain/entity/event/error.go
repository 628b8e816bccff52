package event

import "errors"

var (
	ErrEmptyID       = errors.New("message id cannot be empty")
	ErrEmptyChannel  = errors.New("message channel cannot be empty")
	ErrZeroTimestamp = errors.New("message timestamp cannot be zero")
	ErrEmptyFilename = errors.New("attachment filename cannot be empty")
	ErrNoSource      = errors.New("attachment needs a url or inline data")
)
