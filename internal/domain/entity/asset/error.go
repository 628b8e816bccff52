package asset

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyContent = errors.New("payload content cannot be empty")
	ErrEmptySource  = errors.New("payload source cannot be empty")
)

func ErrSizeExceeded(maxLen int64) error {
	return fmt.Errorf("content size exceeds maximum %d", maxLen)
}

func ErrReadContent(err error) error {
	return fmt.Errorf("failed to read content: %w", err)
}
