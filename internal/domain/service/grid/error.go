package grid

import (
	"errors"
	"fmt"
)

var ErrBadLayout = errors.New("grid layout needs at least one row and one column")

func ErrDecode(key string, err error) error {
	return fmt.Errorf("decoding %s: %w", key, err)
}

func ErrEncode(key string, err error) error {
	return fmt.Errorf("encoding tile %s: %w", key, err)
}

func ErrTooSmall(key string, width, height, rows, cols int) error {
	return fmt.Errorf("image %s is %dx%d, too small for a %dx%d grid", key, width, height, rows, cols)
}
