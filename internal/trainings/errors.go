package trainings

import "errors"

var (
	ErrNotFound     = errors.New("training not found")
	ErrInvalidInput = errors.New("invalid input")
)
