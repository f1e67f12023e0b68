package trainingplans

import "errors"

var (
	ErrNotFound     = errors.New("training plan not found")
	ErrInvalidInput = errors.New("invalid input")
)
