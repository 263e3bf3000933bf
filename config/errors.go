package config

import "errors"

// Sentinel errors returned (wrapped) by Validate.
var (
	ErrInvalidCanvas   = errors.New("config: canvas width and height must be positive")
	ErrInvalidStepSize = errors.New("config: step_size must be positive and fit the canvas")
	ErrInvalidTrace    = errors.New("config: invalid trace parameters")
	ErrInvalidZone     = errors.New("config: invalid exclusion zone")
	ErrInvalidFeedback = errors.New("config: invalid feedback parameters")
	ErrInvalidReduce   = errors.New("config: invalid reduce parameters")
)
