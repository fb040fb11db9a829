package scheduler

import "errors"

// ErrInvalidInterval is returned when a negative transmit interval is
// configured. Prior settings are left unchanged.
var ErrInvalidInterval = errors.New("transmit interval must not be negative")
