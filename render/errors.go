package render

import "errors"

// ErrUnknownMode is returned for a display mode that has no layout.
var ErrUnknownMode = errors.New("unknown display mode")
