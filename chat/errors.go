package chat

import "errors"

var (
	// ErrClosed is returned by operations on a closed conversation.
	ErrClosed = errors.New("conversation closed")

	// ErrRunning is returned when Run is called on a conversation that is
	// already running.
	ErrRunning = errors.New("conversation already running")

	// ErrEmptyMessage is returned when sending a blank message.
	ErrEmptyMessage = errors.New("empty message")

	// ErrUnknownPreset is returned for an unrecognized preset name.
	ErrUnknownPreset = errors.New("unknown preset")

	// ErrUnsupportedFormat is returned for a config file extension with no
	// decoder.
	ErrUnsupportedFormat = errors.New("unsupported config format")
)
