package frame

import "errors"

var (
	ErrInvalidArgument      = errors.New("frame: invalid argument")
	ErrInvalidConfiguration = errors.New("frame: invalid configuration")
	ErrUnknownMode          = errors.New("frame: unknown detection mode")
)
