package core

import "errors"

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrEmptyCollection   = errors.New("collection is empty")
	ErrInvalidEntityKind = errors.New("invalid entity kind")

	ErrDuplicateSource    = errors.New("source already exists")
	ErrDuplicateTelescope = errors.New("telescope already exists")
	ErrDuplicateFrequency = errors.New("frequency already exists")
)
