package h2map

import "errors"

var (
	ErrInvalidMagic = errors.New("invalid map magic")
	ErrCorruptMap   = errors.New("corrupt map file")
)
