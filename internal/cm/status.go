package cm

import "errors"

// Sentinel errors shared across the parsing and generation pipeline.
// Callers match them with errors.Is; wrapped messages carry the
// context.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrUnsupported      = errors.New("unsupported")
	ErrAborted          = errors.New("aborted")
	ErrAlreadyInstalled = errors.New("already installed")
)
