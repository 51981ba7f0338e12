package errors

import (
	"errors"
	"fmt"
)

// Errors shared by the command line tools.
var (
	ErrMissingArgument = errors.New("missing argument")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnknownCommand  = errors.New("unknown command")
	ErrInvalidConfig   = errors.New("invalid configuration")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
