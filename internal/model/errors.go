package model

import "errors"

// Coded is implemented by errors that expose a stable API error code.
type Coded interface {
	Code() string
}

// ErrorCode walks the error chain and returns the first stable code found,
// or "internal_error" when none is present.
func ErrorCode(err error) string {
	for err != nil {
		if coded, ok := err.(Coded); ok {
			return coded.Code()
		}
		err = errors.Unwrap(err)
	}
	return "internal_error"
}
