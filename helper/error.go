package helper

import "fmt"

// Error wraps an error with the operation that produced it
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("error in %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with the name of the failed operation
func NewError(op string, err error) error {
	return &Error{Op: op, Err: err}
}
