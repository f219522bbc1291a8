package types

import "fmt"

// NewMethodNotFoundError reports an unknown method name on a service.
func NewMethodNotFoundError(name string) error {
	return fmt.Errorf("method %v not found", name)
}

// NewInvalidInputError reports an input of an unexpected type.
func NewInvalidInputError(in interface{}) error {
	return fmt.Errorf("invalid input %T", in)
}

// NewInvalidOutputError reports an output of an unexpected type.
func NewInvalidOutputError(in interface{}) error {
	return fmt.Errorf("invalid output %T", in)
}
