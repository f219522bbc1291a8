package types

import (
	"context"
	"reflect"
)

// Signature describes one callable method with its input and output types.
type Signature struct {
	Name        string
	Description string
	Internal    bool
	Input       reflect.Type
	Output      reflect.Type
}

type Signatures []Signature

// Lookup returns the signature with the given name, or nil.
func (s Signatures) Lookup(name string) *Signature {
	for i := range s {
		if s[i].Name == name {
			return &s[i]
		}
	}
	return nil
}

// Executable invokes a method, reading input and writing into output.
type Executable func(context context.Context, input, output interface{}) error
