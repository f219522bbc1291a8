package dao

// Parameter is a named List filter, such as State=running.
type Parameter struct {
	Name  string
	Value interface{}
}

// NewParameter creates a filter. A single value stays scalar, multiple
// values become a string slice matched as any-of.
func NewParameter(name string, values ...string) *Parameter {
	if len(values) == 1 {
		return &Parameter{Name: name, Value: values[0]}
	}
	return &Parameter{Name: name, Value: values}
}
