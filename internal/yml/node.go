// Package yml supplies yaml.Node traversal helpers used by the experiment
// definition parser. Definitions are decoded into nodes rather than typed
// structs so that parameter blocks can carry heterogeneous scalar values.
package yml

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Node aliases yaml.Node so traversal helpers can hang off it.
type Node yaml.Node

// Pairs walks a mapping node, invoking callback for every key/value pair in
// document order. The callback error aborts the walk.
func (n *Node) Pairs(callback func(key string, node *Node) error) error {
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		value := (*Node)(n.Content[i+1])
		if err := callback(key, value); err != nil {
			return err
		}
	}
	return nil
}

// Interface converts the node subtree into plain Go values: scalars by tag,
// mappings to map[string]interface{}, sequences to []interface{}.
func (n *Node) Interface() interface{} {
	switch n.Kind {
	case yaml.ScalarNode:
		switch n.Tag {
		case "!!str":
			return n.Value
		case "!!bool":
			return asBool(n.Value)
		case "!!null":
			return nil
		case "!!float":
			return asFloat(n.Value)
		case "!!int":
			return asInt(n.Value)
		default:
			return n.Value
		}
	case yaml.MappingNode:
		result := make(map[string]interface{}, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			result[key] = (*Node)(n.Content[i+1]).Interface()
		}
		return result
	case yaml.SequenceNode:
		result := make([]interface{}, 0, len(n.Content))
		for _, item := range n.Content {
			result = append(result, (*Node)(item).Interface())
		}
		return result
	}
	return nil
}

func asBool(value string) bool {
	return strings.EqualFold(value, "true")
}

func asFloat(value string) float64 {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return f
}

func asInt(value string) int {
	i, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return i
}
