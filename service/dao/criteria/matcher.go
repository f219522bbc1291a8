// Package criteria implements the List filters the in-memory DAOs honor.
package criteria

import (
	"github.com/sweepline/sweep/service/dao"
)

// FilterByState reports whether an entity in the given state passes the
// supplied parameters. Only a single State parameter is recognized; any
// other shape matches everything.
func FilterByState(state string, parameters []*dao.Parameter) bool {
	if len(parameters) != 1 || parameters[0].Name != "State" {
		return true
	}
	switch expected := parameters[0].Value.(type) {
	case string:
		return state == expected
	case []string:
		for _, candidate := range expected {
			if state == candidate {
				return true
			}
		}
		return false
	}
	return true
}
