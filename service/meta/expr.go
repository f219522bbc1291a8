package meta

import (
	"os"
	"strings"
	"unicode"
)

// expandEnvExpr substitutes ${env.KEY} references in experiment metadata
// with the value of the environment variable KEY, or "" when unset.
func expandEnvExpr(value string) string {
	const prefix = "${env."
	var out strings.Builder
	i := 0
	for {
		idx := strings.Index(value[i:], prefix)
		if idx < 0 {
			out.WriteString(value[i:])
			break
		}
		out.WriteString(value[i : i+idx])
		keyStart := i + idx + len(prefix)

		keyEnd := strings.IndexByte(value[keyStart:], '}')
		if keyEnd < 0 {
			// no closing brace, keep the rest as literal text
			out.WriteString(value[i+idx:])
			break
		}
		key := value[keyStart : keyStart+keyEnd]

		if !validEnvKey(key) {
			// keep the prefix as literal and rescan right after it so a
			// nested reference inside the invalid span still expands
			out.WriteString(value[i+idx : keyStart])
			i = keyStart
			continue
		}
		out.WriteString(os.Getenv(key))
		i = keyStart + keyEnd + 1
	}
	return out.String()
}

// validEnvKey accepts letters, digits and underscores. An empty key is
// valid and expands to "".
func validEnvKey(key string) bool {
	for _, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}
