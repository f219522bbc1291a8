package exec

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/sweepline/sweep/model"
)

// Command represents the result of executing a single command
type Command struct {
	Input  string `json:"input,omitempty"`  // The command that was executed
	Output string `json:"output,omitempty"` // Standard output from the command
	Stderr string `json:"stderr,omitempty"` // Standard error from the command
	Status int    `json:"status,omitempty"` // Exit code of the command
}

// Output represents the results of executing commands together with the
// outcome parsed from the last stdout line.
type Output struct {
	Commands []*Command    `json:"commands,omitempty"` // Results of individual commands
	Stdout   string        `json:"stdout,omitempty"`   // Combined standard output from all commands
	Stderr   string        `json:"stderr,omitempty"`   // Combined standard error from all commands
	Status   int           `json:"status,omitempty"`   // Exit code of the last command executed
	Outcome  model.Outcome `json:"outcome,omitempty"`  // Metrics reported by the workload
}

// parseOutcome interprets the last non-empty stdout line as the workload's
// measurement: either a JSON object mapping metric names to numbers or
// [mean, sem] pairs, or a bare number reported for the objective.
func parseOutcome(stdout, objectiveName string) (model.Outcome, error) {
	line := lastLine(stdout)
	if line == "" {
		return nil, nil
	}
	if strings.HasPrefix(line, "{") {
		var raw map[string]interface{}
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			return nil, err
		}
		return model.NormalizeOutcome(raw, objectiveName)
	}
	value, err := strconv.ParseFloat(line, 64)
	if err != nil {
		return nil, nil
	}
	return model.NormalizeOutcome(value, objectiveName)
}

func lastLine(text string) string {
	lines := strings.Split(text, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
