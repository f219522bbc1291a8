package expander

import (
	"testing"

	"github.com/sweepline/sweep/service/eval/exec"
)

func TestExpandExecOutputStruct(t *testing.T) {
	data := &exec.Output{Stdout: "accuracy 0.91"}
	state := map[string]interface{}{"exec": data}
	got, _ := Expand("${exec.Stdout}", state)
	if got != "accuracy 0.91" {
		t.Errorf("expected accuracy 0.91, got %v", got)
	}
}
