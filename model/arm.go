package model

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
)

// Arm is a named parameterization. Arms are the unit generators propose and
// evaluators execute; two arms with equal parameters share a signature so
// duplicates can be detected regardless of naming.
type Arm struct {
	Name       string           `json:"name,omitempty" yaml:"name,omitempty"`
	Parameters Parameterization `json:"parameters" yaml:"parameters"`
}

// NewArm creates an unnamed arm over the supplied parameters.
func NewArm(parameters Parameterization) *Arm {
	return &Arm{Parameters: parameters}
}

// Signature returns a deterministic digest of the arm parameters. The digest
// is computed over key-sorted JSON so it is independent of map iteration
// order and of the arm name.
func (a *Arm) Signature() string {
	encoded, err := json.Marshal(a.Parameters) // map keys are sorted by encoding/json
	if err != nil {
		return ""
	}
	sum := md5.Sum(encoded)
	return hex.EncodeToString(sum[:])
}

// Clone returns a deep copy of the arm.
func (a *Arm) Clone() *Arm {
	if a == nil {
		return nil
	}
	return &Arm{Name: a.Name, Parameters: a.Parameters.Clone()}
}
