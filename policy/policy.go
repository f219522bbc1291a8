// Package policy gates which evaluations a run may execute. A policy rides
// on the context, so runtimes that never attach one keep the default
// execute-everything behavior.
package policy

import (
	"context"
	"strings"
)

// Approval modes.
const (
	ModeAsk  = "ask"  // ask before every evaluation
	ModeAuto = "auto" // execute automatically (default)
	ModeDeny = "deny" // block execution
)

// AskFunc decides whether an evaluation may proceed when Mode is ask.
// action is the qualified "service.method" name and args the expanded
// input, which may be nil. Implementations may mutate the policy, for
// example switching to ModeAuto after the first approval.
type AskFunc func(ctx context.Context, action string, args map[string]interface{}, p *Policy) bool

// Policy holds the approval settings for a run. A nil *Policy allows
// everything.
type Policy struct {
	Mode      string   // ask, auto or deny
	AllowList []string // empty allows all actions
	BlockList []string
	Ask       AskFunc // consulted only when Mode is ask
}

// Config is the serializable subset of a Policy. AskFunc cannot be
// persisted, so stored runs round-trip through Config.
type Config struct {
	Mode      string   `json:"mode,omitempty" yaml:"mode,omitempty"`
	AllowList []string `json:"allow,omitempty" yaml:"allow,omitempty"`
	BlockList []string `json:"block,omitempty" yaml:"block,omitempty"`
}

// ToConfig extracts the persistable part of a policy.
func ToConfig(p *Policy) *Config {
	if p == nil {
		return nil
	}
	return &Config{
		Mode:      p.Mode,
		AllowList: append([]string(nil), p.AllowList...),
		BlockList: append([]string(nil), p.BlockList...),
	}
}

// FromConfig rebuilds a runtime policy, without an AskFunc.
func FromConfig(c *Config) *Policy {
	if c == nil {
		return nil
	}
	return &Policy{
		Mode:      c.Mode,
		AllowList: append([]string(nil), c.AllowList...),
		BlockList: append([]string(nil), c.BlockList...),
	}
}

// IsAllowed checks the action name against both lists. Matching is
// case-insensitive and the block list wins over the allow list.
func (p *Policy) IsAllowed(action string) bool {
	if p == nil {
		return true
	}
	normalized := strings.ToLower(action)
	for _, blocked := range p.BlockList {
		if normalized == strings.ToLower(blocked) {
			return false
		}
	}
	if len(p.AllowList) == 0 {
		return true
	}
	for _, allowed := range p.AllowList {
		if normalized == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithPolicy attaches the policy to ctx.
func WithPolicy(ctx context.Context, p *Policy) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, p)
}

// FromContext returns the attached policy, or nil.
func FromContext(ctx context.Context) *Policy {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(*Policy); ok {
		return v
	}
	return nil
}
