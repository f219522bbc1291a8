// Package policy provides optional declarative rules that can be applied on
// top of a running engine, for example to require human approval for
// selected trial evaluations or to enforce execution constraints.
package policy
