// Package model defines the core experimentation domain: parameters and
// search spaces, arms (parameterizations under test), metrics and objectives,
// experiments, observation data and the helpers that convert raw evaluation
// outcomes into observations consumable by generation models.
package model
