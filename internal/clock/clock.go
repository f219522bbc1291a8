// Package clock wraps time.Now so tests can control time.
package clock

import "time"

// NowFunc supplies the current time. Override in tests for determinism.
var NowFunc = time.Now

// Now returns the current time.
func Now() time.Time { return NowFunc() }
