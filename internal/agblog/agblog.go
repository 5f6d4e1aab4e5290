// Package agblog provides the conditional diagnostic tracing used across
// the core: illegal memory accesses, dropped samples, and decode failures
// are warnings, not errors, so they are logged rather than propagated.
package agblog

import (
	"fmt"
	"os"
)

// Enabled gates Printf output. It mirrors the teacher's env/flag-gated
// debugTimer field: off by default, flippable by embedders for tracing.
var Enabled = os.Getenv("AGBCORE_DEBUG") != ""

// Printf writes a formatted diagnostic line to stderr when Enabled is true.
func Printf(format string, args ...any) {
	if !Enabled {
		return
	}
	fmt.Fprintf(os.Stderr, "agbcore: "+format+"\n", args...)
}

// Warnf always writes: used for conditions spec.md §7 classifies as
// logged warnings regardless of the Enabled trace flag (illegal access,
// FIFO overflow, decode failure).
func Warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "agbcore: WARN: "+format+"\n", args...)
}
