// Package remesh implements the retopology decision engine: the
// external remesher invoker, the built-in quad remesher, the
// decimation fallback, and the strategy selector that sequences them.
package remesh

import (
	"fmt"

	"github.com/Faultbox/meshforge/pkg/mesh"
)

// Status tags the outcome of an external remesher invocation.
type Status int

// Invocation statuses.
const (
	StatusSuccess Status = iota
	StatusToolMissing
	StatusTimedOut
	StatusFailed
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusToolMissing:
		return "tool missing"
	case StatusTimedOut:
		return "timed out"
	case StatusFailed:
		return "process failed"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Outcome is the tagged result of one external remesher run. Mesh is
// set only on success; ExitCode and Stderr only on process failure.
type Outcome struct {
	Status   Status
	Mesh     *mesh.Mesh
	ExitCode int
	Stderr   string
}

// Reason returns a diagnostic string suitable for fallback logging.
func (o Outcome) Reason() string {
	if o.Status == StatusFailed {
		return fmt.Sprintf("%s (exit %d)", o.Status, o.ExitCode)
	}
	return o.Status.String()
}
