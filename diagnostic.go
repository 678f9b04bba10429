package laa

import "fmt"

// Reason classifies why an analysis rejected a loop, mirroring the fixed
// set of messages LoopAccessAnalysis.cpp's emitAnalysis call sites produce,
// but as a switchable value instead of a free-form string.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonNotInnermost
	ReasonControlFlowNotUnderstood
	ReasonTripCountUnknown
	ReasonNonSimpleAccess
	ReasonUniformStore
	ReasonUnrecognizedMemoryOp
	ReasonBoundsNotComputable
	ReasonTooManyRuntimeChecks
	ReasonCrossAddressSpaceCompare
	ReasonUnsafeDependence
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonNotInnermost:
		return "loop is not the innermost loop"
	case ReasonControlFlowNotUnderstood:
		return "loop control flow not understood by analyzer"
	case ReasonTripCountUnknown:
		return "could not determine number of loop iterations"
	case ReasonNonSimpleAccess:
		return "read or write with atomic ordering or volatile access"
	case ReasonUniformStore:
		return "write to a loop invariant address could not be vectorized"
	case ReasonUnrecognizedMemoryOp:
		return "instruction cannot be vectorized"
	case ReasonBoundsNotComputable:
		return "cannot identify array bounds"
	case ReasonTooManyRuntimeChecks:
		return "number of dependent memory operations exceeds runtime check threshold"
	case ReasonCrossAddressSpaceCompare:
		return "runtime check would require comparison between different address spaces"
	case ReasonUnsafeDependence:
		return "unsafe dependent memory operations in loop"
	default:
		return "unknown"
	}
}

// Diagnostic is the single report an analysis may publish. At most one is
// attached per Result, matching the original's assert-guarded Report field.
type Diagnostic struct {
	Reason Reason
	Detail string
}

func (d *Diagnostic) String() string {
	if d == nil {
		return ""
	}
	if d.Detail == "" {
		return d.Reason.String()
	}
	return fmt.Sprintf("%s: %s", d.Reason, d.Detail)
}

// reporter enforces the at-most-one-diagnostic discipline for a single
// analysis run. A second report is a programming error in the driver, not a
// recoverable condition, so it panics exactly like the original's assert.
type reporter struct {
	diag *Diagnostic
}

func (r *reporter) report(reason Reason, detail string) {
	if r.diag != nil {
		panic("laa: multiple diagnostics reported for one analysis")
	}
	r.diag = &Diagnostic{Reason: reason, Detail: detail}
}
