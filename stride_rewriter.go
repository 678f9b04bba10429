package laa

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"
)

// StrideMap records, per pointer, the program variable a frontend has
// promised is a symbolic stride equal to 1 at runtime. It is
// keyed by the pointer whose access function mentions the symbolic
// variable, not by the variable itself — matching the original's
// PtrToStride map, which is indexed by pointer (or the GEP's original
// pointer operand before indexing was stripped).
type StrideMap map[value.Value]value.Value

// stripIntegerCast unwraps a single integer-widening/narrowing cast so the
// symbolic stride variable substituted into the SCEV matches the value the
// frontend actually annotated, regardless of a sign- or zero-extend the
// user's arithmetic introduced around it (original: stripIntegerCast).
func stripIntegerCast(v value.Value) value.Value {
	switch c := v.(type) {
	case *ir.InstTrunc:
		return c.From
	case *ir.InstSExt:
		return c.From
	case *ir.InstZExt:
		return c.From
	default:
		return v
	}
}

// RewriteSymbolicStride returns ptr's symbolic expression with any
// declared symbolic-stride parameter substituted by the constant 1. The
// substitution is purely semantic: it never emits IR, and a pointer absent
// from strides gets back its unmodified SCEV.
func RewriteSymbolicStride(se ScalarEvolution, strides StrideMap, ptr value.Value) SCEV {
	orig := se.GetSCEV(ptr)

	strideVar, ok := strides[ptr]
	if !ok {
		return orig
	}
	strideVar = stripIntegerCast(strideVar)

	one := se.ConstantInt(1)
	return se.Substitute(orig, map[value.Value]SCEV{strideVar: one})
}
