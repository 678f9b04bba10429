package laa

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// StrideFailure names why AnalyzeStride could not derive a usable stride.
type StrideFailure int

const (
	StrideOK StrideFailure = iota
	StrideNotAffine
	StrideWraps
	StrideNonConstantStep
	StrideNonDivisibleStep
	StrideAggregateElementType
)

// StrideResult is C1's verdict. Stride is zero, with Failure explaining
// why, whenever the pointer is not usable for vectorization purposes.
type StrideResult struct {
	Stride  int64
	Failure StrideFailure
}

func (s StrideResult) IsConsecutive() bool {
	return s.Stride == 1 || s.Stride == -1
}

func isAggregateType(t types.Type) bool {
	switch t.(type) {
	case *types.ArrayType, *types.StructType:
		return true
	default:
		return false
	}
}

func isInBoundsGEP(ptr value.Value) bool {
	gep, ok := ptr.(*ir.InstGetElementPtr)
	return ok && gep.InBounds
}

// AnalyzeStride decides, for pointer ptr accessed inside loop l, whether it
// strides by a compile-time-constant element count that is safe to rely on
// for vectorization.
func AnalyzeStride(se ScalarEvolution, dl DataLayout, l Loop, strides StrideMap, ptr value.Value) StrideResult {
	ptrTy, ok := ptr.Type().(*types.PointerType)
	if !ok {
		return StrideResult{Failure: StrideNotAffine}
	}
	if isAggregateType(ptrTy.ElemType) {
		return StrideResult{Failure: StrideAggregateElementType}
	}

	scev := RewriteSymbolicStride(se, strides, ptr)
	ar, ok := se.AsAddRec(scev)
	if !ok || ar.Loop() != l {
		return StrideResult{Failure: StrideNotAffine}
	}

	noWrapAddRec := ar.NoWrap()
	inBoundsGEP := isInBoundsGEP(ptr)
	addrSpaceZero := dl.AddressSpace(ptrTy) == DefaultAddressSpace
	if !noWrapAddRec && !inBoundsGEP && !addrSpaceZero {
		return StrideResult{Failure: StrideWraps}
	}

	stepConst, ok := se.AsConstant(ar.Step())
	if !ok {
		return StrideResult{Failure: StrideNonConstantStep}
	}

	size := dl.TypeAllocSize(ptrTy.ElemType)
	if size == 0 {
		return StrideResult{Failure: StrideAggregateElementType}
	}
	stride := stepConst / size
	if stepConst%size != 0 {
		return StrideResult{Failure: StrideNonDivisibleStep}
	}

	// Fallback reasoning (in-bounds GEP or address-space-0) only rules out
	// wrapping for a unit stride; anything else could still wrap.
	if !noWrapAddRec && (inBoundsGEP || addrSpaceZero) && stride != 1 && stride != -1 {
		return StrideResult{Failure: StrideWraps}
	}

	return StrideResult{Stride: stride, Failure: StrideOK}
}
