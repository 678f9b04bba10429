package laa_test

import (
	"testing"

	"github.com/llir/llvm/ir/types"
	"github.com/stretchr/testify/assert"

	"github.com/vecopt/laa"
	"github.com/vecopt/laa/fixture"
)

func TestAnalyzeStrideConsecutive(t *testing.T) {
	env := fixture.NewEnv()
	arr := fixture.NewParam("arr", types.NewPointer(types.I8))
	ptr := env.Pointer("a.gep", types.I32, 4, fixture.Unknown(arr, true), fixture.Const(4))

	res := laa.AnalyzeStride(env.Oracle, env.DL, env.Loop, nil, ptr)
	assert.Equal(t, laa.StrideOK, res.Failure)
	assert.Equal(t, int64(1), res.Stride)
	assert.True(t, res.IsConsecutive())
}

func TestAnalyzeStrideNonUnit(t *testing.T) {
	env := fixture.NewEnv()
	arr := fixture.NewParam("arr", types.NewPointer(types.I8))
	// Steps by 8 bytes over 4-byte elements: stride 2, not consecutive. The
	// recurrence carries the no-wrap flag, since the address-space-0
	// fallback alone only admits a unit stride.
	ptr := env.Pointer("a.gep", types.I32, 4, fixture.Unknown(arr, true), fixture.Const(8))
	env.Oracle.Register(ptr, fixture.AddRec(fixture.Unknown(arr, true), fixture.Const(8), env.Loop, true))

	res := laa.AnalyzeStride(env.Oracle, env.DL, env.Loop, nil, ptr)
	assert.Equal(t, laa.StrideOK, res.Failure)
	assert.Equal(t, int64(2), res.Stride)
	assert.False(t, res.IsConsecutive())
}

func TestAnalyzeStrideNotAffine(t *testing.T) {
	env := fixture.NewEnv()
	// A pointer whose SCEV is never registered as an add-recurrence over
	// this loop is not affine.
	ptr := fixture.NewParam("p", types.NewPointer(types.I32))

	res := laa.AnalyzeStride(env.Oracle, env.DL, env.Loop, nil, ptr)
	assert.Equal(t, laa.StrideNotAffine, res.Failure)
}

func TestAnalyzeStrideNonDivisibleStep(t *testing.T) {
	env := fixture.NewEnv()
	arr := fixture.NewParam("arr", types.NewPointer(types.I8))
	// 6-byte step over 4-byte elements does not divide evenly.
	ptr := env.Pointer("a.gep", types.I32, 4, fixture.Unknown(arr, true), fixture.Const(6))

	res := laa.AnalyzeStride(env.Oracle, env.DL, env.Loop, nil, ptr)
	assert.Equal(t, laa.StrideNonDivisibleStep, res.Failure)
}

func TestAnalyzeStrideAggregateElementType(t *testing.T) {
	env := fixture.NewEnv()
	arr := fixture.NewParam("arr", types.NewPointer(types.I8))
	structTy := types.NewStruct(types.I32, types.I32)
	ptr := env.Pointer("a.gep", structTy, 8, fixture.Unknown(arr, true), fixture.Const(8))

	res := laa.AnalyzeStride(env.Oracle, env.DL, env.Loop, nil, ptr)
	assert.Equal(t, laa.StrideAggregateElementType, res.Failure)
}

func TestRewriteSymbolicStrideSubstitutesDeclaredVariable(t *testing.T) {
	env := fixture.NewEnv()
	arr := fixture.NewParam("arr", types.NewPointer(types.I8))
	strideVar := fixture.NewParam("n", types.I64)

	// The per-iteration byte step is "n * 4", where n is a symbolic value
	// the caller declares equal to 1 at runtime via StrideMap.
	symbolicStep := fixture.Mul(fixture.Unknown(strideVar, false), fixture.Const(4))
	ptr := env.Pointer("a.gep", types.I32, 4, fixture.Unknown(arr, true), symbolicStep)

	strides := laa.StrideMap{ptr: strideVar}
	rewritten := laa.RewriteSymbolicStride(env.Oracle, strides, ptr)

	// Once substituted, the step collapses to the constant 1 element * 4
	// bytes, matching the ordinary consecutive case.
	res := laa.AnalyzeStride(env.Oracle, env.DL, env.Loop, strides, ptr)
	assert.Equal(t, laa.StrideOK, res.Failure)
	assert.Equal(t, int64(1), res.Stride)
	assert.NotNil(t, rewritten)
}
