package laa_test

import (
	"testing"

	"github.com/llir/llvm/ir/types"
	"github.com/stretchr/testify/assert"

	"github.com/vecopt/laa"
	"github.com/vecopt/laa/fixture"
)

func newChecker(env *fixture.Env) *laa.DependenceChecker {
	return laa.NewDependenceChecker(env.Oracle, env.DL, env.Loop, nil, 1, 1, nil)
}

// twoWrites builds two simple consecutive writes into the same array at a
// given element offset apart, and returns them as ordered LoopAccesses.
func twoWrites(env *fixture.Env, offsetElems int64) (earlier, later laa.LoopAccess) {
	base := fixture.NewParam("base", types.NewPointer(types.I8))
	ptrEarlier := env.Pointer("p0", types.I32, 4, fixture.Unknown(base, true), fixture.Const(4))
	ptrLater := env.Pointer("p1", types.I32, 4, fixture.Offset(fixture.Unknown(base, true), offsetElems*4), fixture.Const(4))
	i0 := env.Store("s0", ptrEarlier, true)
	i1 := env.Store("s1", ptrLater, true)
	return laa.LoopAccess{Inst: i0, Idx: 0}, laa.LoopAccess{Inst: i1, Idx: 1}
}

func TestCheckPairTwoReadsAlwaysSafe(t *testing.T) {
	env := fixture.NewEnv()
	base := fixture.NewParam("base", types.NewPointer(types.I8))
	ptr0 := env.Pointer("p0", types.I32, 4, fixture.Unknown(base, true), fixture.Const(4))
	ptr1 := env.Pointer("p1", types.I32, 4, fixture.Unknown(base, true), fixture.Const(4))
	earlier := laa.LoopAccess{Inst: env.Load("l0", ptr0, types.I32, true), Idx: 0}
	later := laa.LoopAccess{Inst: env.Load("l1", ptr1, types.I32, true), Idx: 1}

	dc := newChecker(env)
	assert.Equal(t, laa.DepSafe, dc.CheckPair(earlier, later))
}

func TestCheckPairZeroDistanceSameTypeSafe(t *testing.T) {
	env := fixture.NewEnv()
	earlier, later := twoWrites(env, 0)
	dc := newChecker(env)
	assert.Equal(t, laa.DepSafe, dc.CheckPair(earlier, later))
}

func TestCheckPairZeroDistanceMismatchedTypeUnsafe(t *testing.T) {
	env := fixture.NewEnv()
	base := fixture.NewParam("base", types.NewPointer(types.I8))
	ptrA := env.Pointer("a", types.I32, 4, fixture.Unknown(base, true), fixture.Const(4))
	ptrB := env.Pointer("b", types.I64, 8, fixture.Unknown(base, true), fixture.Const(4))
	earlier := laa.LoopAccess{Inst: env.Store("s0", ptrA, true), Idx: 0}
	later := laa.LoopAccess{Inst: env.Store("s1", ptrB, true), Idx: 1}

	dc := newChecker(env)
	assert.Equal(t, laa.DepUnsafeFatal, dc.CheckPair(earlier, later))
}

// Same byte size, different type, at distance zero: a write through an i32
// pointer and a write through a float pointer at the identical address is a
// type-punning hazard that byte-size equality alone would miss.
func TestCheckPairZeroDistanceSameSizeDifferentTypeUnsafe(t *testing.T) {
	env := fixture.NewEnv()
	base := fixture.NewParam("base", types.NewPointer(types.I8))
	ptrA := env.Pointer("a", types.I32, 4, fixture.Unknown(base, true), fixture.Const(4))
	ptrB := env.Pointer("b", types.Float, 4, fixture.Unknown(base, true), fixture.Const(4))
	earlier := laa.LoopAccess{Inst: env.Store("s0", ptrA, true), Idx: 0}
	later := laa.LoopAccess{Inst: env.Store("s1", ptrB, true), Idx: 1}

	dc := newChecker(env)
	assert.Equal(t, laa.DepUnsafeFatal, dc.CheckPair(earlier, later))
}

func TestCheckPairPositiveDistanceBelowElementSizeUnsafe(t *testing.T) {
	env := fixture.NewEnv()
	// Both 4-byte elements, offset by 0 elements but the write/write pair is
	// distinguished by forcing a distance smaller than one element via a
	// byte-level offset: reuse twoWrites with offset 0 would be d==0, so
	// instead build a case where d is a small positive but sub-element
	// byte distance.
	base := fixture.NewParam("base", types.NewPointer(types.I8))
	ptrEarlier := env.Pointer("p0", types.I32, 4, fixture.Unknown(base, true), fixture.Const(4))
	ptrLater := env.Pointer("p1", types.I32, 4, fixture.Offset(fixture.Unknown(base, true), 2), fixture.Const(4))
	earlier := laa.LoopAccess{Inst: env.Store("s0", ptrEarlier, true), Idx: 0}
	later := laa.LoopAccess{Inst: env.Store("s1", ptrLater, true), Idx: 1}

	dc := newChecker(env)
	assert.Equal(t, laa.DepUnsafeFatal, dc.CheckPair(earlier, later))
}

func TestCheckPairLargePositiveDistanceSafeAndShrinksMaxSafeDistance(t *testing.T) {
	env := fixture.NewEnv()
	earlier, later := twoWrites(env, 100)
	dc := newChecker(env)
	verdict := dc.CheckPair(earlier, later)
	assert.Equal(t, laa.DepSafe, verdict)
	assert.Equal(t, uint64(400), dc.MaxSafeDistBytes)
}

func TestCheckPairNonConstantDistanceRetriesWithRuntime(t *testing.T) {
	env := fixture.NewEnv()
	baseA := fixture.NewParam("arrA", types.NewPointer(types.I8))
	baseB := fixture.NewParam("arrB", types.NewPointer(types.I8))
	ptrA := env.Pointer("a", types.I32, 4, fixture.Unknown(baseA, true), fixture.Const(4))
	ptrB := env.Pointer("b", types.I32, 4, fixture.Unknown(baseB, true), fixture.Const(4))
	earlier := laa.LoopAccess{Inst: env.Store("s0", ptrA, true), Idx: 0}
	later := laa.LoopAccess{Inst: env.Store("s1", ptrB, true), Idx: 1}

	dc := newChecker(env)
	assert.Equal(t, laa.DepUnsafeRetryWithRuntime, dc.CheckPair(earlier, later))
}

func TestCheckPairDifferentAddressSpacesUnsafe(t *testing.T) {
	env := fixture.NewEnv()
	earlier, later := twoWrites(env, 10)

	earlierTy := earlier.Inst.Pointer().Type().(*types.PointerType)
	laterTy := later.Inst.Pointer().Type().(*types.PointerType)
	env.DL.SetAddressSpace(earlierTy, 0)
	env.DL.SetAddressSpace(laterTy, 1)

	dc := newChecker(env)
	assert.Equal(t, laa.DepUnsafeFatal, dc.CheckPair(earlier, later))
}
