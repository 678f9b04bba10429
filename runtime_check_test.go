package laa_test

import (
	"testing"

	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vecopt/laa"
	"github.com/vecopt/laa/fixture"
)

func classifyTwoUnrelatedWrites(env *fixture.Env) (*laa.ClassifyResult, []laa.LoopAccess, *fixture.Param, *fixture.Param) {
	baseA := fixture.NewParam("arrA", types.NewPointer(types.I8))
	baseB := fixture.NewParam("arrB", types.NewPointer(types.I8))
	ptrA := env.Pointer("a", types.I32, 4, fixture.Unknown(baseA, true), fixture.Const(4))
	ptrB := env.Pointer("b", types.I32, 4, fixture.Unknown(baseB, true), fixture.Const(4))

	storeA := env.Store("store.a", ptrA, true)
	storeB := env.Store("store.b", ptrB, true)

	env.AO.AliasTogether(ptrA, ptrB)
	env.SetTripCount(fixture.Const(1000))

	accesses := []laa.LoopAccess{
		{Inst: storeA, Idx: 0},
		{Inst: storeB, Idx: 1},
	}
	cls := laa.ClassifyAccesses(env.Oracle, env.DL, env.Loop, env.DT, env.AO, nil, accesses, nil)
	return cls, accesses, ptrA, ptrB
}

func TestRuntimeCheckBuilderProducesPairForUnrelatedAliasingWrites(t *testing.T) {
	env := fixture.NewEnv()
	cls, _, _, _ := classifyTwoUnrelatedWrites(env)

	rcb := &laa.RuntimeCheckBuilder{SE: env.Oracle, DL: env.DL, L: env.Loop, Threshold: 8}
	desc, diag := rcb.Build(cls)
	require.Nil(t, diag)
	require.Len(t, desc.Entries, 2)
	assert.Len(t, desc.Pairs(), 1)
}

func TestRuntimeCheckBuilderRejectsCrossAddressSpace(t *testing.T) {
	env := fixture.NewEnv()
	cls, _, ptrA, ptrB := classifyTwoUnrelatedWrites(env)

	ptrATy := ptrA.Type().(*types.PointerType)
	ptrBTy := ptrB.Type().(*types.PointerType)
	env.DL.SetAddressSpace(ptrATy, 0)
	env.DL.SetAddressSpace(ptrBTy, 1)
	// Outside address space 0, stride analysis only accepts a recurrence
	// that carries the no-wrap flag; without it the builder would stop at
	// the bounds check before reaching the address-space comparison.
	arB, _ := env.Oracle.AsAddRec(env.Oracle.GetSCEV(ptrB))
	env.Oracle.Register(ptrB, fixture.AddRec(arB.Start().(fixture.SCEV), arB.Step().(fixture.SCEV), env.Loop, true))

	rcb := &laa.RuntimeCheckBuilder{SE: env.Oracle, DL: env.DL, L: env.Loop, Threshold: 8}
	_, diag := rcb.Build(cls)
	require.NotNil(t, diag)
	assert.Equal(t, laa.ReasonCrossAddressSpaceCompare, diag.Reason)
}

func TestRuntimeCheckBuilderRejectsTooManyComparisons(t *testing.T) {
	env := fixture.NewEnv()
	baseA := fixture.NewParam("arrA", types.NewPointer(types.I8))

	var accesses []laa.LoopAccess
	var ptrs []*fixture.Param
	// Ten distinct, aliasing write pointers into one alias set: with no
	// two of them merged into the same dependence class this is
	// writes*(reads+writes-1) = 10*9 = 90 comparisons, well past the
	// default threshold of 8.
	for i := 0; i < 10; i++ {
		ptr := env.Pointer("w", types.I32, 4, fixture.Offset(fixture.Unknown(baseA, true), int64(i*4)), fixture.Const(4))
		ptrs = append(ptrs, ptr)
		accesses = append(accesses, laa.LoopAccess{Inst: env.Store("store", ptr, true), Idx: i})
	}
	vals := make([]value.Value, len(ptrs))
	for i, p := range ptrs {
		vals[i] = p
	}
	env.AO.AliasTogether(vals...)
	env.SetTripCount(fixture.Const(1000))

	cls := laa.ClassifyAccesses(env.Oracle, env.DL, env.Loop, env.DT, env.AO, nil, accesses, nil)
	rcb := &laa.RuntimeCheckBuilder{SE: env.Oracle, DL: env.DL, L: env.Loop, Threshold: 8}
	_, diag := rcb.Build(cls)
	require.NotNil(t, diag)
	assert.Equal(t, laa.ReasonTooManyRuntimeChecks, diag.Reason)
}

func TestRuntimeCheckBuilderRejectsUnboundedPointer(t *testing.T) {
	env := fixture.NewEnv()
	baseA := fixture.NewParam("arrA", types.NewPointer(types.I8))
	ptrA := env.Pointer("a", types.I32, 4, fixture.Unknown(baseA, true), fixture.Const(4))
	// ptrB is never given an add-recurrence, so its bounds are not
	// computable.
	ptrB := fixture.NewParam("b", types.NewPointer(types.I32))

	storeA := env.Store("store.a", ptrA, true)
	storeB := env.Store("store.b", ptrB, true)
	env.AO.AliasTogether(ptrA, ptrB)
	env.SetTripCount(fixture.Const(1000))

	accesses := []laa.LoopAccess{
		{Inst: storeA, Idx: 0},
		{Inst: storeB, Idx: 1},
	}
	cls := laa.ClassifyAccesses(env.Oracle, env.DL, env.Loop, env.DT, env.AO, nil, accesses, nil)
	rcb := &laa.RuntimeCheckBuilder{SE: env.Oracle, DL: env.DL, L: env.Loop, Threshold: 8}
	_, diag := rcb.Build(cls)
	require.NotNil(t, diag)
	assert.Equal(t, laa.ReasonBoundsNotComputable, diag.Reason)
}

