package laa_test

import (
	"strings"
	"testing"

	"github.com/llir/llvm/ir/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vecopt/laa"
	"github.com/vecopt/laa/fixture"
)

func TestFindConsecutiveAccessesFindsAdjacentPair(t *testing.T) {
	env := fixture.NewEnv()
	base := fixture.NewParam("a", types.NewPointer(types.I8))
	ptr0 := env.Pointer("a.i", types.I32, 4, fixture.Unknown(base, true), fixture.Const(4))
	ptr1 := env.Pointer("a.i1", types.I32, 4, fixture.Offset(fixture.Unknown(base, true), 4), fixture.Const(4))
	ptrFar := env.Pointer("a.i9", types.I32, 4, fixture.Offset(fixture.Unknown(base, true), 36), fixture.Const(4))

	accesses := []laa.LoopAccess{
		{Inst: env.Load("l0", ptr0, types.I32, true), Idx: 0},
		{Inst: env.Load("l1", ptr1, types.I32, true), Idx: 1},
		{Inst: env.Load("l9", ptrFar, types.I32, true), Idx: 2},
	}

	pairs := laa.FindConsecutiveAccesses(env.Oracle, env.DL, accesses)

	require.Len(t, pairs, 1)
	assert.Equal(t, ptr0, pairs[0][0].Tag().Ptr)
	assert.Equal(t, ptr1, pairs[0][1].Tag().Ptr)
}

func TestFindConsecutiveAccessesIgnoresMismatchedElementSize(t *testing.T) {
	env := fixture.NewEnv()
	base := fixture.NewParam("a", types.NewPointer(types.I8))
	ptr0 := env.Pointer("a.i32", types.I32, 4, fixture.Unknown(base, true), fixture.Const(4))
	ptr1 := env.Pointer("a.i64", types.I64, 8, fixture.Offset(fixture.Unknown(base, true), 4), fixture.Const(8))

	accesses := []laa.LoopAccess{
		{Inst: env.Load("l0", ptr0, types.I32, true), Idx: 0},
		{Inst: env.Load("l1", ptr1, types.I64, true), Idx: 1},
	}

	pairs := laa.FindConsecutiveAccesses(env.Oracle, env.DL, accesses)
	assert.Empty(t, pairs)
}

func TestRuntimeDescriptorRenderListsEntriesAndPairs(t *testing.T) {
	env := fixture.NewEnv()
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
	rcb := &laa.RuntimeCheckBuilder{SE: env.Oracle, DL: env.DL, L: env.Loop, Threshold: 8}
	desc, diag := rcb.Build(cls)
	require.Nil(t, diag)

	out := desc.Render()
	assert.True(t, strings.Contains(out, "2 entries"))
	assert.True(t, strings.Contains(out, "Checked pairs (1):"))
	assert.True(t, strings.Contains(out, "write ptr"))
}
