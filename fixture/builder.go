package fixture

import (
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"github.com/vecopt/laa"
	"go.uber.org/zap"
)

// Env bundles one innermost loop with its collaborator fixtures, wired
// together the way a real pass manager would hand them to the core.
// Test scenarios build on it instead of wiring Oracle/AliasOracle/
// DataLayout/DominatorTree by hand each time.
type Env struct {
	Oracle *Oracle
	AO     *AliasOracle
	DL     *DataLayout
	DT     *DominatorTree
	Loop   *Loop
	Body   *Block
}

// NewEnv builds a single-block innermost loop with default collaborators.
func NewEnv() *Env {
	body := NewBlock("loop.body")
	l := NewLoop("loop", body)
	return &Env{
		Oracle: NewOracle(),
		AO:     NewAliasOracle(),
		DL:     NewDataLayout(),
		DT:     NewDominatorTree(),
		Loop:   l,
		Body:   body,
	}
}

// SetTripCount records the loop's symbolic backedge-taken count.
func (e *Env) SetTripCount(expr SCEV) {
	e.Oracle.SetBackedgeTakenCount(e.Loop, expr)
}

// Pointer declares a pointer-typed value whose address varies across the
// loop as the affine recurrence base + step*i, and registers that
// recurrence with the oracle. elemSize is also recorded with the data
// layout so TypeAllocSize(elemType) answers consistently.
func (e *Env) Pointer(name string, elemType types.Type, elemSize int64, base, step SCEV) *Param {
	ptrTy := types.NewPointer(elemType)
	e.DL.SetSize(elemType, elemSize)
	p := NewParam(name, ptrTy)
	e.Oracle.Register(p, AddRec(base, step, e.Loop, false))
	return p
}

// UnitStridePointer is the common case: the start is the opaque,
// loop-invariant array base itself (no offset), stepping by exactly one
// element per iteration.
func (e *Env) UnitStridePointer(name string, elemType types.Type, elemSize int64, base value.Value) *Param {
	return e.Pointer(name, elemType, elemSize, Unknown(base, true), Const(elemSize))
}

// Load appends a load of ptr to the loop body.
func (e *Env) Load(name string, ptr *Param, elemType types.Type, simple bool) *Instruction {
	return e.Body.Append(NewLoad(name, ptr, elemType, simple))
}

// Store appends a store through ptr to the loop body.
func (e *Env) Store(name string, ptr *Param, simple bool) *Instruction {
	return e.Body.Append(NewStore(name, ptr, simple))
}

// Driver wires this environment's collaborators into a fresh laa.Driver.
func (e *Env) Driver(cfg laa.Config) *laa.Driver {
	return laa.NewDriver(e.Oracle, e.DL, e.DT, e.AO, cfg, zap.NewNop())
}
