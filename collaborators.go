package laa

import (
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// AddressSpace identifies a pointer address space the way the data layout
// collaborator reports it. Address space 0 is the default space, where a
// pointer wrapping around is undefined behavior.
type AddressSpace uint64

const DefaultAddressSpace AddressSpace = 0

// SCEV is an opaque handle into the scalar-evolution oracle's symbolic
// expression graph. The core only introspects the shapes it observably
// needs: constant, loop-invariant, and affine add-recurrence.
type SCEV interface {
	// Equal reports whether two handles denote the same symbolic expression.
	Equal(other SCEV) bool
}

// AddRec is the narrow view onto an affine add-recurrence {Start, +, Step}<L>
// that C1 and C5 need; no other SCEV shape gets its own capability interface
// because nothing in the core inspects them structurally.
type AddRec interface {
	SCEV
	Loop() Loop
	Start() SCEV
	Step() SCEV
	// NoWrap reports whether the oracle proved this recurrence cannot wrap
	// the pointer's address space.
	NoWrap() bool
}

// ScalarEvolution is the subset of a scalar-evolution oracle the core relies
// on. It is implemented by the host compiler; package fixture ships an
// in-memory implementation for tests.
type ScalarEvolution interface {
	// GetSCEV returns the symbolic expression for an SSA value.
	GetSCEV(v value.Value) SCEV
	// AsAddRec returns the add-recurrence view of expr, if expr is one.
	AsAddRec(expr SCEV) (AddRec, bool)
	// AsConstant returns the constant integer value of expr, if expr is one.
	AsConstant(expr SCEV) (int64, bool)
	// ConstantInt builds a constant SCEV for v.
	ConstantInt(v int64) SCEV
	// IsLoopInvariant reports whether expr does not vary across iterations of l.
	IsLoopInvariant(expr SCEV, l Loop) bool
	// Minus returns sink - src as a symbolic expression.
	Minus(sink, src SCEV) SCEV
	// Substitute rewrites every occurrence of a key value's SCEV inside expr
	// with the paired replacement, used by the symbolic-stride rewriter.
	Substitute(expr SCEV, replacements map[value.Value]SCEV) SCEV
	// BackedgeTakenCount returns the loop's backedge-taken count, or ok=false
	// if the oracle cannot compute a finite count.
	BackedgeTakenCount(l Loop) (SCEV, bool)
	// EvaluateAtIteration evaluates an affine recurrence at the given
	// iteration count, producing the value the recurrence takes on at the
	// loop's exit.
	EvaluateAtIteration(ar AddRec, count SCEV) SCEV
}

// Loop is the loop-inspector collaborator, scoped to a single candidate
// loop. It is implemented by the host's loop-discovery pass.
type Loop interface {
	// Identity is a stable, comparable key for the per-function result cache.
	Identity() any
	Blocks() []Block
	IsInnermost() bool
	NumBackedges() int
	Latch() Block
	// ExitingBlocks lists every block with an edge leaving the loop.
	ExitingBlocks() []Block
	IsAnnotatedParallel() bool
}

// Block is the minimal basic-block view the core needs: its instructions and
// a stable identity for dominance queries.
type Block interface {
	Identity() any
	Instructions() []Instruction
}

// Instruction is any IR instruction the classifier walks. MemInstruction
// narrows this to loads and stores; other instructions are inspected only
// for their memory-effect flags.
type Instruction interface {
	value.Value
	Block() Block
	MayReadMemory() bool
	MayWriteMemory() bool
	// IsRecognizedSideEffectFreeIntrinsic reports whether a memory-reading
	// call is a known-benign intrinsic (e.g. a debug or lifetime marker)
	// that the driver may skip rather than reject.
	IsRecognizedSideEffectFreeIntrinsic() bool
}

// MemInstruction is a load or store. IsSimple reports whether it is
// non-atomic and non-volatile.
type MemInstruction interface {
	Instruction
	Pointer() value.Value
	IsWrite() bool
	IsSimple() bool
}

// AliasOracle partitions a set of memory accesses into alias sets and
// resolves a pointer to the underlying objects it may address — both
// reached from AA elsewhere in the host compiler.
type AliasOracle interface {
	// Partition groups tags into alias-set equivalence classes. tbaaValid
	// reports, per tag, whether the access's TBAA metadata may be trusted
	// (false for accesses under a predicate that does not dominate the latch).
	Partition(tags []AccessTag, tbaaValid map[AccessTag]bool) []AliasSet
	// UnderlyingObjects returns the base objects a pointer may point into.
	UnderlyingObjects(ptr value.Value) []value.Value
}

// DataLayout answers size and address-space questions about IR types.
type DataLayout interface {
	// TypeAllocSize returns the storage size in bytes of t.
	TypeAllocSize(t types.Type) int64
	// AddressSpace returns the address space a pointer type lives in.
	AddressSpace(ptrType types.Type) AddressSpace
}

// DominatorTree answers block dominance queries.
type DominatorTree interface {
	Dominates(a, b Block) bool
}

// ExpressionExpander materializes a symbolic expression as IR at a given
// insertion point. It is used only by the optional runtime-check emission
// helper (see expand.go); the core never calls it directly.
type ExpressionExpander interface {
	Expand(expr SCEV, insertAt Block) value.Value
}
