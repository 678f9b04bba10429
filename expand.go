package laa

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// LLVMBlock is satisfied by a Block collaborator that is backed by a real
// llir/llvm basic block, letting IRExpander append instructions to it. The
// fixture package's in-memory blocks do not implement this, since nothing
// in the core calls Expand; it is reached only by callers that actually
// want the optional emit_runtime_check helper.
type LLVMBlock interface {
	Block
	Underlying() *ir.Block
}

// IRExpander is the concrete, optional ExpressionExpander (A5). It handles
// two SCEV shapes: a compile-time constant, and an affine add-recurrence,
// which it expands as start + step*(backedge-taken count). Any other shape,
// including a non-constant loop-invariant start or an expression already
// produced by ScalarEvolution.EvaluateAtIteration that is not a constant,
// yields nil.
type IRExpander struct {
	SE ScalarEvolution
}

func (e *IRExpander) Expand(expr SCEV, insertAt Block) value.Value {
	lb, ok := insertAt.(LLVMBlock)
	if !ok {
		return nil
	}
	return e.expand(expr, lb.Underlying())
}

func (e *IRExpander) expand(expr SCEV, blk *ir.Block) value.Value {
	if c, ok := e.SE.AsConstant(expr); ok {
		return constant.NewInt(types.I64, c)
	}
	if ar, ok := e.SE.AsAddRec(expr); ok {
		start := e.expand(ar.Start(), blk)
		step := e.expand(ar.Step(), blk)
		if start == nil || step == nil {
			return nil
		}
		bc, ok := e.SE.BackedgeTakenCount(ar.Loop())
		if !ok {
			return nil
		}
		count := e.expand(bc, blk)
		if count == nil {
			return nil
		}
		offset := blk.NewMul(step, count)
		return blk.NewGetElementPtr(types.I8, start, offset)
	}
	return nil
}

// EmitRuntimeCheck implements the optional emit_runtime_check helper: it
// materializes, for every pair the descriptor's Pairs() names, the overlap
// predicate (start_i <= end_j) && (start_j <= end_i), OR-reduces the pairs,
// and AND-combines the result with a true constant so the check always has
// an instruction anchor, even with exactly one pair. If any pair's bounds
// cannot be expanded it reports ok=false.
func EmitRuntimeCheck(desc *RuntimeDescriptor, expander ExpressionExpander, insertAt Block) (firstNewInstr, finalBoolInstr value.Value, ok bool) {
	lb, isLLVM := insertAt.(LLVMBlock)
	if !isLLVM {
		return nil, nil, false
	}
	blk := lb.Underlying()
	pairs := desc.Pairs()
	if len(pairs) == 0 {
		return nil, nil, false
	}

	startLen := len(blk.Insts)
	var orAcc value.Value

	for _, p := range pairs {
		a, b := desc.Entries[p[0]], desc.Entries[p[1]]
		startA := expander.Expand(a.Start, insertAt)
		endA := expander.Expand(a.End, insertAt)
		startB := expander.Expand(b.Start, insertAt)
		endB := expander.Expand(b.End, insertAt)
		if startA == nil || endA == nil || startB == nil || endB == nil {
			return nil, nil, false
		}
		aBeforeBEnd := blk.NewICmp(enum.IPredULE, startA, endB)
		bBeforeAEnd := blk.NewICmp(enum.IPredULE, startB, endA)
		overlaps := blk.NewAnd(aBeforeBEnd, bBeforeAEnd)
		if orAcc == nil {
			orAcc = overlaps
		} else {
			orAcc = blk.NewOr(orAcc, overlaps)
		}
	}
	if orAcc == nil || len(blk.Insts) <= startLen {
		return nil, nil, false
	}

	final := blk.NewAnd(orAcc, constant.True)
	return blk.Insts[startLen].(value.Value), final, true
}
