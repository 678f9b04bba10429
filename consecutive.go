package laa

import (
	"fmt"
	"strings"

	"github.com/llir/llvm/ir/types"
)

// FindConsecutiveAccesses discovers pairs of accesses whose pointers
// provably address adjacent elements, regardless of which equivalence
// class or alias set either belongs to. It is a diagnostic/reporting
// utility: neither C3's per-pointer stride test nor the laa-check command
// calls it (SPEC_FULL.md §12 supplement #1).
//
// The original's consecutive-access finder fingerprints SCEVs with
// randomized loop-iteration substitutions to cheaply bucket candidate
// pairs before the expensive pairwise comparison; that machinery assumes
// a SCEV visitor that can rewrite arbitrary subexpressions, which this
// core's narrow, opaque SCEV capability interface does not expose. This
// recovers the same result (pairs whose pointer difference is exactly one
// element) by comparing every pair directly through Minus/AsConstant.
func FindConsecutiveAccesses(se ScalarEvolution, dl DataLayout, accesses []LoopAccess) [][2]LoopAccess {
	var pairs [][2]LoopAccess
	for i := 0; i < len(accesses); i++ {
		for j := i + 1; j < len(accesses); j++ {
			if isConsecutivePair(se, dl, accesses[i], accesses[j]) {
				pairs = append(pairs, [2]LoopAccess{accesses[i], accesses[j]})
			}
		}
	}
	return pairs
}

func isConsecutivePair(se ScalarEvolution, dl DataLayout, a, b LoopAccess) bool {
	ptrA, ptrB := a.Tag().Ptr, b.Tag().Ptr
	if ptrA == ptrB {
		return false
	}
	tyA, ok := ptrA.Type().(*types.PointerType)
	if !ok {
		return false
	}
	tyB, ok := ptrB.Type().(*types.PointerType)
	if !ok {
		return false
	}
	if dl.AddressSpace(tyA) != dl.AddressSpace(tyB) {
		return false
	}
	size := dl.TypeAllocSize(tyA.ElemType)
	if size == 0 || dl.TypeAllocSize(tyB.ElemType) != size {
		return false
	}

	dist := se.Minus(se.GetSCEV(ptrB), se.GetSCEV(ptrA))
	d, ok := se.AsConstant(dist)
	if !ok {
		return false
	}
	return d == size
}

// Render is a print(OS, Depth)-equivalent human-readable dump of the
// descriptor, grounded in the original's RuntimePointerCheck::print
// (SPEC_FULL.md §12 supplement #2). It exists for the CLI; nothing in the
// core calls it.
func (d *RuntimeDescriptor) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Runtime pointer checks (%d entries):\n", len(d.Entries))
	for i, e := range d.Entries {
		kind := "read"
		if e.Tag.IsWrite {
			kind = "write"
		}
		fmt.Fprintf(&b, "  [%d] %s ptr, alias_set=%d dep_set=%d addrspace=%d\n",
			i, kind, e.AliasSetID, e.DepSetID, e.AddressSpace)
	}
	pairs := d.Pairs()
	fmt.Fprintf(&b, "Checked pairs (%d):\n", len(pairs))
	for _, p := range pairs {
		fmt.Fprintf(&b, "  (%d, %d)\n", p[0], p[1])
	}
	return b.String()
}
