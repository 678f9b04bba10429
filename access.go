package laa

import "github.com/llir/llvm/ir/value"

// AccessTag identifies a single (pointer, read/write) access.
// Two tags for the same pointer but different write flags are distinct, so
// "A[i] = A[i] + 1" produces a read tag and a write tag sharing a pointer.
type AccessTag struct {
	Ptr     value.Value
	IsWrite bool
}

// LoopAccess is one load or store delivered to the classifier and the
// dependence checker, in the program order the driver discovered it.
type LoopAccess struct {
	Inst MemInstruction
	Idx  int
}

func (a LoopAccess) Tag() AccessTag {
	return AccessTag{Ptr: a.Inst.Pointer(), IsWrite: a.Inst.IsWrite()}
}

// AliasSet is one class of the coarse partition the alias oracle produces;
// operations in different alias sets provably do not overlap.
type AliasSet struct {
	ID      int
	Members []AccessTag
}

// tagArena assigns each distinct access tag a dense, stable index so the
// union-find and the per-class traversal can work over small integers
// instead of pointer identity. Indices are handed out in first-seen order,
// which is what makes union-find leaders deterministic.
type tagArena struct {
	tags  []AccessTag
	index map[AccessTag]int
}

func newTagArena() *tagArena {
	return &tagArena{index: make(map[AccessTag]int)}
}

func (a *tagArena) intern(t AccessTag) int {
	if i, ok := a.index[t]; ok {
		return i
	}
	i := len(a.tags)
	a.tags = append(a.tags, t)
	a.index[t] = i
	return i
}

func (a *tagArena) lookup(t AccessTag) (int, bool) {
	i, ok := a.index[t]
	return i, ok
}

func (a *tagArena) tag(i int) AccessTag {
	return a.tags[i]
}

func (a *tagArena) len() int {
	return len(a.tags)
}
