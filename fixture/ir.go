package fixture

import (
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"github.com/vecopt/laa"
)

// Param stands in for a pointer-typed SSA value the IR would otherwise
// supply (a function argument, or the result of a GEP chain the fixture
// does not bother constructing). Its only job is to give an AccessTag a
// stable, comparable identity and a queryable pointer type.
type Param struct {
	name string
	typ  types.Type
}

func NewParam(name string, t types.Type) *Param { return &Param{name: name, typ: t} }
func (p *Param) String() string                 { return p.name }
func (p *Param) Ident() string                   { return p.name }
func (p *Param) Type() types.Type                { return p.typ }

// Block is the fixture's laa.Block.
type Block struct {
	id    string
	insts []*Instruction
}

func NewBlock(id string) *Block { return &Block{id: id} }

func (b *Block) Identity() any { return b.id }

func (b *Block) Instructions() []laa.Instruction {
	out := make([]laa.Instruction, len(b.insts))
	for i, ins := range b.insts {
		out[i] = ins
	}
	return out
}

// Append adds inst to the block's instruction list and binds its Block().
func (b *Block) Append(inst *Instruction) *Instruction {
	inst.block = b
	b.insts = append(b.insts, inst)
	return inst
}

// Instruction is the fixture's laa.Instruction / laa.MemInstruction: one
// type plays both roles as a tagged variant — non-memory and
// non-simple-access instructions simply leave the
// irrelevant fields at their zero value.
type Instruction struct {
	name      string
	typ       types.Type
	block     *Block
	mayRead   bool
	mayWrite  bool
	intrinsic bool
	ptr       value.Value
	isWrite   bool
	simple    bool
}

func (i *Instruction) String() string  { return i.name }
func (i *Instruction) Ident() string   { return i.name }
func (i *Instruction) Type() types.Type { return i.typ }

func (i *Instruction) Block() laa.Block                        { return i.block }
func (i *Instruction) MayReadMemory() bool                     { return i.mayRead }
func (i *Instruction) MayWriteMemory() bool                    { return i.mayWrite }
func (i *Instruction) IsRecognizedSideEffectFreeIntrinsic() bool { return i.intrinsic }
func (i *Instruction) Pointer() value.Value                    { return i.ptr }
func (i *Instruction) IsWrite() bool                           { return i.isWrite }
func (i *Instruction) IsSimple() bool                           { return i.simple }

// NewLoad builds a simple (or, with simple=false, non-simple) load of ptr.
func NewLoad(name string, ptr value.Value, elemType types.Type, simple bool) *Instruction {
	return &Instruction{name: name, typ: elemType, mayRead: true, ptr: ptr, isWrite: false, simple: simple}
}

// NewStore builds a simple (or non-simple) store through ptr.
func NewStore(name string, ptr value.Value, simple bool) *Instruction {
	return &Instruction{name: name, typ: types.Void, mayWrite: true, ptr: ptr, isWrite: true, simple: simple}
}

// NewIntrinsicCall builds a call the driver should skip outright — it may
// read memory, but is a recognized side-effect-free intrinsic.
func NewIntrinsicCall(name string) *Instruction {
	return &Instruction{name: name, typ: types.Void, mayRead: true, intrinsic: true}
}

// NewUnrecognizedMemOp builds a memory-touching instruction that is
// neither a load nor a store nor a recognized intrinsic — used by tests
// exercising C6's ReasonUnrecognizedMemoryOp path.
func NewUnrecognizedMemOp(name string, reads, writes bool) *Instruction {
	return &Instruction{name: name, typ: types.Void, mayRead: reads, mayWrite: writes}
}

// AliasOracle is the fixture's laa.AliasOracle. Pointers default to their
// own singleton alias group and their own underlying object; tests widen
// either with AliasTogether / SetUnderlyingObjects.
type AliasOracle struct {
	groups     map[value.Value]int
	nextGroup  int
	underlying map[value.Value][]value.Value
}

func NewAliasOracle() *AliasOracle {
	return &AliasOracle{groups: make(map[value.Value]int), underlying: make(map[value.Value][]value.Value)}
}

// AliasTogether puts every given pointer into the same alias set.
func (a *AliasOracle) AliasTogether(ptrs ...value.Value) {
	id := a.nextGroup
	a.nextGroup++
	for _, p := range ptrs {
		a.groups[p] = id
	}
}

// SetUnderlyingObjects overrides the default ptr-is-its-own-object answer.
func (a *AliasOracle) SetUnderlyingObjects(ptr value.Value, objs ...value.Value) {
	a.underlying[ptr] = objs
}

func (a *AliasOracle) groupOf(ptr value.Value) int {
	if id, ok := a.groups[ptr]; ok {
		return id
	}
	id := a.nextGroup
	a.nextGroup++
	a.groups[ptr] = id
	return id
}

func (a *AliasOracle) Partition(tags []laa.AccessTag, tbaaValid map[laa.AccessTag]bool) []laa.AliasSet {
	byGroup := make(map[int][]laa.AccessTag)
	var order []int
	seen := make(map[int]bool)
	for _, t := range tags {
		g := a.groupOf(t.Ptr)
		if !seen[g] {
			seen[g] = true
			order = append(order, g)
		}
		byGroup[g] = append(byGroup[g], t)
	}
	sets := make([]laa.AliasSet, 0, len(order))
	for i, g := range order {
		sets = append(sets, laa.AliasSet{ID: i, Members: byGroup[g]})
	}
	return sets
}

func (a *AliasOracle) UnderlyingObjects(ptr value.Value) []value.Value {
	if objs, ok := a.underlying[ptr]; ok {
		return objs
	}
	return []value.Value{ptr}
}

// DataLayout is the fixture's laa.DataLayout.
type DataLayout struct {
	sizes       map[types.Type]int64
	addrSpaces  map[*types.PointerType]uint64
}

func NewDataLayout() *DataLayout {
	return &DataLayout{sizes: make(map[types.Type]int64), addrSpaces: make(map[*types.PointerType]uint64)}
}

func (d *DataLayout) SetSize(t types.Type, size int64) { d.sizes[t] = size }

func (d *DataLayout) SetAddressSpace(pt *types.PointerType, as uint64) { d.addrSpaces[pt] = as }

func (d *DataLayout) TypeAllocSize(t types.Type) int64 {
	return d.sizes[t]
}

func (d *DataLayout) AddressSpace(ptrType types.Type) laa.AddressSpace {
	pt, ok := ptrType.(*types.PointerType)
	if !ok {
		return laa.DefaultAddressSpace
	}
	if as, ok := d.addrSpaces[pt]; ok {
		return laa.AddressSpace(as)
	}
	return laa.DefaultAddressSpace
}

// DominatorTree is the fixture's laa.DominatorTree. A block always
// dominates itself; every other relationship defaults to false until a
// test records it, matching the conservative "needs predication" default.
type DominatorTree struct {
	pairs map[[2]any]bool
}

func NewDominatorTree() *DominatorTree { return &DominatorTree{pairs: make(map[[2]any]bool)} }

func (d *DominatorTree) SetDominates(a, b laa.Block, v bool) {
	d.pairs[[2]any{a.Identity(), b.Identity()}] = v
}

func (d *DominatorTree) Dominates(a, b laa.Block) bool {
	if a.Identity() == b.Identity() {
		return true
	}
	return d.pairs[[2]any{a.Identity(), b.Identity()}]
}

// Loop's struct fields are declared in scev.go, shared with the SCEV
// model's addRecNode.loop; the laa.Loop-satisfying methods live here.

// NewLoop builds a well-shaped loop: innermost, one backedge, exiting
// block equal to the latch. Tests override individual fields through the
// Set* methods to exercise C6's precondition rejections.
func NewLoop(name string, body *Block) *Loop {
	l := &Loop{name: name, innermost: true, backedges: 1}
	l.blocks = []*Block{body}
	l.latch = body
	l.exiting = []*Block{body}
	return l
}

func (l *Loop) AddBlock(b *Block) { l.blocks = append(l.blocks, b) }
func (l *Loop) SetLatch(b *Block) { l.latch = b }
func (l *Loop) SetExitingBlocks(bs ...*Block) {
	l.exiting = bs
}
func (l *Loop) SetInnermost(v bool)         { l.innermost = v }
func (l *Loop) SetBackedges(n int)          { l.backedges = n }
func (l *Loop) SetAnnotatedParallel(v bool) { l.annotatedParallel = v }

func (l *Loop) Identity() any { return l.name }

func (l *Loop) Blocks() []laa.Block {
	out := make([]laa.Block, len(l.blocks))
	for i, b := range l.blocks {
		out[i] = b
	}
	return out
}

func (l *Loop) IsInnermost() bool     { return l.innermost }
func (l *Loop) NumBackedges() int     { return l.backedges }
func (l *Loop) Latch() laa.Block      { return l.latch }

func (l *Loop) ExitingBlocks() []laa.Block {
	out := make([]laa.Block, len(l.exiting))
	for i, b := range l.exiting {
		out[i] = b
	}
	return out
}

func (l *Loop) IsAnnotatedParallel() bool { return l.annotatedParallel }
