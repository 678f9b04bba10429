// Package fixture provides in-memory scalar-evolution, alias-analysis and
// loop-inspector implementations. Most callers are this repository's
// _test.go files, but the laa-check demo CLI also imports it directly to
// build a runnable environment without a real compiler frontend attached.
//
// The symbolic expression model is a small affine term language (constant,
// opaque unknown, sum, product, add-recurrence) rather than a full SCEV
// engine — enough to construct every shape laa's collaborator interfaces
// observe, grounded on the same constant/add-recurrence/unknown vocabulary
// the go/vectorize package's SCEV usage exercises.
package fixture

import (
	"github.com/llir/llvm/ir/value"
	"github.com/vecopt/laa"
)

// SCEV is the fixture's concrete node type. Every node also satisfies
// laa.SCEV; the exported constructors below are what test code uses to
// build expressions.
type SCEV interface {
	laa.SCEV
	isFixtureSCEV()
}

type constNode struct{ v int64 }

func (c *constNode) isFixtureSCEV() {}
func (c *constNode) Equal(other laa.SCEV) bool {
	o, ok := other.(*constNode)
	return ok && o.v == c.v
}

// Const builds a compile-time constant symbolic expression.
func Const(v int64) SCEV { return &constNode{v: v} }

type unknownNode struct {
	v         value.Value
	invariant bool
}

func (u *unknownNode) isFixtureSCEV() {}
func (u *unknownNode) Equal(other laa.SCEV) bool {
	o, ok := other.(*unknownNode)
	return ok && o.v == u.v
}

// Unknown wraps an opaque SSA value as a symbolic expression. invariant
// marks whether the oracle should consider it loop-invariant (e.g. a
// function parameter or another loop's induction variable).
func Unknown(v value.Value, invariant bool) SCEV { return &unknownNode{v: v, invariant: invariant} }

type addNode struct{ x, y SCEV }

func (a *addNode) isFixtureSCEV() {}
func (a *addNode) Equal(other laa.SCEV) bool {
	o, ok := other.(*addNode)
	return ok && a.x.Equal(o.x) && a.y.Equal(o.y)
}

// Add builds x+y.
func Add(x, y SCEV) SCEV { return &addNode{x: x, y: y} }

// Offset builds base+delta, a shorthand for the common Add(base, Const(delta)).
func Offset(base SCEV, delta int64) SCEV { return &addNode{x: base, y: &constNode{v: delta}} }

type mulNode struct{ x, y SCEV }

func (m *mulNode) isFixtureSCEV() {}
func (m *mulNode) Equal(other laa.SCEV) bool {
	o, ok := other.(*mulNode)
	return ok && m.x.Equal(o.x) && m.y.Equal(o.y)
}

// Mul builds x*y.
func Mul(x, y SCEV) SCEV { return &mulNode{x: x, y: y} }

// Loop is the fixture's concrete loop identity, shared between the SCEV
// model and the loop-inspector implementation in ir.go.
type Loop struct {
	name              string
	blocks            []*Block
	innermost         bool
	backedges         int
	latch             *Block
	exiting           []*Block
	annotatedParallel bool
}

type addRecNode struct {
	start, step SCEV
	loop        *Loop
	noWrap      bool
}

func (a *addRecNode) isFixtureSCEV() {}
func (a *addRecNode) Equal(other laa.SCEV) bool {
	o, ok := other.(*addRecNode)
	return ok && a.loop == o.loop && a.start.Equal(o.start) && a.step.Equal(o.step)
}
func (a *addRecNode) Loop() laa.Loop   { return a.loop }
func (a *addRecNode) Start() laa.SCEV  { return a.start }
func (a *addRecNode) Step() laa.SCEV   { return a.step }
func (a *addRecNode) NoWrap() bool     { return a.noWrap }

// AddRec builds the affine recurrence {start, +, step}<l>. noWrap records
// whether the oracle is asserting the recurrence cannot wrap the pointer's
// address space.
func AddRec(start, step SCEV, l *Loop, noWrap bool) SCEV {
	return &addRecNode{start: start, step: step, loop: l, noWrap: noWrap}
}

// diffNode is the symbolic expression Minus produces; it resolves to a
// constant only when the two sides' non-constant terms cancel exactly.
type diffNode struct{ sink, src SCEV }

func (d *diffNode) isFixtureSCEV() {}
func (d *diffNode) Equal(other laa.SCEV) bool {
	o, ok := other.(*diffNode)
	return ok && d.sink.Equal(o.sink) && d.src.Equal(o.src)
}

// evalNode is the symbolic expression EvaluateAtIteration produces.
type evalNode struct {
	ar    *addRecNode
	count SCEV
}

func (e *evalNode) isFixtureSCEV() {}
func (e *evalNode) Equal(other laa.SCEV) bool {
	o, ok := other.(*evalNode)
	return ok && e.ar.Equal(o.ar) && e.count.Equal(o.count)
}
