package fixture

import (
	"github.com/llir/llvm/ir/value"
	"github.com/vecopt/laa"
)

// Oracle is the fixture's laa.ScalarEvolution implementation. Test code
// registers each pointer's symbolic expression explicitly via Register
// rather than deriving it from IR algebra — the fixture models the
// oracle's answers, not its internals.
type Oracle struct {
	scevs      map[value.Value]laa.SCEV
	backedges  map[*Loop]SCEV
}

func NewOracle() *Oracle {
	return &Oracle{
		scevs:     make(map[value.Value]laa.SCEV),
		backedges: make(map[*Loop]SCEV),
	}
}

// Register associates v's symbolic expression for subsequent GetSCEV calls.
func (o *Oracle) Register(v value.Value, expr SCEV) {
	o.scevs[v] = expr
}

// SetBackedgeTakenCount records l's symbolic trip count.
func (o *Oracle) SetBackedgeTakenCount(l *Loop, expr SCEV) {
	o.backedges[l] = expr
}

func (o *Oracle) GetSCEV(v value.Value) laa.SCEV {
	if e, ok := o.scevs[v]; ok {
		return e
	}
	return &unknownNode{v: v}
}

func (o *Oracle) AsAddRec(expr laa.SCEV) (laa.AddRec, bool) {
	ar, ok := expr.(*addRecNode)
	return ar, ok
}

func (o *Oracle) AsConstant(expr laa.SCEV) (int64, bool) {
	return resolveConstant(expr)
}

func (o *Oracle) ConstantInt(v int64) laa.SCEV { return &constNode{v: v} }

func (o *Oracle) IsLoopInvariant(expr laa.SCEV, l laa.Loop) bool {
	return isLoopInvariant(expr, l)
}

func (o *Oracle) Minus(sink, src laa.SCEV) laa.SCEV {
	return &diffNode{sink: sink.(SCEV), src: src.(SCEV)}
}

func (o *Oracle) Substitute(expr laa.SCEV, replacements map[value.Value]laa.SCEV) laa.SCEV {
	return substitute(expr.(SCEV), replacements)
}

func (o *Oracle) BackedgeTakenCount(l laa.Loop) (laa.SCEV, bool) {
	fl, ok := l.(*Loop)
	if !ok {
		return nil, false
	}
	e, ok := o.backedges[fl]
	return e, ok
}

func (o *Oracle) EvaluateAtIteration(ar laa.AddRec, count laa.SCEV) laa.SCEV {
	node, ok := ar.(*addRecNode)
	if !ok {
		return nil
	}
	return &evalNode{ar: node, count: count.(SCEV)}
}

// resolveConstant attempts to collapse expr to an int64, recursing through
// sums, products, differences and add-recurrence evaluation.
func resolveConstant(expr laa.SCEV) (int64, bool) {
	switch e := expr.(type) {
	case *constNode:
		return e.v, true
	case *addNode:
		x, ok1 := resolveConstant(e.x)
		y, ok2 := resolveConstant(e.y)
		if ok1 && ok2 {
			return x + y, true
		}
		return 0, false
	case *mulNode:
		x, ok1 := resolveConstant(e.x)
		y, ok2 := resolveConstant(e.y)
		if ok1 && ok2 {
			return x * y, true
		}
		return 0, false
	case *diffNode:
		return diff(e.sink, e.src)
	case *evalNode:
		start, ok1 := resolveConstant(e.ar.start)
		step, ok2 := resolveConstant(e.ar.step)
		count, ok3 := resolveConstant(e.count)
		if ok1 && ok2 && ok3 {
			return start + step*count, true
		}
		return 0, false
	default:
		return 0, false
	}
}

// diff resolves sink-src to a constant whenever the non-constant terms on
// both sides cancel exactly: identical expressions, two add-recurrences
// over the same loop with an equal step, or two sums that share an equal
// non-constant operand.
func diff(sink, src SCEV) (int64, bool) {
	if sink.Equal(src) {
		return 0, true
	}
	if sc, ok := resolveConstant(sink); ok {
		if rc, ok2 := resolveConstant(src); ok2 {
			return sc - rc, true
		}
	}
	if sAR, ok := sink.(*addRecNode); ok {
		if rAR, ok2 := src.(*addRecNode); ok2 {
			if sAR.loop == rAR.loop && sAR.step.Equal(rAR.step) {
				return diff(sAR.start.(SCEV), rAR.start.(SCEV))
			}
		}
	}
	sx, sc, sok := splitUnknownPlusConst(sink)
	rx, rc, rok := splitUnknownPlusConst(src)
	if sok && rok && sx.Equal(rx) {
		return sc - rc, true
	}
	return 0, false
}

// splitUnknownPlusConst decomposes expr into (nonConstPart, constPart) for
// the Add(X, Const) / Add(Const, X) shapes test fixtures build. A bare
// constant reports ok=false; any other shape is returned unsplit with a
// zero constant part.
func splitUnknownPlusConst(expr SCEV) (SCEV, int64, bool) {
	if a, ok := expr.(*addNode); ok {
		if c, ok := a.y.(*constNode); ok {
			return a.x, c.v, true
		}
		if c, ok := a.x.(*constNode); ok {
			return a.y, c.v, true
		}
	}
	if _, ok := expr.(*constNode); ok {
		return nil, 0, false
	}
	return expr, 0, true
}

func isLoopInvariant(expr laa.SCEV, l laa.Loop) bool {
	switch e := expr.(type) {
	case *constNode:
		return true
	case *unknownNode:
		return e.invariant
	case *addNode:
		return isLoopInvariant(e.x, l) && isLoopInvariant(e.y, l)
	case *mulNode:
		return isLoopInvariant(e.x, l) && isLoopInvariant(e.y, l)
	case *addRecNode:
		if e.loop == l {
			return false
		}
		return isLoopInvariant(e.start, l) && isLoopInvariant(e.step, l)
	case *diffNode:
		return isLoopInvariant(e.sink, l) && isLoopInvariant(e.src, l)
	case *evalNode:
		return true
	default:
		return false
	}
}

func substitute(expr SCEV, repl map[value.Value]laa.SCEV) laa.SCEV {
	switch e := expr.(type) {
	case *unknownNode:
		if r, ok := repl[e.v]; ok {
			return r
		}
		return e
	case *addNode:
		return &addNode{x: substitute(e.x, repl).(SCEV), y: substitute(e.y, repl).(SCEV)}
	case *mulNode:
		return &mulNode{x: substitute(e.x, repl).(SCEV), y: substitute(e.y, repl).(SCEV)}
	case *addRecNode:
		return &addRecNode{
			start:  substitute(e.start, repl).(SCEV),
			step:   substitute(e.step, repl).(SCEV),
			loop:   e.loop,
			noWrap: e.noWrap,
		}
	default:
		return e
	}
}
