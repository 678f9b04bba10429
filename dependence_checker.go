package laa

import (
	"github.com/llir/llvm/ir/types"
	"go.uber.org/zap"
)

// DependenceChecker implements C5. MaxSafeDistBytes is mutable state that
// only ever shrinks across the lifetime of one checker; callers construct
// a fresh checker per loop analysis.
type DependenceChecker struct {
	SE                 ScalarEvolution
	DL                 DataLayout
	L                  Loop
	Strides            StrideMap
	ForcedInterleave   uint64
	ForcedVectorFactor uint64
	MaxSafeDistBytes   uint64
	Logger             *zap.Logger
}

// NewDependenceChecker starts MaxSafeDistBytes at the original's -1U.
func NewDependenceChecker(se ScalarEvolution, dl DataLayout, l Loop, strides StrideMap, forcedInterleave, forcedVectorFactor uint64, logger *zap.Logger) *DependenceChecker {
	if logger == nil {
		logger = nopLogger()
	}
	return &DependenceChecker{
		SE:                 se,
		DL:                 dl,
		L:                  l,
		Strides:            strides,
		ForcedInterleave:   forcedInterleave,
		ForcedVectorFactor: forcedVectorFactor,
		MaxSafeDistBytes:   ^uint64(0),
		Logger:             logger,
	}
}

// CheckPair decides the safety of an ordered pair where earlier occurs
// strictly before later in program order. "earlier"/"later" here always
// mean program order by Idx, never the algorithmic A/B relabeling the
// stride-sign convention performs below — see DESIGN.md.
func (c *DependenceChecker) CheckPair(earlier, later LoopAccess) DepVerdict {
	eTag, lTag := earlier.Tag(), later.Tag()

	if !eTag.IsWrite && !lTag.IsWrite {
		return DepSafe
	}

	eTy, ok1 := eTag.Ptr.Type().(*types.PointerType)
	lTy, ok2 := lTag.Ptr.Type().(*types.PointerType)
	if !ok1 || !ok2 {
		return DepUnsafeFatal
	}
	if c.DL.AddressSpace(eTy) != c.DL.AddressSpace(lTy) {
		return DepUnsafeFatal
	}

	strideE := AnalyzeStride(c.SE, c.DL, c.L, c.Strides, eTag.Ptr)
	strideL := AnalyzeStride(c.SE, c.DL, c.L, c.Strides, lTag.Ptr)

	aPtr, bPtr := eTag.Ptr, lTag.Ptr
	aStride, bStride := strideE, strideL
	if aStride.Failure == StrideOK && aStride.Stride < 0 {
		aPtr, bPtr = bPtr, aPtr
		aStride, bStride = bStride, aStride
	}

	if aStride.Failure != StrideOK || bStride.Failure != StrideOK ||
		aStride.Stride == 0 || bStride.Stride == 0 || aStride.Stride != bStride.Stride {
		return DepUnsafeFatal
	}

	srcSCEV := RewriteSymbolicStride(c.SE, c.Strides, aPtr)
	sinkSCEV := RewriteSymbolicStride(c.SE, c.Strides, bPtr)
	distSCEV := c.SE.Minus(sinkSCEV, srcSCEV)

	d, ok := c.SE.AsConstant(distSCEV)
	if !ok {
		c.Logger.Debug("laa: dependence distance is not a compile-time constant, will retry with runtime check")
		return DepUnsafeRetryWithRuntime
	}

	eSize := c.DL.TypeAllocSize(eTy.ElemType)
	lSize := c.DL.TypeAllocSize(lTy.ElemType)
	sameType := eSize == lSize
	t := eSize

	switch {
	case d < 0:
		if eTag.IsWrite {
			if !sameType || couldPreventStoreLoadForward(-d, t, c.MaxSafeDistBytes) {
				return DepUnsafeFatal
			}
		}
		return DepSafe

	case d == 0:
		// Distance zero demands true type identity, not mere size equality:
		// an i32 write and a float read at the same address are a
		// type-punning hazard even though neither side's size differs.
		if types.Equal(eTy.ElemType, lTy.ElemType) {
			return DepSafe
		}
		return DepUnsafeFatal

	default:
		if !sameType {
			return DepSafe
		}
		if d < 2*t {
			return DepUnsafeFatal
		}
		if uint64(2*t) > c.MaxSafeDistBytes {
			return DepUnsafeFatal
		}
		if d < t*int64(c.ForcedInterleave)*int64(c.ForcedVectorFactor) {
			return DepUnsafeFatal
		}
		if !eTag.IsWrite {
			if couldPreventStoreLoadForward(d, t, c.MaxSafeDistBytes) {
				return DepUnsafeFatal
			}
		}
		if uint64(d) < c.MaxSafeDistBytes {
			c.MaxSafeDistBytes = uint64(d)
		}
		return DepSafe
	}
}

// CheckClasses implements the class traversal: every tag in CheckDeps
// pulls in its whole union-find class, and every pair of
// distinct member tags is compared occurrence-by-occurrence, smaller
// program-order index first. The first unsafe verdict short-circuits the
// whole traversal.
func (c *DependenceChecker) CheckClasses(cls *ClassifyResult, accesses []LoopAccess) DepVerdict {
	byTag := make(map[AccessTag][]LoopAccess)
	for _, a := range accesses {
		byTag[a.Tag()] = append(byTag[a.Tag()], a)
	}

	visitedClass := make(map[int]bool)

	for i := 0; i < cls.Tags.len(); i++ {
		tag := cls.Tags.tag(i)
		if _, needed := cls.CheckDeps[tag]; !needed {
			continue
		}
		leader := cls.UF.find(i)
		if visitedClass[leader] {
			continue
		}
		visitedClass[leader] = true

		var members []int
		for j := 0; j < cls.Tags.len(); j++ {
			if cls.UF.find(j) == leader {
				members = append(members, j)
			}
		}

		for mi := 0; mi < len(members); mi++ {
			for mj := mi + 1; mj < len(members); mj++ {
				tagA := cls.Tags.tag(members[mi])
				tagB := cls.Tags.tag(members[mj])
				for _, occA := range byTag[tagA] {
					for _, occB := range byTag[tagB] {
						earlier, later := occA, occB
						if later.Idx < earlier.Idx {
							earlier, later = later, earlier
						}
						switch c.CheckPair(earlier, later) {
						case DepUnsafeFatal:
							return DepUnsafeFatal
						case DepUnsafeRetryWithRuntime:
							return DepUnsafeRetryWithRuntime
						}
					}
				}
			}
		}
	}
	return DepSafe
}
