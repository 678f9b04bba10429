package laa

import (
	"github.com/llir/llvm/ir/value"
	"go.uber.org/zap"
)

// Result is the public output of one loop analysis.
type Result struct {
	CanVectorize         bool
	NeedRuntimeCheck     bool
	RuntimeDescriptor    *RuntimeDescriptor
	MaxSafeDistanceBytes uint64
	NumLoads             int
	NumStores            int
	Diagnostic           *Diagnostic
}

// Driver implements C6: it orchestrates C1-C5 for one loop and caches the
// result per loop identity until the caller invalidates it.
type Driver struct {
	SE     ScalarEvolution
	DL     DataLayout
	DT     DominatorTree
	AO     AliasOracle
	Config Config
	Logger *zap.Logger

	cache map[any]*Result
}

func NewDriver(se ScalarEvolution, dl DataLayout, dt DominatorTree, ao AliasOracle, cfg Config, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = nopLogger()
	}
	return &Driver{SE: se, DL: dl, DT: dt, AO: ao, Config: cfg, Logger: logger, cache: make(map[any]*Result)}
}

// Invalidate drops the cached result for l, mirroring the host pass
// manager's cache-invalidation responsibility.
func (d *Driver) Invalidate(l Loop) {
	delete(d.cache, l.Identity())
}

func reject(reason Reason, detail string) *Result {
	return &Result{CanVectorize: false, Diagnostic: &Diagnostic{Reason: reason, Detail: detail}}
}

func safe(needRuntimeCheck bool, desc *RuntimeDescriptor, maxSafeDist uint64, numLoads, numStores int) *Result {
	return &Result{
		CanVectorize:         true,
		NeedRuntimeCheck:     needRuntimeCheck,
		RuntimeDescriptor:    desc,
		MaxSafeDistanceBytes: maxSafeDist,
		NumLoads:             numLoads,
		NumStores:            numStores,
	}
}

// anyAliasSetHasMultiplePointers reports whether at least one alias set
// contains more than one distinct pointer, the cheap signal the driver
// uses to decide whether a failed runtime-check build is actually fatal:
// a single-pointer alias set can never produce a checkable pair, so a
// bounds failure confined to it is harmless (see DESIGN.md).
func anyAliasSetHasMultiplePointers(aliasSets []AliasSet) bool {
	for _, as := range aliasSets {
		seen := make(map[value.Value]bool)
		for _, tag := range as.Members {
			seen[tag.Ptr] = true
			if len(seen) > 1 {
				return true
			}
		}
	}
	return false
}

// AnalyzeLoop runs C6 against l, using strides as the symbolic-stride
// substitution map for every pointer the loop touches.
func (d *Driver) AnalyzeLoop(l Loop, strides StrideMap) *Result {
	if cached, ok := d.cache[l.Identity()]; ok {
		return cached
	}

	res := d.analyzeLoopUncached(l, strides)
	d.cache[l.Identity()] = res
	return res
}

func (d *Driver) analyzeLoopUncached(l Loop, strides StrideMap) *Result {
	if !l.IsInnermost() {
		return reject(ReasonNotInnermost, "")
	}
	if l.NumBackedges() != 1 {
		return reject(ReasonControlFlowNotUnderstood, "loop does not have exactly one backedge")
	}
	exiting := l.ExitingBlocks()
	latch := l.Latch()
	if len(exiting) != 1 || exiting[0].Identity() != latch.Identity() {
		return reject(ReasonControlFlowNotUnderstood, "loop does not have a unique exiting block equal to the latch")
	}
	if _, ok := d.SE.BackedgeTakenCount(l); !ok {
		return reject(ReasonTripCountUnknown, "")
	}

	var accesses []LoopAccess
	numLoads, numStores := 0, 0
	loadPtrs := make(map[value.Value]bool)
	storePtrs := make(map[value.Value]bool)
	idx := 0

	for _, blk := range l.Blocks() {
		for _, inst := range blk.Instructions() {
			if inst.MayReadMemory() {
				if inst.IsRecognizedSideEffectFreeIntrinsic() {
					// skip: no memory effect that matters to vectorization
				} else {
					mem, ok := inst.(MemInstruction)
					if !ok || mem.IsWrite() {
						return reject(ReasonUnrecognizedMemoryOp, "memory-reading instruction is not a recognized load")
					}
					if !mem.IsSimple() && !l.IsAnnotatedParallel() {
						return reject(ReasonNonSimpleAccess, "")
					}
					accesses = append(accesses, LoopAccess{Inst: mem, Idx: idx})
					idx++
					numLoads++
					loadPtrs[mem.Pointer()] = true
				}
			}
			if inst.MayWriteMemory() {
				mem, ok := inst.(MemInstruction)
				if !ok || !mem.IsWrite() {
					return reject(ReasonUnrecognizedMemoryOp, "memory-writing instruction is not a recognized store")
				}
				if !mem.IsSimple() && !l.IsAnnotatedParallel() {
					return reject(ReasonNonSimpleAccess, "")
				}
				if d.SE.IsLoopInvariant(d.SE.GetSCEV(mem.Pointer()), l) {
					return reject(ReasonUniformStore, "")
				}
				accesses = append(accesses, LoopAccess{Inst: mem, Idx: idx})
				idx++
				numStores++
				storePtrs[mem.Pointer()] = true
			}
		}
	}

	if numStores == 0 {
		d.Logger.Debug("laa: read-only loop, no dependence check needed")
		return safe(false, &RuntimeDescriptor{}, ^uint64(0), numLoads, numStores)
	}
	if len(storePtrs) == 1 && len(loadPtrs) == 0 {
		d.Logger.Debug("laa: single written pointer and no reads, trivially safe")
		return safe(false, &RuntimeDescriptor{}, ^uint64(0), numLoads, numStores)
	}
	if l.IsAnnotatedParallel() {
		d.Logger.Debug("laa: loop annotated parallel, skipping dependence checking")
		return safe(false, &RuntimeDescriptor{}, ^uint64(0), numLoads, numStores)
	}

	cls := ClassifyAccesses(d.SE, d.DL, l, d.DT, d.AO, strides, accesses, d.Logger)

	rcb := &RuntimeCheckBuilder{
		SE: d.SE, DL: d.DL, L: l, Strides: strides,
		Threshold: d.Config.RuntimeMemoryCheckThreshold, Logger: d.Logger,
	}
	desc, diag := rcb.Build(cls)
	needRuntimeCheck := false
	if diag != nil {
		if anyAliasSetHasMultiplePointers(cls.AliasSets) {
			return reject(diag.Reason, diag.Detail)
		}
		desc = &RuntimeDescriptor{}
	} else {
		needRuntimeCheck = len(desc.Pairs()) > 0
	}

	if len(cls.CheckDeps) == 0 {
		return safe(needRuntimeCheck, desc, ^uint64(0), numLoads, numStores)
	}

	dc := NewDependenceChecker(d.SE, d.DL, l, strides,
		d.Config.effectiveForcedInterleave(), d.Config.effectiveForcedFactor(), d.Logger)

	switch dc.CheckClasses(cls, accesses) {
	case DepUnsafeFatal:
		return reject(ReasonUnsafeDependence, "")

	case DepUnsafeRetryWithRuntime:
		d.Logger.Debug("laa: dependence distance not constant, retrying in runtime-check-only mode")
		strict := &RuntimeCheckBuilder{
			SE: d.SE, DL: d.DL, L: l, Strides: strides,
			Threshold: d.Config.RuntimeMemoryCheckThreshold, ShouldCheckStride: true, Logger: d.Logger,
		}
		desc2, diag2 := strict.Build(cls)
		if diag2 != nil {
			return reject(diag2.Reason, diag2.Detail)
		}
		return safe(true, desc2, ^uint64(0), numLoads, numStores)

	default: // DepSafe
		return safe(needRuntimeCheck, desc, dc.MaxSafeDistBytes, numLoads, numStores)
	}
}
