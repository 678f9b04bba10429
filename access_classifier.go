package laa

import "go.uber.org/zap"

// ClassifyResult is what C3 hands to C4 and C5: the dependence-candidate
// union-find over every access tag seen, the alias-set partition that
// scopes the later pairwise work, and the set of tags whose equivalence
// class actually needs a dependence check.
type ClassifyResult struct {
	Tags      *tagArena
	UF        *unionFind
	AliasSets []AliasSet
	CheckDeps map[AccessTag]struct{}
}

// isReadOnly reports whether ptr is never stored through in this loop and
// is accessed with a consecutive (±1) stride.
// Non-consecutive reads are deliberately excluded: their addresses may
// overlap unpredictably, so they are conservatively treated as read-write.
func isReadOnly(se ScalarEvolution, dl DataLayout, l Loop, strides StrideMap, storedPtrs map[any]bool, tag AccessTag) bool {
	if tag.IsWrite {
		return false
	}
	if storedPtrs[tag.Ptr] {
		return false
	}
	return AnalyzeStride(se, dl, l, strides, tag.Ptr).IsConsecutive()
}

// ClassifyAccesses implements C3. accesses must already be in program
// order; dt decides whether an access's block dominates the loop latch,
// used only to decide whether TBAA metadata on that access survives
// predication.
func ClassifyAccesses(
	se ScalarEvolution,
	dl DataLayout,
	l Loop,
	dt DominatorTree,
	ao AliasOracle,
	strides StrideMap,
	accesses []LoopAccess,
	logger *zap.Logger,
) *ClassifyResult {
	if logger == nil {
		logger = nopLogger()
	}

	arena := newTagArena()
	storedPtrs := make(map[any]bool)
	firstInst := make(map[AccessTag]MemInstruction)
	var order []AccessTag

	for _, acc := range accesses {
		tag := acc.Tag()
		if _, seen := arena.lookup(tag); !seen {
			arena.intern(tag)
			order = append(order, tag)
			firstInst[tag] = acc.Inst
		}
		if tag.IsWrite {
			storedPtrs[tag.Ptr] = true
		}
	}

	readOnly := make(map[AccessTag]bool, len(order))
	tbaaValid := make(map[AccessTag]bool, len(order))
	latch := l.Latch()
	for _, tag := range order {
		readOnly[tag] = isReadOnly(se, dl, l, strides, storedPtrs, tag)
		tbaaValid[tag] = dt.Dominates(firstInst[tag].Block(), latch)
	}

	aliasSets := ao.Partition(order, tbaaValid)

	uf := newUnionFind(arena.len())
	checkDeps := make(map[AccessTag]struct{})

	for _, as := range aliasSets {
		setHasWrite := false
		lastAccessForObject := make(map[any]AccessTag)

		process := func(tag AccessTag) {
			if setHasWrite {
				checkDeps[tag] = struct{}{}
			}
			if tag.IsWrite {
				setHasWrite = true
			}
			idx, _ := arena.lookup(tag)
			for _, obj := range ao.UnderlyingObjects(tag.Ptr) {
				if prev, ok := lastAccessForObject[obj]; ok {
					prevIdx, _ := arena.lookup(prev)
					uf.union(idx, prevIdx)
				}
				lastAccessForObject[obj] = tag
			}
		}

		for _, tag := range as.Members {
			if !readOnly[tag] {
				process(tag)
			}
		}
		for _, tag := range as.Members {
			if readOnly[tag] {
				process(tag)
			}
		}

		logger.Debug("laa: classified alias set",
			zap.Int("alias_set_id", as.ID),
			zap.Int("members", len(as.Members)),
			zap.Bool("has_write", setHasWrite),
		)
	}

	return &ClassifyResult{Tags: arena, UF: uf, AliasSets: aliasSets, CheckDeps: checkDeps}
}
