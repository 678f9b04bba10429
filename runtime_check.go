package laa

import (
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"go.uber.org/zap"
)

// RTEntry is one row of the runtime-check descriptor: a pointer's symbolic
// bounds plus the dependence-set and alias-set ids the pairwise
// needsChecking predicate below consults.
type RTEntry struct {
	Tag          AccessTag
	Start        SCEV
	End          SCEV
	AddressSpace AddressSpace
	DepSetID     int
	AliasSetID   int
}

// RuntimeDescriptor is C4's output.
type RuntimeDescriptor struct {
	Entries []RTEntry
}

// Pairs enumerates the index pairs into Entries that satisfy the
// needsChecking predicate: at least one side writes, the two entries belong
// to different dependence sets, and to the same alias set.
func (d *RuntimeDescriptor) Pairs() [][2]int {
	var pairs [][2]int
	for i := 0; i < len(d.Entries); i++ {
		for j := i + 1; j < len(d.Entries); j++ {
			a, b := d.Entries[i], d.Entries[j]
			if (a.Tag.IsWrite || b.Tag.IsWrite) &&
				a.DepSetID != b.DepSetID &&
				a.AliasSetID == b.AliasSetID {
				pairs = append(pairs, [2]int{i, j})
			}
		}
	}
	return pairs
}

// ptrGroup collects every tag recorded against one pointer inside a single
// alias set, in first-seen order, so the builder can derive one descriptor
// entry per pointer regardless of how many access tags that pointer owns.
type ptrGroup struct {
	ptr  value.Value
	tags []AccessTag
}

func groupByPointer(members []AccessTag) []ptrGroup {
	var groups []ptrGroup
	index := make(map[value.Value]int)
	for _, tag := range members {
		if i, ok := index[tag.Ptr]; ok {
			groups[i].tags = append(groups[i].tags, tag)
			continue
		}
		index[tag.Ptr] = len(groups)
		groups = append(groups, ptrGroup{ptr: tag.Ptr, tags: []AccessTag{tag}})
	}
	return groups
}

func groupIsWrite(g ptrGroup) bool {
	for _, t := range g.tags {
		if t.IsWrite {
			return true
		}
	}
	return false
}

// RuntimeCheckBuilder implements C4.
type RuntimeCheckBuilder struct {
	SE                ScalarEvolution
	DL                DataLayout
	L                 Loop
	Strides           StrideMap
	Threshold         uint
	ShouldCheckStride bool
	Logger            *zap.Logger
}

// Build walks every alias set and produces a runtime-check descriptor, or a
// diagnostic explaining why bounds could not be established or the
// comparison budget was exceeded.
func (b *RuntimeCheckBuilder) Build(cls *ClassifyResult) (*RuntimeDescriptor, *Diagnostic) {
	logger := b.Logger
	if logger == nil {
		logger = nopLogger()
	}

	desc := &RuntimeDescriptor{}
	var totalComparisons uint

	for _, as := range cls.AliasSets {
		needsDepCheck := false
		for _, tag := range as.Members {
			if _, ok := cls.CheckDeps[tag]; ok {
				needsDepCheck = true
				break
			}
		}

		groups := groupByPointer(as.Members)
		leaderIDs := make(map[int]int)
		nextID := 1
		var numWrites, numReads int
		type built struct {
			entry RTEntry
		}
		var builtEntries []built

		for _, g := range groups {
			stride := AnalyzeStride(b.SE, b.DL, b.L, b.Strides, g.ptr)
			if stride.Failure != StrideOK {
				return nil, &Diagnostic{Reason: ReasonBoundsNotComputable, Detail: "pointer has no computable affine recurrence"}
			}
			if b.ShouldCheckStride && stride.Stride != 1 {
				return nil, &Diagnostic{Reason: ReasonBoundsNotComputable, Detail: "strict runtime-check mode requires stride +1"}
			}

			ptrTy, ok := g.ptr.Type().(*types.PointerType)
			if !ok {
				return nil, &Diagnostic{Reason: ReasonBoundsNotComputable, Detail: "pointer has non-pointer SSA type"}
			}
			scev := RewriteSymbolicStride(b.SE, b.Strides, g.ptr)
			ar, ok := b.SE.AsAddRec(scev)
			if !ok {
				return nil, &Diagnostic{Reason: ReasonBoundsNotComputable, Detail: "pointer recurrence vanished after stride analysis succeeded"}
			}
			bc, ok := b.SE.BackedgeTakenCount(b.L)
			if !ok {
				return nil, &Diagnostic{Reason: ReasonBoundsNotComputable, Detail: "backedge-taken count is not computable"}
			}

			isWrite := groupIsWrite(g)
			if isWrite {
				numWrites++
			} else {
				numReads++
			}

			var depSetID int
			if needsDepCheck {
				idx, ok := cls.Tags.lookup(g.tags[0])
				if !ok {
					return nil, &Diagnostic{Reason: ReasonBoundsNotComputable, Detail: "access tag missing from arena"}
				}
				leader := cls.UF.find(idx)
				id, ok := leaderIDs[leader]
				if !ok {
					id = nextID
					nextID++
					leaderIDs[leader] = id
				}
				depSetID = id
			} else {
				depSetID = nextID
				nextID++
			}

			builtEntries = append(builtEntries, built{entry: RTEntry{
				Tag:          AccessTag{Ptr: g.ptr, IsWrite: isWrite},
				Start:        ar.Start(),
				End:          b.SE.EvaluateAtIteration(ar, bc),
				AddressSpace: b.DL.AddressSpace(ptrTy),
				DepSetID:     depSetID,
				AliasSetID:   as.ID,
			}})
		}

		comparisons := uint(0)
		if !(needsDepCheck && len(leaderIDs) <= 1) {
			w, r := int64(numWrites), int64(numReads)
			if w > 0 {
				comparisons = uint(w * (r + w - 1))
			}
		}
		totalComparisons += comparisons

		for _, be := range builtEntries {
			desc.Entries = append(desc.Entries, be.entry)
		}

		logger.Debug("laa: runtime-check alias set built",
			zap.Int("alias_set_id", as.ID),
			zap.Bool("needs_dep_check", needsDepCheck),
			zap.Uint("comparisons", comparisons),
		)
	}

	if totalComparisons > b.Threshold {
		return nil, &Diagnostic{Reason: ReasonTooManyRuntimeChecks, Detail: "comparison count exceeds runtime-memory-check-threshold"}
	}

	for _, pair := range desc.Pairs() {
		a, c := desc.Entries[pair[0]], desc.Entries[pair[1]]
		if a.AddressSpace != c.AddressSpace {
			return nil, &Diagnostic{Reason: ReasonCrossAddressSpaceCompare, Detail: "runtime-check pair spans distinct address spaces"}
		}
	}

	return desc, nil
}
