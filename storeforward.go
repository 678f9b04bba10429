package laa

// DepVerdict is an explicit result enum, replacing the original's boolean
// side-channel threaded through the dependence checker.
type DepVerdict int

const (
	DepSafe DepVerdict = iota
	DepUnsafeFatal
	DepUnsafeRetryWithRuntime
)

// couldPreventStoreLoadForward decides whether a positive-distance true
// flow dependence of d bytes, with element size t bytes, still lets a
// vector store's output feed a subsequent vector load's input without
// stalling the hardware's store-to-load forwarding path.
//
// It scans doubling candidate widths starting at 2t up to
// min(maxSafeDist, MaxVectorWidthBytes*t). The first width vf where d does
// not divide evenly and d/vf falls inside the hardware's forwarding window
// of 8*t breaks forwarding at that width;
// the search stops there and the effective safe width collapses to half of
// it. If that collapsed width is below 2t, forwarding cannot be guaranteed
// at any useful width.
func couldPreventStoreLoadForward(d, t int64, maxSafeDist uint64) bool {
	upper := uint64(MaxVectorWidthBytes) * uint64(t)
	if maxSafeDist < upper {
		upper = maxSafeDist
	}
	forwardingWindow := 8 * t

	for vf := uint64(2 * t); vf <= upper; vf *= 2 {
		if d%int64(vf) != 0 && d/int64(vf) < forwardingWindow {
			return vf/2 < uint64(2*t)
		}
	}
	return false
}
