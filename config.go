package laa

import "github.com/spf13/pflag"

// MaxVectorWidthBytes bounds the store-to-load forwarding width scan: for
// element size t the scan runs up to MaxVectorWidthBytes*t bytes.
const MaxVectorWidthBytes = 64

// Config is the immutable set of recognized tunables. The
// process-wide option parser (see RegisterFlags) populates one instance
// once at startup; nothing downstream mutates it.
type Config struct {
	// ForcedVectorFactor overrides the assumed vectorization factor in the
	// dependence checker's minimum positive distance check. Zero means
	// autoselect (treated as 1).
	ForcedVectorFactor uint
	// ForcedInterleave overrides the assumed interleave count. Zero means
	// autoselect (treated as 1).
	ForcedInterleave uint
	// RuntimeMemoryCheckThreshold caps the number of pointer-range
	// comparisons a runtime check may contain.
	RuntimeMemoryCheckThreshold uint
}

// DefaultConfig matches the original pass's cl::opt defaults.
func DefaultConfig() Config {
	return Config{
		ForcedVectorFactor:          0,
		ForcedInterleave:            0,
		RuntimeMemoryCheckThreshold: 8,
	}
}

func (c Config) effectiveForcedFactor() uint64 {
	if c.ForcedVectorFactor == 0 {
		return 1
	}
	return uint64(c.ForcedVectorFactor)
}

func (c Config) effectiveForcedInterleave() uint64 {
	if c.ForcedInterleave == 0 {
		return 1
	}
	return uint64(c.ForcedInterleave)
}

// RegisterFlags binds Config's tunables onto a flag set using the exact
// the same flag names, so a host CLI (see cmd/laa-check) can expose
// them unchanged from the original pass's cl::opt definitions.
func RegisterFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.UintVar(&cfg.ForcedVectorFactor, "force-vector-width", cfg.ForcedVectorFactor,
		"Sets the SIMD width. Zero is autoselect.")
	fs.UintVar(&cfg.ForcedInterleave, "force-vector-interleave", cfg.ForcedInterleave,
		"Sets the vectorization interleave count. Zero is autoselect.")
	fs.UintVar(&cfg.RuntimeMemoryCheckThreshold, "runtime-memory-check-threshold", cfg.RuntimeMemoryCheckThreshold,
		"When performing memory disambiguation checks at runtime do not generate more than this number of comparisons.")
}
