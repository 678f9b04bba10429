// Command laa-check loads a YAML description of a loop's memory accesses
// and reports whether the loop can be vectorized, mirroring the kind of
// standalone driver a compiler team builds around an analysis pass for
// quick, IR-free experimentation.
package main

import (
	"fmt"
	"os"

	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"github.com/spf13/cobra"
	"github.com/vecopt/laa"
	"github.com/vecopt/laa/fixture"
	"gopkg.in/yaml.v3"
)

// accessSpec is one YAML-declared memory access.
type accessSpec struct {
	Name       string `yaml:"name"`
	Op         string `yaml:"op"` // "load" or "store"
	Pointer    string `yaml:"pointer"`
	BaseOffset int64  `yaml:"base_offset"`
	ElemSize   int64  `yaml:"elem_size"`
	Simple     bool   `yaml:"simple"`
}

// loopSpec is the top-level YAML document shape.
type loopSpec struct {
	TripCount   int64        `yaml:"trip_count"`
	Parallel    bool         `yaml:"annotated_parallel"`
	Accesses    []accessSpec `yaml:"accesses"`
	AliasGroups [][]string   `yaml:"alias_groups"`
}

func loadSpec(path string) (*loopSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var s loopSpec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &s, nil
}

func aliasTogether(env *fixture.Env, ptrs []*fixture.Param) {
	if len(ptrs) < 2 {
		return
	}
	vals := make([]value.Value, len(ptrs))
	for i, p := range ptrs {
		vals[i] = p
	}
	env.AO.AliasTogether(vals...)
}

func runCheck(path string, cfg laa.Config) error {
	s, err := loadSpec(path)
	if err != nil {
		return err
	}

	env := fixture.NewEnv()
	env.SetTripCount(fixture.Const(s.TripCount))
	env.Loop.SetAnnotatedParallel(s.Parallel)

	bases := make(map[string]*fixture.Param)
	ptrsByName := make(map[string][]*fixture.Param)
	elemTy := types.I32

	for _, a := range s.Accesses {
		base, ok := bases[a.Pointer]
		if !ok {
			base = fixture.NewParam(a.Pointer+".base", types.NewPointer(types.I8))
			bases[a.Pointer] = base
		}
		start := fixture.Offset(fixture.Unknown(base, true), a.BaseOffset)
		ptr := env.Pointer(a.Name, elemTy, a.ElemSize, start, fixture.Const(a.ElemSize))
		ptrsByName[a.Pointer] = append(ptrsByName[a.Pointer], ptr)

		switch a.Op {
		case "store":
			env.Store(a.Name, ptr, a.Simple)
		default:
			env.Load(a.Name, ptr, elemTy, a.Simple)
		}
	}

	// Accesses sharing a YAML pointer name address the same underlying
	// array and always alias each other.
	for _, ptrs := range ptrsByName {
		aliasTogether(env, ptrs)
	}
	for _, group := range s.AliasGroups {
		var ptrs []*fixture.Param
		for _, name := range group {
			ptrs = append(ptrs, ptrsByName[name]...)
		}
		aliasTogether(env, ptrs)
	}

	driver := env.Driver(cfg)
	result := driver.AnalyzeLoop(env.Loop, nil)

	fmt.Printf("can_vectorize: %v\n", result.CanVectorize)
	fmt.Printf("need_runtime_check: %v\n", result.NeedRuntimeCheck)
	fmt.Printf("max_safe_distance_bytes: %d\n", result.MaxSafeDistanceBytes)
	fmt.Printf("loads=%d stores=%d\n", result.NumLoads, result.NumStores)
	if result.Diagnostic != nil {
		fmt.Printf("diagnostic: %s\n", result.Diagnostic.String())
	}
	if result.RuntimeDescriptor != nil {
		fmt.Print(result.RuntimeDescriptor.Render())
	}
	return nil
}

func newRootCmd() *cobra.Command {
	cfg := laa.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "laa-check <loop.yaml>",
		Short: "Evaluate a loop's memory-dependence analysis result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(args[0], cfg)
		},
	}
	laa.RegisterFlags(cmd.Flags(), &cfg)
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
