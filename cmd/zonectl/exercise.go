package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"
	"github.com/zonekit/zonekit/internal/abi"
	"github.com/zonekit/zonekit/zone"
)

var (
	exerciseOps     int
	exerciseMaxSize int
	exerciseSeed    int64
)

func init() {
	cmd := newExerciseCmd()
	cmd.Flags().IntVar(&exerciseOps, "ops", 100000, "Number of allocator operations")
	cmd.Flags().IntVar(&exerciseMaxSize, "max-size", 4096, "Maximum allocation size in bytes")
	cmd.Flags().Int64Var(&exerciseSeed, "rand-seed", 1, "Workload random seed")
	rootCmd.AddCommand(cmd)
}

func newExerciseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exercise",
		Short: "Run a randomized allocation workload",
		Long: `The exercise command drives the installed zone with a randomized
malloc/realloc/free workload and reports throughput and final heap state.
Useful for smoke-testing the dispatch path and watching fragmentation
behavior under churn.

Example:
  zonectl exercise
  zonectl exercise --ops 1000000 --max-size 65536 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExercise()
		},
	}
	return cmd
}

type ExerciseResult struct {
	Operations    int
	Failures      int
	Elapsed       string
	OpsPerSecond  float64
	BlocksInUse   uint64
	SizeInUse     uint64
	SizeAllocated uint64
}

func runExercise() error {
	z := zone.Install()
	rng := rand.New(rand.NewSource(exerciseSeed))

	printVerbose("Running %d operations (max size %d)...\n", exerciseOps, exerciseMaxSize)

	live := make([]uintptr, 0, 1024)
	failures := 0
	start := time.Now()

	for i := 0; i < exerciseOps; i++ {
		switch op := rng.Intn(10); {
		case op < 5 || len(live) == 0:
			ptr := z.Malloc(uintptr(rng.Intn(exerciseMaxSize)))
			if ptr == 0 {
				failures++
				continue
			}
			live = append(live, ptr)
		case op < 7:
			j := rng.Intn(len(live))
			ptr := z.Realloc(live[j], uintptr(rng.Intn(exerciseMaxSize)))
			if ptr == 0 {
				failures++
				continue
			}
			live[j] = ptr
		default:
			j := rng.Intn(len(live))
			z.Free(live[j])
			live[j] = live[len(live)-1]
			live = live[:len(live)-1]
		}
	}
	elapsed := time.Since(start)

	var st abi.Statistics
	z.Statistics(&st)

	result := ExerciseResult{
		Operations:    exerciseOps,
		Failures:      failures,
		Elapsed:       elapsed.String(),
		OpsPerSecond:  float64(exerciseOps) / elapsed.Seconds(),
		BlocksInUse:   uint64(st.BlocksInUse),
		SizeInUse:     uint64(st.SizeInUse),
		SizeAllocated: uint64(st.SizeAllocated),
	}

	if jsonOut {
		return printJSON(result)
	}

	printInfo("\nExercise Results:\n")
	printInfo("  Operations: %d (%d failed)\n", result.Operations, result.Failures)
	printInfo("  Elapsed: %s (%.0f ops/sec)\n", result.Elapsed, result.OpsPerSecond)
	printInfo("  Blocks in use: %d\n", result.BlocksInUse)
	printInfo("  Size in use: %s\n", formatBytes(int64(result.SizeInUse)))
	printInfo("  Mapped from system: %s\n", formatBytes(int64(result.SizeAllocated)))

	if result.Failures > 0 {
		return fmt.Errorf("%d operations failed", result.Failures)
	}
	return nil
}
