package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zonekit/zonekit/zone"
)

var (
	walkLimit int
	walkSeed  int
)

func init() {
	cmd := newWalkCmd()
	cmd.Flags().IntVar(&walkLimit, "limit", 50, "Maximum blocks to print (0 = all)")
	cmd.Flags().IntVar(&walkSeed, "seed", 16, "Blocks to allocate before walking")
	rootCmd.AddCommand(cmd)
}

func newWalkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "walk",
		Short: "Enumerate live heap blocks",
		Long: `The walk command seeds the heap with a few allocations and then
drives the zone's enumeration callback the way an external heap walker
would: force-lock, visit every live block, force-unlock.

Example:
  zonectl walk
  zonectl walk --seed 100 --limit 0 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWalk()
		},
	}
	return cmd
}

type WalkBlock struct {
	Address string
	Size    uint64
}

func runWalk() error {
	z := zone.Install()

	printVerbose("Seeding heap with %d blocks...\n", walkSeed)
	for i := 0; i < walkSeed; i++ {
		if z.Malloc(uintptr(32+i*16)) == 0 {
			return fmt.Errorf("seed allocation %d failed", i)
		}
	}

	var blocks []WalkBlock
	var total uint64

	z.ForceLock()
	err := z.Enumerate(func(addr, size uintptr) bool {
		total += uint64(size)
		if walkLimit == 0 || len(blocks) < walkLimit {
			blocks = append(blocks, WalkBlock{
				Address: fmt.Sprintf("%#x", addr),
				Size:    uint64(size),
			})
		}
		return true
	})
	z.ForceUnlock()
	if err != nil {
		return fmt.Errorf("enumeration failed: %w", err)
	}

	if jsonOut {
		return printJSON(blocks)
	}

	printInfo("\nLive Blocks:\n")
	for _, b := range blocks {
		printInfo("  %s  %s\n", b.Address, formatBytes(int64(b.Size)))
	}
	if walkLimit != 0 && len(blocks) == walkLimit {
		printInfo("  ... (limit reached)\n")
	}
	printInfo("\nTotal live payload: %s\n", formatBytes(int64(total)))
	return nil
}
