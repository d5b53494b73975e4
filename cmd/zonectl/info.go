package main

import (
	"github.com/spf13/cobra"
	"github.com/zonekit/zonekit/zone"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the installed zone's descriptor metadata",
		Long: `The info command installs the zone in this process and prints the
descriptor metadata external tools see: name, protocol version, enumeration
version, and the registered zone count.

Example:
  zonectl info
  zonectl info --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo()
		},
	}
	return cmd
}

type ZoneInfo struct {
	Name               string
	ProtocolVersion    uint32
	EnumerationVersion uint32
	Ready              bool
	RegisteredZones    int
	StateBytes         uint64
}

func runInfo() error {
	printVerbose("Installing zone...\n")
	z := zone.Install()
	d := z.Descriptor()

	info := ZoneInfo{
		Name:               zone.ZoneName(d),
		ProtocolVersion:    d.Version,
		EnumerationVersion: d.Introspect.EnumVersion,
		Ready:              z.Ready(),
		RegisteredZones:    len(z.Registry().Zones()),
		StateBytes:         uint64(d.Introspect.StateSize),
	}

	if jsonOut {
		return printJSON(info)
	}

	printInfo("\nZone Information:\n")
	printInfo("  Name: %s\n", info.Name)
	printInfo("  Protocol version: %d\n", info.ProtocolVersion)
	printInfo("  Enumeration version: %d\n", info.EnumerationVersion)
	printInfo("  Ready: %v\n", info.Ready)
	printInfo("  Registered zones: %d\n", info.RegisteredZones)
	printInfo("  Allocator state: %s\n", formatBytes(int64(info.StateBytes)))
	return nil
}
