// Command phctl computes planetary hours, hour percentages and
// equivalent-percent calibrations from the command line.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// globalOptions are shared by every subcommand
type globalOptions struct {
	configFile string
	debug      bool
	tzOffset   int
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "phctl",
		Short:         "Planetary hours calculator",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("phctl {{.Version}}\n")

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML configuration file (built-in defaults when empty)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Log debugging output to stderr")
	root.PersistentFlags().IntVar(&opts.tzOffset, "tz-offset", 0, "Display zone in minutes east of UTC (default from config)")

	root.AddCommand(
		newHoursCmd(opts),
		newPercentCmd(opts),
		newEquivalentCmd(opts),
		newBetweenCmd(opts),
		newMoonCmd(),
	)
	return root
}
