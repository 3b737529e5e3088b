package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tissue",
	Short: "Tissue - decentralized bubble sort demo driver",
	Long: `Tissue runs a decentralized bubble sort: a fixed arena of value-holding
slots, one autonomous worker goroutine per slot, each worker repeatedly
attempting a local compare-and-swap with a random neighbour under a single
global lock, and a coordinator polling for sortedness.

The process is randomized local search with no convergence guarantee;
stubborn slots can block progress entirely. Runs therefore carry a poll
budget and report whether they stopped because the arena sorted or because
the budget ran out.`,
	Version: version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}
