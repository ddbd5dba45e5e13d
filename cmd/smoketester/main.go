package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"smoketester/internal/version"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "smoketester",
		Short: "Hardware smoke-test harness",
		Long: `smoketester loads device-under-test definitions, resolves their chips
against the target database and checks that their debug probes are reachable.`,
		Version:           version.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setupEnv,
		PersistentPostRun: reportTimings,
	}

	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newChipsCmd())
	rootCmd.AddCommand(newProbesCmd())
	rootCmd.AddCommand(newPreflightCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newVersionCmd())

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "path to "+configFileHint+" (default: search upwards from the working directory)")
	flags.String("chip-db", "", "target directory, family file (.yaml) or snapshot (.mp)")
	flags.String("log-level", "", "log level (debug|info|warn|error)")
	flags.String("log-format", "", "log format (text|json)")
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.Bool("timings", false, "show timing information")
	return rootCmd
}

// main runs the root command and exits with status 1 when it fails.
func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		printError(rootCmd.ErrOrStderr(), err)
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
