package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"smoketester/internal/dut"
	"smoketester/internal/preflight"
)

type preflightOptions struct {
	chip            string
	probe           string
	flashTestBinary string
	ui              string
}

var (
	passStyle = color.New(color.FgGreen)
	failStyle = color.New(color.FgRed)
	skipStyle = color.New(color.FgYellow)
)

func newPreflightCmd() *cobra.Command {
	var opts preflightOptions
	cmd := &cobra.Command{
		Use:   "preflight [dir]",
		Short: "Check that every DUT's probe can be opened",
		Long: `Open and release the debug probe of every DUT once and check that its
flash test binary is still readable. Either pass a definitions directory, or
describe a single DUT with --chip and --probe.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := readOutputMode("ui", opts.ui)
			if err != nil {
				return err
			}
			env := getEnv(cmd)
			defs, err := preflightDefinitions(env, args, opts)
			if err != nil {
				return err
			}
			if len(defs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no definitions found")
				return nil
			}

			idx := env.timer.Begin("preflight")
			var report preflight.Report
			if mode.enabledFor(os.Stdout) {
				report, err = runPreflightWithUI(cmd.Context(), cmd.OutOrStdout(), "pre-flight", defs)
			} else {
				report = preflight.Run(cmd.Context(), defs, nil)
			}
			env.timer.End(idx, fmt.Sprintf("%d DUTs", len(defs)))
			if err != nil {
				return err
			}
			renderPreflightReport(cmd.OutOrStdout(), report)
			if n := report.Failed(); n > 0 {
				return fmt.Errorf("%d of %d DUTs failed pre-flight", n, len(report.Results))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.chip, "chip", "", "chip of a single DUT given on the command line")
	cmd.Flags().StringVar(&opts.probe, "probe", "", "probe selector VID:PID[:SERIAL] of a single DUT")
	cmd.Flags().StringVar(&opts.flashTestBinary, "flash-test-binary", "", "flash test binary of a single DUT")
	cmd.Flags().StringVar(&opts.ui, "ui", "auto", "progress UI (auto|on|off)")
	return cmd
}

func preflightDefinitions(env *appEnv, args []string, opts preflightOptions) ([]*dut.Definition, error) {
	single := opts.chip != "" || opts.probe != "" || opts.flashTestBinary != ""
	if !single {
		return env.collect(env.definitionsDir(args))
	}
	if len(args) > 0 {
		return nil, errors.New("a definitions directory cannot be combined with --chip/--probe")
	}
	if opts.chip == "" || opts.probe == "" {
		return nil, errors.New("--chip and --probe are both required for a command-line DUT")
	}
	r, err := env.resolver()
	if err != nil {
		return nil, err
	}
	def, err := r.FromCommandLine(opts.chip, opts.probe, opts.flashTestBinary)
	if err != nil {
		return nil, err
	}
	return []*dut.Definition{def}, nil
}

func renderPreflightReport(out io.Writer, report preflight.Report) {
	for _, res := range report.Results {
		switch res.Status {
		case preflight.StatusDone:
			fmt.Fprintf(out, "%s %s (%s on %s, %03d/%03d)\n", passStyle.Sprint("ok  "), res.DUT, res.Chip, res.Selector, res.Device.Bus, res.Device.Address)
		case preflight.StatusSkipped:
			fmt.Fprintf(out, "%s %s: %v\n", skipStyle.Sprint("skip"), res.DUT, res.Err)
		default:
			fmt.Fprintf(out, "%s %s: %s: %v\n", failStyle.Sprint("FAIL"), res.DUT, res.Stage, res.Err)
		}
	}
	fmt.Fprintf(out, "%d passed, %d failed in %s\n", len(report.Results)-report.Failed(), report.Failed(), report.Elapsed.Round(time.Millisecond))
}
