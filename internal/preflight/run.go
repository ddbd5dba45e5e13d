// Package preflight checks that the DUTs of a harness are reachable before a
// test run: the flash test binary is readable and the debug probe can be
// claimed.
package preflight

import (
	"context"
	"fmt"
	"os"
	"time"

	"smoketester/internal/ctxlog"
	"smoketester/internal/dut"
)

// Run checks every definition in order. A failing DUT is recorded and the
// run continues with the next one. When ctx is cancelled, the remaining DUTs
// are reported as skipped. sink may be nil.
func Run(ctx context.Context, defs []*dut.Definition, sink Sink) Report {
	logger := ctxlog.FromContext(ctx)
	emit := func(evt Event) {
		if sink != nil {
			sink.OnEvent(evt)
		}
	}

	for _, def := range defs {
		emit(Event{DUT: def.Name(), Status: StatusQueued})
	}

	start := time.Now()
	report := Report{Results: make([]Result, 0, len(defs))}
	for _, def := range defs {
		res := Result{DUT: def.Name(), Selector: def.ProbeSelector}
		if def.Chip != nil {
			res.Chip = def.Chip.Name
		}
		if err := ctx.Err(); err != nil {
			res.Status = StatusSkipped
			res.Err = err
			report.Results = append(report.Results, res)
			emit(Event{DUT: res.DUT, Status: StatusSkipped, Err: err})
			continue
		}

		dutStart := time.Now()
		res.Stage, res.Err = check(def, &res, emit)
		res.Elapsed = time.Since(dutStart)
		if res.Err != nil {
			res.Status = StatusError
			logger.Warn("pre-flight failed", "dut", res.DUT, "stage", string(res.Stage), "err", res.Err)
		} else {
			res.Status = StatusDone
			logger.Info("pre-flight passed", "dut", res.DUT, "probe", res.Selector.String(), "elapsed", res.Elapsed)
		}
		emit(Event{DUT: res.DUT, Stage: res.Stage, Status: res.Status, Err: res.Err, Elapsed: res.Elapsed})
		report.Results = append(report.Results, res)
	}
	report.Elapsed = time.Since(start)
	emit(Event{Status: StatusDone, Elapsed: report.Elapsed})
	return report
}

func check(def *dut.Definition, res *Result, emit func(Event)) (Stage, error) {
	if def.HasFlashTestBinary() {
		emit(Event{DUT: res.DUT, Stage: StageBinary, Status: StatusWorking})
		info, err := os.Stat(def.FlashTestBinary)
		if err != nil {
			return StageBinary, err
		}
		if !info.Mode().IsRegular() {
			return StageBinary, fmt.Errorf("%s: not a regular file", def.FlashTestBinary)
		}
	}

	emit(Event{DUT: res.DUT, Stage: StageOpen, Status: StatusWorking})
	p, err := def.OpenProbe()
	if err != nil {
		return StageOpen, err
	}
	res.Device = p.Info()
	if err := p.Close(); err != nil {
		return StageOpen, fmt.Errorf("failed to release probe %s: %w", def.ProbeSelector, err)
	}
	return StageOpen, nil
}
