package preflight

import (
	"time"

	"smoketester/internal/probe"
)

// Stage names a step of the pre-flight check of one DUT.
type Stage string

const (
	// StageBinary checks that the flash test binary is still readable.
	StageBinary Stage = "binary"
	// StageOpen opens and releases the debug probe.
	StageOpen Stage = "open"
)

// Status captures progress of one DUT.
type Status string

const (
	// StatusQueued indicates the DUT is waiting to be checked.
	StatusQueued Status = "queued"
	// StatusWorking indicates a stage is in progress.
	StatusWorking Status = "working"
	// StatusDone indicates every stage passed.
	StatusDone Status = "done"
	// StatusError indicates a stage failed.
	StatusError Status = "error"
	// StatusSkipped indicates the run was cancelled before the DUT was reached.
	StatusSkipped Status = "skipped"
)

// Event reports progress for a DUT, or for the whole run when DUT is empty.
type Event struct {
	DUT     string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// Sink consumes progress events.
type Sink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// Result is the outcome for one DUT.
type Result struct {
	DUT      string
	Chip     string
	Selector probe.Selector
	// Device is the enumerated probe; zero unless the probe was opened.
	Device  probe.DeviceInfo
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// Report collects the results of a run in definition order.
type Report struct {
	Results []Result
	Elapsed time.Duration
}

// Failed returns the number of DUTs that did not pass.
func (r Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Status != StatusDone {
			n++
		}
	}
	return n
}

// OK reports whether every DUT passed.
func (r Report) OK() bool { return r.Failed() == 0 }
