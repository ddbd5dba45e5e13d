package dut

import (
	"errors"
	"path/filepath"
	"strings"

	"smoketester/internal/chipdb"
	"smoketester/internal/probe"
)

// Definition is a fully resolved DUT. It is not modified after resolution.
type Definition struct {
	// Chip corresponds to exactly one chip of the database.
	Chip *chipdb.Target
	// ProbeSelector picks the debug probe attached to the DUT.
	ProbeSelector probe.Selector
	// FlashTestBinary is an absolute, symlink-free path that existed at
	// resolution time, or "" when the definition has none.
	FlashTestBinary string
	Source          Source

	opener ProbeOpener
}

// Name is a short label for the DUT: the definition file name without its
// extension, or the chip name for command-line definitions.
func (d *Definition) Name() string {
	if p, ok := d.Source.Path(); ok {
		return strings.TrimSuffix(filepath.Base(p), Extension)
	}
	if d.Chip != nil {
		return d.Chip.Name
	}
	return d.ProbeSelector.String()
}

// HasFlashTestBinary reports whether the definition names a flash test binary.
func (d *Definition) HasFlashTestBinary() bool {
	return d.FlashTestBinary != ""
}

// OpenProbe opens the debug probe of this DUT. Every call performs a new
// open attempt; the caller owns and must close the returned probe.
func (d *Definition) OpenProbe() (*probe.Probe, error) {
	if d.opener == nil {
		return nil, &OpenError{Selector: d.ProbeSelector, Err: errors.New("no probe manager configured")}
	}
	p, err := d.opener.Open(d.ProbeSelector)
	if err != nil {
		return nil, &OpenError{Selector: d.ProbeSelector, Err: err}
	}
	return p, nil
}
