package dut

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"smoketester/internal/chipdb"
	"smoketester/internal/probe"
)

// ChipDatabase finds chips by free-form query and fetches exact descriptors.
type ChipDatabase interface {
	Search(query string) ([]string, error)
	Fetch(name string) (*chipdb.Target, error)
}

// SelectorParser implements the probe selector grammar.
type SelectorParser interface {
	ParseSelector(s string) (probe.Selector, error)
}

// SelectorParserFunc adapts a function to SelectorParser.
type SelectorParserFunc func(s string) (probe.Selector, error)

// ParseSelector calls f(s).
func (f SelectorParserFunc) ParseSelector(s string) (probe.Selector, error) {
	return f(s)
}

// ProbeOpener opens the probe matching a selector.
type ProbeOpener interface {
	Open(sel probe.Selector) (*probe.Probe, error)
}

// Resolver turns raw definitions into Definitions.
type Resolver struct {
	Chips ChipDatabase
	// Selectors defaults to probe.Grammar.
	Selectors SelectorParser
	// Probes is bound into every resolved Definition for OpenProbe.
	Probes ProbeOpener
	Logger *slog.Logger
}

// NewResolver returns a Resolver using the default selector grammar.
func NewResolver(chips ChipDatabase, probes ProbeOpener) *Resolver {
	return &Resolver{Chips: chips, Selectors: probe.Grammar{}, Probes: probes}
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Resolver) selectors() SelectorParser {
	if r.Selectors != nil {
		return r.Selectors
	}
	return probe.Grammar{}
}

// LoadFile parses and resolves a single definition file.
func (r *Resolver) LoadFile(path string) (*Definition, error) {
	raw, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return r.Resolve(raw, FileSource(path))
}

// FromCommandLine resolves a definition given directly as arguments.
// flashTestBinary may be empty; relative paths are resolved against the
// working directory.
func (r *Resolver) FromCommandLine(chip, selector, flashTestBinary string) (*Definition, error) {
	raw := RawDefinition{Chip: chip, ProbeSelector: selector}
	if flashTestBinary != "" {
		raw.FlashTestBinary = &flashTestBinary
	}
	if err := raw.validate(""); err != nil {
		return nil, err
	}
	return r.Resolve(raw, CommandLineSource())
}

// Resolve validates raw and looks up its chip. The first failing step aborts.
func (r *Resolver) Resolve(raw RawDefinition, src Source) (*Definition, error) {
	if r.Chips == nil {
		return nil, errors.New("resolver has no chip database")
	}
	logger := r.logger()
	for _, key := range raw.Unknown {
		logger.Debug("ignoring unknown definition key", "source", src.String(), "key", key)
	}

	sel, err := r.selectors().ParseSelector(raw.ProbeSelector)
	if err != nil {
		return nil, &SelectorError{Selector: raw.ProbeSelector, Err: err}
	}

	target, err := r.resolveChip(raw.Chip)
	if err != nil {
		return nil, err
	}

	var flashTestBinary string
	if raw.FlashTestBinary != nil {
		flashTestBinary, err = canonicalize(*raw.FlashTestBinary, src.baseDir())
		if err != nil {
			return nil, err
		}
	}

	logger.Debug("resolved definition", "source", src.String(), "chip", target.Name, "probe", sel.String())
	return &Definition{
		Chip:            target,
		ProbeSelector:   sel,
		FlashTestBinary: flashTestBinary,
		Source:          src,
		opener:          r.Probes,
	}, nil
}

// resolveChip requires the query to match exactly one chip. Several matches
// are an error listing every candidate; the closest match is never chosen.
func (r *Resolver) resolveChip(query string) (*chipdb.Target, error) {
	names, err := r.Chips.Search(query)
	if err != nil {
		return nil, fmt.Errorf("failed to search chips matching %q: %w", query, err)
	}
	switch len(names) {
	case 0:
		return nil, &ChipNotFoundError{Query: query}
	case 1:
	default:
		return nil, &AmbiguousChipError{Query: query, Candidates: append([]string(nil), names...)}
	}
	target, err := r.Chips.Fetch(names[0])
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chip %q: %w", names[0], err)
	}
	return target, nil
}

// canonicalize joins relative paths to base and resolves the result to an
// absolute, symlink-free path. The path must exist.
func canonicalize(path, base string) (string, error) {
	path = filepath.FromSlash(path)
	if !filepath.IsAbs(path) {
		path = filepath.Join(base, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", &IOError{Op: "resolve", Path: path, Err: err}
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", &IOError{Op: "canonicalize", Path: abs, Err: err}
	}
	return canonical, nil
}
