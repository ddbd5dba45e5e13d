package dut

import (
	"errors"
	"fmt"
	"strings"

	"smoketester/internal/probe"
)

// Sentinels for errors.Is. Each typed error below reports its sentinel.
var (
	ErrIO                   = errors.New("i/o error")
	ErrSchema               = errors.New("invalid definition")
	ErrInvalidProbeSelector = errors.New("invalid probe selector")
	ErrChipNotFound         = errors.New("chip not found")
	ErrAmbiguousChip        = errors.New("chip definition does not match exactly")
	ErrNotADirectory        = errors.New("not a directory")
	ErrOpenProbe            = errors.New("failed to open probe")
)

// IOError reports an unreadable file or a path that cannot be canonicalized.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }

// SchemaError reports malformed definition content. Field is empty when the
// document itself could not be decoded.
type SchemaError struct {
	Path   string
	Field  string
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	where := e.Path
	if where == "" {
		where = "command line"
	}
	switch {
	case e.Field == "" && e.Err != nil:
		return fmt.Sprintf("%s: failed to parse TOML: %v", where, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: field %q: %s: %v", where, e.Field, e.Reason, e.Err)
	default:
		return fmt.Sprintf("%s: field %q: %s", where, e.Field, e.Reason)
	}
}

func (e *SchemaError) Unwrap() error { return e.Err }

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

// SelectorError carries the offending selector string verbatim.
type SelectorError struct {
	Selector string
	Err      error
}

func (e *SelectorError) Error() string {
	return fmt.Sprintf("invalid probe selector %q: %v", e.Selector, e.Err)
}

func (e *SelectorError) Unwrap() error { return e.Err }

func (e *SelectorError) Is(target error) bool { return target == ErrInvalidProbeSelector }

// ChipNotFoundError means the chip query matched nothing.
type ChipNotFoundError struct {
	Query string
}

func (e *ChipNotFoundError) Error() string {
	return fmt.Sprintf("unable to find any chip matching %q", e.Query)
}

func (e *ChipNotFoundError) Is(target error) bool { return target == ErrChipNotFound }

// AmbiguousChipError means the chip query matched several chips. Candidates
// holds every match so the definition author can pick an exact name.
type AmbiguousChipError struct {
	Query      string
	Candidates []string
}

func (e *AmbiguousChipError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "for tests, chip definition must be exact: chip name %q matches %d chips:", e.Query, len(e.Candidates))
	for _, c := range e.Candidates {
		b.WriteString("\n\t")
		b.WriteString(c)
	}
	return b.String()
}

func (e *AmbiguousChipError) Is(target error) bool { return target == ErrAmbiguousChip }

// NotADirectoryError is returned when the collection root is not a directory.
// Err holds the stat failure, if any.
type NotADirectoryError struct {
	Path string
	Err  error
}

func (e *NotADirectoryError) Error() string {
	msg := fmt.Sprintf("unable to collect target definitions from path '%s': path is not a directory", e.Path)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NotADirectoryError) Unwrap() error { return e.Err }

func (e *NotADirectoryError) Is(target error) bool { return target == ErrNotADirectory }

// OpenError reports a failed probe acquisition.
type OpenError struct {
	Selector probe.Selector
	Err      error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("failed to open probe with selector %s: %v", e.Selector, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

func (e *OpenError) Is(target error) bool { return target == ErrOpenProbe }

// DefinitionError attributes a failure to the definition file it came from.
type DefinitionError struct {
	Path string
	Err  error
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("failed to parse definition '%s': %v", e.Path, e.Err)
}

func (e *DefinitionError) Unwrap() error { return e.Err }
