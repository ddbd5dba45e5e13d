package dut

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"smoketester/internal/chipdb"
	"smoketester/internal/probe"
)

// fakeChips is a ChipDatabase over a fixed list of names using
// case-insensitive substring search. Lookups may run concurrently.
type fakeChips struct {
	names     []string
	searchErr error

	mu      sync.Mutex
	fetched []string
}

func (f *fakeChips) Search(query string) ([]string, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var out []string
	for _, n := range f.names {
		if strings.Contains(strings.ToLower(n), strings.ToLower(query)) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeChips) Fetch(name string) (*chipdb.Target, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, name)
	f.mu.Unlock()
	for _, n := range f.names {
		if n == name {
			return &chipdb.Target{Name: n, Family: "fake"}, nil
		}
	}
	return nil, chipdb.ErrUnknownChip
}

type fakeOpener struct {
	err error

	mu    sync.Mutex
	calls []probe.Selector
}

func (f *fakeOpener) Open(sel probe.Selector) (*probe.Probe, error) {
	f.mu.Lock()
	f.calls = append(f.calls, sel)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return probe.New(sel, probe.DeviceInfo{VendorID: sel.VendorID, ProductID: sel.ProductID}, nil), nil
}

func newTestResolver() (*Resolver, *fakeChips, *fakeOpener) {
	chips := &fakeChips{names: []string{"nRF52832_xxAA", "nRF52832_xxAB", "nRF52840_xxAA", "RP2040"}}
	opener := &fakeOpener{}
	return NewResolver(chips, opener), chips, opener
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func canonical(t *testing.T, path string) string {
	t.Helper()
	abs, err := filepath.Abs(path)
	if err != nil {
		t.Fatalf("Abs(%q): %v", path, err)
	}
	c, err := filepath.EvalSymlinks(abs)
	if err != nil {
		t.Fatalf("EvalSymlinks(%q): %v", abs, err)
	}
	return c
}

func requireIs(t *testing.T, err, target error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error matching %v, got nil", target)
	}
	if !errors.Is(err, target) {
		t.Fatalf("error %q does not match %v", err, target)
	}
}
