package dut

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"smoketester/internal/chipdb"
	"smoketester/internal/probe"
)

func TestResolveExactChip(t *testing.T) {
	r, chips, _ := newTestResolver()
	dir := t.TempDir()
	path := writeFile(t, dir, "rp.toml", "chip = \"rp2040\"\nprobe_selector = \"2e8a:000c:E6614\"\n")

	def, err := r.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if def.Chip.Name != "RP2040" {
		t.Fatalf("Chip = %q, want RP2040", def.Chip.Name)
	}
	if !reflect.DeepEqual(chips.fetched, []string{"RP2040"}) {
		t.Fatalf("fetched %v, want the single match", chips.fetched)
	}
	want := probe.Selector{VendorID: 0x2e8a, ProductID: 0x000c, Serial: "E6614"}
	if def.ProbeSelector != want {
		t.Fatalf("ProbeSelector = %+v, want %+v", def.ProbeSelector, want)
	}
	if def.HasFlashTestBinary() {
		t.Fatalf("FlashTestBinary = %q, want none", def.FlashTestBinary)
	}
	if got, ok := def.Source.Path(); !ok || got != path {
		t.Fatalf("Source.Path() = %q, %v; want %q", got, ok, path)
	}
	if def.Name() != "rp" {
		t.Fatalf("Name() = %q, want rp", def.Name())
	}
}

func TestResolveChipNotFound(t *testing.T) {
	r, chips, _ := newTestResolver()
	_, err := r.Resolve(RawDefinition{Chip: "STM32H7", ProbeSelector: "0483:374b"}, FileSource("h7.toml"))
	requireIs(t, err, ErrChipNotFound)
	if len(chips.fetched) != 0 {
		t.Fatalf("Fetch called %v times for an unknown chip", chips.fetched)
	}
	if !strings.Contains(err.Error(), `"STM32H7"`) {
		t.Fatalf("error %q should name the query", err)
	}
}

func TestResolveAmbiguousChip(t *testing.T) {
	r, chips, _ := newTestResolver()
	_, err := r.Resolve(RawDefinition{Chip: "nrf52832", ProbeSelector: "1366:1015"}, FileSource("nrf.toml"))
	requireIs(t, err, ErrAmbiguousChip)

	var ae *AmbiguousChipError
	if !errors.As(err, &ae) {
		t.Fatalf("error %T is not an *AmbiguousChipError", err)
	}
	want := []string{"nRF52832_xxAA", "nRF52832_xxAB"}
	if !reflect.DeepEqual(ae.Candidates, want) {
		t.Fatalf("Candidates = %v, want %v", ae.Candidates, want)
	}
	for _, name := range want {
		if !strings.Contains(err.Error(), "\n\t"+name) {
			t.Fatalf("error %q does not list candidate %s", err, name)
		}
	}
	if len(chips.fetched) != 0 {
		t.Fatalf("ambiguous query fetched %v", chips.fetched)
	}
}

func TestResolveSearchFailure(t *testing.T) {
	r, chips, _ := newTestResolver()
	boom := errors.New("database offline")
	chips.searchErr = boom
	_, err := r.Resolve(RawDefinition{Chip: "RP2040", ProbeSelector: "2e8a:000c"}, CommandLineSource())
	if !errors.Is(err, boom) {
		t.Fatalf("error %v should wrap the search failure", err)
	}
}

func TestResolveInvalidSelector(t *testing.T) {
	r, chips, _ := newTestResolver()
	for _, sel := range []string{"1366", "zzzz:1015", "1366:1015:", ":1015", "12345:1015"} {
		t.Run(sel, func(t *testing.T) {
			_, err := r.Resolve(RawDefinition{Chip: "RP2040", ProbeSelector: sel}, FileSource("x.toml"))
			requireIs(t, err, ErrInvalidProbeSelector)
			if !errors.Is(err, probe.ErrSelectorSyntax) {
				t.Fatalf("error %v should wrap probe.ErrSelectorSyntax", err)
			}
			if !strings.Contains(err.Error(), `"`+sel+`"`) {
				t.Fatalf("error %q should quote the selector", err)
			}
		})
	}
	if len(chips.fetched) != 0 {
		t.Fatalf("chip lookup ran after selector failure: %v", chips.fetched)
	}
}

func TestResolveCustomSelectorParser(t *testing.T) {
	r, _, _ := newTestResolver()
	r.Selectors = SelectorParserFunc(func(s string) (probe.Selector, error) {
		if s != "bench-3" {
			return probe.Selector{}, errors.New("unknown alias")
		}
		return probe.Selector{VendorID: 0x1366, ProductID: 0x1015}, nil
	})
	def, err := r.Resolve(RawDefinition{Chip: "RP2040", ProbeSelector: "bench-3"}, CommandLineSource())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if def.ProbeSelector.VendorID != 0x1366 {
		t.Fatalf("ProbeSelector = %+v", def.ProbeSelector)
	}
}

func TestResolveRelativeBinary(t *testing.T) {
	r, _, _ := newTestResolver()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "bin"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "bin"), "blinky.elf", "\x7fELF")
	path := writeFile(t, dir, "board.toml", `chip = "RP2040"
probe_selector = "2e8a:000c"
flash_test_binary = "bin/../bin/blinky.elf"
`)
	def, err := r.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	want := canonical(t, filepath.Join(dir, "bin", "blinky.elf"))
	if def.FlashTestBinary != want {
		t.Fatalf("FlashTestBinary = %q, want %q", def.FlashTestBinary, want)
	}
	if !filepath.IsAbs(def.FlashTestBinary) {
		t.Fatalf("FlashTestBinary %q is not absolute", def.FlashTestBinary)
	}
}

func TestResolveBinaryThroughSymlink(t *testing.T) {
	r, _, _ := newTestResolver()
	dir := t.TempDir()
	target := writeFile(t, dir, "real.elf", "\x7fELF")
	link := filepath.Join(dir, "current.elf")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	def, err := r.Resolve(RawDefinition{Chip: "RP2040", ProbeSelector: "2e8a:000c", FlashTestBinary: &link}, FileSource(filepath.Join(dir, "d.toml")))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if want := canonical(t, target); def.FlashTestBinary != want {
		t.Fatalf("FlashTestBinary = %q, want %q", def.FlashTestBinary, want)
	}
}

func TestResolveMissingBinary(t *testing.T) {
	r, _, _ := newTestResolver()
	dir := t.TempDir()
	for name, bin := range map[string]string{
		"relative": "missing.elf",
		"absolute": filepath.Join(dir, "missing.elf"),
	} {
		t.Run(name, func(t *testing.T) {
			raw := RawDefinition{Chip: "RP2040", ProbeSelector: "2e8a:000c", FlashTestBinary: &bin}
			_, err := r.Resolve(raw, FileSource(filepath.Join(dir, "d.toml")))
			requireIs(t, err, ErrIO)
			if !errors.Is(err, os.ErrNotExist) {
				t.Fatalf("error %v should wrap os.ErrNotExist", err)
			}
		})
	}
}

func TestFromCommandLine(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "fw.elf", "\x7fELF")
	t.Chdir(dir)

	r, _, opener := newTestResolver()
	def, err := r.FromCommandLine(" RP2040 ", "2e8a:000c", "fw.elf")
	if err != nil {
		t.Fatalf("FromCommandLine: %v", err)
	}
	if def.Source.Kind() != SourceCommandLine {
		t.Fatalf("Source = %v, want command line", def.Source)
	}
	if _, ok := def.Source.Path(); ok {
		t.Fatalf("command line source has a path")
	}
	if want := canonical(t, filepath.Join(dir, "fw.elf")); def.FlashTestBinary != want {
		t.Fatalf("FlashTestBinary = %q, want %q", def.FlashTestBinary, want)
	}
	if def.Name() != "RP2040" {
		t.Fatalf("Name() = %q, want chip name", def.Name())
	}
	if _, err := def.OpenProbe(); err != nil {
		t.Fatalf("OpenProbe: %v", err)
	}
	if len(opener.calls) != 1 {
		t.Fatalf("opener called %d times, want 1", len(opener.calls))
	}

	_, err = r.FromCommandLine("", "2e8a:000c", "")
	requireIs(t, err, ErrSchema)
	if !strings.HasPrefix(err.Error(), "command line: ") {
		t.Fatalf("error %q should name the command line", err)
	}
}

func TestResolveWithRegistry(t *testing.T) {
	reg, err := chipdb.Builtin()
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	r := NewResolver(reg, nil)

	def, err := r.Resolve(RawDefinition{Chip: "nrf52840", ProbeSelector: "1366:1015"}, CommandLineSource())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if def.Chip.Name != "nRF52840_xxAA" {
		t.Fatalf("Chip = %q", def.Chip.Name)
	}

	_, err = r.Resolve(RawDefinition{Chip: "STM32F4", ProbeSelector: "0483:374b"}, CommandLineSource())
	requireIs(t, err, ErrAmbiguousChip)
}

func TestResolveWithoutDatabase(t *testing.T) {
	r := &Resolver{}
	if _, err := r.Resolve(RawDefinition{Chip: "RP2040", ProbeSelector: "2e8a:000c"}, CommandLineSource()); err == nil {
		t.Fatalf("Resolve without chip database succeeded")
	}
}
