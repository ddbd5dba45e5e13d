// Package dut loads device-under-test definitions.
//
// A definition file is a small TOML document:
//
//	chip = "nRF52840_xxAA"
//	probe_selector = "1366:1015:000683"
//	flash_test_binary = "blinky.elf"   # optional
//
// Loading happens in three steps. ParseFile decodes the document into a
// RawDefinition. A Resolver parses the probe selector, requires the chip
// query to match exactly one chip of its ChipDatabase, and canonicalizes the
// flash test binary relative to the definition file. A Collector applies both
// to every *.toml file of a directory and fails as a whole on the first bad
// file.
//
// The resulting Definition is immutable. OpenProbe is the only operation that
// touches hardware.
package dut
