package main

import (
	"fmt"
	"os"
	"strings"
)

// outputMode is the auto|on|off setting shared by --color and --ui.
type outputMode string

const (
	modeAuto outputMode = "auto"
	modeOn   outputMode = "on"
	modeOff  outputMode = "off"
)

// readOutputMode parses the value of the named flag. An empty value means auto.
func readOutputMode(flag, value string) (outputMode, error) {
	switch m := outputMode(strings.TrimSpace(strings.ToLower(value))); m {
	case "":
		return modeAuto, nil
	case modeAuto, modeOn, modeOff:
		return m, nil
	default:
		return "", fmt.Errorf("invalid --%s value %q (expected auto|on|off)", flag, value)
	}
}

// enabledFor resolves auto against whether f is a terminal.
func (m outputMode) enabledFor(f *os.File) bool {
	switch m {
	case modeOn:
		return true
	case modeOff:
		return false
	default:
		return isTerminal(f)
	}
}
