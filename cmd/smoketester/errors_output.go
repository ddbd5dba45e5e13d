package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"smoketester/internal/dut"
)

var (
	errorStyle     = color.New(color.FgRed, color.Bold)
	candidateStyle = color.New(color.FgCyan)
)

func printError(w io.Writer, err error) {
	fmt.Fprintln(w, errorStyle.Sprint("error:"), formatError(err))
}

// formatError highlights the candidate list of ambiguous chip errors.
func formatError(err error) string {
	msg := err.Error()
	var ae *dut.AmbiguousChipError
	if !errors.As(err, &ae) {
		return msg
	}
	plain := ae.Error()
	lines := strings.Split(plain, "\n")
	for i := 1; i < len(lines); i++ {
		lines[i] = "\t" + candidateStyle.Sprint(strings.TrimPrefix(lines[i], "\t"))
	}
	return strings.Replace(msg, plain, strings.Join(lines, "\n"), 1)
}
