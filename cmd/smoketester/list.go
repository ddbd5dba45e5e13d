package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"smoketester/internal/dut"
)

type definitionPayload struct {
	Name            string `json:"name"`
	Chip            string `json:"chip"`
	Family          string `json:"family"`
	ProbeSelector   string `json:"probe_selector"`
	FlashTestBinary string `json:"flash_test_binary,omitempty"`
	Source          string `json:"source"`
}

func newListCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "list [dir]",
		Short: "List the DUT definitions of a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if format != "text" && format != "json" {
				return fmt.Errorf("unsupported format %q (must be text or json)", format)
			}
			env := getEnv(cmd)
			defs, err := env.collect(env.definitionsDir(args))
			if err != nil {
				return err
			}
			if format == "json" {
				return renderDefinitionsJSON(cmd.OutOrStdout(), defs)
			}
			renderDefinitionsTable(cmd.OutOrStdout(), defs, env.useColor)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "output format (text|json)")
	return cmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [dir]",
		Short: "Validate the DUT definitions of a directory",
		Long: `Validate every *.toml definition directly inside dir. The command fails on
the first invalid definition and names the offending file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := getEnv(cmd)
			dir := env.definitionsDir(args)
			defs, err := env.collect(dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d definitions ok\n", dir, len(defs))
			return nil
		},
	}
}

func definitionPayloads(defs []*dut.Definition) []definitionPayload {
	out := make([]definitionPayload, 0, len(defs))
	for _, def := range defs {
		out = append(out, definitionPayload{
			Name:            def.Name(),
			Chip:            def.Chip.Name,
			Family:          def.Chip.Family,
			ProbeSelector:   def.ProbeSelector.String(),
			FlashTestBinary: def.FlashTestBinary,
			Source:          def.Source.String(),
		})
	}
	return out
}

func renderDefinitionsJSON(out io.Writer, defs []*dut.Definition) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(definitionPayloads(defs))
}

func renderDefinitionsTable(out io.Writer, defs []*dut.Definition, useColor bool) {
	if len(defs) == 0 {
		fmt.Fprintln(out, "no definitions found")
		return
	}
	rows := make([][]string, 0, len(defs))
	for _, p := range definitionPayloads(defs) {
		bin := p.FlashTestBinary
		if bin == "" {
			bin = "-"
		}
		rows = append(rows, []string{p.Name, p.Chip, p.Family, p.ProbeSelector, bin})
	}
	fmt.Fprintln(out, newTable(useColor, []string{"NAME", "CHIP", "FAMILY", "PROBE", "FLASH TEST BINARY"}, rows))
}

// newTable renders rows below a centred header, bold when colour is on.
// StyleFunc numbers the header row 0 and data rows from 1.
func newTable(useColor bool, headers []string, rows [][]string) string {
	header := lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Center)
	cell := lipgloss.NewStyle().Padding(0, 1)
	if useColor {
		header = header.Bold(true).Foreground(lipgloss.Color("6"))
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == 0 {
				return header
			}
			return cell
		})
	return t.Render()
}
