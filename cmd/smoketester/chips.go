package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"smoketester/internal/chipdb"
)

func newChipsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chips [query]",
		Short: "Search the chip database",
		Long: `Search the chip database with the same case-insensitive substring match
used for the chip field of definitions. Without a query every chip is listed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := getEnv(cmd)
			reg, err := env.openChips()
			if err != nil {
				return err
			}
			var names []string
			if len(args) == 0 {
				names = reg.Names()
			} else if names, err = reg.Search(args[0]); err != nil {
				return err
			}
			if len(names) == 0 {
				if len(args) == 0 {
					return errors.New("chip database is empty")
				}
				return fmt.Errorf("no chip matches %q", args[0])
			}
			rows := make([][]string, 0, len(names))
			for _, name := range names {
				t, err := reg.Fetch(name)
				if err != nil {
					return err
				}
				rows = append(rows, []string{t.Name, t.Family, t.Manufacturer, t.Origin})
			}
			fmt.Fprintln(cmd.OutOrStdout(), newTable(env.useColor, []string{"CHIP", "FAMILY", "MANUFACTURER", "ORIGIN"}, rows))
			if len(args) > 0 && len(names) > 1 {
				fmt.Fprintf(cmd.OutOrStdout(), "%d chips match %q; definitions need a query matching exactly one\n", len(names), args[0])
			}
			return nil
		},
	}
	cmd.AddCommand(newChipsShowCmd())
	cmd.AddCommand(newChipsPackCmd())
	return cmd
}

func newChipsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print the descriptor of one chip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := getEnv(cmd)
			reg, err := env.openChips()
			if err != nil {
				return err
			}
			t, err := reg.Fetch(args[0])
			if err != nil {
				if errors.Is(err, chipdb.ErrUnknownChip) {
					return fmt.Errorf("%w (use `smoketester chips %s` to search)", err, args[0])
				}
				return err
			}
			return renderTarget(cmd.OutOrStdout(), t, env.useColor)
		},
	}
}

func newChipsPackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pack <out.mp>",
		Short: "Write the chip database as a snapshot",
		Long: `Write every loaded target family to a msgpack snapshot. Point --chip-db or
[chipdb].path at the snapshot to load it instead of the YAML sources.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			env := getEnv(cmd)
			reg, err := env.openChips()
			if err != nil {
				return err
			}
			f, err := os.OpenFile(args[0], os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
			if err != nil {
				return fmt.Errorf("failed to create snapshot: %w", err)
			}
			defer func() {
				if cerr := f.Close(); cerr != nil && err == nil {
					err = fmt.Errorf("failed to close snapshot: %w", cerr)
				}
			}()
			if err := reg.WriteSnapshot(f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d chips from %d families to %s\n", reg.Len(), len(reg.Families()), args[0])
			return nil
		},
	}
}

func renderTarget(out io.Writer, t *chipdb.Target, useColor bool) error {
	fmt.Fprintf(out, "%s (%s, %s)\n", t.Name, t.Family, t.Manufacturer)
	cores := make([]string, 0, len(t.Cores))
	for _, c := range t.Cores {
		cores = append(cores, c.Name+":"+c.Type)
	}
	fmt.Fprintf(out, "cores: %s\n", strings.Join(cores, ", "))

	rows := make([][]string, 0, len(t.MemoryMap))
	for _, r := range t.MemoryMap {
		size, err := r.Size()
		if err != nil {
			return fmt.Errorf("%s: %w", t.Name, err)
		}
		boot := ""
		if r.Boot {
			boot = "yes"
		}
		rows = append(rows, []string{string(r.Kind), r.Name, fmt.Sprintf("%#010x", r.Start), fmt.Sprintf("%#010x", r.End), formatSize(size), boot})
	}
	fmt.Fprintln(out, newTable(useColor, []string{"KIND", "REGION", "START", "END", "SIZE", "BOOT"}, rows))

	if len(t.FlashAlgorithms) == 0 {
		fmt.Fprintln(out, "flash algorithms: none")
		return nil
	}
	fmt.Fprintln(out, "flash algorithms:")
	for _, a := range t.FlashAlgorithms {
		marker := " "
		if a.Default {
			marker = "*"
		}
		fmt.Fprintf(out, "  %s %s", marker, a.Name)
		if a.Description != "" {
			fmt.Fprintf(out, "  %s", a.Description)
		}
		fmt.Fprintln(out)
	}
	return nil
}

func formatSize(n uint32) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%d MiB", n>>20)
	case n >= 1<<10 && n%(1<<10) == 0:
		return fmt.Sprintf("%d KiB", n>>10)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
