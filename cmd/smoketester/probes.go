package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProbesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probes",
		Short: "List attached USB devices usable as probe selectors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env := getEnv(cmd)
			devices, err := env.probeManager().List()
			if err != nil {
				return err
			}
			if len(devices) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no USB devices found")
				return nil
			}
			rows := make([][]string, 0, len(devices))
			for _, d := range devices {
				rows = append(rows, []string{
					d.Selector().String(),
					fmt.Sprintf("%03d/%03d", d.Bus, d.Address),
					d.Manufacturer,
					d.Product,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), newTable(env.useColor, []string{"SELECTOR", "BUS/ADDR", "MANUFACTURER", "PRODUCT"}, rows))
			return nil
		},
	}
}
