// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var registersCmd = &cobra.Command{
	Use:   "registers",
	Short: "List the register table",
	Long: `List every register in the active register table with its address, size,
signedness, unit and documented range. No device is contacted.`,
	Args: cobra.NoArgs,
	RunE: runRegisters,
}

func init() {
	rootCmd.AddCommand(registersCmd)
}

func runRegisters(cmd *cobra.Command, args []string) error {
	table, err := loadTable(cfg)
	if err != nil {
		return err
	}

	t := newTable("#", "Name", "Size", "Signed", "RO", "Unit", "Range", "Description")
	for _, d := range table.All() {
		t.Row(
			strconv.Itoa(int(d.Address)),
			d.Name,
			strconv.Itoa(d.Size),
			yesNo(d.Signed),
			yesNo(d.ReadOnly),
			d.Unit,
			fmt.Sprintf("%d..%d", d.Min, d.Max),
			d.Description,
		)
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	fmt.Fprintln(cmd.OutOrStdout(), headerStyle.Render(fmt.Sprintf("%d registers", table.Len())))
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}
