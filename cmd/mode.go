// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nosseb/macstat/pkg/mac50"
)

var modeList bool

var modeCmd = &cobra.Command{
	Use:   "mode [MODE]",
	Short: "Get or set the operating mode",
	Long: `Without an argument, read and print the motor's operating mode.

With an argument, switch to that mode. MODE is a name (POSITION, case-insensitive)
or a mode number. Entering POSITION is refused when the motor's actual position
lies outside its configured software limits (MIN_P_IST..MAX_P_IST); a 0/0
window means no limit.`,
	Example: `  macstat mode --simulate
  macstat mode position --port /dev/ttyUSB0 --address 1
  macstat mode --list`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMode,
}

func init() {
	modeCmd.Flags().BoolVarP(&modeList, "list", "l", false, "List all operating modes")
	rootCmd.AddCommand(modeCmd)
}

func runMode(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if modeList {
		for _, m := range mac50.Modes() {
			fmt.Fprintf(out, "%3d  %s\n", int(m), m)
		}
		return nil
	}

	if len(args) == 0 {
		return withDevice(func(d *mac50.Device) error {
			m, err := d.GetMode()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Mode:"), valueStyle.Render(fmt.Sprintf("%s (%d)", m, int(m))))
			return nil
		})
	}

	target, err := mac50.ParseMode(args[0])
	if err != nil {
		return err
	}

	return withDevice(func(d *mac50.Device) error {
		// The position window check needs the limits and the current mode
		if err := d.RefreshConfig(); err != nil {
			return err
		}
		previous, err := d.GetMode()
		if err != nil {
			return err
		}
		if err := d.SetMode(target); err != nil {
			return err
		}
		if previous == target {
			fmt.Fprintf(out, "%s already %s\n", labelStyle.Render("Mode:"), valueStyle.Render(target.String()))
			return nil
		}
		fmt.Fprintf(out, "%s %s -> %s\n", labelStyle.Render("Mode:"), previous, valueStyle.Render(target.String()))
		return nil
	})
}
