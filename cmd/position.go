// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/nosseb/macstat/pkg/mac50"
)

var (
	positionIgnoreMode bool
	positionWait       time.Duration
)

var positionCmd = &cobra.Command{
	Use:   "position [target]",
	Short: "Get the actual position or set the target position",
	Long: `Without an argument, read and print the actual position (P_IST).

With an argument, write the target position (P_SOLL). The motor only follows
targets in POSITION mode, so the write is refused in any other mode unless
--ignore-mode is given. --wait polls the actual position until it reaches the
target or the duration expires.

Negative targets must follow "--" so they are not read as flags.`,
	Example: `  macstat position --simulate
  macstat position 4096 --port /dev/ttyUSB0 --address 1 --wait 5s
  macstat position --ignore-mode --simulate -- -500`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPosition,
}

func init() {
	positionCmd.Flags().BoolVar(&positionIgnoreMode, "ignore-mode", false, "Write the target even when not in POSITION mode")
	positionCmd.Flags().DurationVar(&positionWait, "wait", 0, "Wait up to this long for the motor to reach the target")
	rootCmd.AddCommand(positionCmd)
}

func runPosition(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		return withDevice(func(d *mac50.Device) error {
			pos, err := d.GetPosition()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Position:"), valueStyle.Render(strconv.FormatInt(pos, 10)))
			return nil
		})
	}

	target, err := strconv.ParseInt(args[0], 0, 64)
	if err != nil {
		return fmt.Errorf("invalid target %q: %w", args[0], err)
	}

	return withDevice(func(d *mac50.Device) error {
		if !positionIgnoreMode {
			if _, err := d.GetMode(); err != nil {
				return err
			}
		}
		if err := d.SetTargetPosition(target, positionIgnoreMode); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Target:"), valueStyle.Render(strconv.FormatInt(target, 10)))

		if positionWait <= 0 {
			return nil
		}
		deadline := time.Now().Add(positionWait)
		for {
			pos, err := d.GetPosition()
			if err != nil {
				return err
			}
			if pos == target {
				fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Reached:"), valueStyle.Render(strconv.FormatInt(pos, 10)))
				return nil
			}
			if time.Now().After(deadline) {
				return fmt.Errorf("target %d not reached within %v (at %d)", target, positionWait, pos)
			}
			time.Sleep(cfg.Watch.Interval / 10)
		}
	})
}
