// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nosseb/macstat/pkg/mac50"
	"github.com/nosseb/macstat/pkg/registers"
)

var (
	writeRaw   bool
	writeForce bool
)

var writeCmd = &cobra.Command{
	Use:   "write <register> <value>",
	Short: "Write a register",
	Long: `Write an integer (decimal, or 0x-prefixed hex) to a register given by name or
number. The value is encoded little-endian into exactly the register's size and
rejected if it does not fit.

With --raw the value is a hex byte string (e.g. "10 27 00 00") whose length must
equal the register size. Read-only registers and values outside the documented
range are refused unless --force is given. Negative values must follow "--" so
they are not read as flags.`,
	Example: `  macstat write V_SOLL 1500 --port /dev/ttyUSB0
  macstat write P_SOLL --raw "10 27 00 00" --simulate
  macstat write P_SOLL --simulate -- -100`,
	Args: cobra.ExactArgs(2),
	RunE: runWrite,
}

func init() {
	writeCmd.Flags().BoolVar(&writeRaw, "raw", false, "Value is hex bytes")
	writeCmd.Flags().BoolVarP(&writeForce, "force", "f", false, "Write read-only registers and out-of-range values")
	rootCmd.AddCommand(writeCmd)
}

func runWrite(cmd *cobra.Command, args []string) error {
	ref, err := registers.ParseRef(args[0])
	if err != nil {
		return err
	}

	return withDevice(func(d *mac50.Device) error {
		desc, err := d.Registers().Lookup(ref)
		if err != nil {
			return err
		}
		if desc.ReadOnly && !writeForce {
			return fmt.Errorf("%s is read-only (use --force to write anyway)", desc.Name)
		}

		if writeRaw {
			data, err := hex.DecodeString(strings.ReplaceAll(args[1], " ", ""))
			if err != nil {
				return fmt.Errorf("invalid hex bytes %q: %w", args[1], err)
			}
			if err := d.WriteRegisterBytes(ref, data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <- %s\n", desc, valueStyle.Render(fmt.Sprintf("% X", data)))
			return nil
		}

		value, err := strconv.ParseInt(args[1], 0, 64)
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", args[1], err)
		}
		if !desc.InRange(value) {
			if !writeForce {
				return fmt.Errorf("%d outside documented range %d..%d of %s (use --force to write anyway)",
					value, desc.Min, desc.Max, desc.Name)
			}
			logger.Warn("writing value outside documented range",
				zap.String("register", desc.Name), zap.Int64("value", value))
		}
		if err := d.WriteRegister(ref, value); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s <- %s\n", desc, valueStyle.Render(formatValue(value, desc)))
		return nil
	})
}
