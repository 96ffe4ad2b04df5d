// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nosseb/macstat/pkg/mac50"
	"github.com/nosseb/macstat/pkg/registers"
)

var (
	readSigned   bool
	readUnsigned bool
)

var readCmd = &cobra.Command{
	Use:   "read <register>...",
	Short: "Read registers by name or number",
	Long: `Read one or more registers. A register is given by name (P_IST, case-insensitive)
or by number (10, 0x0A). Values are decoded little-endian using the signedness
from the register table unless --signed or --unsigned is given.`,
	Example: `  macstat read P_IST --port /dev/ttyUSB0 --address 1
  macstat read 0x02 U_SUPPLY --simulate`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRead,
}

func init() {
	readCmd.Flags().BoolVarP(&readSigned, "signed", "s", false, "Decode as signed")
	readCmd.Flags().BoolVar(&readUnsigned, "unsigned", false, "Decode as unsigned")
	readCmd.MarkFlagsMutuallyExclusive("signed", "unsigned")
	rootCmd.AddCommand(readCmd)
}

func runRead(cmd *cobra.Command, args []string) error {
	refs := make([]registers.Ref, len(args))
	for i, arg := range args {
		ref, err := registers.ParseRef(arg)
		if err != nil {
			return err
		}
		refs[i] = ref
	}

	return withDevice(func(d *mac50.Device) error {
		for _, ref := range refs {
			desc, err := d.Registers().Lookup(ref)
			if err != nil {
				return err
			}
			raw, err := d.ReadRegisterBytes(ref)
			if err != nil {
				return fmt.Errorf("%s: %w", desc.Name, err)
			}
			signed := desc.Signed
			if readSigned {
				signed = true
			} else if readUnsigned {
				signed = false
			}
			value := mac50.DecodeValue(raw, signed)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n",
				labelStyle.Render(fmt.Sprintf("%-14s", desc.String())),
				valueStyle.Render(formatValue(value, desc)),
				headerStyle.Render(fmt.Sprintf("[% X]", raw)),
			)
		}
		return nil
	})
}

func formatValue(v int64, d registers.Descriptor) string {
	s := fmt.Sprintf("%d", v)
	if d.Unit != "" {
		s += " " + d.Unit
	}
	if d.Name == "MODE_REG" || d.Name == "STARTMODE" {
		s += " (" + mac50.Mode(v).String() + ")"
	}
	return s
}
