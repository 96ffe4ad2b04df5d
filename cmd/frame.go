// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nosseb/macstat/pkg/mactalk"
	"github.com/nosseb/macstat/pkg/registers"
)

var frameExpect string

var frameCmd = &cobra.Command{
	Use:   "frame <hex>...",
	Short: "Decode a captured MacTalk frame",
	Long: `Classify and validate a frame captured from the wire. Bytes are given as hex,
either as one string or as separate arguments. No device is contacted.

With --expect, a read response is validated against the given register, exactly
as the driver would on a live read.`,
	Example: `  macstat frame 52 52 52 00 FF 03 FC 04 FB 10 EF 27 D8 00 FF 00 FF AA AA
  macstat frame 52525200FF03FC04FB10EF27D800FF00FFAAAA --expect P_SOLL`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFrame,
}

func init() {
	frameCmd.Flags().StringVarP(&frameExpect, "expect", "e", "", "Register the read response must answer")
	rootCmd.AddCommand(frameCmd)
}

func runFrame(cmd *cobra.Command, args []string) error {
	data, err := parseHexBytes(args)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprint(out, mactalk.DescribeFrame(data))

	if frameExpect == "" {
		return nil
	}
	ref, err := registers.ParseRef(frameExpect)
	if err != nil {
		return err
	}
	table, err := loadTable(cfg)
	if err != nil {
		return err
	}
	desc, err := table.Lookup(ref)
	if err != nil {
		return err
	}
	if _, err := mactalk.DecodeReadResponse(data, desc.Address); err != nil {
		fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("✗ not a valid reply for %s: %v", desc, err)))
		return err
	}
	fmt.Fprintln(out, valueStyle.Render(fmt.Sprintf("✓ valid reply for %s", desc)))
	return nil
}

// parseHexBytes joins its arguments and decodes them as hex, ignoring
// spaces, colons and 0x prefixes
func parseHexBytes(args []string) ([]byte, error) {
	var sb strings.Builder
	for _, a := range args {
		for _, f := range strings.FieldsFunc(a, func(r rune) bool { return r == ' ' || r == ':' || r == ',' }) {
			f = strings.TrimPrefix(strings.TrimPrefix(f, "0x"), "0X")
			sb.WriteString(f)
		}
	}
	data, err := hex.DecodeString(sb.String())
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return data, nil
}
