// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/nosseb/macstat/internal/telemetry"
	"github.com/nosseb/macstat/pkg/mac50"
	"github.com/nosseb/macstat/pkg/mactalk"
)

var statusFormat string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Read the motor's configuration and status",
	Long: `Refresh the configuration and status caches from the motor and print them.

Formats:
  text  human-readable tables (default)
  json  one JSON snapshot
  cbor  one binary CBOR snapshot, the same payload "watch" publishes to MQTT`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVarP(&statusFormat, "format", "o", "text", "Output format (text, json, cbor)")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	switch statusFormat {
	case "text", "json", "cbor":
	default:
		return fmt.Errorf("unknown format %q (use text, json or cbor)", statusFormat)
	}

	stats := mactalk.NewStatistics()
	return withDevice(func(d *mac50.Device) error {
		if err := d.RefreshConfig(); err != nil {
			return err
		}
		if err := d.RefreshStatus(); err != nil {
			return err
		}

		conf := d.Config()
		counters := stats.Snapshot()
		snap := telemetry.Snapshot{
			Address:   d.Address(),
			Timestamp: time.Now(),
			Status:    d.Status(),
			Config:    &conf,
			Frames:    counters.TotalFrames,
			Errors:    counters.Errors(),
		}

		out := cmd.OutOrStdout()
		switch statusFormat {
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		case "cbor":
			data, err := telemetry.Encode(snap)
			if err != nil {
				return err
			}
			_, err = out.Write(data)
			return err
		}
		printStatus(out, snap)
		return nil
	}, mac50.WithObserver(stats))
}

func printStatus(out io.Writer, snap telemetry.Snapshot) {
	s, c := snap.Status, snap.Config
	i := func(v int64) string { return strconv.FormatInt(v, 10) }

	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("MOTOR %d", snap.Address)))

	st := newTable("Status", "Value")
	st.Row("Mode", fmt.Sprintf("%s (%d)", s.Mode, int(s.Mode)))
	st.Row("Target position", i(s.TargetPosition))
	st.Row("Actual position", i(s.ActualPosition))
	st.Row("Actual velocity", i(s.ActualVelocity))
	st.Row("Load factor", i(s.LoadFactor))
	st.Row("Winding energy", i(s.WindingEnergy))
	st.Row("Dumped energy", i(s.DumpedEnergy))
	st.Row("Regulation error", i(s.RegulationError))
	st.Row("Movement error", i(s.MovementError))
	st.Row("Error flags", fmt.Sprintf("0x%08X", uint32(s.ErrorFlags)))
	st.Row("Control flags", fmt.Sprintf("0x%08X", uint32(s.ControlFlags)))
	st.Row("Supply voltage", i(s.SupplyVoltage))
	fmt.Fprintln(out, st.Render())

	if c == nil {
		return
	}
	ct := newTable("Config", "Value")
	limits := "none"
	if c.HasPositionLimits() {
		limits = fmt.Sprintf("%d .. %d", c.MinPosition, c.MaxPosition)
	}
	ct.Row("Position limits", limits)
	ct.Row("Max velocity", i(c.MaxVelocity))
	ct.Row("Max acceleration", i(c.MaxAcceleration))
	ct.Row("Max torque", i(c.MaxTorque))
	ct.Row("Gear ratio", fmt.Sprintf("%d / %d", c.GearNumerator, c.GearDenominator))
	ct.Row("Max winding energy", i(c.MaxWindingEnergy))
	ct.Row("Max dumped energy", i(c.MaxDumpedEnergy))
	ct.Row("Max regulation error", i(c.MaxRegulationError))
	ct.Row("Max movement error", i(c.MaxMovementError))
	ct.Row("Emergency deceleration", i(c.EmergencyDeceleration))
	ct.Row("Start mode", c.StartMode.String())
	ct.Row("Home position", i(c.HomePosition))
	ct.Row("Homing velocity", i(c.HomingVelocity))
	ct.Row("Homing mode", i(c.HomingMode))
	ct.Row("Min supply voltage", i(c.MinSupplyVoltage))
	ct.Row("Motor type", i(c.MotorType))
	ct.Row("Serial number", i(c.SerialNumber))
	ct.Row("Address", i(c.Address))
	ct.Row("Hardware version", i(c.HardwareVersion))
	fmt.Fprintln(out, ct.Render())

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%d frames, %d errors", snap.Frames, snap.Errors)))
}
