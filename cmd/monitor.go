// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nosseb/macstat/internal/logging"
	"github.com/nosseb/macstat/pkg/mac50"
	"github.com/nosseb/macstat/pkg/mactalk"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Interactive TUI for monitoring and commanding a motor",
	Long: `Monitor and command a MAC50/MAC95 motor via an interactive terminal UI.

Features:
  - Live status (mode, positions, velocity, load, energy, errors, supply)
  - Configuration summary including software position limits
  - Mode selection (Enter on the mode list)
  - Target position entry (Enter in the target field, POSITION mode only)
  - Frame statistics and an event log

Tab switches between the mode list and the target field, r reloads the
configuration, q quits. Logs go only to --log-file while the UI is running.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	// Console logging would corrupt the alt screen
	logger = logging.New(cfg.Log, nil)

	stats := mactalk.NewStatistics()
	return withDevice(func(d *mac50.Device) error {
		m := initialMonitorModel(d, stats, connectionLabel(), cfg.Watch.Interval)
		p := tea.NewProgram(m, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	}, mac50.WithObserver(stats))
}

func connectionLabel() string {
	switch {
	case cfg.Device.Simulate:
		return "Simulated motor"
	case cfg.WebSocket.URL != "":
		return "WebSocket: " + cfg.WebSocket.URL
	default:
		return fmt.Sprintf("Serial: %s @ %d baud", cfg.Serial.Port, cfg.Serial.Baud)
	}
}
