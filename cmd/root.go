// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/nosseb/macstat/internal/config"
	"github.com/nosseb/macstat/internal/logging"
)

var (
	cfgFile string

	v      = config.New()
	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "macstat",
	Short: "JVL MAC50/MAC95 MacTalk motor tool",
	Long: `Macstat - A CLI tool for reading, commanding and monitoring JVL MAC50/MAC95
integrated servo motors over the MacTalk serial protocol.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 19200] [--timeout 100ms]
  WebSocket: --url ws://host/path [--username user]
  Simulated: --simulate

Settings can also come from a YAML file (--config, or $MACSTAT_CONFIG) and
MACSTAT_* environment variables, e.g. MACSTAT_SERIAL_PORT=/dev/ttyUSB0.

For WebSocket authentication, the password is read from the MACSTAT_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version:      "0.3.0",
	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		logger = logging.New(cfg.Log, os.Stderr)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (YAML)")

	// Serial connection flags
	flags.StringP("port", "p", "", "Serial port device")
	flags.IntP("baud", "b", 19200, "Baud rate (serial only)")
	flags.Duration("timeout", 0, "Read timeout per response (default 100ms)")

	// WebSocket connection flags
	flags.StringP("url", "u", "", "WebSocket URL (ws:// or wss://)")
	flags.String("username", "", "Username for HTTP Basic auth")
	flags.Bool("no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Device flags
	flags.IntP("address", "a", 255, "Motor address (255 = broadcast)")
	flags.String("registers", "", "Register table YAML (default: built-in MAC50 table)")
	flags.Bool("simulate", false, "Talk to an in-memory simulated motor")

	// Logging flags
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "console", "Log format (console, json)")
	flags.String("log-file", "", "Also log to this file (rotated)")

	bindFlags(v, rootCmd, map[string]string{
		"serial.port":             "port",
		"serial.baud":             "baud",
		"serial.timeout":          "timeout",
		"websocket.url":           "url",
		"websocket.username":      "username",
		"websocket.no_ssl_verify": "no-ssl-verify",
		"device.address":          "address",
		"device.registers":        "registers",
		"device.simulate":         "simulate",
		"log.level":               "log-level",
		"log.format":              "log-format",
		"log.file.filename":       "log-file",
	})
}

// bindFlags binds config keys to persistent or local flags of c. A flag only
// overrides the file and environment when it was set explicitly.
func bindFlags(v *viper.Viper, c *cobra.Command, keys map[string]string) {
	for key, name := range keys {
		f := c.PersistentFlags().Lookup(name)
		if f == nil {
			f = c.Flags().Lookup(name)
		}
		if f == nil {
			panic("unknown flag " + name)
		}
		if err := v.BindPFlag(key, f); err != nil {
			panic(err)
		}
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
