// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Macstat - MacTalk motor controller tool
//
// A CLI for reading, writing and monitoring JVL MAC50/MAC95 motors over
// the MacTalk serial protocol.

package main

import (
	"os"

	"github.com/nosseb/macstat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
