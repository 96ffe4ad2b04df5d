// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"slices"
	"strings"
	"testing"

	"github.com/nosseb/macstat/internal/telemetry"
	"github.com/nosseb/macstat/pkg/mac50"
	"github.com/nosseb/macstat/pkg/registers"
)

// execute runs the root command with args and returns what it printed.
// Extra flags go before any "--" so positional arguments stay last.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	full := append([]string{}, args...)
	at := slices.Index(full, "--")
	if at < 0 {
		at = len(full)
	}
	full = slices.Insert(full, at, "--log-level", "error")
	rootCmd.SetArgs(full)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestParseHexBytes(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []byte
		wantErr bool
	}{
		{"single string", []string{"11AAff"}, []byte{0x11, 0xAA, 0xFF}, false},
		{"separate args", []string{"11", "AA", "FF"}, []byte{0x11, 0xAA, 0xFF}, false},
		{"prefixes", []string{"0x11", "0XAA"}, []byte{0x11, 0xAA}, false},
		{"colons and commas", []string{"11:AA,FF"}, []byte{0x11, 0xAA, 0xFF}, false},
		{"spaces in one arg", []string{"11 AA FF"}, []byte{0x11, 0xAA, 0xFF}, false},
		{"odd length", []string{"1"}, nil, true},
		{"not hex", []string{"ZZ"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseHexBytes(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseHexBytes(%q) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
			if !tt.wantErr && !bytes.Equal(got, tt.want) {
				t.Errorf("parseHexBytes(%q) = % X, want % X", tt.args, got, tt.want)
			}
		})
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		value int64
		desc  registers.Descriptor
		want  string
	}{
		{10000, registers.Descriptor{Name: "P_SOLL", Unit: "counts"}, "10000 counts"},
		{-5, registers.Descriptor{Name: "FLWERR"}, "-5"},
		{int64(mac50.ModePosition), registers.Descriptor{Name: "MODE_REG"}, "2 (POSITION)"},
		{int64(mac50.ModePassive), registers.Descriptor{Name: "STARTMODE"}, "0 (PASSIVE)"},
	}

	for _, tt := range tests {
		if got := formatValue(tt.value, tt.desc); got != tt.want {
			t.Errorf("formatValue(%d, %s) = %q, want %q", tt.value, tt.desc.Name, got, tt.want)
		}
	}
}

func TestRun_ReadSimulated(t *testing.T) {
	out, err := execute(t, "read", "P_IST", "0x03", "--simulate")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(out, "P_IST (#10)") || !strings.Contains(out, "1200 counts") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "P_SOLL (#3)") {
		t.Errorf("numeric register not resolved:\n%s", out)
	}
}

func TestRun_ReadUnknownRegister(t *testing.T) {
	if _, err := execute(t, "read", "NOPE", "--simulate"); err == nil {
		t.Fatal("expected an error for an unknown register name")
	}
}

func TestRun_ModeSimulated(t *testing.T) {
	out, err := execute(t, "mode", "position", "--simulate")
	if err != nil {
		t.Fatalf("mode: %v", err)
	}
	if !strings.Contains(out, "PASSIVE -> POSITION") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestRun_FrameExpect(t *testing.T) {
	t.Cleanup(func() { frameExpect = "" })

	reply := "52525200FF03FC04FB10EF27D800FF00FFAAAA"
	out, err := execute(t, "frame", reply, "--expect", "P_SOLL")
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	if !strings.Contains(out, "valid reply for P_SOLL (#3)") {
		t.Errorf("unexpected output:\n%s", out)
	}

	frameExpect = ""
	if _, err := execute(t, "frame", reply, "--expect", "P_IST"); err == nil {
		t.Error("expected a register echo error for P_IST")
	}
}

func TestRun_StatusJSON(t *testing.T) {
	t.Cleanup(func() { statusFormat = "text" })

	out, err := execute(t, "status", "--format", "json", "--simulate")
	if err != nil {
		t.Fatalf("status: %v", err)
	}

	var snap telemetry.Snapshot
	if err := json.Unmarshal([]byte(out), &snap); err != nil {
		t.Fatalf("output is not a JSON snapshot: %v\n%s", err, out)
	}
	if snap.Status.ActualPosition != 1200 {
		t.Errorf("actual position = %d, want 1200", snap.Status.ActualPosition)
	}
	if snap.Config == nil || snap.Config.MinPosition != -100000 || snap.Config.MaxPosition != 100000 {
		t.Errorf("config = %+v, want limits -100000..100000", snap.Config)
	}
	if snap.Frames == 0 || snap.Errors != 0 {
		t.Errorf("frames = %d errors = %d", snap.Frames, snap.Errors)
	}
}

func TestRun_StatusBadFormat(t *testing.T) {
	t.Cleanup(func() { statusFormat = "text" })

	if _, err := execute(t, "status", "--format", "xml", "--simulate"); err == nil {
		t.Fatal("expected an error for an unknown format")
	}
}

func TestRun_NegativeValues(t *testing.T) {
	t.Cleanup(func() { positionIgnoreMode = false })

	out, err := execute(t, "position", "--ignore-mode", "--simulate", "--", "-500")
	if err != nil {
		t.Fatalf("position: %v", err)
	}
	if !strings.Contains(out, "Target: -500") {
		t.Errorf("unexpected output:\n%s", out)
	}

	out, err = execute(t, "write", "P_SOLL", "--simulate", "--", "-100")
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(out, "P_SOLL (#3) <- -100 counts") {
		t.Errorf("unexpected output:\n%s", out)
	}
}
