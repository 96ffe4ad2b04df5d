// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mactalk

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestStatistics_ObserveFrame(t *testing.T) {
	s := NewStatistics()

	s.ObserveFrame(OpRead, 10, 5*time.Millisecond, nil)
	s.ObserveFrame(OpRead, 10, 7*time.Millisecond, Errorf(KindInvalidComplement, "x"))
	s.ObserveFrame(OpWrite, 2, 3*time.Millisecond, errors.New("write: broken pipe"))
	s.ObserveFrame(OpWrite, 2, 1*time.Millisecond, nil)

	snap := s.Snapshot()
	if snap.TotalFrames != 4 || snap.Reads != 2 || snap.Writes != 2 {
		t.Errorf("counts: total=%d reads=%d writes=%d", snap.TotalFrames, snap.Reads, snap.Writes)
	}
	if snap.ValidFrames != 2 {
		t.Errorf("ValidFrames = %d, want 2", snap.ValidFrames)
	}
	if snap.ProtocolErrors[KindInvalidComplement] != 1 {
		t.Errorf("complement errors = %d, want 1", snap.ProtocolErrors[KindInvalidComplement])
	}
	if snap.TransportErrors != 1 {
		t.Errorf("TransportErrors = %d, want 1", snap.TransportErrors)
	}
	if snap.Errors() != 2 {
		t.Errorf("Errors() = %d, want 2", snap.Errors())
	}
	if snap.MaxLatency != 7*time.Millisecond {
		t.Errorf("MaxLatency = %v", snap.MaxLatency)
	}
	if snap.AverageLatency() != 4*time.Millisecond {
		t.Errorf("AverageLatency = %v", snap.AverageLatency())
	}
}

func TestStatistics_SnapshotIsolation(t *testing.T) {
	s := NewStatistics()
	s.ObserveFrame(OpRead, 1, 0, Errorf(KindInvalidFrame, ""))
	snap := s.Snapshot()
	snap.ProtocolErrors[KindInvalidFrame] = 99

	if s.Snapshot().ProtocolErrors[KindInvalidFrame] != 1 {
		t.Error("modifying a snapshot changed the tracker")
	}
}

func TestStatistics_ResetAndString(t *testing.T) {
	s := NewStatistics()
	s.ObserveFrame(OpRead, 1, 0, Errorf(KindInvalidAddress, ""))

	out := s.String()
	if !strings.Contains(out, "invalid address") {
		t.Errorf("summary missing error kind:\n%s", out)
	}

	s.Reset()
	if snap := s.Snapshot(); snap.TotalFrames != 0 || len(snap.ProtocolErrors) != 0 {
		t.Errorf("reset left counters: %+v", snap)
	}
}
