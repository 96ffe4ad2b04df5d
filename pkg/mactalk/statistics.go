// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mactalk

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Op identifies the kind of round trip
type Op string

const (
	OpRead  Op = "read"
	OpWrite Op = "write"
)

// Counters is a point-in-time copy of the statistics
type Counters struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	TotalFrames     uint64
	ValidFrames     uint64
	Reads           uint64
	Writes          uint64
	TransportErrors uint64
	ProtocolErrors  map[ErrorKind]uint64

	TotalLatency time.Duration
	MaxLatency   time.Duration

	// Rates (calculated)
	FrameRate float64 // frames/sec
	ErrorRate float64 // errors/sec
}

// Errors returns the total number of failed round trips
func (c Counters) Errors() uint64 {
	total := c.TransportErrors
	for _, n := range c.ProtocolErrors {
		total += n
	}
	return total
}

// AverageLatency returns the mean round-trip time
func (c Counters) AverageLatency() time.Duration {
	if c.TotalFrames == 0 {
		return 0
	}
	return c.TotalLatency / time.Duration(c.TotalFrames)
}

// Statistics tracks round-trip outcomes and error rates.
// It is safe for concurrent use.
type Statistics struct {
	mu sync.Mutex
	c  Counters
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	s := &Statistics{}
	s.Reset()
	return s
}

// ObserveFrame records the outcome of one round trip
func (s *Statistics) ObserveFrame(op Op, register uint8, elapsed time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.c.TotalFrames++
	switch op {
	case OpRead:
		s.c.Reads++
	case OpWrite:
		s.c.Writes++
	}

	s.c.TotalLatency += elapsed
	if elapsed > s.c.MaxLatency {
		s.c.MaxLatency = elapsed
	}

	if err == nil {
		s.c.ValidFrames++
	} else if kind := KindOf(err); kind != KindUnknown {
		s.c.ProtocolErrors[kind]++
	} else {
		s.c.TransportErrors++
	}

	s.c.LastUpdateTime = time.Now()
}

// Snapshot returns a copy of the counters with rates calculated
func (s *Statistics) Snapshot() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.c
	snap.ProtocolErrors = make(map[ErrorKind]uint64, len(s.c.ProtocolErrors))
	for k, v := range s.c.ProtocolErrors {
		snap.ProtocolErrors[k] = v
	}

	elapsed := time.Since(snap.StartTime).Seconds()
	if elapsed > 0 {
		snap.FrameRate = float64(snap.TotalFrames) / elapsed
		snap.ErrorRate = float64(snap.Errors()) / elapsed
	}
	return snap
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	snap := s.Snapshot()

	var validPercent float64
	if snap.TotalFrames > 0 {
		validPercent = float64(snap.ValidFrames) * 100.0 / float64(snap.TotalFrames)
	}

	elapsed := time.Since(snap.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Frames:    %8d (%d reads, %d writes)\n", snap.TotalFrames, snap.Reads, snap.Writes)
	result += fmt.Sprintf("Valid Frames:    %8d (%.1f%%)\n", snap.ValidFrames, validPercent)

	if snap.TransportErrors > 0 {
		result += fmt.Sprintf("Transport Errors:%8d\n", snap.TransportErrors)
	}

	kinds := make([]ErrorKind, 0, len(snap.ProtocolErrors))
	for k := range snap.ProtocolErrors {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	for _, k := range kinds {
		result += fmt.Sprintf("  %-22s %5d\n", k.String()+":", snap.ProtocolErrors[k])
	}

	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", snap.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", snap.ErrorRate)
	result += fmt.Sprintf("Max Latency:     %8s\n", snap.MaxLatency.Round(time.Millisecond))
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.c = Counters{
		StartTime:      now,
		LastUpdateTime: now,
		ProtocolErrors: make(map[ErrorKind]uint64),
	}
}
