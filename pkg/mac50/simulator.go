// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mac50

import (
	"encoding/binary"
	"sync"

	"github.com/nosseb/macstat/pkg/mactalk"
	"github.com/nosseb/macstat/pkg/registers"
)

// Simulator is an in-memory motor that speaks MacTalk. It implements Port
// and BufferResetter and answers only frames addressed to it or to broadcast.
// In POSITION mode a new target position is reached immediately.
type Simulator struct {
	mu      sync.Mutex
	address uint8
	table   *registers.Table
	regs    map[uint8][mactalk.DataSize]byte
	pending []byte
	frames  int

	// Corrupt, when set, may rewrite each response before it is queued
	Corrupt func(resp []byte) []byte
	// Silent drops every response, as if the motor were disconnected
	Silent bool
}

// NewSimulator creates a simulated motor with all registers zero
func NewSimulator(address uint8, table *registers.Table) *Simulator {
	return &Simulator{
		address: address,
		table:   table,
		regs:    make(map[uint8][mactalk.DataSize]byte),
	}
}

// Set stores value in a register using the register's declared size
func (s *Simulator) Set(ref registers.Ref, value int64) error {
	desc, err := s.table.Lookup(ref)
	if err != nil {
		return err
	}
	b, err := EncodeValue(value, desc.Size)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store(desc.Address, b)
	return nil
}

// Get returns a register value decoded with the table's signedness
func (s *Simulator) Get(ref registers.Ref) (int64, error) {
	desc, err := s.table.Lookup(ref)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data := s.regs[desc.Address]
	return DecodeValue(data[:desc.Size], desc.Signed), nil
}

// Frames returns how many command frames the simulator has accepted
func (s *Simulator) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Write consumes one command frame. Frames that fail validation are dropped
// without a reply, like the real motor does.
func (s *Simulator) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var resp []byte
	switch {
	case len(p) == mactalk.ReadCommandSize && p[0] == mactalk.SyncRead:
		reg, ok := s.parseHeader(p, mactalk.SyncRead)
		if !ok {
			return len(p), nil
		}
		resp = mactalk.EncodeReadResponse(reg, s.regs[reg])
	case len(p) >= mactalk.WriteOverhead && p[0] == mactalk.SyncWrite:
		reg, ok := s.parseHeader(p, mactalk.SyncWrite)
		if !ok {
			return len(p), nil
		}
		data, ok := parsePayload(p)
		if !ok {
			return len(p), nil
		}
		s.store(reg, data)
		resp = mactalk.WriteAck()
	default:
		return len(p), nil
	}

	s.frames++
	if s.Silent {
		return len(p), nil
	}
	if s.Corrupt != nil {
		resp = s.Corrupt(resp)
	}
	s.pending = append(s.pending, resp...)
	return len(p), nil
}

// Read drains queued response bytes. It returns (0, nil) when nothing is
// queued, which callers treat as a read timeout.
func (s *Simulator) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

// ResetInputBuffer discards queued response bytes
func (s *Simulator) ResetInputBuffer() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	return nil
}

// ResetOutputBuffer is a no-op; writes are processed synchronously
func (s *Simulator) ResetOutputBuffer() error {
	return nil
}

// parseHeader checks sync bytes, address and register complements, and the terminator
func (s *Simulator) parseHeader(p []byte, sync byte) (uint8, bool) {
	if p[1] != sync || p[2] != sync {
		return 0, false
	}
	if p[len(p)-2] != mactalk.EndByte || p[len(p)-1] != mactalk.EndByte {
		return 0, false
	}
	addr, reg := p[3], p[5]
	if p[4] != mactalk.Complement(addr) || p[6] != mactalk.Complement(reg) {
		return 0, false
	}
	if addr != s.address && addr != mactalk.AddressBroadcast && s.address != mactalk.AddressBroadcast {
		return 0, false
	}
	return reg, true
}

func parsePayload(p []byte) ([]byte, bool) {
	n := int(p[7])
	if p[8] != mactalk.Complement(p[7]) || len(p) != mactalk.WriteFrameSize(n) {
		return nil, false
	}
	data := make([]byte, n)
	for i := 0; i < n; i++ {
		d, c := p[9+2*i], p[10+2*i]
		if c != mactalk.Complement(d) {
			return nil, false
		}
		data[i] = d
	}
	return data, true
}

// store writes data into a register and applies the motor's reaction
func (s *Simulator) store(reg uint8, data []byte) {
	var v [mactalk.DataSize]byte
	copy(v[:], data)
	s.regs[reg] = v

	mode, modeErr := s.table.Lookup(regMode)
	target, targetErr := s.table.Lookup(regTargetPosition)
	actual, actualErr := s.table.Lookup(regActualPosition)
	if modeErr != nil || targetErr != nil || actualErr != nil {
		return
	}
	m := s.regs[mode.Address]
	if Mode(binary.LittleEndian.Uint32(m[:])) != ModePosition {
		return
	}
	if reg == target.Address || reg == mode.Address {
		s.regs[actual.Address] = s.regs[target.Address]
	}
}
