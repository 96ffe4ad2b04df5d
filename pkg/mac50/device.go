// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package mac50 drives a single JVL MAC50/MAC95 integrated servo motor over MacTalk.
//
// A Device combines register access (typed reads and size-checked writes on
// top of the mactalk frame codec) with a cached view of the motor's
// configuration and status.
//
// Thread Safety:
//   - All Device methods are safe for concurrent use.
//   - Three locks guard the device: status cache, config cache, and the port.
//     When more than one is needed they are taken in that order, and the port
//     lock is always innermost.
package mac50

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nosseb/macstat/pkg/mactalk"
	"github.com/nosseb/macstat/pkg/registers"
)

// Observer receives the outcome of every frame round trip
type Observer interface {
	ObserveFrame(op mactalk.Op, register uint8, elapsed time.Duration, err error)
}

// Option configures a Device
type Option func(*Device)

// WithLogger sets the logger used for frame tracing and rejected commands
func WithLogger(l *zap.Logger) Option {
	return func(d *Device) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithObserver adds a round-trip observer
func WithObserver(o Observer) Option {
	return func(d *Device) {
		if o != nil {
			d.observers = append(d.observers, o)
		}
	}
}

// Device is a handle on one motor reachable through a Port
type Device struct {
	port    Port
	address uint8
	table   *registers.Table

	logger    *zap.Logger
	observers []Observer

	statusMu  sync.Mutex
	status    Status
	modeKnown bool

	configMu sync.Mutex
	config   Config

	portMu sync.Mutex
}

// New creates a device handle without performing any I/O.
// The port's lifecycle stays with the caller.
func New(port Port, address uint8, table *registers.Table, opts ...Option) *Device {
	d := &Device{
		port:    port,
		address: address,
		table:   table,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With(zap.Uint8("motor", address))
	return d
}

// Open creates a device handle and populates its caches from the motor
func Open(port Port, address uint8, table *registers.Table, opts ...Option) (*Device, error) {
	d := New(port, address, table, opts...)
	if err := d.RefreshConfig(); err != nil {
		return nil, fmt.Errorf("mac50: initial config refresh: %w", err)
	}
	if err := d.RefreshStatus(); err != nil {
		return nil, fmt.Errorf("mac50: initial status refresh: %w", err)
	}
	return d, nil
}

// ParseAddress validates a motor address given as a plain integer
func ParseAddress(v int) (uint8, error) {
	if v < 0 || v > 255 {
		return 0, mactalk.Errorf(mactalk.KindInvalidParameter, "address %d outside 0-255", v)
	}
	return uint8(v), nil
}

// Address returns the motor address used in command frames
func (d *Device) Address() uint8 {
	return d.address
}

// Registers returns the register table
func (d *Device) Registers() *registers.Table {
	return d.table
}

// roundTrip sends frame and reads a response of respLen bytes under the port lock
func (d *Device) roundTrip(frame []byte, respLen int) ([]byte, error) {
	d.portMu.Lock()
	defer d.portMu.Unlock()

	if err := resetBuffers(d.port); err != nil {
		return nil, fmt.Errorf("mac50: reset buffers: %w", err)
	}
	n, err := d.port.Write(frame)
	if err != nil {
		return nil, fmt.Errorf("mac50: write: %w", err)
	}
	if n != len(frame) {
		return nil, fmt.Errorf("mac50: incomplete write: wrote %d of %d bytes", n, len(frame))
	}

	resp, err := readFull(d.port, respLen)
	if err != nil {
		return nil, fmt.Errorf("mac50: read: %w", err)
	}
	return resp, nil
}

func (d *Device) observe(op mactalk.Op, register uint8, tx, rx []byte, start time.Time, err error) {
	elapsed := time.Since(start)
	for _, o := range d.observers {
		o.ObserveFrame(op, register, elapsed, err)
	}
	if ce := d.logger.Check(zap.DebugLevel, "round trip"); ce != nil {
		ce.Write(
			zap.String("op", string(op)),
			zap.Uint8("register", register),
			zap.String("tx", fmt.Sprintf("% X", tx)),
			zap.String("rx", fmt.Sprintf("% X", rx)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
	}
}
