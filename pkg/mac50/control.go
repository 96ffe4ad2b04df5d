// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mac50

import (
	"time"

	"go.uber.org/zap"

	"github.com/nosseb/macstat/pkg/mactalk"
	"github.com/nosseb/macstat/pkg/registers"
)

var (
	regMode           = registers.Name("MODE_REG")
	regTargetPosition = registers.Name("P_SOLL")
	regActualPosition = registers.Name("P_IST")
)

// GetMode reads the operating mode and records it in the status cache
func (d *Device) GetMode() (Mode, error) {
	d.statusMu.Lock()
	defer d.statusMu.Unlock()
	return d.getModeLocked()
}

func (d *Device) getModeLocked() (Mode, error) {
	v, err := d.ReadRegister(regMode, false)
	if err != nil {
		return d.status.Mode, err
	}
	m, err := ModeFromValue(v)
	if err != nil {
		return d.status.Mode, err
	}
	d.status.Mode = m
	d.status.UpdatedAt = time.Now()
	d.modeKnown = true
	return m, nil
}

// SetMode switches the operating mode. It does nothing when the cached mode
// already matches. Entering POSITION with a configured position window first
// reads the actual position and refuses the switch if it lies outside the window.
func (d *Device) SetMode(mode Mode) error {
	if !mode.Valid() {
		return unknownMode(int64(mode))
	}

	d.statusMu.Lock()
	defer d.statusMu.Unlock()

	if d.modeKnown && d.status.Mode == mode {
		return nil
	}

	d.configMu.Lock()
	defer d.configMu.Unlock()

	if mode == ModePosition && d.config.HasPositionLimits() {
		pos, err := d.getPositionLocked()
		if err != nil {
			return err
		}
		if !d.config.WithinLimits(pos) {
			d.logger.Warn("refusing position mode outside software limits",
				zap.Int64("position", pos),
				zap.Int64("min", d.config.MinPosition),
				zap.Int64("max", d.config.MaxPosition),
			)
			return mactalk.Errorf(mactalk.KindPositionOutOfBounds,
				"position %d outside [%d, %d]", pos, d.config.MinPosition, d.config.MaxPosition).
				WithDetails(map[string]interface{}{
					"position": pos,
					"min":      d.config.MinPosition,
					"max":      d.config.MaxPosition,
				})
		}
	}

	if err := d.WriteRegister(regMode, int64(mode)); err != nil {
		return err
	}
	d.status.Mode = mode
	d.status.UpdatedAt = time.Now()
	d.modeKnown = true
	return nil
}

// GetPosition reads the actual position and records it in the status cache
func (d *Device) GetPosition() (int64, error) {
	d.statusMu.Lock()
	defer d.statusMu.Unlock()
	return d.getPositionLocked()
}

func (d *Device) getPositionLocked() (int64, error) {
	pos, err := d.ReadRegister(regActualPosition, true)
	if err != nil {
		return 0, err
	}
	d.status.ActualPosition = pos
	d.status.UpdatedAt = time.Now()
	return pos, nil
}

// SetTargetPosition writes a new target position. Unless ignoreMode is set the
// cached mode must be POSITION, since the motor ignores targets in other modes.
func (d *Device) SetTargetPosition(target int64, ignoreMode bool) error {
	d.statusMu.Lock()
	defer d.statusMu.Unlock()

	if !ignoreMode && (!d.modeKnown || d.status.Mode != ModePosition) {
		current := "unknown"
		if d.modeKnown {
			current = d.status.Mode.String()
		}
		return mactalk.Errorf(mactalk.KindWrongMode,
			"target position requires %s mode, motor is in %s", ModePosition, current)
	}

	d.configMu.Lock()
	defer d.configMu.Unlock()

	if !d.config.WithinLimits(target) {
		d.logger.Warn("target position outside software limits",
			zap.Int64("target", target),
			zap.Int64("min", d.config.MinPosition),
			zap.Int64("max", d.config.MaxPosition),
		)
	}

	if err := d.WriteRegister(regTargetPosition, target); err != nil {
		return err
	}
	d.status.TargetPosition = target
	d.status.UpdatedAt = time.Now()
	return nil
}
