// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mac50

import (
	"fmt"
	"time"

	"github.com/nosseb/macstat/pkg/registers"
)

// Config is the slow-changing part of the motor state: limits, calibration, identity
type Config struct {
	MaxVelocity           int64     `json:"max_velocity" cbor:"max_velocity"`
	MaxAcceleration       int64     `json:"max_acceleration" cbor:"max_acceleration"`
	MaxTorque             int64     `json:"max_torque" cbor:"max_torque"`
	GearNumerator         int64     `json:"gear_numerator" cbor:"gear_numerator"`
	GearDenominator       int64     `json:"gear_denominator" cbor:"gear_denominator"`
	MaxWindingEnergy      int64     `json:"max_winding_energy" cbor:"max_winding_energy"`
	MaxDumpedEnergy       int64     `json:"max_dumped_energy" cbor:"max_dumped_energy"`
	MaxRegulationError    int64     `json:"max_regulation_error" cbor:"max_regulation_error"`
	MaxMovementError      int64     `json:"max_movement_error" cbor:"max_movement_error"`
	MinPosition           int64     `json:"min_position" cbor:"min_position"`
	MaxPosition           int64     `json:"max_position" cbor:"max_position"`
	EmergencyDeceleration int64     `json:"emergency_deceleration" cbor:"emergency_deceleration"`
	StartMode             Mode      `json:"start_mode" cbor:"start_mode"`
	HomePosition          int64     `json:"home_position" cbor:"home_position"`
	HomingVelocity        int64     `json:"homing_velocity" cbor:"homing_velocity"`
	HomingMode            int64     `json:"homing_mode" cbor:"homing_mode"`
	MinSupplyVoltage      int64     `json:"min_supply_voltage" cbor:"min_supply_voltage"`
	MotorType             int64     `json:"motor_type" cbor:"motor_type"`
	SerialNumber          int64     `json:"serial_number" cbor:"serial_number"`
	Address               int64     `json:"address" cbor:"address"`
	HardwareVersion       int64     `json:"hardware_version" cbor:"hardware_version"`
	UpdatedAt             time.Time `json:"updated_at" cbor:"updated_at"`
}

// HasPositionLimits reports whether a software position window is configured.
// A 0/0 window means no limit.
func (c Config) HasPositionLimits() bool {
	return c.MinPosition != 0 || c.MaxPosition != 0
}

// WithinLimits reports whether pos lies inside the configured window
func (c Config) WithinLimits(pos int64) bool {
	return !c.HasPositionLimits() || (pos >= c.MinPosition && pos <= c.MaxPosition)
}

// Status is the fast-changing part of the motor state
type Status struct {
	Mode            Mode      `json:"mode" cbor:"mode"`
	TargetPosition  int64     `json:"target_position" cbor:"target_position"`
	ActualPosition  int64     `json:"actual_position" cbor:"actual_position"`
	ActualVelocity  int64     `json:"actual_velocity" cbor:"actual_velocity"`
	LoadFactor      int64     `json:"load_factor" cbor:"load_factor"`
	WindingEnergy   int64     `json:"winding_energy" cbor:"winding_energy"`
	DumpedEnergy    int64     `json:"dumped_energy" cbor:"dumped_energy"`
	RegulationError int64     `json:"regulation_error" cbor:"regulation_error"`
	MovementError   int64     `json:"movement_error" cbor:"movement_error"`
	ErrorFlags      int64     `json:"error_flags" cbor:"error_flags"`
	ControlFlags    int64     `json:"control_flags" cbor:"control_flags"`
	SupplyVoltage   int64     `json:"supply_voltage" cbor:"supply_voltage"`
	UpdatedAt       time.Time `json:"updated_at" cbor:"updated_at"`
}

type field struct {
	register string
	dst      *int64
}

// readFields reads each register with its table signedness into dst.
// Nothing is written to dst unless every read succeeds.
func (d *Device) readFields(fields []field) error {
	values := make([]int64, len(fields))
	for i, f := range fields {
		v, _, err := d.ReadValue(registers.Name(f.register))
		if err != nil {
			return fmt.Errorf("%s: %w", f.register, err)
		}
		values[i] = v
	}
	for i, f := range fields {
		*f.dst = values[i]
	}
	return nil
}

// RefreshConfig re-reads every config register and replaces the cache on success
func (d *Device) RefreshConfig() error {
	d.configMu.Lock()
	defer d.configMu.Unlock()

	var c Config
	var startMode int64
	err := d.readFields([]field{
		{"V_SOLL", &c.MaxVelocity},
		{"A_SOLL", &c.MaxAcceleration},
		{"T_SOLL", &c.MaxTorque},
		{"GEARF1", &c.GearNumerator},
		{"GEARF2", &c.GearDenominator},
		{"I2TLIM", &c.MaxWindingEnergy},
		{"UITLIM", &c.MaxDumpedEnergy},
		{"FLWERRMAX", &c.MaxRegulationError},
		{"FNCERRMAX", &c.MaxMovementError},
		{"MIN_P_IST", &c.MinPosition},
		{"MAX_P_IST", &c.MaxPosition},
		{"ACC_EMERG", &c.EmergencyDeceleration},
		{"STARTMODE", &startMode},
		{"P_HOME", &c.HomePosition},
		{"V_HOME", &c.HomingVelocity},
		{"HOMEMODE", &c.HomingMode},
		{"MIN_U_SUP", &c.MinSupplyVoltage},
		{"MOTORTYPE", &c.MotorType},
		{"SERIALNUMBER", &c.SerialNumber},
		{"MYADDR", &c.Address},
		{"HWVERSION", &c.HardwareVersion},
	})
	if err != nil {
		return fmt.Errorf("mac50: refresh config: %w", err)
	}
	if c.StartMode, err = ModeFromValue(startMode); err != nil {
		return fmt.Errorf("mac50: refresh config: STARTMODE: %w", err)
	}
	c.UpdatedAt = time.Now()
	d.config = c
	return nil
}

// RefreshStatus re-reads every status register and replaces the cache on success
func (d *Device) RefreshStatus() error {
	d.statusMu.Lock()
	defer d.statusMu.Unlock()

	var s Status
	var mode int64
	err := d.readFields([]field{
		{"MODE_REG", &mode},
		{"P_SOLL", &s.TargetPosition},
		{"P_IST", &s.ActualPosition},
		{"V_IST", &s.ActualVelocity},
		{"KVOUT", &s.LoadFactor},
		{"I2T", &s.WindingEnergy},
		{"UIT", &s.DumpedEnergy},
		{"FLWERR", &s.RegulationError},
		{"FNCERR", &s.MovementError},
		{"ERR_STAT", &s.ErrorFlags},
		{"CNTRL_BITS", &s.ControlFlags},
		{"U_SUPPLY", &s.SupplyVoltage},
	})
	if err != nil {
		return fmt.Errorf("mac50: refresh status: %w", err)
	}
	if s.Mode, err = ModeFromValue(mode); err != nil {
		return fmt.Errorf("mac50: refresh status: MODE_REG: %w", err)
	}
	s.UpdatedAt = time.Now()
	d.status = s
	d.modeKnown = true
	return nil
}

// Config returns a copy of the cached configuration
func (d *Device) Config() Config {
	d.configMu.Lock()
	defer d.configMu.Unlock()
	return d.config
}

// Status returns a copy of the cached status
func (d *Device) Status() Status {
	d.statusMu.Lock()
	defer d.statusMu.Unlock()
	return d.status
}

// CachedMode returns the last mode read from or written to the motor.
// ok is false until the mode has been observed at least once.
func (d *Device) CachedMode() (mode Mode, ok bool) {
	d.statusMu.Lock()
	defer d.statusMu.Unlock()
	return d.status.Mode, d.modeKnown
}
