// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mac50

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/nosseb/macstat/pkg/mactalk"
)

// Mode is the motor operating mode held in MODE_REG
type Mode int

// Operating mode values
const (
	ModePassive                       Mode = 0
	ModeVelocity                      Mode = 1
	ModePosition                      Mode = 2
	ModeGearPosition                  Mode = 3
	ModeAnalogueTorque                Mode = 4
	ModeAnalogueVelocity              Mode = 5
	ModeAnalogueVelocityGear          Mode = 6
	ModeManualCurrent                 Mode = 7
	ModeStepResponseTest              Mode = 8
	ModeInternalTest                  Mode = 9
	ModeBrake                         Mode = 10
	ModeStop                          Mode = 11
	ModeTorqueBasedZeroSearch         Mode = 12
	ModeForwardOnlyZeroSearch         Mode = 13
	ModeForwardBackwardZeroSearch     Mode = 14
	ModeSafeMode                      Mode = 15
	ModeAnalogueVelocityWithDeadBand  Mode = 16
	ModeVelocityLimitedAnalogueTorque Mode = 17
	ModeAnalogueGear                  Mode = 18
	ModeCoil                          Mode = 19
	ModeAnalogueBiPosition            Mode = 20
	ModeAnalogueToPosition            Mode = 21
	ModeInternalTest2                 Mode = 22
	ModeInternalTest3                 Mode = 23
	ModeGearFollow                    Mode = 24
	ModeIHome                         Mode = 25
)

var modeNames = [...]string{
	"PASSIVE",
	"VELOCITY",
	"POSITION",
	"GEAR_POSITION",
	"ANALOGUE_TORQUE",
	"ANALOGUE_VELOCITY",
	"ANALOGUE_VELOCITY_GEAR",
	"MANUAL_CURRENT",
	"STEP_RESPONSE_TEST",
	"INTERNAL_TEST",
	"BRAKE",
	"STOP",
	"TORQUE_BASED_ZERO_SEARCH",
	"FORWARD_ONLY_ZERO_SEARCH",
	"FORWARD_BACKWARD_ZERO_SEARCH",
	"SAFE_MODE",
	"ANALOGUE_VELOCITY_WITH_DEAD_BAND",
	"VELOCITY_LIMITED_ANALOGUE_TORQUE",
	"ANALOGUE_GEAR",
	"COIL",
	"ANALOGUE_BI_POSITION",
	"ANALOGUE_TO_POSITION",
	"INTERNAL_TEST_2",
	"INTERNAL_TEST_3",
	"GEAR_FOLLOW",
	"IHOME",
}

// Modes returns every operating mode in numeric order
func Modes() []Mode {
	modes := make([]Mode, len(modeNames))
	for i := range modeNames {
		modes[i] = Mode(i)
	}
	return modes
}

// Valid reports whether m is one of the defined operating modes
func (m Mode) Valid() bool {
	return m >= 0 && int(m) < len(modeNames)
}

// String returns the mode name, or UNKNOWN(n)
func (m Mode) String() string {
	if !m.Valid() {
		return "UNKNOWN(" + strconv.Itoa(int(m)) + ")"
	}
	return modeNames[m]
}

// MarshalText encodes the mode by name
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, unknownMode(int64(m))
	}
	return []byte(modeNames[m]), nil
}

// UnmarshalText decodes a mode name
func (m *Mode) UnmarshalText(text []byte) error {
	mode, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// ModeFromValue validates a raw register value
func ModeFromValue(v int64) (Mode, error) {
	if v < 0 || v >= int64(len(modeNames)) {
		return 0, unknownMode(v)
	}
	return Mode(v), nil
}

// ParseMode resolves a mode name (case-insensitive) or decimal mode number
func ParseMode(s string) (Mode, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range modeNames {
		if n == name {
			return Mode(i), nil
		}
	}
	if v, err := strconv.ParseInt(name, 10, 64); err == nil {
		return ModeFromValue(v)
	}
	return 0, mactalk.Errorf(mactalk.KindUnknownMode, "%q", s)
}

// ModeFromBytes decodes a little-endian register payload of 1 to 4 bytes
func ModeFromBytes(b []byte) (Mode, error) {
	if len(b) == 0 || len(b) > 4 {
		return 0, mactalk.Errorf(mactalk.KindInvalidParameter, "mode payload of %d bytes", len(b))
	}
	var buf [4]byte
	copy(buf[:], b)
	return ModeFromValue(int64(binary.LittleEndian.Uint32(buf[:])))
}

func unknownMode(v int64) error {
	return mactalk.Errorf(mactalk.KindUnknownMode, "value %d", v).
		WithDetails(map[string]interface{}{"value": v})
}
