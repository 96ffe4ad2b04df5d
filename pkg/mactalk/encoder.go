// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mactalk

// EncodeRead builds the 9-byte read command for a register on the device at address.
//
//	50 50 50 | ADDR ~ADDR | REG ~REG | AA AA
func EncodeRead(address, register uint8) []byte {
	return []byte{
		SyncRead, SyncRead, SyncRead,
		address, Complement(address),
		register, Complement(register),
		EndByte, EndByte,
	}
}

// EncodeWrite builds a write command carrying data for a register on the device
// at address. The payload length must be even and at most MaxPayloadSize.
//
//	52 52 52 | ADDR ~ADDR | REG ~REG | LEN ~LEN | D0 ~D0 ... | AA AA
func EncodeWrite(address, register uint8, data []byte) ([]byte, error) {
	if len(data)%2 != 0 {
		return nil, Errorf(KindOddPayload, "payload length %d is odd", len(data)).
			WithDetails(map[string]interface{}{"length": len(data)})
	}
	if len(data) > MaxPayloadSize {
		return nil, Errorf(KindPayloadTooLarge, "payload length %d exceeds %d", len(data), MaxPayloadSize).
			WithDetails(map[string]interface{}{"length": len(data), "max": MaxPayloadSize})
	}

	n := uint8(len(data))
	frame := make([]byte, 0, WriteOverhead+2*len(data))
	frame = append(frame,
		SyncWrite, SyncWrite, SyncWrite,
		address, Complement(address),
		register, Complement(register),
		n, Complement(n),
	)
	for _, b := range data {
		frame = append(frame, b, Complement(b))
	}
	frame = append(frame, EndByte, EndByte)

	return frame, nil
}

// WriteFrameSize returns the wire size of a write command carrying n payload bytes.
func WriteFrameSize(n int) int {
	return WriteOverhead + 2*n
}
