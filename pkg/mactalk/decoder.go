// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mactalk

// Response template and masks. Each mask selects the bytes checked by one stage
// of DecodeReadResponse; data bytes are checked separately against their complements.
var (
	frameMask = [ReadResponseSize]byte{
		0xFF, 0xFF, 0xFF, // sync
		0x00, 0x00, // address
		0x00, 0x00, // register
		0xFF, 0xFF, // length
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // data
		0xFF, 0xFF, // terminator
	}
	addressMask = [ReadResponseSize]byte{
		0x00, 0x00, 0x00,
		0xFF, 0xFF,
	}
	registerMask = [ReadResponseSize]byte{
		0x00, 0x00, 0x00,
		0x00, 0x00,
		0xFF, 0xFF,
	}
)

// expectedResponse returns the read-response template for register.
// The device answers from the master address (00/FF).
func expectedResponse(register uint8) [ReadResponseSize]byte {
	return [ReadResponseSize]byte{
		SyncReply, SyncReply, SyncReply,
		AddressMaster, Complement(AddressMaster),
		register, Complement(register),
		replyLength, Complement(replyLength),
		0, 0, 0, 0, 0, 0, 0, 0,
		EndByte, EndByte,
	}
}

// maskedEqual reports whether frame and expected agree on every bit selected by mask.
func maskedEqual(frame []byte, expected, mask *[ReadResponseSize]byte) bool {
	for i := range mask {
		if frame[i]&mask[i] != expected[i]&mask[i] {
			return false
		}
	}
	return true
}

// DecodeReadResponse validates a 19-byte read response for register and returns
// its four data bytes, least significant first.
//
// Validation runs in a fixed order and the first failing stage determines the error:
// markers and length (KindInvalidFrame), address (KindInvalidAddress), register echo
// (KindInvalidRegisterEcho), then data complements (KindInvalidComplement).
// A short or empty frame, as produced by a read timeout, is KindInvalidFrame.
func DecodeReadResponse(frame []byte, register uint8) ([DataSize]byte, error) {
	var data [DataSize]byte

	if len(frame) != ReadResponseSize {
		return data, Errorf(KindInvalidFrame, "expected %d bytes, got %d", ReadResponseSize, len(frame)).
			WithDetails(map[string]interface{}{"length": len(frame), "expected": ReadResponseSize})
	}

	expected := expectedResponse(register)
	if !maskedEqual(frame, &expected, &frameMask) {
		return data, Errorf(KindInvalidFrame, "bad markers in % X", frame)
	}
	if !maskedEqual(frame, &expected, &addressMask) {
		// TODO: re-issue the read once a retry policy is defined for address mismatches
		return data, Errorf(KindInvalidAddress, "address field %02X %02X", frame[3], frame[4]).
			WithDetails(map[string]interface{}{"address": frame[3], "complement": frame[4]})
	}
	if !maskedEqual(frame, &expected, &registerMask) {
		return data, Errorf(KindInvalidRegisterEcho, "expected register %d, got %02X %02X", register, frame[5], frame[6]).
			WithDetails(map[string]interface{}{"expected": register, "register": frame[5], "complement": frame[6]})
	}

	payload := frame[9:17]
	for i := 0; i < DataSize; i++ {
		d, c := payload[2*i], payload[2*i+1]
		if c != Complement(d) {
			return data, Errorf(KindInvalidComplement, "data byte %d: %02X with complement %02X", i, d, c).
				WithDetails(map[string]interface{}{"index": i, "data": d, "complement": c})
		}
		data[i] = d
	}

	return data, nil
}

// DecodeWriteResponse validates the 3-byte acknowledgement of a write command.
func DecodeWriteResponse(frame []byte) error {
	if len(frame) != WriteResponseSize || frame[0] != AckByte || frame[1] != AckByte || frame[2] != AckByte {
		return Errorf(KindInvalidResponse, "expected 11 11 11, got % X", frame).
			WithDetails(map[string]interface{}{"length": len(frame)})
	}
	return nil
}

// EncodeReadResponse builds a well-formed read response for register carrying data.
// It is the device side of DecodeReadResponse, used by simulators and tests.
func EncodeReadResponse(register uint8, data [DataSize]byte) []byte {
	frame := expectedResponse(register)
	for i, d := range data {
		frame[9+2*i] = d
		frame[10+2*i] = Complement(d)
	}
	return frame[:]
}

// WriteAck returns the fixed write acknowledgement.
func WriteAck() []byte {
	return []byte{AckByte, AckByte, AckByte}
}
