// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mactalk

import (
	"fmt"
	"strings"
)

// FrameType identifies the structural kind of a frame
type FrameType int

const (
	FrameUnknown FrameType = iota
	FrameReadCommand
	FrameWriteCommand
	FrameReadResponse
	FrameWriteAck
)

// String returns the frame type name
func (t FrameType) String() string {
	switch t {
	case FrameReadCommand:
		return "READ"
	case FrameWriteCommand:
		return "WRITE"
	case FrameReadResponse:
		return "READ_RESPONSE"
	case FrameWriteAck:
		return "WRITE_ACK"
	default:
		return "UNKNOWN"
	}
}

// ClassifyFrame guesses the frame type from its leading bytes and length.
// Write commands and read responses share the same sync byte and are told
// apart by their length.
func ClassifyFrame(frame []byte) FrameType {
	if len(frame) == WriteResponseSize && frame[0] == AckByte {
		return FrameWriteAck
	}
	if len(frame) < 3 {
		return FrameUnknown
	}
	switch {
	case frame[0] == SyncRead && len(frame) == ReadCommandSize:
		return FrameReadCommand
	case frame[0] == SyncReply && len(frame) == ReadResponseSize && frame[7] == replyLength:
		return FrameReadResponse
	case frame[0] == SyncWrite && len(frame) >= WriteOverhead:
		return FrameWriteCommand
	}
	return FrameUnknown
}

// FormatHex renders frame bytes as space-separated hex, 16 per line
func FormatHex(frame []byte) string {
	var sb strings.Builder
	for i, b := range frame {
		if i > 0 {
			if i%16 == 0 {
				sb.WriteString("\n")
			} else {
				sb.WriteString(" ")
			}
		}
		fmt.Fprintf(&sb, "%02X", b)
	}
	return sb.String()
}

// DescribeFrame formats a frame into a human-readable multi-line description.
// Read responses are fully validated; the validation outcome is part of the output.
func DescribeFrame(frame []byte) string {
	t := ClassifyFrame(frame)
	result := fmt.Sprintf("%s len=%d\n  Bytes: %s\n", t, len(frame), FormatHex(frame))

	switch t {
	case FrameReadCommand:
		result += fmt.Sprintf("  Address: %d  Register: %d\n", frame[3], frame[5])

	case FrameWriteCommand:
		n := int(frame[7])
		result += fmt.Sprintf("  Address: %d  Register: %d  Length: %d\n", frame[3], frame[5], n)
		if len(frame) == WriteFrameSize(n) {
			data := make([]byte, n)
			for i := 0; i < n; i++ {
				data[i] = frame[9+2*i]
			}
			result += fmt.Sprintf("  Data: % X\n", data)
		} else {
			result += fmt.Sprintf("  Length mismatch: expected %d bytes\n", WriteFrameSize(n))
		}

	case FrameReadResponse:
		register := frame[5]
		data, err := DecodeReadResponse(frame, register)
		if err != nil {
			result += fmt.Sprintf("  Invalid: %v\n", err)
			break
		}
		value := uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24
		result += fmt.Sprintf("  Register: %d  Data: % X  Value: %d (signed %d)\n", register, data[:], value, int32(value))

	case FrameWriteAck:
		if err := DecodeWriteResponse(frame); err != nil {
			result += fmt.Sprintf("  Invalid: %v\n", err)
		}
	}

	return result
}
