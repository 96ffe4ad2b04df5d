// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mactalk

import (
	"bytes"
	"errors"
	"testing"
)

// ============================================================
// Complement Tests
// ============================================================

func TestComplement_AllBytes(t *testing.T) {
	for i := 0; i < 256; i++ {
		b := byte(i)
		if Complement(b)^b != 0xFF {
			t.Fatalf("Complement(0x%02X) = 0x%02X", b, Complement(b))
		}
		if Complement(Complement(b)) != b {
			t.Fatalf("double complement of 0x%02X is not identity", b)
		}
	}
}

// ============================================================
// Encoder Tests
// ============================================================

func TestEncodeRead(t *testing.T) {
	got := EncodeRead(0xFF, 0x03)
	want := []byte{0x50, 0x50, 0x50, 0xFF, 0x00, 0x03, 0xFC, 0xAA, 0xAA}
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeRead = % X, want % X", got, want)
	}
	if len(got) != ReadCommandSize {
		t.Errorf("read command length %d, want %d", len(got), ReadCommandSize)
	}
}

func TestEncodeWrite(t *testing.T) {
	got, err := EncodeWrite(0x01, 0x02, []byte{0x02, 0x00})
	if err != nil {
		t.Fatalf("EncodeWrite error: %v", err)
	}
	want := []byte{
		0x52, 0x52, 0x52,
		0x01, 0xFE,
		0x02, 0xFD,
		0x02, 0xFD,
		0x02, 0xFD, 0x00, 0xFF,
		0xAA, 0xAA,
	}
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeWrite = % X, want % X", got, want)
	}
}

func TestEncodeWrite_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		kind ErrorKind
	}{
		{name: "odd payload", data: []byte{0x01}, kind: KindOddPayload},
		{name: "three bytes", data: []byte{0x01, 0x02, 0x03}, kind: KindOddPayload},
		{name: "too large", data: make([]byte, 256), kind: KindPayloadTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeWrite(0x01, 0x02, tt.data)
			if KindOf(err) != tt.kind {
				t.Errorf("expected %v, got %v", tt.kind, err)
			}
		})
	}
}

func TestEncodeWrite_EmptyPayload(t *testing.T) {
	frame, err := EncodeWrite(0x01, 0x02, nil)
	if err != nil {
		t.Fatalf("EncodeWrite error: %v", err)
	}
	if len(frame) != WriteOverhead {
		t.Errorf("frame length %d, want %d", len(frame), WriteOverhead)
	}
}

func TestEncodeWrite_PayloadRoundTrip(t *testing.T) {
	for n := 0; n <= MaxPayloadSize; n += 2 {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(i * 7)
		}
		frame, err := EncodeWrite(0x10, 0x20, data)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if len(frame) != WriteFrameSize(n) {
			t.Fatalf("n=%d: frame length %d, want %d", n, len(frame), WriteFrameSize(n))
		}
		if int(frame[7]) != n || frame[8] != Complement(byte(n)) {
			t.Fatalf("n=%d: length field %02X %02X", n, frame[7], frame[8])
		}
		for i, d := range data {
			if frame[9+2*i] != d || frame[10+2*i] != Complement(d) {
				t.Fatalf("n=%d: data pair %d corrupted", n, i)
			}
		}
		if err := DecodeWriteResponse(WriteAck()); err != nil {
			t.Fatalf("ack rejected: %v", err)
		}
	}
}

// ============================================================
// Decoder Tests
// ============================================================

func TestDecodeReadResponse_Valid(t *testing.T) {
	frame := []byte{
		0x52, 0x52, 0x52,
		0x00, 0xFF,
		0x03, 0xFC,
		0x04, 0xFB,
		0x10, 0xEF, 0x27, 0xD8, 0x00, 0xFF, 0x00, 0xFF,
		0xAA, 0xAA,
	}
	data, err := DecodeReadResponse(frame, 0x03)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	want := [4]byte{0x10, 0x27, 0x00, 0x00}
	if data != want {
		t.Errorf("data = % X, want % X", data, want)
	}
}

func TestDecodeReadResponse_AllDataBytes(t *testing.T) {
	for i := 0; i < 256; i++ {
		d := byte(i)
		in := [4]byte{d, Complement(d), d ^ 0x5A, byte(255 - i)}
		out, err := DecodeReadResponse(EncodeReadResponse(0x42, in), 0x42)
		if err != nil {
			t.Fatalf("byte 0x%02X: %v", d, err)
		}
		if out != in {
			t.Fatalf("byte 0x%02X: got % X, want % X", d, out, in)
		}
	}
}

func TestDecodeReadResponse_ShortFrame(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
	}{
		{name: "empty (timeout)", frame: nil},
		{name: "truncated", frame: EncodeReadResponse(1, [4]byte{})[:12]},
		{name: "too long", frame: append(EncodeReadResponse(1, [4]byte{}), 0x00)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeReadResponse(tt.frame, 1)
			if !errors.Is(err, ErrInvalidFrame) {
				t.Errorf("expected invalid frame, got %v", err)
			}
		})
	}
}

func TestDecodeReadResponse_WrongRegister(t *testing.T) {
	frame := EncodeReadResponse(0x03, [4]byte{1, 2, 3, 4})
	_, err := DecodeReadResponse(frame, 0x04)
	if !errors.Is(err, ErrInvalidRegisterEcho) {
		t.Errorf("expected register echo error, got %v", err)
	}
}

func TestDecodeReadResponse_DeviceAddressIsRejected(t *testing.T) {
	frame := EncodeReadResponse(0x03, [4]byte{})
	frame[3] = 0x05
	frame[4] = Complement(0x05)
	_, err := DecodeReadResponse(frame, 0x03)
	if !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("expected invalid address, got %v", err)
	}
}

// expectedKindAt returns the error kind produced by corrupting byte i of a read response
func expectedKindAt(i int) ErrorKind {
	switch {
	case i <= 2, i == 7, i == 8, i >= 17:
		return KindInvalidFrame
	case i == 3, i == 4:
		return KindInvalidAddress
	case i == 5, i == 6:
		return KindInvalidRegisterEcho
	default:
		return KindInvalidComplement
	}
}

func TestDecodeReadResponse_SingleBitFlips(t *testing.T) {
	base := EncodeReadResponse(0x0A, [4]byte{0xDE, 0xAD, 0xBE, 0xEF})

	for i := 0; i < ReadResponseSize; i++ {
		for bit := 0; bit < 8; bit++ {
			frame := append([]byte(nil), base...)
			frame[i] ^= 1 << bit

			_, err := DecodeReadResponse(frame, 0x0A)
			if err == nil {
				t.Fatalf("byte %d bit %d: corruption not detected", i, bit)
			}
			if got, want := KindOf(err), expectedKindAt(i); got != want {
				t.Errorf("byte %d bit %d: got %v, want %v", i, bit, got, want)
			}
		}
	}
}

func TestDecodeWriteResponse(t *testing.T) {
	tests := []struct {
		name    string
		frame   []byte
		wantErr bool
	}{
		{name: "ack", frame: []byte{0x11, 0x11, 0x11}},
		{name: "empty", frame: nil, wantErr: true},
		{name: "short", frame: []byte{0x11, 0x11}, wantErr: true},
		{name: "corrupt", frame: []byte{0x11, 0x10, 0x11}, wantErr: true},
		{name: "long", frame: []byte{0x11, 0x11, 0x11, 0x11}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := DecodeWriteResponse(tt.frame)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidResponse) {
					t.Errorf("expected invalid response, got %v", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

// ============================================================
// Error Tests
// ============================================================

func TestErrorIs_MatchesKindOnly(t *testing.T) {
	err := Errorf(KindWrongMode, "mode is %s", "VELOCITY")
	if !errors.Is(err, ErrWrongMode) {
		t.Error("expected errors.Is to match sentinel of the same kind")
	}
	if errors.Is(err, ErrUnknownMode) {
		t.Error("errors.Is matched a sentinel of a different kind")
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	base := Errorf(KindInvalidComplement, "x")
	wrapped := errors.Join(errors.New("context"), base)
	if KindOf(wrapped) != KindInvalidComplement {
		t.Errorf("KindOf(wrapped) = %v", KindOf(wrapped))
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Error("plain errors should have unknown kind")
	}
}
