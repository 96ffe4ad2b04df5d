// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mac50

import (
	"encoding/binary"
	"time"

	"github.com/nosseb/macstat/pkg/mactalk"
	"github.com/nosseb/macstat/pkg/registers"
)

// ReadRaw reads the four data bytes of a register by address
func (d *Device) ReadRaw(register uint8) ([mactalk.DataSize]byte, error) {
	tx := mactalk.EncodeRead(d.address, register)
	start := time.Now()
	rx, err := d.roundTrip(tx, mactalk.ReadResponseSize)
	var data [mactalk.DataSize]byte
	if err == nil {
		data, err = mactalk.DecodeReadResponse(rx, register)
	}
	d.observe(mactalk.OpRead, register, tx, rx, start, err)
	return data, err
}

// WriteRaw writes data to a register by address and waits for the acknowledgement
func (d *Device) WriteRaw(register uint8, data []byte) error {
	tx, err := mactalk.EncodeWrite(d.address, register, data)
	if err != nil {
		return err
	}
	start := time.Now()
	rx, err := d.roundTrip(tx, mactalk.WriteResponseSize)
	if err == nil {
		err = mactalk.DecodeWriteResponse(rx)
	}
	d.observe(mactalk.OpWrite, register, tx, rx, start, err)
	return err
}

// ReadRegisterBytes reads a register and truncates the reply to its declared size
func (d *Device) ReadRegisterBytes(ref registers.Ref) ([]byte, error) {
	desc, err := d.table.Lookup(ref)
	if err != nil {
		return nil, err
	}
	data, err := d.ReadRaw(desc.Address)
	if err != nil {
		return nil, err
	}
	out := make([]byte, desc.Size)
	copy(out, data[:desc.Size])
	return out, nil
}

// ReadRegister reads a register as a little-endian integer
func (d *Device) ReadRegister(ref registers.Ref, signed bool) (int64, error) {
	b, err := d.ReadRegisterBytes(ref)
	if err != nil {
		return 0, err
	}
	return DecodeValue(b, signed), nil
}

// ReadValue reads a register using the signedness declared in the table
func (d *Device) ReadValue(ref registers.Ref) (int64, registers.Descriptor, error) {
	desc, err := d.table.Lookup(ref)
	if err != nil {
		return 0, desc, err
	}
	v, err := d.ReadRegister(registers.Addr(desc.Address), desc.Signed)
	return v, desc, err
}

// WriteRegister encodes value into exactly the register's declared size and writes it.
// Values from -2^(8n-1) to 2^(8n)-1 fit an n-byte register.
func (d *Device) WriteRegister(ref registers.Ref, value int64) error {
	desc, err := d.table.Lookup(ref)
	if err != nil {
		return err
	}
	b, err := EncodeValue(value, desc.Size)
	if err != nil {
		return err
	}
	return d.WriteRaw(desc.Address, b)
}

// WriteRegisterBytes writes raw bytes whose length must equal the register size
func (d *Device) WriteRegisterBytes(ref registers.Ref, data []byte) error {
	desc, err := d.table.Lookup(ref)
	if err != nil {
		return err
	}
	if len(data) != desc.Size {
		return mactalk.Errorf(mactalk.KindSizeMismatch,
			"%s expects %d bytes, got %d", desc.Name, desc.Size, len(data))
	}
	return d.WriteRaw(desc.Address, data)
}

// DecodeValue interprets up to 8 little-endian bytes as an integer
func DecodeValue(b []byte, signed bool) int64 {
	var buf [8]byte
	copy(buf[:], b)
	u := binary.LittleEndian.Uint64(buf[:])
	if !signed || len(b) == 0 || len(b) >= 8 {
		return int64(u)
	}
	shift := uint(64 - 8*len(b))
	return int64(u<<shift) >> shift
}

// EncodeValue encodes value little-endian into exactly size bytes (1 to 4)
func EncodeValue(value int64, size int) ([]byte, error) {
	if size < 1 || size > 4 {
		return nil, mactalk.Errorf(mactalk.KindInvalidParameter, "unsupported register size %d", size)
	}
	bits := uint(8 * size)
	lo := -(int64(1) << (bits - 1))
	hi := int64(1)<<bits - 1
	if value < lo || value > hi {
		return nil, mactalk.Errorf(mactalk.KindValueOutOfRange,
			"%d does not fit in %d bytes", value, size)
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(value))
	return buf[:size], nil
}
