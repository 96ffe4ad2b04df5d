// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package mactalk implements the framing layer of the JVL MacTalk serial protocol.
//
// MacTalk is a point-to-point binary protocol between a host and a single MAC
// motor controller. Every field on the wire is sent together with its bitwise
// complement, which is the protocol's only corruption-detection mechanism.
// This package builds command frames and validates response frames; it does not
// perform any I/O.
package mactalk

// Synchronization and terminator bytes
const (
	SyncRead  = 0x50
	SyncWrite = 0x52
	SyncReply = 0x52
	EndByte   = 0xAA
	AckByte   = 0x11
)

// Frame sizes
const (
	ReadCommandSize   = 9
	ReadResponseSize  = 19
	WriteResponseSize = 3
	WriteOverhead     = 11 // sync(3) + addr(2) + reg(2) + len(2) + end(2)
	MaxPayloadSize    = 255
	DataSize          = 4
)

// Special addresses
const (
	AddressMaster    = 0x00
	AddressBroadcast = 0xFF
)

// Read responses always carry four data bytes.
const replyLength = 0x04

// Complement returns the bitwise complement of b as transmitted on the wire.
func Complement(b byte) byte {
	return 0xFF ^ b
}
