// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package registers provides the immutable register table of a MAC motor.
//
// A table maps register names and numeric addresses to descriptors carrying
// the register's byte size, valid range, unit and description. Tables are
// loaded once from YAML and never mutated afterwards, so they can be shared
// without synchronization.
package registers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nosseb/macstat/pkg/mactalk"
)

// Descriptor describes one device register
type Descriptor struct {
	Name        string `yaml:"name"`
	Address     uint8  `yaml:"address"`
	Size        int    `yaml:"size"`
	Signed      bool   `yaml:"signed"`
	ReadOnly    bool   `yaml:"read_only"`
	Unit        string `yaml:"unit"`
	Min         int64  `yaml:"min"`
	Max         int64  `yaml:"max"`
	Description string `yaml:"description"`
}

// InRange reports whether v lies in the descriptor's documented range
func (d Descriptor) InRange(v int64) bool {
	return v >= d.Min && v <= d.Max
}

// String returns "NAME (#addr)"
func (d Descriptor) String() string {
	return fmt.Sprintf("%s (#%d)", d.Name, d.Address)
}

type refKind int

const (
	refName refKind = iota + 1
	refAddress
)

// Ref identifies a register by name or by numeric address.
// The zero Ref is invalid.
type Ref struct {
	kind    refKind
	name    string
	address uint8
}

// Name returns a reference to the register called name (case-insensitive)
func Name(name string) Ref {
	return Ref{kind: refName, name: strings.ToUpper(strings.TrimSpace(name))}
}

// Addr returns a reference to the register at address
func Addr(address uint8) Ref {
	return Ref{kind: refAddress, address: address}
}

// ParseRef interprets s as a register address when it is numeric (decimal or
// 0x-prefixed hex), otherwise as a register name.
func ParseRef(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Ref{}, mactalk.Errorf(mactalk.KindInvalidParameter, "empty register identifier")
	}
	n, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return Name(s), nil
	}
	if n < 0 || n > 255 {
		return Ref{}, mactalk.Errorf(mactalk.KindInvalidParameter, "register address %d outside 0-255", n)
	}
	return Addr(uint8(n)), nil
}

// String returns the name or "#address"
func (r Ref) String() string {
	switch r.kind {
	case refName:
		return r.name
	case refAddress:
		return fmt.Sprintf("#%d", r.address)
	default:
		return "<invalid>"
	}
}
