// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package registers

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/nosseb/macstat/pkg/mactalk"
)

//go:embed registers.yaml
var defaultTableYAML []byte

// Table is an immutable, bijective mapping between register names and addresses
type Table struct {
	byName    map[string]Descriptor
	byAddress map[uint8]Descriptor
}

type tableFile struct {
	Registers []Descriptor `yaml:"registers"`
}

// New builds a table from descriptors. It fails with KindMalformedTable when
// names or addresses collide, or a descriptor is unusable.
func New(descriptors []Descriptor) (*Table, error) {
	t := &Table{
		byName:    make(map[string]Descriptor, len(descriptors)),
		byAddress: make(map[uint8]Descriptor, len(descriptors)),
	}

	for i, d := range descriptors {
		d.Name = Name(d.Name).name
		if d.Name == "" {
			return nil, malformed("entry %d has no name", i)
		}
		switch d.Size {
		case 1, 2, 4:
		default:
			return nil, malformed("%s: size %d is not 1, 2 or 4", d.Name, d.Size)
		}
		if d.Min > d.Max {
			return nil, malformed("%s: min %d greater than max %d", d.Name, d.Min, d.Max)
		}
		if prev, ok := t.byName[d.Name]; ok {
			return nil, malformed("name %s used by #%d and #%d", d.Name, prev.Address, d.Address)
		}
		if prev, ok := t.byAddress[d.Address]; ok {
			return nil, malformed("address %d used by %s and %s", d.Address, prev.Name, d.Name)
		}
		t.byName[d.Name] = d
		t.byAddress[d.Address] = d
	}

	return t, nil
}

func malformed(format string, args ...interface{}) error {
	return mactalk.Errorf(mactalk.KindMalformedTable, format, args...)
}

// Load reads a YAML register table
func Load(r io.Reader) (*Table, error) {
	var f tableFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, malformed("decode table: %v", err)
	}
	return New(f.Registers)
}

// LoadFile reads a YAML register table from path
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("registers: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Default returns the built-in MAC50/MAC95 register table
func Default() *Table {
	t, err := Load(bytes.NewReader(defaultTableYAML))
	if err != nil {
		panic(fmt.Sprintf("registers: embedded table: %v", err))
	}
	return t
}

// Lookup resolves a reference to its descriptor
func (t *Table) Lookup(ref Ref) (Descriptor, error) {
	var (
		d  Descriptor
		ok bool
	)
	switch ref.kind {
	case refName:
		d, ok = t.byName[ref.name]
	case refAddress:
		d, ok = t.byAddress[ref.address]
	default:
		return Descriptor{}, mactalk.Errorf(mactalk.KindInvalidParameter, "invalid register reference")
	}
	if !ok {
		return Descriptor{}, mactalk.Errorf(mactalk.KindUnknownRegister, "%s", ref)
	}
	return d, nil
}

// MustLookup is Lookup for references known to exist; it panics otherwise
func (t *Table) MustLookup(ref Ref) Descriptor {
	d, err := t.Lookup(ref)
	if err != nil {
		panic(err)
	}
	return d
}

// All returns every descriptor ordered by address
func (t *Table) All() []Descriptor {
	all := make([]Descriptor, 0, len(t.byAddress))
	for _, d := range t.byAddress {
		all = append(all, d)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Address < all[j].Address })
	return all
}

// Len returns the number of registers in the table
func (t *Table) Len() int {
	return len(t.byAddress)
}
