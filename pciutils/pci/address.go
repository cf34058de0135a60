// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package pci

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

const (
	MaxDevice   = 31
	MaxFunction = 7
)

type Class uint32
type Vendor uint32

var (
	ClassNVMe Class = 0x010802

	VendorAny Vendor = 0
)

func (c Class) String() string {
	return fmt.Sprintf("%06x", uint32(c))
}

// Address locates a function on the PCI bus.
type Address struct {
	Bus      uint8
	Device   uint8
	Function uint8
}

func NewAddress(bus, device, function uint64) (Address, error) {
	if bus > 0xff || device > MaxDevice || function > MaxFunction {
		return Address{}, fmt.Errorf("invalid pci address %d/%d/%d", bus, device, function)
	}
	return Address{Bus: uint8(bus), Device: uint8(device), Function: uint8(function)}, nil
}

func (p Address) String() string {
	return fmt.Sprintf("%02x:%02x.%1x", p.Bus, p.Device, p.Function)
}

// ParseAddress parses the bb:dd.f notation written by String.
func ParseAddress(s string) (Address, error) {
	bus, rest, ok := strings.Cut(s, ":")
	if !ok {
		return Address{}, fmt.Errorf("invalid pci address %q", s)
	}
	device, function, ok := strings.Cut(rest, ".")
	if !ok {
		return Address{}, fmt.Errorf("invalid pci address %q", s)
	}

	var values [3]uint64
	for i, field := range []string{bus, device, function} {
		v, err := strconv.ParseUint(field, 16, 8)
		if err != nil {
			return Address{}, fmt.Errorf("invalid pci address %q: %w", s, err)
		}
		values[i] = v
	}
	return NewAddress(values[0], values[1], values[2])
}

func (p Address) Validate() error {
	if p.Device > MaxDevice || p.Function > MaxFunction {
		return fmt.Errorf("invalid pci address %s", p)
	}
	return nil
}

// Compare orders addresses by bus, device and function.
func (p Address) Compare(o Address) int {
	return cmp.Or(
		cmp.Compare(p.Bus, o.Bus),
		cmp.Compare(p.Device, o.Device),
		cmp.Compare(p.Function, o.Function),
	)
}

// Topology maps every enumerated function to its description.
type Topology map[Address]string

func (t Topology) Addresses() []Address {
	return slices.SortedFunc(maps.Keys(t), Address.Compare)
}

type Reader interface {
	Read(ctx context.Context) ([]Address, error)
}

// Diff returns the addresses only found in a and those only found in b,
// both sorted.
func Diff(a, b []Address) (onlyA, onlyB []Address) {
	inA := make(map[Address]bool, len(a))
	for _, addr := range a {
		inA[addr] = true
	}
	inB := make(map[Address]bool, len(b))
	for _, addr := range b {
		inB[addr] = true
		if !inA[addr] {
			onlyB = append(onlyB, addr)
		}
	}
	for _, addr := range a {
		if !inB[addr] {
			onlyA = append(onlyA, addr)
		}
	}
	slices.SortFunc(onlyA, Address.Compare)
	slices.SortFunc(onlyB, Address.Compare)
	return slices.Compact(onlyA), slices.Compact(onlyB)
}
