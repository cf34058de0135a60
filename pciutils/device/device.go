// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ironcore-dev/rwe-utils/pciutils/pci"
	"github.com/ironcore-dev/rwe-utils/rweutils/codec"
	"github.com/ironcore-dev/rwe-utils/rweutils/rwe"
)

const (
	ClassCodeOffset = 0x09
	BAROffset       = 0x10
	BARCount        = 6

	barFlagsMask = 0xF
)

var (
	ErrShortConfigSpace = fmt.Errorf("%w: configuration space too short", codec.ErrParse)
	ErrNoBAR0           = errors.New("BAR0 is not populated")
)

// Channel is the part of the agent client a device needs.
type Channel interface {
	ReadMemory(ctx context.Context, address uint64, length uint32) ([]byte, error)
	WriteMemory(ctx context.Context, address uint64, data []byte) (rwe.ProcessOutput, error)
	ReadPCIConfig(ctx context.Context, addr pci.Address) ([]byte, error)
	WritePCIConfig(ctx context.Context, addr pci.Address, data []byte) (rwe.ProcessOutput, error)
	PCITree(ctx context.Context) (pci.Topology, error)
}

var _ Channel = &rwe.Client{}

// Device is a PCI function reached through a shared channel.
type Device struct {
	channel Channel
	address pci.Address
}

func New(channel Channel, address pci.Address) *Device {
	return &Device{
		channel: channel,
		address: address,
	}
}

func (d *Device) Address() pci.Address {
	return d.address
}

func (d *Device) Channel() Channel {
	return d.channel
}

func (d *Device) ReadConfigSpace(ctx context.Context) ([]byte, error) {
	return d.channel.ReadPCIConfig(ctx, d.address)
}

func (d *Device) WriteConfigSpace(ctx context.Context, data []byte) (rwe.ProcessOutput, error) {
	return d.channel.WritePCIConfig(ctx, d.address, data)
}

// ClassCode decodes the 24 bit class code from a configuration space.
func ClassCode(config []byte) (pci.Class, error) {
	if len(config) < ClassCodeOffset+3 {
		return 0, ErrShortConfigSpace
	}
	raw := config[ClassCodeOffset : ClassCodeOffset+3]
	return pci.Class(uint32(raw[0]) | uint32(raw[1])<<8 | uint32(raw[2])<<16), nil
}

// BARAddresses decodes the six base address registers with their flag bits
// cleared. Unpopulated BARs are returned as zero.
func BARAddresses(config []byte) ([BARCount]uint64, error) {
	var bars [BARCount]uint64
	if len(config) < BAROffset+BARCount*codec.WordSize {
		return bars, ErrShortConfigSpace
	}
	for i := range bars {
		offset := BAROffset + i*codec.WordSize
		bars[i] = uint64(binary.LittleEndian.Uint32(config[offset:]) &^ barFlagsMask)
	}
	return bars, nil
}

func (d *Device) ClassCode(ctx context.Context) (pci.Class, error) {
	config, err := d.ReadConfigSpace(ctx)
	if err != nil {
		return 0, err
	}
	return ClassCode(config)
}

func (d *Device) BARAddresses(ctx context.Context) ([BARCount]uint64, error) {
	config, err := d.ReadConfigSpace(ctx)
	if err != nil {
		return [BARCount]uint64{}, err
	}
	return BARAddresses(config)
}

// BAR0 returns the first base address and fails if it is not populated.
func (d *Device) BAR0(ctx context.Context) (uint64, error) {
	bars, err := d.BARAddresses(ctx)
	if err != nil {
		return 0, err
	}
	if bars[0] == 0 {
		return 0, fmt.Errorf("%s: %w", d.address, ErrNoBAR0)
	}
	return bars[0], nil
}
