// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package nvme

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/ironcore-dev/rwe-utils/pciutils/device"
	"github.com/ironcore-dev/rwe-utils/pciutils/pci"
	"github.com/ironcore-dev/rwe-utils/rweutils/codec"
)

const (
	CompletionEntrySize = 16
	SubmissionEntrySize = 64

	completionEntryWords = CompletionEntrySize / codec.WordSize
	submissionEntryWords = SubmissionEntrySize / codec.WordSize

	DefaultPollInterval = 10 * time.Millisecond
)

var (
	ErrNotNVMe       = errors.New("not an NVMe controller")
	ErrRegisterWrite = errors.New("controller register write failed")
)

type CompletionEntry [completionEntryWords]uint32
type SubmissionEntry [submissionEntryWords]uint32

// AdminQueueEntries holds the admin queues in memory order.
type AdminQueueEntries struct {
	CompletionQueue []CompletionEntry
	SubmissionQueue []SubmissionEntry
}

// Options defines options to initialize an NVMe device
type Options struct {
	// PollInterval is the delay between CSTS reads during a reset.
	PollInterval time.Duration
}

func (o *Options) Defaults() {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
}

// Device is a PCI function verified to be an NVMe controller.
type Device struct {
	*device.Device

	log          logr.Logger
	pollInterval time.Duration
}

func NewDevice(ctx context.Context, log logr.Logger, channel device.Channel, address pci.Address, opts Options) (*Device, error) {
	opts.Defaults()

	pciDevice := device.New(channel, address)
	class, err := pciDevice.ClassCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read class code of %s: %w", address, err)
	}
	if class != pci.ClassNVMe {
		return nil, fmt.Errorf("%w: %s has class %s", ErrNotNVMe, address, class)
	}

	return &Device{
		Device:       pciDevice,
		log:          log.WithValues("address", address),
		pollInterval: opts.PollInterval,
	}, nil
}

func (d *Device) controllerRegisters(ctx context.Context, bar0 uint64) (Registers, error) {
	data, err := d.Channel().ReadMemory(ctx, bar0, RegisterSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read controller registers: %w", err)
	}
	return Registers(data), nil
}

// ControllerRegisters takes a snapshot of the registers behind BAR0.
func (d *Device) ControllerRegisters(ctx context.Context) (Registers, error) {
	bar0, err := d.BAR0(ctx)
	if err != nil {
		return nil, err
	}
	return d.controllerRegisters(ctx, bar0)
}

func (d *Device) Version(ctx context.Context) (Version, error) {
	registers, err := d.ControllerRegisters(ctx)
	if err != nil {
		return Version{}, err
	}
	return registers.Version()
}

func (d *Device) AdminQueueAttributes(ctx context.Context) (AdminQueueAttributes, error) {
	registers, err := d.ControllerRegisters(ctx)
	if err != nil {
		return AdminQueueAttributes{}, err
	}
	return registers.AdminQueueAttributes()
}

func (d *Device) AdminQueueAddresses(ctx context.Context) (AdminQueueAddresses, error) {
	registers, err := d.ControllerRegisters(ctx)
	if err != nil {
		return AdminQueueAddresses{}, err
	}
	return registers.AdminQueueAddresses()
}

func (d *Device) readQueue(ctx context.Context, base uint64, length uint32) ([]uint32, error) {
	if length == 0 {
		return nil, nil
	}
	data, err := d.Channel().ReadMemory(ctx, base, length)
	if err != nil {
		return nil, err
	}
	return codec.BytesToWords(data), nil
}

// AdminQueueEntries reads the raw admin submission and completion queues.
// Addresses and sizes come from a single register snapshot; the sizes are
// used as encoded in AQA.
func (d *Device) AdminQueueEntries(ctx context.Context) (AdminQueueEntries, error) {
	registers, err := d.ControllerRegisters(ctx)
	if err != nil {
		return AdminQueueEntries{}, err
	}
	addresses, err := registers.AdminQueueAddresses()
	if err != nil {
		return AdminQueueEntries{}, err
	}
	sizes, err := registers.AdminQueueAttributes()
	if err != nil {
		return AdminQueueEntries{}, err
	}

	sqWords, err := d.readQueue(ctx, addresses.SubmissionQueueBase, SubmissionEntrySize*uint32(sizes.SubmissionQueueSize))
	if err != nil {
		return AdminQueueEntries{}, fmt.Errorf("failed to read admin submission queue: %w", err)
	}
	cqWords, err := d.readQueue(ctx, addresses.CompletionQueueBase, CompletionEntrySize*uint32(sizes.CompletionQueueSize))
	if err != nil {
		return AdminQueueEntries{}, fmt.Errorf("failed to read admin completion queue: %w", err)
	}

	entries := AdminQueueEntries{
		CompletionQueue: make([]CompletionEntry, 0, sizes.CompletionQueueSize),
		SubmissionQueue: make([]SubmissionEntry, 0, sizes.SubmissionQueueSize),
	}
	for _, chunk := range codec.Chunk(cqWords, completionEntryWords) {
		entries.CompletionQueue = append(entries.CompletionQueue, CompletionEntry(chunk))
	}
	for _, chunk := range codec.Chunk(sqWords, submissionEntryWords) {
		entries.SubmissionQueue = append(entries.SubmissionQueue, SubmissionEntry(chunk))
	}
	return entries, nil
}
