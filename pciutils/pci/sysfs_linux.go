// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package pci

import (
	"context"
	"fmt"
	"slices"

	"github.com/go-logr/logr"
	"github.com/prometheus/procfs/sysfs"
)

type sysfsReader struct {
	log  logr.Logger
	fs   sysfs.FS
	opts SysfsOptions
}

// NewSysfsReader enumerates the host's PCI functions from sysfs without the
// agent. Only segment 0 is reported since the agent addresses no other.
func NewSysfsReader(log logr.Logger, opts SysfsOptions) (Reader, error) {
	mountPoint := opts.MountPoint
	if mountPoint == "" {
		mountPoint = sysfs.DefaultMountPoint
	}
	fs, err := sysfs.NewFS(mountPoint)
	if err != nil {
		return nil, fmt.Errorf("failed to open sysfs at %s: %w", mountPoint, err)
	}
	return &sysfsReader{log: log, fs: fs, opts: opts}, nil
}

func (r *sysfsReader) skipReason(device sysfs.PciDevice) string {
	switch {
	case device.Location.Segment != 0:
		return "segment not addressable"
	case Class(device.Class) != r.opts.Class:
		return "class not matching"
	case r.opts.Vendor != VendorAny && Vendor(device.Vendor) != r.opts.Vendor:
		return "vendor not matching"
	default:
		return ""
	}
}

func (r *sysfsReader) Read(_ context.Context) ([]Address, error) {
	devices, err := r.fs.PciDevices()
	if err != nil {
		return nil, fmt.Errorf("failed to read pci devices from sysfs: %w", err)
	}

	addresses := make([]Address, 0, len(devices))
	for _, device := range devices {
		if reason := r.skipReason(device); reason != "" {
			r.log.V(3).Info("Skipping sysfs device", "device", device.Name(), "reason", reason,
				"class", Class(device.Class), "vendor", device.Vendor)
			continue
		}

		address, err := NewAddress(uint64(device.Location.Bus), uint64(device.Location.Device), uint64(device.Location.Function))
		if err != nil {
			return nil, fmt.Errorf("sysfs device %s: %w", device.Name(), err)
		}
		addresses = append(addresses, address)
	}
	slices.SortFunc(addresses, Address.Compare)

	r.log.V(1).Info("Read sysfs pci devices", "matching", len(addresses), "total", len(devices))
	return addresses, nil
}
