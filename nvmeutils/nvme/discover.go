// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package nvme

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/ironcore-dev/rwe-utils/pciutils/device"
	"github.com/ironcore-dev/rwe-utils/pciutils/pci"
)

// Discover returns every NVMe controller in the agent's PCI tree in address
// order.
func Discover(ctx context.Context, log logr.Logger, channel device.Channel, opts Options) ([]*Device, error) {
	addresses, err := device.NewReader(log, channel, pci.ClassNVMe).Read(ctx)
	if err != nil {
		return nil, err
	}

	devices := make([]*Device, 0, len(addresses))
	for _, address := range addresses {
		d, err := NewDevice(ctx, log, channel, address, opts)
		if err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, nil
}
