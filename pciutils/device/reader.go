// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/ironcore-dev/rwe-utils/pciutils/pci"
)

type reader struct {
	log         logr.Logger
	channel     Channel
	classFilter pci.Class
}

// NewReader lists the functions of the agent's PCI tree whose class code
// matches classFilter.
func NewReader(log logr.Logger, channel Channel, classFilter pci.Class) pci.Reader {
	return &reader{
		log:         log,
		channel:     channel,
		classFilter: classFilter,
	}
}

func (r *reader) Read(ctx context.Context) ([]pci.Address, error) {
	topology, err := r.channel.PCITree(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read pci tree: %w", err)
	}

	var addresses []pci.Address
	for _, address := range topology.Addresses() {
		class, err := New(r.channel, address).ClassCode(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read class code of %s: %w", address, err)
		}
		if class != r.classFilter {
			r.log.V(3).Info("Skipping device, class not matching",
				"address", address, "expectedClass", r.classFilter, "foundClass", class)
			continue
		}

		r.log.V(1).Info("Found matching pci device", "address", address, "description", topology[address])
		addresses = append(addresses, address)
	}
	return addresses, nil
}
