// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package nvme

import (
	"context"
	"errors"
	"fmt"

	"github.com/ironcore-dev/rwe-utils/pciutils/pci"
)

var ErrCrossCheck = errors.New("agent and host disagree on NVMe controllers")

// CrossCheckError lists the controllers seen by only one side.
type CrossCheckError struct {
	OnlyAgent []pci.Address
	OnlyHost  []pci.Address
}

func (e *CrossCheckError) Error() string {
	return fmt.Sprintf("%s: only agent %v, only host %v", ErrCrossCheck, e.OnlyAgent, e.OnlyHost)
}

func (e *CrossCheckError) Is(target error) bool {
	return target == ErrCrossCheck
}

// CrossCheck compares discovered devices with the NVMe controllers host
// enumerates on its own.
func CrossCheck(ctx context.Context, devices []*Device, host pci.Reader) error {
	hostAddresses, err := host.Read(ctx)
	if err != nil {
		return fmt.Errorf("failed to enumerate host pci devices: %w", err)
	}

	agentAddresses := make([]pci.Address, 0, len(devices))
	for _, d := range devices {
		agentAddresses = append(agentAddresses, d.Address())
	}

	onlyAgent, onlyHost := pci.Diff(agentAddresses, hostAddresses)
	if len(onlyAgent) > 0 || len(onlyHost) > 0 {
		return &CrossCheckError{OnlyAgent: onlyAgent, OnlyHost: onlyHost}
	}
	return nil
}
