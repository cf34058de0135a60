// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ironcore-dev/rwe-utils/pciutils/pci"
	"github.com/ironcore-dev/rwe-utils/rweutils/codec"
)

var topologyLine = regexp.MustCompile(`Bus ([0-9A-Fa-f]+), Device ([0-9A-Fa-f]+), Function ([0-9A-Fa-f]+) - (.*)`)

// ParseTopology reads the PCITREE report. Lines not matching the device line
// grammar are skipped. If a location is reported twice, the last line wins.
func ParseTopology(text string) (pci.Topology, error) {
	topology := pci.Topology{}
	for _, m := range topologyLine.FindAllStringSubmatch(text, -1) {
		var fields [3]uint64
		for i := range fields {
			v, err := strconv.ParseUint(m[i+1], 16, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %w", codec.ErrParse, m[0], err)
			}
			fields[i] = v
		}

		address, err := pci.NewAddress(fields[0], fields[1], fields[2])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", codec.ErrParse, err)
		}
		topology[address] = strings.TrimSpace(m[4])
	}
	return topology, nil
}
