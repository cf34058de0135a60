// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package parser_test

import (
	"github.com/ironcore-dev/rwe-utils/pciutils/pci"
	"github.com/ironcore-dev/rwe-utils/rweutils/codec"
	"github.com/ironcore-dev/rwe-utils/rweutils/parser"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseTopology", func() {

	It("should parse a single device line", func() {
		topology, err := parser.ParseTopology("Bus 00, Device 01, Function 00 - Sample Device\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(topology).To(Equal(pci.Topology{
			{Bus: 0, Device: 1, Function: 0}: "Sample Device",
		}))
	})

	It("should parse hex fields and skip unrelated lines", func() {
		report := "PCI Tree\r\n" +
			"Bus 00, Device 1F, Function 03 - Intel Corporation SMBus  \r\n" +
			"  +-- bridge\r\n" +
			"Bus 3A, Device 00, Function 00 - Samsung NVMe SSD Controller\r\n"

		topology, err := parser.ParseTopology(report)
		Expect(err).NotTo(HaveOccurred())
		Expect(topology).To(HaveLen(2))
		Expect(topology).To(HaveKeyWithValue(pci.Address{Device: 0x1f, Function: 3}, "Intel Corporation SMBus"))
		Expect(topology).To(HaveKeyWithValue(pci.Address{Bus: 0x3a}, "Samsung NVMe SSD Controller"))
	})

	It("should let the last duplicate win", func() {
		topology, err := parser.ParseTopology(
			"Bus 00, Device 01, Function 00 - first\nBus 00, Device 01, Function 00 - second\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(topology).To(Equal(pci.Topology{{Device: 1}: "second"}))
	})

	It("should return an empty topology for empty output", func() {
		topology, err := parser.ParseTopology("")
		Expect(err).NotTo(HaveOccurred())
		Expect(topology).To(BeEmpty())
	})

	It("should fail on out of range locations", func() {
		_, err := parser.ParseTopology("Bus 00, Device 20, Function 00 - broken\n")
		Expect(err).To(MatchError(codec.ErrParse))
	})
})
