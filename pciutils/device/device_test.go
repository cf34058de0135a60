// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package device_test

import (
	"encoding/binary"

	"github.com/ironcore-dev/rwe-utils/pciutils/device"
	"github.com/ironcore-dev/rwe-utils/pciutils/pci"
	"github.com/ironcore-dev/rwe-utils/rweutils/codec"
	"github.com/ironcore-dev/rwe-utils/rweutils/rwe"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
)

func configSpace(class uint32, bars ...uint32) []byte {
	config := make([]byte, 256)
	config[0x09] = byte(class)
	config[0x0a] = byte(class >> 8)
	config[0x0b] = byte(class >> 16)
	config[0x0c] = 0x10 // cache line size, must not leak into the class code
	for i, bar := range bars {
		binary.LittleEndian.PutUint32(config[device.BAROffset+4*i:], bar)
	}
	return config
}

var _ = Describe("Device", func() {
	address := pci.Address{Bus: 2}

	It("should decode the class code", func(ctx SpecContext) {
		agent.SetConfig(address, configSpace(0x010802))

		class, err := device.New(client, address).ClassCode(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(class).To(Equal(pci.ClassNVMe))
	})

	It("should clear the BAR flag bits and keep empty BARs", func(ctx SpecContext) {
		agent.SetConfig(address, configSpace(0x020000, 0x12345678, 0, 0xfebf100c))

		bars, err := device.New(client, address).BARAddresses(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(bars).To(Equal([device.BARCount]uint64{0x12345670, 0, 0xfebf1000, 0, 0, 0}))
	})

	It("should require a populated BAR0", func(ctx SpecContext) {
		agent.SetConfig(address, configSpace(0x020000))

		_, err := device.New(client, address).BAR0(ctx)
		Expect(err).To(MatchError(device.ErrNoBAR0))
	})

	It("should fail on truncated configuration space", func() {
		_, err := device.ClassCode([]byte{0, 0, 0})
		Expect(err).To(MatchError(codec.ErrParse))

		_, err = device.BARAddresses(make([]byte, 0x20))
		Expect(err).To(MatchError(device.ErrShortConfigSpace))
	})

	It("should write configuration space", func(ctx SpecContext) {
		agent.SetConfig(address, configSpace(0x020000))
		d := device.New(client, address)

		config, err := d.ReadConfigSpace(ctx)
		Expect(err).NotTo(HaveOccurred())
		config[0x04] = 0x06

		out, err := d.WriteConfigSpace(ctx, config)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.ExitCode).To(BeZero())
		Expect(agent.Config(address)[0x04]).To(Equal(byte(0x06)))
	})

	It("should surface rejected configuration writes", func(ctx SpecContext) {
		agent.ExitCodes["LOAD"] = 4

		_, err := device.New(client, address).WriteConfigSpace(ctx, []byte{0})
		Expect(err).To(MatchError(rwe.ErrAgentRejected))
	})
})

var _ = Describe("Reader", func() {
	It("should list functions of one class in address order", func(ctx SpecContext) {
		agent.SetTree("Bus 04, Device 00, Function 00 - NVMe B\r\n" +
			"Bus 00, Device 1F, Function 06 - Ethernet\r\n" +
			"Bus 03, Device 00, Function 00 - NVMe A\r\n")
		agent.SetConfig(pci.Address{Bus: 4}, configSpace(0x010802))
		agent.SetConfig(pci.Address{Device: 0x1f, Function: 6}, configSpace(0x020000))
		agent.SetConfig(pci.Address{Bus: 3}, configSpace(0x010802))

		addresses, err := device.NewReader(logf.Log, client, pci.ClassNVMe).Read(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(addresses).To(Equal([]pci.Address{{Bus: 3}, {Bus: 4}}))
	})

	It("should fail if a listed function cannot be read", func(ctx SpecContext) {
		agent.SetTree("Bus 00, Device 01, Function 00 - gone\r\n")

		_, err := device.NewReader(logf.Log, client, pci.ClassNVMe).Read(ctx)
		Expect(err).To(MatchError(rwe.ErrAgentRejected))
	})
})
