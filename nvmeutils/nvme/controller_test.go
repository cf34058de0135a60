// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package nvme_test

import (
	"encoding/binary"

	"github.com/ironcore-dev/rwe-utils/nvmeutils/nvme"
	"github.com/ironcore-dev/rwe-utils/pciutils/pci"
	"github.com/ironcore-dev/rwe-utils/rweutils/rwe/fake"
)

const (
	bar0 = 0xFEB0_0000

	versionRegister = 0x0001_0400
	ccRegister      = 0x0046_0001
)

// controller describes a simulated NVMe controller behind the fake agent.
type controller struct {
	address   pci.Address
	class     uint32
	timeout   byte
	aqa       uint32
	asq       uint64
	acq       uint64
	ccFollows bool
	// stuckReady keeps CSTS.RDY at its value after the first CC write.
	stuckReady bool
}

func newController() *controller {
	return &controller{
		address:   pci.Address{Bus: 3},
		class:     0x010802,
		timeout:   1,
		aqa:       0x001F_001F,
		asq:       0x1_2345_6000,
		acq:       0x1_2345_7000,
		ccFollows: true,
	}
}

func (c *controller) install(agent *fake.Agent) {
	config := make([]byte, 256)
	config[0x09] = byte(c.class)
	config[0x0a] = byte(c.class >> 8)
	config[0x0b] = byte(c.class >> 16)
	binary.LittleEndian.PutUint32(config[0x10:], bar0|0x4)
	agent.SetConfig(c.address, config)

	registers := make([]byte, nvme.RegisterSize)
	binary.LittleEndian.PutUint64(registers[nvme.OffsetCAP:], uint64(c.timeout)<<24|0x3ff)
	binary.LittleEndian.PutUint32(registers[nvme.OffsetVS:], versionRegister)
	binary.LittleEndian.PutUint32(registers[nvme.OffsetCC:], ccRegister)
	binary.LittleEndian.PutUint32(registers[nvme.OffsetCSTS:], 1)
	binary.LittleEndian.PutUint32(registers[nvme.OffsetAQA:], c.aqa)
	binary.LittleEndian.PutUint64(registers[nvme.OffsetASQ:], c.asq)
	binary.LittleEndian.PutUint64(registers[nvme.OffsetACQ:], c.acq)
	agent.SetMemory(bar0, registers)

	if !c.ccFollows {
		return
	}
	ccWrites := 0
	agent.OnWrite = func(a *fake.Agent, address uint64, data []byte) {
		if address != bar0+nvme.OffsetCC {
			return
		}
		ccWrites++
		if c.stuckReady && ccWrites > 1 {
			return
		}
		a.SetMemory(bar0+nvme.OffsetCSTS, []byte{data[0] & 1})
	}
}
