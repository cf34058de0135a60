// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package pci_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironcore-dev/rwe-utils/pciutils/pci"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
)

// fakeSysfs lays out /sys/devices and the /sys/bus/pci/devices links the
// way the kernel does for functions directly below a host bridge.
type fakeSysfs string

func (root fakeSysfs) add(name string, class pci.Class, vendor pci.Vendor) {
	segment, _, _ := strings.Cut(name, ":")
	bridge := "pci" + segment + ":00"
	dir := filepath.Join(string(root), "devices", bridge, name)
	Expect(os.MkdirAll(dir, 0o755)).To(Succeed())

	attributes := map[string]string{
		"class":            fmt.Sprintf("0x%06x", uint32(class)),
		"vendor":           fmt.Sprintf("0x%04x", uint32(vendor)),
		"device":           "0x0001",
		"subsystem_vendor": fmt.Sprintf("0x%04x", uint32(vendor)),
		"subsystem_device": "0x0001",
		"revision":         "0x00",
	}
	for attribute, value := range attributes {
		Expect(os.WriteFile(filepath.Join(dir, attribute), []byte(value+"\n"), 0o644)).To(Succeed())
	}

	links := filepath.Join(string(root), "bus", "pci", "devices")
	Expect(os.MkdirAll(links, 0o755)).To(Succeed())
	Expect(os.Symlink(filepath.Join("..", "..", "..", "devices", bridge, name), filepath.Join(links, name))).To(Succeed())
}

var _ = Describe("SysfsReader", func() {
	var root fakeSysfs

	BeforeEach(func() {
		root = fakeSysfs(GinkgoT().TempDir())
		root.add("0000:04:00.0", pci.ClassNVMe, 0x8086)
		root.add("0000:03:00.0", pci.ClassNVMe, 0x144d)
		root.add("0000:00:1f.6", 0x020000, 0x8086)
		root.add("0001:05:00.0", pci.ClassNVMe, 0x144d)
	})

	read := func(ctx SpecContext, opts pci.SysfsOptions) []pci.Address {
		opts.MountPoint = string(root)
		reader, err := pci.NewSysfsReader(logf.Log.WithName("sysfs"), opts)
		Expect(err).NotTo(HaveOccurred())

		addresses, err := reader.Read(ctx)
		Expect(err).NotTo(HaveOccurred())
		return addresses
	}

	It("should list functions of a class in address order", func(ctx SpecContext) {
		Expect(read(ctx, pci.SysfsOptions{Class: pci.ClassNVMe})).To(Equal([]pci.Address{
			{Bus: 3},
			{Bus: 4},
		}))
	})

	It("should filter by vendor", func(ctx SpecContext) {
		Expect(read(ctx, pci.SysfsOptions{Class: pci.ClassNVMe, Vendor: 0x144d})).To(Equal([]pci.Address{{Bus: 3}}))
	})

	It("should fail without sysfs", func() {
		_, err := pci.NewSysfsReader(logf.Log, pci.SysfsOptions{MountPoint: filepath.Join(string(root), "missing")})
		Expect(err).To(HaveOccurred())
	})
})
