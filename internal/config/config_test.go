// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package config_test

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-logr/logr"
	"github.com/ironcore-dev/rwe-utils/internal/config"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	write := func(content string) string {
		path := filepath.Join(GinkgoT().TempDir(), "rwectl.yaml")
		Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())
		return path
	}

	It("should load all settings", func() {
		cfg, err := config.Load(write(`
agent:
  path: D:\tools\Rw.exe
  version: "1.7"
  scratchFile: D:\tmp\scratch.bin
  commandTimeout: 45s
nvme:
  pollInterval: 20ms
journal:
  maxEntries: 16
  ttl: 10m
  maxOutputSize: 1024
`))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Agent).To(Equal(config.Agent{
			Path:           `D:\tools\Rw.exe`,
			Version:        "1.7",
			ScratchFile:    `D:\tmp\scratch.bin`,
			CommandTimeout: 45 * time.Second,
		}))
		Expect(cfg.NVMeOptions().PollInterval).To(Equal(20 * time.Millisecond))
		Expect(cfg.Journal).To(Equal(config.Journal{MaxEntries: 16, TTL: 10 * time.Minute, MaxOutputSize: 1024}))

		opts := cfg.ClientOptions(nil, nil)
		Expect(opts.Path).To(Equal(`D:\tools\Rw.exe`))
		Expect(opts.CommandTimeout).To(Equal(45 * time.Second))
	})

	It("should default a missing file", func() {
		cfg, err := config.Load(filepath.Join(GinkgoT().TempDir(), "missing.yaml"))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Agent.Path).To(Equal(config.DefaultAgentPath))
	})

	It("should accept an empty file", func() {
		cfg, err := config.Load(write(""))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Agent.Path).To(Equal(config.DefaultAgentPath))
		Expect(cfg.NewJournal(logr.Discard()).List()).To(BeEmpty())
	})

	It("should reject unknown fields", func() {
		_, err := config.Load(write("agent:\n  pth: Rw.exe\n"))
		Expect(err).To(HaveOccurred())
	})
})
