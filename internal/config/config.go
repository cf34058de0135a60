// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the rwectl configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/ironcore-dev/rwe-utils/nvmeutils/nvme"
	"github.com/ironcore-dev/rwe-utils/rweutils/journal"
	"github.com/ironcore-dev/rwe-utils/rweutils/rwe"
	"gopkg.in/yaml.v3"
)

const DefaultAgentPath = `C:\Program Files\RW-Everything\Rw.exe`

type Agent struct {
	Path           string        `yaml:"path"`
	Version        string        `yaml:"version"`
	ScratchFile    string        `yaml:"scratchFile"`
	CommandTimeout time.Duration `yaml:"commandTimeout"`
}

type NVMe struct {
	PollInterval time.Duration `yaml:"pollInterval"`
}

type Journal struct {
	MaxEntries    int           `yaml:"maxEntries"`
	TTL           time.Duration `yaml:"ttl"`
	MaxOutputSize int           `yaml:"maxOutputSize"`
}

type Config struct {
	Agent   Agent   `yaml:"agent"`
	NVMe    NVMe    `yaml:"nvme"`
	Journal Journal `yaml:"journal"`
}

func (c *Config) Defaults() {
	if c.Agent.Path == "" {
		c.Agent.Path = DefaultAgentPath
	}
}

// Load reads the configuration at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		cfg.Defaults()
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg.Defaults()
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := decode(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.Defaults()
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) ClientOptions(executor rwe.Executor, recorder journal.Recorder) rwe.Options {
	return rwe.Options{
		Path:           c.Agent.Path,
		Version:        c.Agent.Version,
		ScratchFile:    c.Agent.ScratchFile,
		CommandTimeout: c.Agent.CommandTimeout,
		Executor:       executor,
		Journal:        recorder,
	}
}

func (c *Config) NVMeOptions() nvme.Options {
	return nvme.Options{PollInterval: c.NVMe.PollInterval}
}

func (c *Config) NewJournal(log logr.Logger) *journal.Journal {
	return journal.New(log, journal.Options{
		MaxEntries:    c.Journal.MaxEntries,
		TTL:           c.Journal.TTL,
		MaxOutputSize: c.Journal.MaxOutputSize,
	})
}
