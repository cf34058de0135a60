// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package rwe

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/ironcore-dev/rwe-utils/pciutils/pci"
	"github.com/ironcore-dev/rwe-utils/rweutils/journal"
	"github.com/ironcore-dev/rwe-utils/rweutils/parser"
)

const (
	DefaultScratchFileName = "rwe-utils-scratch.bin"
	DefaultCommandTimeout  = 30 * time.Second

	rawVerb = "RAW"
)

// verbs are the embedded commands reported by name in metrics, everything
// else is counted as rawVerb.
var verbs = map[string]bool{
	"SAVE":    true,
	"LOAD":    true,
	"PCITREE": true,
	"COUT":    true,
}

// ProcessOutput is the result of a single agent invocation.
type ProcessOutput struct {
	Command  string
	Output   string
	ExitCode int
}

// Err returns an *AgentError if the agent exited with a non-zero code.
func (o ProcessOutput) Err() error {
	if o.ExitCode == 0 {
		return nil
	}
	return &AgentError{Command: o.Command, ExitCode: o.ExitCode, Output: o.Output}
}

// Options defines options to initialize the agent client
type Options struct {
	// Path of the agent executable.
	Path string
	// Version is the verified agent version string, reported as is.
	Version string
	// ScratchFile is the file used to move data from and to the agent.
	ScratchFile string
	// CommandTimeout bounds a single agent invocation, a negative value
	// disables the bound.
	CommandTimeout time.Duration
	Executor       Executor
	Journal        journal.Recorder
}

func (o *Options) Defaults() {
	if o.ScratchFile == "" {
		o.ScratchFile = filepath.Join(os.TempDir(), DefaultScratchFileName)
	}

	if o.CommandTimeout == 0 {
		o.CommandTimeout = DefaultCommandTimeout
	}

	if o.Executor == nil {
		o.Executor = NewExecutor()
	}
}

// Client is the command channel to one agent executable. All operations
// are serialized: the scratch file is shared between them.
type Client struct {
	log            logr.Logger
	path           string
	version        string
	scratchFile    string
	commandTimeout time.Duration
	executor       Executor
	journal        journal.Recorder

	mutex sync.Mutex
}

func NewClient(log logr.Logger, opts Options) (*Client, error) {
	if opts.Path == "" {
		return nil, ErrNoAgentPath
	}
	opts.Defaults()

	return &Client{
		log:            log,
		path:           opts.Path,
		version:        opts.Version,
		scratchFile:    opts.ScratchFile,
		commandTimeout: opts.CommandTimeout,
		executor:       opts.Executor,
		journal:        opts.Journal,
	}, nil
}

func (c *Client) Path() string {
	return c.path
}

func (c *Client) Version() string {
	return c.version
}

func (c *Client) execute(ctx context.Context, verb, args string) (ProcessOutput, error) {
	if c.commandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.commandTimeout)
		defer cancel()
	}

	log := c.log.WithValues("args", args)
	log.V(2).Info("Calling agent")

	start := time.Now()
	output, exitCode, err := c.executor.Execute(ctx, c.path, args)
	duration := time.Since(start)
	observeCommand(verb, exitCode, err, duration)
	if err != nil {
		return ProcessOutput{}, fmt.Errorf("failed to run agent %s: %w", c.path, err)
	}

	out := ProcessOutput{Command: args, Output: string(output), ExitCode: exitCode}
	if c.journal != nil {
		c.journal.Record(args, exitCode, out.Output, duration)
	}
	log.V(2).Info("Agent returned", "exitCode", exitCode, "duration", duration)

	return out, nil
}

func wrapCommand(inner string) string {
	return fmt.Sprintf(`/Min /Nologo /Stdout /Command="%s"`, strings.ReplaceAll(inner, `"`, `\"`))
}

func commandVerb(inner string) string {
	fields := strings.Fields(inner)
	if len(fields) == 0 {
		return rawVerb
	}
	verb := strings.ToUpper(strings.TrimSuffix(fields[0], ";"))
	if !verbs[verb] {
		return rawVerb
	}
	return verb
}

func (c *Client) executeCommand(ctx context.Context, inner string) (ProcessOutput, error) {
	return c.execute(ctx, commandVerb(inner), wrapCommand(inner))
}

// ExecuteRaw passes commandLine to the agent unchanged.
func (c *Client) ExecuteRaw(ctx context.Context, commandLine string) (ProcessOutput, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.execute(ctx, rawVerb, commandLine)
}

// ExecuteCommand runs an embedded agent command.
func (c *Client) ExecuteCommand(ctx context.Context, command string) (ProcessOutput, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.executeCommand(ctx, command)
}

// Probe checks that the executable at Path behaves like the agent.
func (c *Client) Probe(ctx context.Context) error {
	out, err := c.ExecuteCommand(ctx, "COUT Hello World;rwexit")
	if err != nil {
		return err
	}
	if !strings.Contains(out.Output, "Hello World") {
		return fmt.Errorf("%w: %s", ErrInvalidAgent, c.path)
	}
	return nil
}

func (c *Client) removeScratch() error {
	if err := os.Remove(c.scratchFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove scratch file: %w", err)
	}
	return nil
}

func (c *Client) readScratch() ([]byte, error) {
	data, err := os.ReadFile(c.scratchFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read scratch file: %w", err)
	}
	return data, nil
}

func (c *Client) writeScratch(data []byte) error {
	if err := os.WriteFile(c.scratchFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write scratch file: %w", err)
	}
	return nil
}

// ReadMemory reads length bytes of physical memory at address.
func (c *Client) ReadMemory(ctx context.Context, address uint64, length uint32) (data []byte, err error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	defer func() {
		if err = errors.Join(err, c.removeScratch()); err != nil {
			data = nil
		}
	}()

	out, err := c.executeCommand(ctx, fmt.Sprintf(`SAVE "%s" Memory 0x%X %d`, c.scratchFile, address, length))
	if err != nil {
		return nil, err
	}
	if err := out.Err(); err != nil {
		return nil, err
	}
	if err := parser.VerifyAddress(address, out.Output); err != nil {
		return nil, err
	}

	data, err = c.readScratch()
	if err != nil {
		return nil, err
	}
	if uint64(len(data)) != uint64(length) {
		return nil, fmt.Errorf("%w: got %d of %d bytes", ErrShortRead, len(data), length)
	}
	return data, nil
}

// WriteMemory writes data to physical memory at address. The returned error
// is an *AgentError if the agent rejected the write and an
// *parser.AddressMismatchError if it wrote somewhere else.
func (c *Client) WriteMemory(ctx context.Context, address uint64, data []byte) (out ProcessOutput, err error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	defer func() {
		err = errors.Join(err, c.removeScratch())
	}()

	if err := c.writeScratch(data); err != nil {
		return ProcessOutput{}, err
	}

	out, err = c.executeCommand(ctx, fmt.Sprintf(`LOAD "%s" Memory %d`, c.scratchFile, address))
	if err != nil {
		return ProcessOutput{}, err
	}
	if err := out.Err(); err != nil {
		return out, err
	}
	return out, parser.VerifyAddress(address, out.Output)
}

// ReadPCIConfig reads the configuration space of the function at addr.
func (c *Client) ReadPCIConfig(ctx context.Context, addr pci.Address) (data []byte, err error) {
	if err := addr.Validate(); err != nil {
		return nil, err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	defer func() {
		if err = errors.Join(err, c.removeScratch()); err != nil {
			data = nil
		}
	}()

	out, err := c.executeCommand(ctx, fmt.Sprintf(`SAVE "%s" PCI %d %d %d`, c.scratchFile, addr.Bus, addr.Device, addr.Function))
	if err != nil {
		return nil, err
	}
	if err := out.Err(); err != nil {
		return nil, err
	}

	return c.readScratch()
}

// WritePCIConfig writes data to the configuration space of the function at
// addr. The agent expects the Memory target with a bus/device/function
// triple for this.
func (c *Client) WritePCIConfig(ctx context.Context, addr pci.Address, data []byte) (out ProcessOutput, err error) {
	if err := addr.Validate(); err != nil {
		return ProcessOutput{}, err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	defer func() {
		err = errors.Join(err, c.removeScratch())
	}()

	if err := c.writeScratch(data); err != nil {
		return ProcessOutput{}, err
	}

	out, err = c.executeCommand(ctx, fmt.Sprintf(`LOAD "%s" Memory %d %d %d`, c.scratchFile, addr.Bus, addr.Device, addr.Function))
	if err != nil {
		return ProcessOutput{}, err
	}
	return out, out.Err()
}

// PCITree enumerates all PCI functions known to the agent.
func (c *Client) PCITree(ctx context.Context) (pci.Topology, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	out, err := c.executeCommand(ctx, "PCITREE")
	if err != nil {
		return nil, err
	}
	if err := out.Err(); err != nil {
		return nil, err
	}

	topology, err := parser.ParseTopology(out.Output)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pci tree: %w", err)
	}
	c.log.V(1).Info("Read pci tree", "functions", len(topology))

	return topology, nil
}
