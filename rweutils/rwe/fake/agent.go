// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package fake provides an in-memory RW-Everything agent for tests.
package fake

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/ironcore-dev/rwe-utils/pciutils/pci"
	"github.com/ironcore-dev/rwe-utils/rweutils/rwe"
)

const commandFlag = "/Command="

// WriteHook is called after the agent stored data at address.
type WriteHook func(a *Agent, address uint64, data []byte)

// Agent implements rwe.Executor on top of sparse physical memory and a set
// of configuration spaces.
type Agent struct {
	mutex    sync.Mutex
	memory   map[uint64]byte
	config   map[pci.Address][]byte
	tree     string
	commands []string

	// AddressMask is applied to memory addresses before they are used and
	// echoed, zero means no mask.
	AddressMask uint64
	// ExitCodes forces an exit code for a command verb such as "SAVE".
	ExitCodes map[string]int
	// OmitEcho drops the address echo from memory command output.
	OmitEcho bool
	OnWrite  WriteHook
}

var _ rwe.Executor = &Agent{}

func NewAgent() *Agent {
	return &Agent{
		memory:    map[uint64]byte{},
		config:    map[pci.Address][]byte{},
		ExitCodes: map[string]int{},
	}
}

func (a *Agent) SetMemory(address uint64, data []byte) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	for i, b := range data {
		a.memory[address+uint64(i)] = b
	}
}

func (a *Agent) Memory(address uint64, length int) []byte {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	return a.readMemory(address, length)
}

func (a *Agent) readMemory(address uint64, length int) []byte {
	data := make([]byte, length)
	for i := range data {
		data[i] = a.memory[address+uint64(i)]
	}
	return data
}

func (a *Agent) SetConfig(addr pci.Address, data []byte) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.config[addr] = append([]byte(nil), data...)
}

func (a *Agent) Config(addr pci.Address) []byte {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	return append([]byte(nil), a.config[addr]...)
}

func (a *Agent) SetTree(tree string) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.tree = tree
}

// Commands returns the embedded commands executed so far.
func (a *Agent) Commands() []string {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	return append([]string(nil), a.commands...)
}

type pendingWrite struct {
	address uint64
	data    []byte
}

func (a *Agent) Execute(ctx context.Context, _ string, args string) ([]byte, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, -1, err
	}

	fields, err := rwe.SplitCommandLine(args)
	if err != nil {
		return nil, -1, err
	}

	var inner string
	for _, field := range fields {
		if strings.HasPrefix(field, commandFlag) {
			inner = strings.TrimPrefix(field, commandFlag)
		}
	}
	if inner == "" {
		return []byte("RW - Read Write Utility\r\n"), 0, nil
	}

	var (
		output strings.Builder
		writes []pendingWrite
	)
	exitCode := func() int {
		a.mutex.Lock()
		defer a.mutex.Unlock()

		for _, statement := range strings.Split(inner, ";") {
			code, write := a.run(statement, &output)
			if write != nil {
				writes = append(writes, *write)
			}
			if code != 0 {
				return code
			}
		}
		return 0
	}()

	if a.OnWrite != nil {
		for _, w := range writes {
			a.OnWrite(a, w.address, w.data)
		}
	}
	return []byte(output.String()), exitCode, nil
}

func (a *Agent) run(statement string, out *strings.Builder) (int, *pendingWrite) {
	statement = strings.TrimSpace(statement)
	a.commands = append(a.commands, statement)

	args, err := rwe.SplitCommandLine(statement)
	if err != nil || len(args) == 0 {
		fmt.Fprintf(out, "Error: cannot parse %q\r\n", statement)
		return 1, nil
	}

	verb := strings.ToUpper(args[0])
	if code := a.ExitCodes[verb]; code != 0 {
		fmt.Fprintf(out, "Error: %s failed\r\n", verb)
		return code, nil
	}

	switch verb {
	case "COUT":
		fmt.Fprintf(out, "%s\r\n", strings.Join(args[1:], " "))
	case "RWEXIT":
		out.WriteString("RW Exit\r\n")
	case "PCITREE":
		out.WriteString(a.tree)
	case "SAVE":
		return a.save(args[1:], out), nil
	case "LOAD":
		return a.load(args[1:], out)
	default:
		fmt.Fprintf(out, "Error: unknown command %s\r\n", verb)
		return 1, nil
	}
	return 0, nil
}

func (a *Agent) mask(address uint64) uint64 {
	if a.AddressMask == 0 {
		return address
	}
	return address & a.AddressMask
}

func (a *Agent) echo(out *strings.Builder, action string, address uint64, length int) {
	if a.OmitEcho {
		fmt.Fprintf(out, "%s Memory Length=%d\r\n", action, length)
		return
	}
	fmt.Fprintf(out, "%s Memory Address=%X, Length=%d\r\n", action, address, length)
}

func parseNumbers(args []string) ([]uint64, error) {
	numbers := make([]uint64, 0, len(args))
	for _, arg := range args {
		n, err := strconv.ParseUint(arg, 0, 64)
		if err != nil {
			return nil, err
		}
		numbers = append(numbers, n)
	}
	return numbers, nil
}

func (a *Agent) save(args []string, out *strings.Builder) int {
	if len(args) < 3 {
		out.WriteString("Error: parameter error\r\n")
		return 1
	}
	file, target := args[0], strings.ToUpper(args[1])
	numbers, err := parseNumbers(args[2:])
	if err != nil {
		out.WriteString("Error: parameter error\r\n")
		return 1
	}

	var data []byte
	switch {
	case target == "MEMORY" && len(numbers) == 2:
		address := a.mask(numbers[0])
		data = a.readMemory(address, int(numbers[1]))
		a.echo(out, "Save", address, len(data))
	case target == "PCI" && len(numbers) == 3:
		addr, err := pci.NewAddress(numbers[0], numbers[1], numbers[2])
		if err != nil {
			out.WriteString("Error: parameter error\r\n")
			return 1
		}
		config, ok := a.config[addr]
		if !ok {
			fmt.Fprintf(out, "Error: device %s not found\r\n", addr)
			return 2
		}
		data = config
		fmt.Fprintf(out, "Save PCI Bus %02X, Device %02X, Function %02X\r\n", addr.Bus, addr.Device, addr.Function)
	default:
		out.WriteString("Error: parameter error\r\n")
		return 1
	}

	if err := os.WriteFile(file, data, 0o600); err != nil {
		fmt.Fprintf(out, "Error: %v\r\n", err)
		return 3
	}
	return 0
}

func (a *Agent) load(args []string, out *strings.Builder) (int, *pendingWrite) {
	if len(args) < 3 || strings.ToUpper(args[1]) != "MEMORY" {
		out.WriteString("Error: parameter error\r\n")
		return 1, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(out, "Error: %v\r\n", err)
		return 3, nil
	}
	numbers, err := parseNumbers(args[2:])
	if err != nil {
		out.WriteString("Error: parameter error\r\n")
		return 1, nil
	}

	switch len(numbers) {
	case 1:
		address := a.mask(numbers[0])
		for i, b := range data {
			a.memory[address+uint64(i)] = b
		}
		a.echo(out, "Load", address, len(data))
		return 0, &pendingWrite{address: address, data: data}
	case 3:
		addr, err := pci.NewAddress(numbers[0], numbers[1], numbers[2])
		if err != nil {
			out.WriteString("Error: parameter error\r\n")
			return 1, nil
		}
		a.config[addr] = data
		fmt.Fprintf(out, "Load PCI Bus %02X, Device %02X, Function %02X\r\n", addr.Bus, addr.Device, addr.Function)
		return 0, nil
	default:
		out.WriteString("Error: parameter error\r\n")
		return 1, nil
	}
}
