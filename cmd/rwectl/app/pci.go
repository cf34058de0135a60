// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/ironcore-dev/rwe-utils/pciutils/device"
	"github.com/ironcore-dev/rwe-utils/pciutils/pci"
	"github.com/spf13/cobra"
)

func newPCICommand(o *options) *cobra.Command {
	pciCmd := &cobra.Command{
		Use:   "pci",
		Short: "Access PCI configuration spaces",
		Args:  cobra.NoArgs,
	}
	pciCmd.AddCommand(newPCIReadCommand(o), newPCIWriteCommand(o), newPCIBarsCommand(o))
	return pciCmd
}

func newPCIReadCommand(o *options) *cobra.Command {
	var words bool
	readCmd := &cobra.Command{
		Use:   "read BB:DD.F",
		Short: "Read the configuration space of a function",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := pci.ParseAddress(args[0])
			if err != nil {
				return err
			}

			return o.run(cmd, func(ctx context.Context, e *env) error {
				config, err := device.New(e.client, addr).ReadConfigSpace(ctx)
				if err != nil {
					return err
				}
				printData(e.out, 0, config, words)
				return nil
			})
		},
	}
	readCmd.Flags().BoolVar(&words, "words", false, "Print little-endian 32 bit words instead of bytes.")
	return readCmd
}

func newPCIWriteCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "write BB:DD.F HEXDATA",
		Short: "Write the configuration space of a function",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := pci.ParseAddress(args[0])
			if err != nil {
				return err
			}
			data, err := hex.DecodeString(args[1])
			if err != nil {
				return fmt.Errorf("invalid data: %w", err)
			}

			return o.run(cmd, func(ctx context.Context, e *env) error {
				if _, err := device.New(e.client, addr).WriteConfigSpace(ctx, data); err != nil {
					return err
				}
				fmt.Fprintf(e.out, "wrote %d bytes to %s\n", len(data), addr)
				return nil
			})
		},
	}
}

func newPCIBarsCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "bars BB:DD.F",
		Short: "Print the base address registers of a function",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := pci.ParseAddress(args[0])
			if err != nil {
				return err
			}

			return o.run(cmd, func(ctx context.Context, e *env) error {
				config, err := device.New(e.client, addr).ReadConfigSpace(ctx)
				if err != nil {
					return err
				}
				class, err := device.ClassCode(config)
				if err != nil {
					return err
				}
				bars, err := device.BARAddresses(config)
				if err != nil {
					return err
				}
				fmt.Fprintf(e.out, "%s class %s\n", addr, class)
				for i, bar := range bars {
					fmt.Fprintf(e.out, "BAR%d 0x%08X\n", i, bar)
				}
				return nil
			})
		},
	}
}
