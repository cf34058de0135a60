// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/ironcore-dev/rwe-utils/rweutils/codec"
	"github.com/spf13/cobra"
)

func newMemCommand(o *options) *cobra.Command {
	memCmd := &cobra.Command{
		Use:   "mem",
		Short: "Access physical memory",
		Args:  cobra.NoArgs,
	}
	memCmd.AddCommand(newMemReadCommand(o), newMemWriteCommand(o))
	return memCmd
}

func newMemReadCommand(o *options) *cobra.Command {
	var words bool
	readCmd := &cobra.Command{
		Use:   "read ADDRESS LENGTH",
		Short: "Read physical memory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := parseUint(args[0], 64)
			if err != nil {
				return err
			}
			length, err := parseUint(args[1], 32)
			if err != nil {
				return err
			}

			return o.run(cmd, func(ctx context.Context, e *env) error {
				data, err := e.client.ReadMemory(ctx, address, uint32(length))
				if err != nil {
					return err
				}
				printData(e.out, address, data, words)
				return nil
			})
		},
	}
	readCmd.Flags().BoolVar(&words, "words", false, "Print little-endian 32 bit words instead of bytes.")
	return readCmd
}

func newMemWriteCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "write ADDRESS HEXDATA",
		Short: "Write physical memory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := parseUint(args[0], 64)
			if err != nil {
				return err
			}
			data, err := hex.DecodeString(args[1])
			if err != nil {
				return fmt.Errorf("invalid data: %w", err)
			}

			return o.run(cmd, func(ctx context.Context, e *env) error {
				if _, err := e.client.WriteMemory(ctx, address, data); err != nil {
					return err
				}
				fmt.Fprintf(e.out, "wrote %d bytes at 0x%X\n", len(data), address)
				return nil
			})
		},
	}
}

func printData(w io.Writer, base uint64, data []byte, words bool) {
	if !words {
		fmt.Fprint(w, hex.Dump(data))
		return
	}
	for i, row := range codec.Chunk(codec.BytesToWords(data), 4) {
		fmt.Fprintf(w, "%016X:", base+uint64(i*4*codec.WordSize))
		for _, word := range row {
			fmt.Fprintf(w, " %08X", word)
		}
		fmt.Fprintln(w)
	}
}
