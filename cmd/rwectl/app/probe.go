// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newProbeCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check that the configured executable is the agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, e *env) error {
				if err := e.client.Probe(ctx); err != nil {
					return err
				}
				fmt.Fprintf(e.out, "agent %s is usable\n", e.client.Path())
				if version := e.client.Version(); version != "" {
					fmt.Fprintf(e.out, "version %s\n", version)
				}
				return nil
			})
		},
	}
}

func newTreeCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "List all PCI functions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, e *env) error {
				topology, err := e.client.PCITree(ctx)
				if err != nil {
					return err
				}
				for _, addr := range topology.Addresses() {
					fmt.Fprintf(e.out, "%s %s\n", addr, topology[addr])
				}
				return nil
			})
		},
	}
}
