// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"fmt"

	"github.com/ironcore-dev/rwe-utils/nvmeutils/nvme"
	"github.com/ironcore-dev/rwe-utils/pciutils/pci"
	"github.com/spf13/cobra"
)

func newNVMeCommand(o *options) *cobra.Command {
	nvmeCmd := &cobra.Command{
		Use:   "nvme",
		Short: "Inspect and reset NVMe controllers",
		Args:  cobra.NoArgs,
	}
	nvmeCmd.AddCommand(
		newNVMeListCommand(o),
		newNVMeDeviceCommand(o, "version", "Print the NVMe version of a controller", printVersion),
		newNVMeDeviceCommand(o, "aq", "Print the admin queue registers of a controller", printAdminQueue),
		newNVMeDeviceCommand(o, "entries", "Print the admin queue entries of a controller", printAdminQueueEntries),
		newNVMeDeviceCommand(o, "reset", "Reset a controller through CC.EN", resetController),
		newNVMeDeviceCommand(o, "subsystem-reset", "Issue an NVM subsystem reset", resetSubsystem),
	)
	return nvmeCmd
}

func newNVMeListCommand(o *options) *cobra.Command {
	var crossCheck bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List NVMe controllers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, e *env) error {
				devices, err := nvme.Discover(ctx, e.log.WithName("nvme"), e.client, e.config.NVMeOptions())
				if err != nil {
					return err
				}
				for _, d := range devices {
					version, err := d.Version(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintf(e.out, "%s NVMe %s\n", d.Address(), version)
				}
				if !crossCheck {
					return nil
				}

				host, err := o.newHostReader(e.log.WithName("sysfs"))
				if err != nil {
					return err
				}
				if err := nvme.CrossCheck(ctx, devices, host); err != nil {
					return err
				}
				fmt.Fprintf(e.out, "host enumeration matches\n")
				return nil
			})
		},
	}
	listCmd.Flags().BoolVar(&crossCheck, "cross-check", false, "Compare the controllers with the host's sysfs enumeration (linux only).")
	return listCmd
}

type deviceFunc func(ctx context.Context, e *env, d *nvme.Device) error

func newNVMeDeviceCommand(o *options, use, short string, fn deviceFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " BB:DD.F",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := pci.ParseAddress(args[0])
			if err != nil {
				return err
			}

			return o.run(cmd, func(ctx context.Context, e *env) error {
				d, err := nvme.NewDevice(ctx, e.log.WithName("nvme"), e.client, addr, e.config.NVMeOptions())
				if err != nil {
					return err
				}
				return fn(ctx, e, d)
			})
		},
	}
}

func printVersion(ctx context.Context, e *env, d *nvme.Device) error {
	version, err := d.Version(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.out, version)
	return nil
}

func printAdminQueue(ctx context.Context, e *env, d *nvme.Device) error {
	registers, err := d.ControllerRegisters(ctx)
	if err != nil {
		return err
	}
	attributes, err := registers.AdminQueueAttributes()
	if err != nil {
		return err
	}
	addresses, err := registers.AdminQueueAddresses()
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "ASQ 0x%016X size %d\n", addresses.SubmissionQueueBase, attributes.SubmissionQueueSize)
	fmt.Fprintf(e.out, "ACQ 0x%016X size %d\n", addresses.CompletionQueueBase, attributes.CompletionQueueSize)
	return nil
}

func printAdminQueueEntries(ctx context.Context, e *env, d *nvme.Device) error {
	entries, err := d.AdminQueueEntries(ctx)
	if err != nil {
		return err
	}
	for i, entry := range entries.SubmissionQueue {
		fmt.Fprintf(e.out, "SQ[%d] %08X\n", i, entry)
	}
	for i, entry := range entries.CompletionQueue {
		fmt.Fprintf(e.out, "CQ[%d] %08X\n", i, entry)
	}
	return nil
}

func resetController(ctx context.Context, e *env, d *nvme.Device) error {
	if err := d.ControllerReset(ctx); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "%s reset\n", d.Address())
	return nil
}

func resetSubsystem(ctx context.Context, e *env, d *nvme.Device) error {
	if err := d.SubsystemReset(ctx); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "%s subsystem reset issued\n", d.Address())
	return nil
}
