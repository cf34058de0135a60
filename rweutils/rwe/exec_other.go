// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

//go:build !windows

package rwe

import (
	"context"
	"os/exec"
)

// command splits args itself since only Windows hands the raw command line
// to the child process.
func command(ctx context.Context, path, args string) (*exec.Cmd, error) {
	fields, err := SplitCommandLine(args)
	if err != nil {
		return nil, err
	}
	return exec.CommandContext(ctx, path, fields...), nil
}
