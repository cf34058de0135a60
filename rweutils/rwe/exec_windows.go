// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package rwe

import (
	"context"
	"fmt"
	"os/exec"
	"syscall"
)

func command(ctx context.Context, path, args string) (*exec.Cmd, error) {
	cmd := exec.CommandContext(ctx, path)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CmdLine: fmt.Sprintf(`"%s" %s`, path, args),
	}
	return cmd, nil
}
