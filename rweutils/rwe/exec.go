// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package rwe

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Executor runs the agent at path with a literal argument string and returns
// its combined stdout and stderr together with the exit code. A non-zero exit
// code is not an error; err is reserved for failing to run the agent at all.
type Executor interface {
	Execute(ctx context.Context, path, args string) (output []byte, exitCode int, err error)
}

func NewExecutor() Executor {
	return &execExecutor{}
}

type execExecutor struct{}

func (e *execExecutor) Execute(ctx context.Context, path, args string) ([]byte, int, error) {
	cmd, err := command(ctx, path, args)
	if err != nil {
		return nil, -1, err
	}

	output, err := cmd.CombinedOutput()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return output, -1, fmt.Errorf("agent did not finish: %w", ctxErr)
	}

	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		return output, exitErr.ExitCode(), nil
	case err != nil:
		return output, -1, err
	}
	return output, 0, nil
}

// SplitCommandLine splits args the way the agent's runtime does: whitespace
// separates arguments, double quotes group, and a backslash escapes a quote.
func SplitCommandLine(args string) ([]string, error) {
	var (
		fields  []string
		current strings.Builder
		inQuote bool
		inField bool
	)

	for i := 0; i < len(args); i++ {
		ch := args[i]
		switch {
		case ch == '\\' && i+1 < len(args) && args[i+1] == '"':
			current.WriteByte('"')
			inField = true
			i++
		case ch == '"':
			inQuote = !inQuote
			inField = true
		case (ch == ' ' || ch == '\t') && !inQuote:
			if inField {
				fields = append(fields, current.String())
				current.Reset()
				inField = false
			}
		default:
			current.WriteByte(ch)
			inField = true
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote in %q", args)
	}
	if inField {
		fields = append(fields, current.String())
	}
	return fields, nil
}
