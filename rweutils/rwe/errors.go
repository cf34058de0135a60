// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package rwe

import (
	"errors"
	"fmt"
)

var (
	ErrAgentRejected = errors.New("agent rejected command")
	ErrInvalidAgent  = errors.New("not a working RW-Everything agent")
	ErrNoAgentPath   = errors.New("no agent path provided")
	ErrShortRead     = errors.New("agent returned fewer bytes than requested")
)

// AgentError reports a command the agent finished with a non-zero exit code.
type AgentError struct {
	Command  string
	ExitCode int
	Output   string
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("agent rejected %q with exit code %d", e.Command, e.ExitCode)
}

func (e *AgentError) Is(target error) bool {
	return target == ErrAgentRejected
}
