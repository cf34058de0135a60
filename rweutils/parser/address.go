// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

var (
	ErrAddressMismatch = errors.New("agent processed a different address")

	addressEcho = regexp.MustCompile(`Address=([0-9A-Fa-f]+),`)
)

// AddressMismatchError is returned when the address echoed by the agent is
// missing or differs from the requested one. The agent is known to truncate
// 64 bit addresses without reporting an error.
type AddressMismatchError struct {
	Expected uint64
	Actual   uint64
	// Found is false if the output carried no address echo at all.
	Found bool
}

func (e *AddressMismatchError) Error() string {
	if !e.Found {
		return fmt.Sprintf("agent output has no address echo, expected 0x%X", e.Expected)
	}
	return fmt.Sprintf("agent processed address 0x%X instead of 0x%X", e.Actual, e.Expected)
}

func (e *AddressMismatchError) Is(target error) bool {
	return target == ErrAddressMismatch
}

// EchoedAddress returns the first address echoed in the agent output.
func EchoedAddress(output string) (uint64, bool) {
	m := addressEcho.FindStringSubmatch(output)
	if m == nil {
		return 0, false
	}
	address, err := strconv.ParseUint(m[1], 16, 64)
	if err != nil {
		return 0, false
	}
	return address, true
}

func VerifyAddress(expected uint64, output string) error {
	actual, found := EchoedAddress(output)
	if !found || actual != expected {
		return &AddressMismatchError{Expected: expected, Actual: actual, Found: found}
	}
	return nil
}
