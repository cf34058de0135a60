// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package nvme

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ironcore-dev/rwe-utils/rweutils/rwe"
	"k8s.io/apimachinery/pkg/util/wait"
)

const (
	ccEnable  = 1 << 0
	cstsReady = 1 << 0
	nssrMagic = "NVMe"
)

var ErrResetTimeout = errors.New("controller reset timed out")

type ResetState int

const (
	ResetStateEnabled ResetState = iota
	ResetStateDisabling
	ResetStateWaitingForNotReady
	ResetStateEnabling
	ResetStateWaitingForReady
	ResetStateReady
	ResetStateFailed
)

func (s ResetState) String() string {
	switch s {
	case ResetStateEnabled:
		return "Enabled"
	case ResetStateDisabling:
		return "Disabling"
	case ResetStateWaitingForNotReady:
		return "WaitingForNotReady"
	case ResetStateEnabling:
		return "Enabling"
	case ResetStateWaitingForReady:
		return "WaitingForReady"
	case ResetStateReady:
		return "Ready"
	case ResetStateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("ResetState(%d)", int(s))
	}
}

// ResetTimeoutError is returned when CSTS.RDY did not follow CC.EN in time.
// The controller is left in an undefined state.
type ResetTimeoutError struct {
	State   ResetState
	Timeout time.Duration
	Message string
}

func (e *ResetTimeoutError) Error() string {
	return e.Message
}

func (e *ResetTimeoutError) Is(target error) bool {
	return target == ErrResetTimeout
}

func (d *Device) readRegisterByte(ctx context.Context, address uint64) (byte, error) {
	data, err := d.Channel().ReadMemory(ctx, address, 1)
	if err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, fmt.Errorf("%w: register at 0x%X", rwe.ErrShortRead, address)
	}
	return data[0], nil
}

func (d *Device) writeRegister(ctx context.Context, name string, address uint64, data []byte) error {
	if _, err := d.Channel().WriteMemory(ctx, address, data); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRegisterWrite, name, err)
	}
	return nil
}

// conditionError marks an error returned by the poll condition, as opposed
// to the poll running out of time.
type conditionError struct {
	err error
}

func (e *conditionError) Error() string {
	return e.err.Error()
}

func (e *conditionError) Unwrap() error {
	return e.err
}

func (d *Device) waitForReady(ctx context.Context, cstsAddress uint64, ready bool, timeout time.Duration) error {
	return wait.PollUntilContextTimeout(ctx, d.pollInterval, timeout, true, func(context.Context) (bool, error) {
		// the parent context keeps an agent call from being cut off by the
		// poll deadline.
		csts, err := d.readRegisterByte(ctx, cstsAddress)
		if err != nil {
			return false, &conditionError{err: fmt.Errorf("failed to read CSTS: %w", err)}
		}
		return (csts&cstsReady != 0) == ready, nil
	})
}

// ControllerReset disables the controller, waits for CSTS.RDY to clear,
// enables it again and waits for CSTS.RDY to be set. Each wait is bounded by
// CAP.TO.
func (d *Device) ControllerReset(ctx context.Context) error {
	state := ResetStateEnabled
	transition := func(next ResetState) {
		d.log.V(1).Info("Controller reset", "from", state, "to", next)
		state = next
	}
	fail := func(err error) error {
		transition(ResetStateFailed)
		return err
	}

	bar0, err := d.BAR0(ctx)
	if err != nil {
		return err
	}
	registers, err := d.controllerRegisters(ctx, bar0)
	if err != nil {
		return err
	}
	timeout, err := registers.ResetTimeout()
	if err != nil {
		return err
	}
	ccAddress, cstsAddress := bar0+OffsetCC, bar0+OffsetCSTS

	cc, err := d.readRegisterByte(ctx, ccAddress)
	if err != nil {
		return fmt.Errorf("failed to read CC: %w", err)
	}

	transition(ResetStateDisabling)
	cc &^= ccEnable
	if err := d.writeRegister(ctx, "CC", ccAddress, []byte{cc}); err != nil {
		return fail(err)
	}

	transition(ResetStateWaitingForNotReady)
	if err := d.waitForReady(ctx, cstsAddress, false, timeout); err != nil {
		return fail(d.timeoutError(ctx, err, state, timeout, "CSTS.RDY did not go to 0"))
	}

	transition(ResetStateEnabling)
	cc |= ccEnable
	if err := d.writeRegister(ctx, "CC", ccAddress, []byte{cc}); err != nil {
		return fail(err)
	}

	transition(ResetStateWaitingForReady)
	if err := d.waitForReady(ctx, cstsAddress, true, timeout); err != nil {
		return fail(d.timeoutError(ctx, err, state, timeout, "CSTS.RDY did not go back to 1"))
	}

	transition(ResetStateReady)
	return nil
}

// timeoutError turns an expired poll into a *ResetTimeoutError. Failed
// register reads and a done parent context are returned as they are.
func (d *Device) timeoutError(ctx context.Context, err error, state ResetState, timeout time.Duration, message string) error {
	var condErr *conditionError
	if errors.As(err, &condErr) {
		return condErr.err
	}
	if ctx.Err() != nil || !wait.Interrupted(err) {
		return err
	}
	return &ResetTimeoutError{State: state, Timeout: timeout, Message: message}
}

// SubsystemReset writes the NSSR magic. Completion is not awaited.
func (d *Device) SubsystemReset(ctx context.Context) error {
	bar0, err := d.BAR0(ctx)
	if err != nil {
		return err
	}
	if err := d.writeRegister(ctx, "NSSR", bar0+OffsetNSSR, []byte(nssrMagic)); err != nil {
		return err
	}
	d.log.V(1).Info("Subsystem reset issued")
	return nil
}
