// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package nvme

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/ironcore-dev/rwe-utils/rweutils/codec"
)

// Controller register offsets relative to BAR0.
const (
	OffsetCAP  = 0x00
	OffsetVS   = 0x08
	OffsetCC   = 0x14
	OffsetCSTS = 0x1C
	OffsetNSSR = 0x20
	OffsetAQA  = 0x24
	OffsetASQ  = 0x28
	OffsetACQ  = 0x30

	// RegisterSize is the length of a controller register snapshot.
	RegisterSize = 4096

	capTimeoutOffset = OffsetCAP + 3
	decodedSize      = OffsetACQ + 8

	queueSizeMask = 0xFFF
	queueBaseMask = ^uint64(0xFFF)

	// TimeoutUnit is the unit of CAP.TO.
	TimeoutUnit = 500 * time.Millisecond
)

var ErrShortRegisters = fmt.Errorf("%w: controller register snapshot too short", codec.ErrParse)

type Version struct {
	Major    uint16
	Minor    uint8
	Tertiary uint8
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Tertiary)
}

// AdminQueueAttributes holds the raw AQA fields. Both sizes are zero based:
// the number of entries is one more than the value.
type AdminQueueAttributes struct {
	CompletionQueueSize uint16
	SubmissionQueueSize uint16
}

type AdminQueueAddresses struct {
	SubmissionQueueBase uint64
	CompletionQueueBase uint64
}

// Registers is a snapshot of the controller registers. All decoders read the
// same snapshot; take a new one to observe changes.
type Registers []byte

func (r Registers) check() error {
	if len(r) < decodedSize {
		return ErrShortRegisters
	}
	return nil
}

func (r Registers) word(offset int) uint32 {
	return binary.LittleEndian.Uint32(r[offset:])
}

func (r Registers) Version() (Version, error) {
	if err := r.check(); err != nil {
		return Version{}, err
	}
	vs := r.word(OffsetVS)
	return Version{
		Major:    uint16(vs >> 16),
		Minor:    uint8(vs >> 8),
		Tertiary: uint8(vs),
	}, nil
}

func (r Registers) AdminQueueAttributes() (AdminQueueAttributes, error) {
	if err := r.check(); err != nil {
		return AdminQueueAttributes{}, err
	}
	aqa := r.word(OffsetAQA)
	return AdminQueueAttributes{
		CompletionQueueSize: uint16(aqa>>16) & queueSizeMask,
		SubmissionQueueSize: uint16(aqa) & queueSizeMask,
	}, nil
}

func (r Registers) AdminQueueAddresses() (AdminQueueAddresses, error) {
	if err := r.check(); err != nil {
		return AdminQueueAddresses{}, err
	}
	return AdminQueueAddresses{
		SubmissionQueueBase: binary.LittleEndian.Uint64(r[OffsetASQ:]) & queueBaseMask,
		CompletionQueueBase: binary.LittleEndian.Uint64(r[OffsetACQ:]) & queueBaseMask,
	}, nil
}

// ResetTimeout is the worst case time the controller takes to change
// CSTS.RDY after CC.EN changed, taken from CAP.TO.
func (r Registers) ResetTimeout() (time.Duration, error) {
	if err := r.check(); err != nil {
		return 0, err
	}
	return time.Duration(r[capTimeoutOffset]) * TimeoutUnit, nil
}
