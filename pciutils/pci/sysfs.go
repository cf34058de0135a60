// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package pci

import "errors"

var ErrSysfsUnsupported = errors.New("sysfs enumeration is only available on linux")

// SysfsOptions selects the functions a sysfs reader returns.
type SysfsOptions struct {
	// MountPoint of sysfs, empty means /sys.
	MountPoint string
	Class      Class
	// Vendor restricts the result to one vendor, VendorAny disables it.
	Vendor Vendor
}
