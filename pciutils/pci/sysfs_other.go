// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package pci

import "github.com/go-logr/logr"

func NewSysfsReader(_ logr.Logger, _ SysfsOptions) (Reader, error) {
	return nil, ErrSysfsUnsupported
}
