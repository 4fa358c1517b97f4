// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package nv models the non-volatile variable store consulted and written by
// the boot-mode menus and EC software sync. Each variable is a u32 that
// defaults to zero when unset. Writes are buffered until Commit(); anything
// that must survive a forced reset (e.g. the recovery subcode written before
// showing the broken screen) commits explicitly.
package nv

import "github.com/purecloudlabs/gvboot/pkg/log"

type Key int

const (
	//reason code requesting recovery mode on the next boot
	RecoveryRequest Key = iota
	//reason preserved for diagnosis without re-triggering recovery
	RecoverySubcode
	//user asked to leave developer mode; honored on reboot
	DisableDevRequest
	//developer mode may boot from USB/SD
	DevBootUSB
	//developer mode may boot a legacy BIOS payload
	DevBootLegacy
	//default action when the developer countdown expires
	DevDefaultBoot
	//retry the EC-RO update on next boot
	TryROSync
	//cut off the battery after EC sync, before kernel load
	BatteryCutoffRequest

	keyCount
)

var keyNames = map[Key]string{
	RecoveryRequest:      "recovery_request",
	RecoverySubcode:      "recovery_subcode",
	DisableDevRequest:    "disable_dev_request",
	DevBootUSB:           "dev_boot_usb",
	DevBootLegacy:        "dev_boot_legacy",
	DevDefaultBoot:       "dev_default_boot",
	TryROSync:            "try_ro_sync",
	BatteryCutoffRequest: "battery_cutoff_request",
}

func (k Key) String() string {
	n, ok := keyNames[k]
	if !ok {
		return "unknown_key"
	}
	return n
}

// Store is the NV collaborator contract. Get of an unset key returns 0.
type Store interface {
	Get(k Key) (uint32, error)
	Set(k Key, v uint32) error
	Commit() error
}

// Default boot action for developer mode, stored under DevDefaultBoot.
type BootTarget uint32

const (
	TargetDisk BootTarget = iota
	TargetUSB
	TargetLegacy
)

func (t BootTarget) String() string {
	switch t {
	case TargetDisk:
		return "disk"
	case TargetUSB:
		return "usb"
	case TargetLegacy:
		return "legacy"
	}
	return "disk(default)"
}

// Reads the default boot target, mapping unknown values to disk.
func DefaultBoot(s Store) BootTarget {
	v, err := s.Get(DevDefaultBoot)
	if err != nil {
		log.Logf("read %s: %s", DevDefaultBoot, err)
		return TargetDisk
	}
	t := BootTarget(v)
	switch t {
	case TargetUSB, TargetLegacy:
		return t
	}
	return TargetDisk
}

// True if key is set to a nonzero value. Read errors count as unset.
func IsSet(s Store, k Key) bool {
	v, err := s.Get(k)
	if err != nil {
		log.Logf("read %s: %s", k, err)
		return false
	}
	return v != 0
}
