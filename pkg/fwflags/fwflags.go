// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package fwflags reads the boolean feature gates baked into the firmware
// configuration blob, plus the management-set device policy. Both arrive as
// whitespace-separated tokens (the blob is written by build tooling, the
// policy by enterprise management); unknown tokens are logged and skipped so
// an old firmware can boot with a newer policy.
package fwflags

import (
	"github.com/google/shlex"

	"github.com/purecloudlabs/gvboot/pkg/log"
)

// Flags are the firmware-configuration gates consulted by the decision core.
type Flags struct {
	//allow USB boot in developer mode regardless of NV setting
	ForceDevBootUSB bool
	//allow legacy boot in developer mode regardless of NV setting
	ForceDevBootLegacy bool
	//default to legacy boot when the developer countdown expires
	DefaultDevBootLegacy bool
	//behave as if the developer switch were on; wins over policy DisableDevBoot
	ForceDevSwitchOn bool
	//ignore lid-closed shutdown requests
	DisableLidShutdown bool
	//skip EC software sync entirely
	DisableECSync bool
	//skip software sync for the power-delivery controller only
	DisablePDSync bool
	//shorten the developer-screen countdown, for factory and test flows
	ShortDevDelay bool
}

// Management policy overrides for developer mode.
type Policy struct {
	EnableUSB      bool
	EnableLegacy   bool
	DisableDevBoot bool
}

// Parse the firmware flag blob.
func Parse(blob string) Flags {
	var f Flags
	for _, tok := range tokens(blob) {
		switch tok {
		case "force-dev-boot-usb":
			f.ForceDevBootUSB = true
		case "force-dev-boot-legacy":
			f.ForceDevBootLegacy = true
		case "default-dev-boot-legacy":
			f.DefaultDevBootLegacy = true
		case "force-dev-switch-on":
			f.ForceDevSwitchOn = true
		case "disable-lid-shutdown":
			f.DisableLidShutdown = true
		case "disable-ec-sync":
			f.DisableECSync = true
		case "disable-pd-sync":
			f.DisablePDSync = true
		case "short-dev-delay":
			f.ShortDevDelay = true
		default:
			log.Logf("fwflags: unknown token %q", tok)
		}
	}
	return f
}

// Parse the management policy blob.
func ParsePolicy(blob string) Policy {
	var p Policy
	for _, tok := range tokens(blob) {
		switch tok {
		case "dev-enable-usb":
			p.EnableUSB = true
		case "dev-enable-legacy":
			p.EnableLegacy = true
		case "dev-disable-boot":
			p.DisableDevBoot = true
		default:
			log.Logf("fwflags: unknown policy token %q", tok)
		}
	}
	return p
}

func tokens(blob string) []string {
	toks, err := shlex.Split(blob)
	if err != nil {
		log.Logf("fwflags: parse %q: %s", blob, err)
		return nil
	}
	return toks
}
