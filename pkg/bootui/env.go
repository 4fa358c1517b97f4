// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

//Package bootui runs the interactive boot flows: the developer warning menu
//with its timeout, and the recovery menu with its media polling. Everything
//runs on the boot goroutine; hardware is reached only through the Env
//collaborators, so the flows are testable with scripted inputs.
package bootui

import (
	"errors"
	"time"

	"github.com/purecloudlabs/gvboot/pkg/bootsession"
	"github.com/purecloudlabs/gvboot/pkg/fwflags"
	"github.com/purecloudlabs/gvboot/pkg/hw/buzzer"
	"github.com/purecloudlabs/gvboot/pkg/hw/display"
	"github.com/purecloudlabs/gvboot/pkg/hw/input"
	"github.com/purecloudlabs/gvboot/pkg/hw/power"
	"github.com/purecloudlabs/gvboot/pkg/log"
	"github.com/purecloudlabs/gvboot/pkg/nv"
)

// Result is what the flow asks of the boot path once it returns.
type Result int

const (
	//a kernel was selected and loaded; continue booting
	ResultBoot Result = iota
	ResultShutdown
	ResultReboot
)

func (r Result) String() string {
	switch r {
	case ResultBoot:
		return "boot"
	case ResultShutdown:
		return "shutdown"
	case ResultReboot:
		return "reboot"
	}
	return "invalid"
}

// ErrNoDisk distinguishes "nothing inserted" from "inserted but unusable"
// when loading from removable media.
var ErrNoDisk = errors.New("no disk found")

// KernelLoader finds and loads a kernel. LoadRemovable returns ErrNoDisk
// (possibly wrapped) when no media is present.
type KernelLoader interface {
	LoadFixed() error
	LoadRemovable() error
}

// Env gathers every collaborator a boot flow touches. Sleep is injectable so
// tests don't wait out real delays; nil means time.Sleep.
type Env struct {
	Keys    input.Source
	Disp    display.Display
	Beep    buzzer.Beeper
	Power   power.Monitor
	NV      nv.Store
	Session *bootsession.Session
	Flags   fwflags.Flags
	Policy  fwflags.Policy
	Kernel  KernelLoader

	//LegacyBoot chains to a legacy BIOS; it only returns on failure.
	LegacyBoot func() error
	//TrustEC reports whether the EC runs verified code. nil means no.
	TrustEC func() bool
	//SetDevMode flips the virtual developer switch in the TPM.
	SetDevMode func(on bool) error

	Sleep func(time.Duration)
}

func (e *Env) sleep(d time.Duration) {
	if e.Sleep != nil {
		e.Sleep(d)
		return
	}
	time.Sleep(d)
}

// wantShutdown polls chassis signals, honoring the lid-ignore flag. The
// power button never counts: detachables use it for menu selection.
func (e *Env) wantShutdown() bool {
	return power.Wanted(e.Power, e.Flags.DisableLidShutdown) != 0
}

// rejectBeep is the double beep meaning "that isn't allowed".
func (e *Env) rejectBeep() {
	e.Beep.Beep(120*time.Millisecond, 400)
	e.sleep(120 * time.Millisecond)
	e.Beep.Beep(120*time.Millisecond, 400)
}

// tryLegacy chains to the legacy BIOS if allowed. On any failure it beeps
// and returns so the caller's loop continues.
func (e *Env) tryLegacy(allowed bool) {
	if !allowed {
		log.Logf("legacy boot is disabled")
		e.Disp.DebugInfo("WARNING: Booting legacy BIOS has not been " +
			"enabled. Refer to the developer-mode documentation for details.\n")
		e.rejectBeep()
		return
	}
	if e.LegacyBoot != nil {
		if err := e.LegacyBoot(); err != nil {
			log.Logf("legacy boot: %s", err)
		}
	}
	e.rejectBeep()
}

// tryUSB attempts a removable-media boot. On failure the recovery request is
// cleared, so powering off afterwards doesn't land in recovery mode.
func (e *Env) tryUSB() error {
	err := e.Kernel.LoadRemovable()
	if err == nil {
		log.Logf("booting USB")
		return nil
	}
	log.Logf("no kernel found on USB: %s", err)
	e.Beep.Beep(250*time.Millisecond, 200)
	e.sleep(120 * time.Millisecond)
	if serr := e.NV.Set(nv.RecoveryRequest, 0); serr != nil {
		log.Logf("clear recovery request: %s", serr)
	}
	return err
}

// usbNotEnabled shows the warning for a USB boot attempt that policy forbids.
func (e *Env) usbNotEnabled() {
	log.Logf("USB booting is disabled")
	e.Disp.DebugInfo("WARNING: Booting from external media (USB/SD) has " +
		"not been enabled. Refer to the developer-mode documentation " +
		"for details.\n")
	e.rejectBeep()
}

func (e *Env) redraw(items []string, selected int) {
	if err := display.RenderMenu(e.Disp, items, selected); err != nil {
		log.Logf("menu render: %s", err)
	}
}
