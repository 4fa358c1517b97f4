// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package bootui

import (
	"errors"
	"fmt"
	"time"

	"github.com/purecloudlabs/gvboot/pkg/bootmenu"
	"github.com/purecloudlabs/gvboot/pkg/hw/display"
	"github.com/purecloudlabs/gvboot/pkg/hw/input"
	"github.com/purecloudlabs/gvboot/pkg/log"
	"github.com/purecloudlabs/gvboot/pkg/nv"
)

const (
	//scan keys often, media rarely; USB dislikes rapid rescans
	recDiskDelay = 1000 * time.Millisecond
	recKeyDelay  = 20 * time.Millisecond
)

// ErrSetDevMode means the virtual developer switch could not be flipped.
var ErrSetDevMode = errors.New("failed to set developer mode")

// BootRecovery waits for usable recovery media, running the recovery menu
// while it polls. Unsolicited recovery (no switch pressed, dev mode off)
// instead parks on the broken screen until shutdown or a manual restart.
func (e *Env) BootRecovery() (Result, error) {
	defer e.Disp.Show(display.ScreenBlank)

	if !e.Session.DevSwitchOn && !e.Session.RecSwitchOn {
		return e.brokenScreen(), nil
	}

	log.Logf("waiting for a recovery image")
	ctx := bootmenu.NewRecovery()
	redraw := func(loadErr error) {
		//leave the debug dump on screen while it is selected
		if ctx.At(bootmenu.MenuRecovery, bootmenu.RecDbgInfo) {
			return
		}
		if loadErr != nil && !errors.Is(loadErr, ErrNoDisk) {
			e.Disp.Show(display.ScreenNoGood)
		} else {
			e.Disp.Show(display.ScreenBase)
		}
		e.redraw(bootmenu.Items(ctx.Current()), ctx.Index())
	}

	for {
		log.Logf("attempting to load recovery kernel")
		loadErr := e.Kernel.LoadRemovable()

		/* Already in recovery mode, so clear the request now; powering
		   off after inserting a bad disk must not re-enter recovery. */
		if err := e.NV.Set(nv.RecoveryRequest, 0); err != nil {
			log.Logf("clear recovery request: %s", err)
		}
		if loadErr == nil {
			return ResultBoot, nil
		}
		redraw(loadErr)

		for elapsed := time.Duration(0); elapsed < recDiskDelay; elapsed += recKeyDelay {
			key := e.Keys.ReadKey()
			switch key {
			case input.KeyNone:
			case input.KeyUp, input.ButtonVolUp:
				ctx.Up()
				redraw(loadErr)
			case input.KeyDown, input.ButtonVolDown:
				ctx.Down()
				redraw(loadErr)
			case input.KeyEnter, input.ButtonPower:
				ctx.MarkSelected()
				out := ctx.Advance()
				if !ctx.At(bootmenu.MenuRecovery, bootmenu.RecDbgInfo) {
					e.Disp.Show(display.ScreenBlank)
				}
				redraw(loadErr)
				if out == bootmenu.OutcomeShutdown {
					log.Logf("shutting down")
					return ResultShutdown, nil
				}
				if !ctx.Selected() {
					break
				}
				if ctx.At(bootmenu.MenuRecovery, bootmenu.RecDbgInfo) {
					e.Disp.DebugInfo(e.Session.DebugDump())
				}
				if ctx.At(bootmenu.MenuToDev, bootmenu.ToDevConfirm) {
					res, handled, err := e.confirmToDev()
					if handled {
						return res, err
					}
				}
			}
			if e.wantShutdown() {
				log.Logf("shutdown requested")
				return ResultShutdown, nil
			}
			e.sleep(recKeyDelay)
		}
	}
}

// confirmToDev flips the virtual developer switch if this boot is allowed
// to: recovery must have been forced by the user, the platform must track
// the switch in software, dev mode must be off, and the EC must be trusted.
// handled=false means the confirmation was rejected and the menu continues.
func (e *Env) confirmToDev() (res Result, handled bool, err error) {
	s := e.Session
	if !s.HonorVirtualDevSwitch || s.DevSwitchOn || !s.RecSwitchOn ||
		e.TrustEC == nil || !e.TrustEC() {
		log.Logf("dev mode request refused; honor=%t dev=%t rec=%t",
			s.HonorVirtualDevSwitch, s.DevSwitchOn, s.RecSwitchOn)
		return 0, false, nil
	}
	if !s.RecSwitchVirtual && e.Keys.Switches(input.SwRecButtonPressed) != 0 {
		//recovery button stuck? beep and ignore
		log.Logf("confirm but rec button is pressed")
		e.Beep.Beep(120*time.Millisecond, 400)
		return 0, false, nil
	}

	log.Logf("enabling dev-mode...")
	if e.SetDevMode == nil {
		return 0, true, ErrSetDevMode
	}
	if err := e.SetDevMode(true); err != nil {
		return 0, true, fmt.Errorf("%w: %s", ErrSetDevMode, err)
	}
	log.Logf("reboot so it will take effect")
	if e.Keys.Switches(input.SwAllowUSBBoot) != 0 {
		if err := e.NV.Set(nv.DevBootUSB, 1); err != nil {
			log.Logf("enable USB boot: %s", err)
		}
	}
	return ResultReboot, true, nil
}

// brokenScreen handles unsolicited recovery. The reason is preserved as the
// subcode, not the request, so the reboot the screen asks for doesn't loop
// straight back here; it is committed immediately because a forced restart
// won't give us another chance.
func (e *Env) brokenScreen() Result {
	log.Logf("saving recovery reason %#x as subcode", uint32(e.Session.RecoveryReason))
	if err := e.NV.Set(nv.RecoverySubcode, uint32(e.Session.RecoveryReason)); err != nil {
		log.Logf("save subcode: %s", err)
	}
	if err := e.NV.Commit(); err != nil {
		log.Logf("commit subcode: %s", err)
	}

	e.Disp.Show(display.ScreenBroken)
	log.Logf("waiting for manual recovery")
	for {
		e.Keys.ReadKey()
		if e.wantShutdown() {
			return ResultShutdown
		}
		e.sleep(recKeyDelay)
	}
}
