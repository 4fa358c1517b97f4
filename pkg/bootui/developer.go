// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package bootui

import (
	"time"

	"github.com/purecloudlabs/gvboot/pkg/bootmenu"
	"github.com/purecloudlabs/gvboot/pkg/hw/display"
	"github.com/purecloudlabs/gvboot/pkg/hw/input"
	"github.com/purecloudlabs/gvboot/pkg/log"
	"github.com/purecloudlabs/gvboot/pkg/nv"
)

const devDisableMsg = "Developer mode is disabled on this device by system policy.\n" +
	"For more information, see http://dev.chromium.org/chromium-os/fwmp\n" +
	"\n"

// How long the confirmation screen stays up before the reboot that leaves
// developer mode.
const toNormPause = 5 * time.Second

// devPolicy is the effective developer-boot policy for this boot, after
// firmware flags and owner policy are folded together.
type devPolicy struct {
	allowUSB    bool
	allowLegacy bool
	useUSB      bool
	useLegacy   bool
	disableDev  bool
}

func (e *Env) resolveDevPolicy() devPolicy {
	var p devPolicy
	p.allowUSB = nv.IsSet(e.NV, nv.DevBootUSB)
	p.allowLegacy = nv.IsSet(e.NV, nv.DevBootLegacy)
	switch nv.DefaultBoot(e.NV) {
	case nv.TargetUSB:
		p.useUSB = true
	case nv.TargetLegacy:
		p.useLegacy = true
	}

	if e.Flags.ForceDevBootUSB {
		p.allowUSB = true
	}
	if e.Flags.ForceDevBootLegacy {
		p.allowLegacy = true
	}
	if e.Flags.DefaultDevBootLegacy {
		p.useLegacy = true
		p.useUSB = false
	}

	if e.Policy.EnableUSB {
		p.allowUSB = true
	}
	if e.Policy.EnableLegacy {
		p.allowLegacy = true
	}
	if e.Policy.DisableDevBoot {
		if e.Flags.ForceDevSwitchOn {
			log.Logf("dev boot disable rejected by forced dev switch")
		} else {
			p.disableDev = true
		}
	}
	return p
}

// leaveDevMode requests the switch back to verified mode and pauses on the
// confirmation screen before asking for the reboot that applies it.
func (e *Env) leaveDevMode() Result {
	log.Logf("leaving dev-mode")
	if err := e.NV.Set(nv.DisableDevRequest, 1); err != nil {
		log.Logf("set disable-dev request: %s", err)
	}
	e.Disp.Show(display.ScreenToNormConfirmed)
	e.sleep(toNormPause)
	return ResultReboot
}

// BootDeveloper runs the developer warning menu until a boot source is
// chosen, the delay expires, or the user asks to shut down or return to
// verified mode.
func (e *Env) BootDeveloper() (Result, error) {
	defer e.Disp.Show(display.ScreenBlank)

	p := e.resolveDevPolicy()

	/* When policy forbids developer boot, the only ways out are a
	   confirmed return to verified mode or a shutdown. Cancel is
	   deliberately ignored. */
	for p.disableDev {
		log.Logf("developer boot disabled by policy")
		e.Disp.Show(display.ScreenToNorm)
		e.Disp.DebugInfo(devDisableMsg)
		switch e.confirm(false, false) {
		case DecisionYes:
			return e.leaveDevMode(), nil
		case DecisionShutdown:
			log.Logf("shutdown requested")
			return ResultShutdown, nil
		default:
			log.Logf("ignoring cancel; dev boot disabled")
		}
	}

	ctx := bootmenu.New(nv.DefaultBoot(e.NV))
	redraw := func() {
		e.redraw(bootmenu.Items(ctx.Current()), ctx.Index())
	}
	blankAndRedraw := func() {
		//blanking clears artifacts from the previous menu
		e.Disp.Show(display.ScreenBlank)
		e.Disp.Show(display.ScreenBase)
		redraw()
	}

	e.Disp.Show(display.ScreenBase)
	redraw()

	cd := newCountdown(e.Flags.ShortDevDelay)
	dismissed := false
	for !dismissed {
		if e.wantShutdown() {
			log.Logf("shutdown requested")
			return ResultShutdown, nil
		}
		key := e.Keys.ReadKey()
		switch key {
		case input.KeyNone:
		case input.KeyCtrlD:
			log.Logf("Ctrl+D: skip delay")
			dismissed = true
			continue
		case input.KeyCtrlL:
			log.Logf("Ctrl+L: try legacy boot")
			e.tryLegacy(p.allowLegacy)
		case input.KeyCtrlU:
			log.Logf("Ctrl+U: try USB")
			if !p.allowUSB {
				e.usbNotEnabled()
			} else {
				//clear the screen to show the key registered
				e.Disp.Show(display.ScreenBlank)
				if e.tryUSB() == nil {
					return ResultBoot, nil
				}
				e.Disp.Show(display.ScreenBase)
				redraw()
			}
		case input.KeyUp, input.ButtonVolUp:
			ctx.Up()
			redraw()
		case input.KeyDown, input.ButtonVolDown:
			ctx.Down()
			redraw()
		case input.KeyEnter, input.ButtonPower:
			ctx.MarkSelected()
			out := ctx.Advance()
			blankAndRedraw()
			if out == bootmenu.OutcomeShutdown {
				log.Logf("shutting down")
				return ResultShutdown, nil
			}
			if !ctx.Selected() {
				break
			}
			switch {
			case ctx.At(bootmenu.MenuDevWarning, bootmenu.WarnDbgInfo):
				e.Disp.DebugInfo(e.Session.DebugDump())
			case ctx.At(bootmenu.MenuDev, bootmenu.DevNetwork):
				log.Logf("network boot not implemented")
			case ctx.At(bootmenu.MenuDev, bootmenu.DevLegacy):
				log.Logf("menu: try legacy boot")
				e.tryLegacy(p.allowLegacy)
			case ctx.At(bootmenu.MenuDev, bootmenu.DevUSB):
				log.Logf("menu: try USB")
				if !p.allowUSB {
					e.usbNotEnabled()
				} else {
					e.Disp.Show(display.ScreenBlank)
					if e.tryUSB() == nil {
						return ResultBoot, nil
					}
					e.Disp.Show(display.ScreenBase)
					redraw()
				}
			case ctx.At(bootmenu.MenuDev, bootmenu.DevDisk):
				log.Logf("menu: boot developer image")
				dismissed = true
				continue
			case ctx.At(bootmenu.MenuToNorm, bootmenu.ToNormConfirm):
				return e.leaveDevMode(), nil
			}
		default:
			log.Logf("pressed key %s", key)
		}
		if cd.tick(e) {
			log.Logf("developer delay expired")
			break
		}
	}

	//default to legacy or USB unless the delay was explicitly dismissed
	if p.useLegacy && !dismissed {
		log.Logf("defaulting to legacy")
		e.tryLegacy(p.allowLegacy)
	}
	if p.useUSB && !dismissed && p.allowUSB {
		if e.tryUSB() == nil {
			return ResultBoot, nil
		}
	}

	log.Logf("trying fixed disk")
	if err := e.Kernel.LoadFixed(); err != nil {
		return ResultReboot, err
	}
	return ResultBoot, nil
}
