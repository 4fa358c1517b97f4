// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package bootmenu

import (
	"github.com/purecloudlabs/gvboot/pkg/log"
	"github.com/purecloudlabs/gvboot/pkg/nv"
)

// Context holds all menu navigation state. There is exactly one per boot
// path; callers pass it explicitly rather than sharing globals.
type Context struct {
	cur       Menu
	prev      Menu
	index     int
	prevIndex int
	selected  bool

	defaultBoot nv.BootTarget

	//called after any visible change (menu switch or highlight move);
	//callers use it to redraw. May be nil.
	OnChange func(*Context)
}

// New returns a Context positioned at the developer warning menu with Power
// Off highlighted, the conservative default.
func New(defaultBoot nv.BootTarget) *Context {
	return &Context{
		cur:         MenuDevWarning,
		prev:        MenuDevWarning,
		index:       WarnPowerOff,
		defaultBoot: defaultBoot,
	}
}

// NewRecovery returns a Context positioned at the recovery menu with Power
// Off highlighted.
func NewRecovery() *Context {
	return &Context{
		cur:   MenuRecovery,
		prev:  MenuRecovery,
		index: RecPowerOff,
	}
}

func (c *Context) Current() Menu  { return c.cur }
func (c *Context) Index() int     { return c.index }
func (c *Context) Selected() bool { return c.selected }

// At reports whether the highlight sits on entry idx of menu m. Controllers
// use it to decide which side effect a confirmed selection triggers.
func (c *Context) At(m Menu, idx int) bool {
	return c.cur == m && c.index == idx
}

func (c *Context) changed() {
	if c.OnChange != nil {
		c.OnChange(c)
	}
}

// Up moves the highlight toward the first entry. No wrap.
func (c *Context) Up() {
	if c.index > 0 {
		c.index--
	}
	c.changed()
}

// Down moves the highlight toward the last entry. No wrap.
func (c *Context) Down() {
	if c.index < Size(c.cur)-1 {
		c.index++
	}
	c.changed()
}

// setMenu switches to menu m with entry idx highlighted, recording where we
// came from. Switching menus always clears the selected flag.
func (c *Context) setMenu(m Menu, idx int) {
	c.prev = c.cur
	c.prevIndex = c.index
	c.cur = m
	c.index = idx
	c.selected = false
	c.changed()
}

// MarkSelected records that the user confirmed the highlighted entry. The
// flag survives Advance only if Advance stays on the same menu; controllers
// test it to run the entry's side effect.
func (c *Context) MarkSelected() { c.selected = true }

// Outcome is what Advance asks of its caller.
type Outcome int

const (
	//keep looping; any menu change already happened
	OutcomeContinue Outcome = iota
	//the user picked Power Off
	OutcomeShutdown
)

func (o Outcome) String() string {
	if o == OutcomeShutdown {
		return "shutdown"
	}
	return "continue"
}

// Advance applies the confirmed selection to navigation state. Entries whose
// effect is a menu switch perform it here; entries with external side effects
// (booting, debug info, mode changes) leave the state alone so the caller can
// see selected still set and act.
func (c *Context) Advance() Outcome {
	switch c.cur {
	case MenuDevWarning:
		switch c.index {
		case WarnOptions:
			idx := DevDisk
			switch c.defaultBoot {
			case nv.TargetUSB:
				idx = DevUSB
			case nv.TargetLegacy:
				idx = DevLegacy
			}
			c.setMenu(MenuDev, idx)
		case WarnDbgInfo:
			//caller shows debug info
		case WarnEnableVer:
			c.setMenu(MenuToNorm, ToNormPowerOff)
		case WarnPowerOff:
			return OutcomeShutdown
		case WarnLanguage:
			c.setMenu(MenuLanguages, LangEnUS)
		default:
			log.Logf("dev-warning menu: unmapped entry %d", c.index)
		}
	case MenuDev:
		switch c.index {
		case DevNetwork, DevLegacy, DevUSB, DevDisk:
			//caller attempts the boot
		case DevCancel:
			c.setMenu(MenuDevWarning, WarnPowerOff)
		case DevPowerOff:
			return OutcomeShutdown
		case DevLanguage:
			c.setMenu(MenuLanguages, LangEnUS)
		default:
			log.Logf("dev menu: unmapped entry %d", c.index)
		}
	case MenuToNorm:
		switch c.index {
		case ToNormConfirm:
			//caller requests return to verified mode
		case ToNormCancel:
			c.setMenu(MenuDevWarning, WarnPowerOff)
		case ToNormPowerOff:
			return OutcomeShutdown
		case ToNormLanguage:
			c.setMenu(MenuLanguages, LangEnUS)
		default:
			log.Logf("to-norm menu: unmapped entry %d", c.index)
		}
	case MenuRecovery:
		switch c.index {
		case RecToDev:
			c.setMenu(MenuToDev, ToDevPowerOff)
		case RecDbgInfo:
			//caller shows debug info
		case RecPowerOff:
			return OutcomeShutdown
		case RecLanguage:
			c.setMenu(MenuLanguages, LangEnUS)
		default:
			log.Logf("recovery menu: unmapped entry %d", c.index)
		}
	case MenuToDev:
		switch c.index {
		case ToDevConfirm:
			//caller enables developer mode
		case ToDevCancel:
			c.setMenu(MenuRecovery, RecPowerOff)
		case ToDevPowerOff:
			return OutcomeShutdown
		case ToDevLanguage:
			c.setMenu(MenuLanguages, LangEnUS)
		default:
			log.Logf("to-dev menu: unmapped entry %d", c.index)
		}
	case MenuLanguages:
		//any entry picks that language and returns to where we were,
		//highlight included. prev must not keep pointing here, or a
		//dangling reference to the language menu would survive.
		c.cur = c.prev
		c.index = c.prevIndex
		c.prev = c.cur
		c.prevIndex = c.index
		c.selected = false
		c.changed()
	default:
		log.Logf("invalid menu %d", int(c.cur))
	}
	return OutcomeContinue
}
