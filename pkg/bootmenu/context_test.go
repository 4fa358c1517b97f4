// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package bootmenu

import (
	"testing"

	"github.com/purecloudlabs/gvboot/pkg/nv"
)

//Highlight must not wrap in either direction.
func TestClamp(t *testing.T) {
	c := New(nv.TargetDisk)
	for i := 0; i < 10; i++ {
		c.Down()
	}
	if c.Index() != Size(MenuDevWarning)-1 {
		t.Errorf("down: want %d, got %d", Size(MenuDevWarning)-1, c.Index())
	}
	for i := 0; i < 10; i++ {
		c.Up()
	}
	if c.Index() != 0 {
		t.Errorf("up: want 0, got %d", c.Index())
	}
}

//Developer Options must land on the entry matching the default boot target.
func TestOptionsDefaultBoot(t *testing.T) {
	tests := []struct {
		target nv.BootTarget
		want   int
	}{
		{nv.TargetDisk, DevDisk},
		{nv.TargetUSB, DevUSB},
		{nv.TargetLegacy, DevLegacy},
		{nv.BootTarget(99), DevDisk},
	}
	for _, td := range tests {
		c := New(td.target)
		for c.Index() != WarnOptions {
			c.Up()
		}
		c.MarkSelected()
		if out := c.Advance(); out != OutcomeContinue {
			t.Errorf("target %d: outcome %s", td.target, out)
		}
		if c.Current() != MenuDev || c.Index() != td.want {
			t.Errorf("target %d: at %s[%d], want dev[%d]", td.target,
				c.Current(), c.Index(), td.want)
		}
		if c.Selected() {
			t.Errorf("target %d: selected not cleared by menu switch", td.target)
		}
	}
}

//Every Power Off entry requests shutdown without touching navigation.
func TestPowerOff(t *testing.T) {
	tests := []struct {
		ctx *Context
		idx int
	}{
		{New(nv.TargetDisk), WarnPowerOff},
		{NewRecovery(), RecPowerOff},
	}
	for _, td := range tests {
		c := td.ctx
		for c.Index() != td.idx {
			if c.Index() < td.idx {
				c.Down()
			} else {
				c.Up()
			}
		}
		c.MarkSelected()
		if out := c.Advance(); out != OutcomeShutdown {
			t.Errorf("%s[%d]: outcome %s, want shutdown", c.Current(), td.idx, out)
		}
	}
}

//Entries whose effect lives outside the menu model must leave the position
//and the selected flag intact so the caller can act on them.
func TestSideEffectEntriesStay(t *testing.T) {
	tests := []struct {
		name string
		menu Menu
		idx  int
	}{
		{"warn dbg info", MenuDevWarning, WarnDbgInfo},
		{"dev network", MenuDev, DevNetwork},
		{"dev disk", MenuDev, DevDisk},
		{"to-norm confirm", MenuToNorm, ToNormConfirm},
		{"rec dbg info", MenuRecovery, RecDbgInfo},
		{"to-dev confirm", MenuToDev, ToDevConfirm},
	}
	for _, td := range tests {
		c := New(nv.TargetDisk)
		c.cur = td.menu
		c.index = td.idx
		c.MarkSelected()
		if out := c.Advance(); out != OutcomeContinue {
			t.Errorf("%s: outcome %s", td.name, out)
		}
		if !c.At(td.menu, td.idx) {
			t.Errorf("%s: moved to %s[%d]", td.name, c.Current(), c.Index())
		}
		if !c.Selected() {
			t.Errorf("%s: selected flag lost", td.name)
		}
	}
}

//Cancel entries return to the owning menu with Power Off highlighted.
func TestCancel(t *testing.T) {
	c := New(nv.TargetDisk)
	c.cur, c.index = MenuDev, DevCancel
	c.MarkSelected()
	c.Advance()
	if !c.At(MenuDevWarning, WarnPowerOff) {
		t.Errorf("dev cancel: at %s[%d]", c.Current(), c.Index())
	}
	c = NewRecovery()
	c.cur, c.index = MenuToDev, ToDevCancel
	c.MarkSelected()
	c.Advance()
	if !c.At(MenuRecovery, RecPowerOff) {
		t.Errorf("to-dev cancel: at %s[%d]", c.Current(), c.Index())
	}
}

//Entering Languages and picking a language must return to the exact spot we
//left, however we got there.
func TestLanguagesRoundTrip(t *testing.T) {
	for _, m := range []Menu{MenuDevWarning, MenuDev, MenuToNorm, MenuRecovery, MenuToDev} {
		items := Items(m)
		lang := len(items) - 1
		c := New(nv.TargetDisk)
		c.cur = m
		c.index = lang
		c.MarkSelected()
		if out := c.Advance(); out != OutcomeContinue {
			t.Errorf("%s: outcome %s", m, out)
		}
		if !c.At(MenuLanguages, LangEnUS) {
			t.Fatalf("%s: language entry went to %s[%d]", m, c.Current(), c.Index())
		}
		c.MarkSelected()
		c.Advance()
		if !c.At(m, lang) {
			t.Errorf("%s: round trip landed at %s[%d], want %s[%d]",
				m, c.Current(), c.Index(), m, lang)
		}
		if c.Selected() {
			t.Errorf("%s: selected survived language pick", m)
		}
		if c.prev == MenuLanguages {
			t.Errorf("%s: prev still points at the language menu", m)
		}
	}
}

//Unmapped (menu, index) pairs must be no-ops: position, selected flag, and
//outcome all unchanged.
func TestUnmappedNoOp(t *testing.T) {
	for _, m := range []Menu{MenuDevWarning, MenuDev, MenuToNorm, MenuRecovery, MenuToDev} {
		c := New(nv.TargetDisk)
		c.cur = m
		c.index = 99
		c.MarkSelected()
		if out := c.Advance(); out != OutcomeContinue {
			t.Errorf("%s[99]: outcome %s", m, out)
		}
		if !c.At(m, 99) || !c.Selected() {
			t.Errorf("%s[99]: state changed, now %s[%d] selected=%t",
				m, c.Current(), c.Index(), c.Selected())
		}
	}
	c := New(nv.TargetDisk)
	c.cur = Menu(42)
	c.MarkSelected()
	if out := c.Advance(); out != OutcomeContinue {
		t.Errorf("bogus menu: outcome %s", out)
	}
	if !c.At(Menu(42), WarnPowerOff) || !c.Selected() {
		t.Errorf("bogus menu: state changed, now %s[%d]", c.Current(), c.Index())
	}
}

//Enabling root verification defaults the confirm menu to Power Off.
func TestEnableVer(t *testing.T) {
	c := New(nv.TargetDisk)
	c.index = WarnEnableVer
	c.MarkSelected()
	c.Advance()
	if !c.At(MenuToNorm, ToNormPowerOff) {
		t.Errorf("at %s[%d]", c.Current(), c.Index())
	}
}

//Navigation and menu switches must fire the redraw hook.
func TestOnChange(t *testing.T) {
	var n int
	c := NewRecovery()
	c.OnChange = func(*Context) { n++ }
	c.Up()
	c.Down()
	c.index = RecToDev
	c.MarkSelected()
	c.Advance()
	if !c.At(MenuToDev, ToDevPowerOff) {
		t.Fatalf("at %s[%d]", c.Current(), c.Index())
	}
	if n != 3 {
		t.Errorf("OnChange fired %d times, want 3", n)
	}
}
