// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package input

import "testing"

func TestScriptReplay(t *testing.T) {
	s := MustScript("up down ~enter ctrl-d none power")
	want := []struct {
		k       Key
		trusted bool
	}{
		{KeyUp, true},
		{KeyDown, true},
		{KeyEnter, false},
		{KeyCtrlD, true},
		{KeyNone, true},
		{ButtonPower, true},
	}
	for i, w := range want {
		k, trusted := s.ReadKeyTrusted()
		if k != w.k || trusted != w.trusted {
			t.Errorf("event %d: got %s/%t want %s/%t", i, k, trusted, w.k, w.trusted)
		}
	}
	//exhausted scripts read as no key, forever
	for i := 0; i < 3; i++ {
		if k := s.ReadKey(); k != KeyNone {
			t.Errorf("exhausted read %d: %s", i, k)
		}
	}
}

func TestScriptBadToken(t *testing.T) {
	if _, err := NewScript("up bogus"); err == nil {
		t.Error("bad token accepted")
	}
}

//Switch sequences replay per poll, with the last state sticky; Held ORs in.
func TestSwitches(t *testing.T) {
	s := MustScript("")
	s.SwitchSeq = []Switch{SwRecButtonPressed, 0}
	if s.Switches(SwRecButtonPressed) == 0 {
		t.Error("press edge missing")
	}
	for i := 0; i < 2; i++ {
		if s.Switches(SwRecButtonPressed) != 0 {
			t.Error("release not sticky")
		}
	}
	s.Held = SwAllowUSBBoot
	if s.Switches(SwAllowUSBBoot) == 0 {
		t.Error("held switch missing")
	}
	if s.Switches(SwRecButtonPressed) != 0 {
		t.Error("mask ignored")
	}
}
