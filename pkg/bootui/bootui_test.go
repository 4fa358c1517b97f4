// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package bootui

import (
	"errors"
	"testing"
	"time"

	"github.com/purecloudlabs/gvboot/pkg/bootsession"
	"github.com/purecloudlabs/gvboot/pkg/hw/buzzer"
	"github.com/purecloudlabs/gvboot/pkg/hw/display"
	"github.com/purecloudlabs/gvboot/pkg/hw/input"
	"github.com/purecloudlabs/gvboot/pkg/hw/power"
	"github.com/purecloudlabs/gvboot/pkg/log/testlog"
	"github.com/purecloudlabs/gvboot/pkg/nv"
)

type fakeKernel struct {
	fixedErr error
	//per-call results for LoadRemovable; exhausted means success
	removable []error
	//overrides the sequence when set
	removableAlways error

	fixedCalls     int
	removableCalls int
}

func (f *fakeKernel) LoadFixed() error {
	f.fixedCalls++
	return f.fixedErr
}

func (f *fakeKernel) LoadRemovable() error {
	f.removableCalls++
	if f.removableAlways != nil {
		return f.removableAlways
	}
	if len(f.removable) == 0 {
		return nil
	}
	err := f.removable[0]
	f.removable = f.removable[1:]
	return err
}

type testEnv struct {
	*Env
	disp   *display.Mock
	beeps  *buzzer.Recorder
	kernel *fakeKernel
	mon    *power.StaticMonitor
	script *input.Script
	sleeps int
}

// newEnv builds an Env with scripted keys and no real delays. The countdown
// is shortened so timeout paths finish in a few dozen iterations.
func newEnv(t *testing.T, script string) *testEnv {
	testlog.NewTestLog(t, true, false)
	te := &testEnv{
		disp:   display.NewMock(),
		beeps:  &buzzer.Recorder{},
		kernel: &fakeKernel{},
		mon:    &power.StaticMonitor{},
		script: input.MustScript(script),
	}
	te.Env = &Env{
		Keys:    te.script,
		Disp:    te.disp,
		Beep:    te.beeps,
		Power:   te.mon,
		NV:      nv.NewMemStore(),
		Session: bootsession.New(),
		Kernel:  te.kernel,
		Sleep:   func(time.Duration) { te.sleeps++ },
	}
	te.Flags.ShortDevDelay = true
	return te
}

// shutdownAfter asserts a lid closure once n sleeps have elapsed, bounding
// loops that would otherwise spin forever.
func (te *testEnv) shutdownAfter(n int) {
	te.Env.Sleep = func(time.Duration) {
		te.sleeps++
		if te.sleeps >= n {
			te.mon.Assert(power.SignalLidClosed)
		}
	}
}

func TestConfirmUntrustedEnter(t *testing.T) {
	te := newEnv(t, "~enter enter")
	if d := te.confirm(true, false); d != DecisionYes {
		t.Errorf("decision %s", d)
	}
	if te.beeps.Count() != 1 {
		t.Errorf("%d beeps, want 1 for the untrusted Enter", te.beeps.Count())
	}
}

func TestConfirmNo(t *testing.T) {
	if d := newEnv(t, "esc").confirm(false, false); d != DecisionNo {
		t.Errorf("esc: %s", d)
	}
	if d := newEnv(t, "space").confirm(false, true); d != DecisionNo {
		t.Errorf("space: %s", d)
	}
	//space ignored unless it means no
	if d := newEnv(t, "space esc").confirm(false, false); d != DecisionNo {
		t.Errorf("space then esc: %s", d)
	}
}

//A physical recovery button is a yes, but only on press then release.
func TestConfirmRecButton(t *testing.T) {
	te := newEnv(t, "none none none")
	te.script.SwitchSeq = []input.Switch{input.SwRecButtonPressed, 0}
	if d := te.confirm(false, false); d != DecisionYes {
		t.Errorf("decision %s", d)
	}
}

//A virtual recovery switch must never confirm.
func TestConfirmRecButtonVirtual(t *testing.T) {
	te := newEnv(t, "none none none none")
	te.Session.RecSwitchVirtual = true
	te.script.SwitchSeq = []input.Switch{input.SwRecButtonPressed, 0}
	te.shutdownAfter(6)
	if d := te.confirm(false, false); d != DecisionShutdown {
		t.Errorf("decision %s", d)
	}
}

func TestConfirmShutdown(t *testing.T) {
	te := newEnv(t, "")
	te.mon.Assert(power.SignalLidClosed)
	if d := te.confirm(false, false); d != DecisionShutdown {
		t.Errorf("decision %s", d)
	}
}

//The lid is ignored when firmware flags say so.
func TestConfirmLidIgnored(t *testing.T) {
	te := newEnv(t, "enter")
	te.Flags.DisableLidShutdown = true
	te.mon.Assert(power.SignalLidClosed)
	if d := te.confirm(false, false); d != DecisionYes {
		t.Errorf("decision %s", d)
	}
}

//The developer menu opens with Power Off highlighted; Enter shuts down.
func TestDevPowerOff(t *testing.T) {
	te := newEnv(t, "enter")
	res, err := te.BootDeveloper()
	if err != nil || res != ResultShutdown {
		t.Errorf("res=%s err=%v", res, err)
	}
}

//No input: the delay expires and the fixed disk boots.
func TestDevTimeout(t *testing.T) {
	te := newEnv(t, "")
	res, err := te.BootDeveloper()
	if err != nil || res != ResultBoot {
		t.Errorf("res=%s err=%v", res, err)
	}
	if te.kernel.fixedCalls != 1 {
		t.Errorf("fixed disk tried %d times", te.kernel.fixedCalls)
	}
	//two warning beeps belong to the long delay only
	if te.beeps.Count() != 0 {
		t.Errorf("%d beeps during short delay", te.beeps.Count())
	}
}

//Ctrl+D skips the delay and also skips the USB/legacy defaults.
func TestDevCtrlD(t *testing.T) {
	te := newEnv(t, "ctrl-d")
	te.NV.Set(nv.DevDefaultBoot, uint32(nv.TargetUSB))
	te.NV.Set(nv.DevBootUSB, 1)
	res, err := te.BootDeveloper()
	if err != nil || res != ResultBoot {
		t.Errorf("res=%s err=%v", res, err)
	}
	if te.kernel.removableCalls != 0 {
		t.Error("Ctrl+D must not fall through to the USB default")
	}
	if te.kernel.fixedCalls != 1 {
		t.Errorf("fixed disk tried %d times", te.kernel.fixedCalls)
	}
}

//Developer Options lands on the USB entry when USB is the default; a failed
//USB boot clears the recovery request, beeps, and stays interactive.
func TestDevUSBDefault(t *testing.T) {
	te := newEnv(t, "up up up enter enter")
	te.NV.Set(nv.DevDefaultBoot, uint32(nv.TargetUSB))
	te.NV.Set(nv.DevBootUSB, 1)
	te.NV.Set(nv.RecoveryRequest, uint32(nv.ReasonECSoftwareSync))
	te.kernel.removableAlways = ErrNoDisk
	res, err := te.BootDeveloper()
	if err != nil || res != ResultBoot {
		t.Errorf("res=%s err=%v", res, err)
	}
	//menu attempt plus the use_usb fallout attempt
	if te.kernel.removableCalls != 2 {
		t.Errorf("removable tried %d times, want 2", te.kernel.removableCalls)
	}
	if nv.RecoveryRequested(te.NV) != 0 {
		t.Error("failed USB boot left recovery request set")
	}
	if te.kernel.fixedCalls != 1 {
		t.Error("fixed disk fallback missing")
	}
}

//Ctrl+U without permission warns and double-beeps, and doesn't touch media.
func TestDevCtrlUDisabled(t *testing.T) {
	te := newEnv(t, "ctrl-u")
	res, err := te.BootDeveloper()
	if err != nil || res != ResultBoot {
		t.Errorf("res=%s err=%v", res, err)
	}
	if te.kernel.removableCalls != 0 {
		t.Error("USB tried despite being disabled")
	}
	if te.beeps.Count() != 2 {
		t.Errorf("%d beeps, want 2", te.beeps.Count())
	}
}

//Policy-disabled developer boot only offers the return to verified mode.
func TestDevDisabledByPolicy(t *testing.T) {
	te := newEnv(t, "esc enter")
	te.Policy.DisableDevBoot = true
	res, err := te.BootDeveloper()
	if err != nil || res != ResultReboot {
		t.Errorf("res=%s err=%v", res, err)
	}
	if !nv.IsSet(te.NV, nv.DisableDevRequest) {
		t.Error("disable-dev request not set")
	}
	var confirmed bool
	for _, s := range te.disp.Screens() {
		if s == display.ScreenToNormConfirmed {
			confirmed = true
		}
	}
	if !confirmed {
		t.Error("confirmation screen never shown")
	}
}

//The forced dev switch wins over the policy disable.
func TestDevForceSwitchBeatsPolicy(t *testing.T) {
	te := newEnv(t, "enter")
	te.Policy.DisableDevBoot = true
	te.Flags.ForceDevSwitchOn = true
	res, err := te.BootDeveloper()
	if err != nil || res != ResultShutdown {
		t.Errorf("res=%s err=%v", res, err)
	}
}

//Enable Root Verification through the menus requests verified mode.
func TestDevToNormViaMenu(t *testing.T) {
	te := newEnv(t, "up enter up up enter")
	res, err := te.BootDeveloper()
	if err != nil || res != ResultReboot {
		t.Errorf("res=%s err=%v", res, err)
	}
	if !nv.IsSet(te.NV, nv.DisableDevRequest) {
		t.Error("disable-dev request not set")
	}
}

//Unsolicited recovery parks on the broken screen with the reason saved as
//the subcode, committed immediately.
func TestRecoveryBroken(t *testing.T) {
	te := newEnv(t, "")
	te.Session.RecoveryReason = nv.ReasonECHashFailed
	te.shutdownAfter(3)
	res, err := te.BootRecovery()
	if err != nil || res != ResultShutdown {
		t.Errorf("res=%s err=%v", res, err)
	}
	sub, _ := te.NV.Get(nv.RecoverySubcode)
	if nv.Reason(sub) != nv.ReasonECHashFailed {
		t.Errorf("subcode %#x", sub)
	}
	if te.NV.(*nv.MemStore).Commits == 0 {
		t.Error("subcode not committed")
	}
	if te.disp.LastScreen() != display.ScreenBlank {
		t.Errorf("last screen %s", te.disp.LastScreen())
	}
}

//Media appearing on a later poll boots, with the request already cleared.
func TestRecoveryMediaBoot(t *testing.T) {
	te := newEnv(t, "")
	te.Session.RecSwitchOn = true
	te.Session.RecoveryReason = nv.ReasonECSoftwareSync
	te.NV.Set(nv.RecoveryRequest, uint32(nv.ReasonECSoftwareSync))
	te.kernel.removable = []error{ErrNoDisk}
	res, err := te.BootRecovery()
	if err != nil || res != ResultBoot {
		t.Errorf("res=%s err=%v", res, err)
	}
	if te.kernel.removableCalls != 2 {
		t.Errorf("removable tried %d times", te.kernel.removableCalls)
	}
	if nv.RecoveryRequested(te.NV) != 0 {
		t.Error("recovery request still set")
	}
}

//Unusable media shows the no-good screen; empty slots show the base screen.
func TestRecoveryNoGood(t *testing.T) {
	te := newEnv(t, "")
	te.Session.RecSwitchOn = true
	te.Session.RecoveryReason = nv.ReasonECSoftwareSync
	te.kernel.removable = []error{errors.New("bad signature")}
	res, err := te.BootRecovery()
	if err != nil || res != ResultBoot {
		t.Errorf("res=%s err=%v", res, err)
	}
	var sawNoGood bool
	for _, s := range te.disp.Screens() {
		if s == display.ScreenNoGood {
			sawNoGood = true
		}
	}
	if !sawNoGood {
		t.Errorf("screens: %v", te.disp.Screens())
	}
}

func toDevEnv(t *testing.T, script string) *testEnv {
	te := newEnv(t, script)
	te.Session.RecoveryReason = nv.ReasonECSoftwareSync
	te.Session.RecSwitchOn = true
	te.Session.RecSwitchVirtual = true
	te.Session.HonorVirtualDevSwitch = true
	te.TrustEC = func() bool { return true }
	te.kernel.removableAlways = ErrNoDisk
	return te
}

//Enabling developer mode from recovery flips the virtual switch and asks
//for a reboot; the allow-USB switch also enables USB boot for the new mode.
func TestRecoveryToDev(t *testing.T) {
	te := toDevEnv(t, "up up enter up up enter")
	var set bool
	te.SetDevMode = func(on bool) error {
		set = on
		return nil
	}
	te.script.Held = input.SwAllowUSBBoot
	res, err := te.BootRecovery()
	if err != nil || res != ResultReboot {
		t.Fatalf("res=%s err=%v", res, err)
	}
	if !set {
		t.Error("virtual dev switch not set")
	}
	if !nv.IsSet(te.NV, nv.DevBootUSB) {
		t.Error("allow-USB switch ignored")
	}
}

//A stuck physical recovery button blocks the confirmation.
func TestRecoveryToDevStuckButton(t *testing.T) {
	te := toDevEnv(t, "up up enter up up enter")
	te.Session.RecSwitchVirtual = false
	te.script.Held = input.SwRecButtonPressed
	te.SetDevMode = func(bool) error {
		t.Error("dev mode set despite stuck button")
		return nil
	}
	te.shutdownAfter(200)
	res, err := te.BootRecovery()
	if err != nil || res != ResultShutdown {
		t.Fatalf("res=%s err=%v", res, err)
	}
	if te.beeps.Count() == 0 {
		t.Error("no beep for the stuck button")
	}
}

//Already in dev mode: the confirmation is refused and the menu continues.
func TestRecoveryToDevRefused(t *testing.T) {
	te := toDevEnv(t, "up up enter up up enter")
	te.Session.DevSwitchOn = true
	te.SetDevMode = func(bool) error {
		t.Error("dev mode set despite refusal")
		return nil
	}
	te.shutdownAfter(200)
	res, err := te.BootRecovery()
	if err != nil || res != ResultShutdown {
		t.Fatalf("res=%s err=%v", res, err)
	}
}

//TPM refusal surfaces as an error so the caller reboots.
func TestRecoveryToDevTPMFailure(t *testing.T) {
	te := toDevEnv(t, "up up enter up up enter")
	te.SetDevMode = func(bool) error { return errors.New("tpm: no") }
	_, err := te.BootRecovery()
	if !errors.Is(err, ErrSetDevMode) {
		t.Errorf("err = %v", err)
	}
}
