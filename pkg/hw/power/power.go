// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

//Package power handles poweroff- and reboot-related functionality, including
//running pre-reboot (Preboot) functions, plus the chassis signals (lid
//switch, power button) that can force a shutdown out of an interactive loop.
//
//As a side-effect of import, log.Fatal is set to power.FailReboot.
package power

import (
	"fmt"
	"os"
	"runtime/debug"
	"sync"
	"time"

	"github.com/purecloudlabs/gvboot/pkg/log"

	"golang.org/x/sys/unix"
)

// Signal is a bitmask of chassis events that demand a shutdown.
type Signal uint

const (
	SignalLidClosed Signal = 1 << iota
	SignalPowerButton
)

func (s Signal) String() string {
	switch {
	case s == 0:
		return "none"
	case s&SignalLidClosed != 0 && s&SignalPowerButton != 0:
		return "lid+power-button"
	case s&SignalLidClosed != 0:
		return "lid"
	default:
		return "power-button"
	}
}

// Monitor reports pending chassis events. Pending returns the signals
// currently asserted; it never blocks.
type Monitor interface {
	Pending() Signal
}

// Wanted polls m and masks out signals the caller must ignore. The power
// button is always masked - in the boot menus it is a navigation key, not a
// shutdown request. The lid is masked only when firmware policy says so.
func Wanted(m Monitor, ignoreLid bool) Signal {
	if m == nil {
		return 0
	}
	s := m.Pending() &^ SignalPowerButton
	if ignoreLid {
		s &^= SignalLidClosed
	}
	return s
}

// StaticMonitor always reports the same signals. For tests and the simulator.
type StaticMonitor struct {
	mu  sync.Mutex
	sig Signal
}

var _ Monitor = (*StaticMonitor)(nil)

func (sm *StaticMonitor) Pending() Signal {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.sig
}

func (sm *StaticMonitor) Assert(s Signal) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.sig |= s
}

func (sm *StaticMonitor) Clear() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.sig = 0
}

// Preboot funcs run before any reboot or poweroff, success or failure. Used
// to sync state that must not be lost across the transition.
type prebootList struct {
	mu    sync.Mutex
	funcs []func(success bool)
}

var preboots prebootList

func AddPreboot(f func(success bool)) {
	preboots.mu.Lock()
	defer preboots.mu.Unlock()
	preboots.funcs = append(preboots.funcs, f)
}

func (p *prebootList) perform(success bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, f := range p.funcs {
		f(success)
	}
}

// Defines the action taken on failure, which is to reboot. Importing this
// package has the side effect of calling log.SetFatalAction() with this.
var FatalAction = log.FailAction{
	MsgPfx:     "ERROR, rebooting:",
	Terminator: FailReboot,
}

func init() {
	log.SetFatalAction(FatalAction)
}

//Reboot.
func FailReboot() {
	Reboot(false)
}

//Reboot after a stage that ran to completion.
func RebootSuccess() {
	log.Logf("%s succeeded, rebooting...", log.GetPrefix())
	Reboot(true)
}

//Not for general use - prefer FailReboot() or RebootSuccess()
func Reboot(success bool) {
	/* this func can be called from a defer statement; deferred functions
	   will execute even if panic() was called. exiting or rebooting will
	   mask any such panic, so check for it and log it
	*/
	x := recover()
	if x != nil {
		log.Logf("panic() caught in reboot(success=%t)", success)
		success = false
		log.Msgf("internal error: %s", x)
		stars := "***********************************************************"
		log.Logf("%s\nstack trace:\n%s\n%s", stars, debug.Stack(), stars)
	}

	preboots.perform(success)
	if os.Getpid() != 1 {
		fmt.Fprintf(os.Stderr, "pid 1 would reboot here")
		os.Exit(0)
	}
	time.Sleep(2 * time.Second)
	err := unix.Reboot(unix.LINUX_REBOOT_CMD_RESTART)
	if err != nil {
		fmt.Printf("%s", err)
	}
}

func Off() {
	preboots.perform(true)
	if os.Getpid() != 1 {
		fmt.Fprintf(os.Stderr, "pid 1 would shutdown here")
		os.Exit(0)
	}
	time.Sleep(2 * time.Second)
	err := unix.Reboot(unix.LINUX_REBOOT_CMD_POWER_OFF)
	if err != nil {
		fmt.Printf("%s", err)
	}
}
