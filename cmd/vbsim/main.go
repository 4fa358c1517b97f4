// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Command vbsim exercises the boot decision core on a dev machine: fake EC,
// scripted or absent keyboard, console rendering, NV state in a local db.
// Useful for trying menu flows and sync scenarios without hardware.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/purecloudlabs/gvboot/pkg/bootsession"
	"github.com/purecloudlabs/gvboot/pkg/bootui"
	"github.com/purecloudlabs/gvboot/pkg/ecsync"
	"github.com/purecloudlabs/gvboot/pkg/ecsync/bundle"
	"github.com/purecloudlabs/gvboot/pkg/fwflags"
	"github.com/purecloudlabs/gvboot/pkg/hw/input"
	"github.com/purecloudlabs/gvboot/pkg/hw/power"
	"github.com/purecloudlabs/gvboot/pkg/log"
	"github.com/purecloudlabs/gvboot/pkg/nv"
)

var (
	mode      = flag.String("mode", "dev", "boot mode: dev, recovery, broken")
	nvPath    = flag.String("nv", "./vbsim.nv", "path to NV variable db")
	keys      = flag.String("keys", "", "scripted key sequence, e.g. 'up up enter'")
	flagBlob  = flag.String("fwflags", "short-dev-delay", "firmware flag tokens")
	policy    = flag.String("policy", "", "management policy tokens")
	ecBundle  = flag.String("ec-bundle", "", "dir of xz EC images; empty = in-memory")
	ecInRW    = flag.Bool("ec-in-rw", false, "EC starts in its RW image")
	ecStale   = flag.Bool("ec-stale", false, "EC starts with an outdated RW image")
	wp        = flag.Bool("wp", true, "firmware write protect asserted")
	firmwareB = flag.Bool("slot-b", false, "AP booted from RW slot B")
)

func main() {
	flag.Parse()
	log.AddConsoleLog(0)
	log.FlushMemLog()
	log.SetPrefix("vbsim")

	store, err := nv.OpenDiskStore(*nvPath)
	if err != nil {
		log.Fatalf("open NV db: %s", err)
	}
	defer store.Close()

	sess := bootsession.New()
	sess.FirmwareB = *firmwareB
	sess.WPEnabled = *wp
	sess.ECSoftwareSync = true
	sess.HonorVirtualDevSwitch = true
	switch *mode {
	case "dev":
		sess.DevSwitchOn = true
	case "recovery":
		sess.RecSwitchOn = true
		sess.RecSwitchVirtual = true
		sess.RecoveryReason = nv.ReasonECSoftwareSync
	case "broken":
		sess.RecoveryReason = nv.ReasonECSoftwareSync
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		os.Exit(1)
	}

	ff := fwflags.Parse(*flagBlob)
	orch := &ecsync.Orchestrator{
		NV:      store,
		Session: sess,
		Flags:   ff,
		Devices: []*ecsync.Device{ecDevice()},
	}

	if err := orch.Phase1(); err != nil {
		log.Fatalf("sync phase1: %s", err)
	}
	if orch.WillUpdateSlowly() {
		log.Msgf("Your system is applying a critical update; please do not turn off.")
	}
	if err := orch.Phase2(); err != nil {
		log.Fatalf("sync phase2: %s", err)
	}

	env := &bootui.Env{
		Keys:    input.MustScript(*keys),
		Disp:    &consoleDisplay{},
		Beep:    consoleBeeper{},
		Power:   &power.StaticMonitor{},
		NV:      store,
		Session: sess,
		Flags:   ff,
		Policy:  fwflags.ParsePolicy(*policy),
		Kernel:  &simKernel{},
		TrustEC: func() bool { return true },
		SetDevMode: func(on bool) error {
			log.Msgf("virtual dev switch -> %t", on)
			return nil
		},
	}

	var res bootui.Result
	if sess.InRecovery() && *mode != "dev" {
		res, err = env.BootRecovery()
	} else {
		res, err = env.BootDeveloper()
	}
	if err != nil {
		log.Logf("boot flow: %s", err)
	}

	if err := orch.Phase3(); err != nil {
		log.Logf("sync phase3: %s", err)
	}
	if err := store.Commit(); err != nil {
		log.Logf("commit NV: %s", err)
	}
	log.Msgf("result: %s", res)
}

// ecDevice builds the fake EC, optionally serving images from an xz bundle.
func ecDevice() *ecsync.Device {
	current := []byte("ec rw v1")
	want := current
	if *ecStale {
		want = []byte("ec rw v2")
	}
	ro := []byte("ec ro v1")

	fake := ecsync.NewFakeEC(ro, current)
	fake.SetRunningRW(*ecInRW)

	var src ecsync.ImageSource = ecsync.MemImages{RO: ro, RW: want}
	if *ecBundle != "" {
		bsrc, err := bundle.New(*ecBundle)
		if err != nil {
			log.Fatalf("EC bundle: %s", err)
		}
		src = bsrc
	}
	return &ecsync.Device{Name: "ec", Ctrl: fake, Images: src, ROCapable: true}
}

// simKernel pretends the fixed disk always has a kernel and removable
// media never does.
type simKernel struct{}

func (simKernel) LoadFixed() error {
	log.Logf("loading kernel from fixed disk")
	return nil
}

func (simKernel) LoadRemovable() error {
	return bootui.ErrNoDisk
}
