// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package ecsync

import (
	"errors"
	"fmt"

	"github.com/purecloudlabs/gvboot/pkg/bootsession"
	"github.com/purecloudlabs/gvboot/pkg/fwflags"
	"github.com/purecloudlabs/gvboot/pkg/log"
	"github.com/purecloudlabs/gvboot/pkg/nv"
)

// Maximum attempts at flashing the RO image before giving up.
const roRetries = 2

// Orchestrator runs software sync across all EC-like devices. Phase1 decides
// what work exists, Phase2 performs it, Phase3 finalizes. Phases must run in
// order, on the boot goroutine; any phase returning ErrRebootToRO aborts the
// boot so the AP can reset the EC.
type Orchestrator struct {
	NV      nv.Store
	Session *bootsession.Session
	Flags   fwflags.Flags
	Devices []*Device
}

// active returns the devices sync will touch, honoring the firmware flag
// that excludes secondary (PD) devices.
func (o *Orchestrator) active() []*Device {
	if !o.Flags.DisablePDSync || len(o.Devices) == 0 {
		return o.Devices
	}
	return o.Devices[:1]
}

// rwImage is the RW copy matching the AP firmware slot we booted from.
func (o *Orchestrator) rwImage() Image {
	if o.Session.FirmwareB {
		return ImageRWB
	}
	return ImageRWA
}

// enabled reports whether software sync runs at all this boot.
func (o *Orchestrator) enabled() bool {
	if !o.Session.ECSoftwareSync {
		return false
	}
	return !o.Flags.DisableECSync
}

// Phase1 determines what sync work is needed, before any display init. It
// only reads EC state; the flags it sets on each Device drive Phase2. In
// recovery mode the sole requirement is that every EC runs RO code.
func (o *Orchestrator) Phase1() error {
	if !o.enabled() {
		return nil
	}

	for _, d := range o.active() {
		if err := o.checkActive(d); err != nil {
			return err
		}
	}

	// Recovery boots carry no RW image to sync against.
	if o.Session.InRecovery() {
		return nil
	}

	rw := o.rwImage()
	for _, d := range o.active() {
		match, err := d.hashMatches(o.NV, rw)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrRebootToRO, err)
		}
		d.NeedRWSync = !match
	}

	// RO sync only when requested, and never through write protection.
	if nv.IsSet(o.NV, nv.TryROSync) && !o.Session.WPEnabled {
		for _, d := range o.active() {
			if !d.ROCapable {
				continue
			}
			match, err := d.hashMatches(o.NV, ImageRO)
			if err != nil {
				return fmt.Errorf("%w: %s", ErrRebootToRO, err)
			}
			d.NeedROSync = !match
		}
	}

	// RW can't be rewritten while the EC is executing it.
	for _, d := range o.active() {
		if d.NeedRWSync && d.InRW {
			log.Logf("%s: RW update pending but EC is in RW", d.Name)
			return fmt.Errorf("%w: %s in RW with update pending",
				ErrRebootToRO, d.Name)
		}
	}
	return nil
}

// checkActive learns whether d runs RO or RW and enforces the recovery-mode
// invariant that the EC must be in RO.
func (o *Orchestrator) checkActive(d *Device) error {
	inRW, err := d.Ctrl.RunningRW()
	if inRW {
		d.InRW = true
	}

	if o.Session.InRecovery() {
		if err == nil && inRW {
			/* Preserve the current recovery reason across the
			   reboot. We don't reboot on error or unknown EC
			   state - that risks an endless reboot loop. */
			log.Logf("%s: want recovery but EC is in RW", d.Name)
			nv.RequestRecovery(o.NV, o.Session.RecoveryReason)
			return fmt.Errorf("%w: %s in RW during recovery",
				ErrRebootToRO, d.Name)
		}
		log.Logf("%s: in recovery; EC-RO", d.Name)
		return nil
	}

	if err != nil {
		log.Logf("%s: RunningRW: %s", d.Name, err)
		nv.RequestRecovery(o.NV, nv.ReasonECUnknownImage)
		return fmt.Errorf("%w: %s image unknown: %s", ErrRebootToRO, d.Name, err)
	}
	return nil
}

// WillUpdateSlowly reports whether Phase2 will perform an update on hardware
// that flashes slowly, so the caller can warn the user before the stall.
func (o *Orchestrator) WillUpdateSlowly() bool {
	if !o.Session.ECSlowUpdate {
		return false
	}
	for _, d := range o.active() {
		if d.NeedRWSync || d.NeedROSync {
			return true
		}
	}
	return false
}

// Phase2 performs the updates, jumps, and protection Phase1 called for.
func (o *Orchestrator) Phase2() error {
	if !o.enabled() || o.Session.InRecovery() {
		return nil
	}
	for _, d := range o.active() {
		if err := o.syncOne(d); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) syncOne(d *Device) error {
	rw := o.rwImage()

	if d.NeedRWSync {
		if err := o.updateAndVerify(d, rw); err != nil {
			return fmt.Errorf("%w: %s", ErrRebootToRO, err)
		}
	}

	if !d.InRW {
		log.Logf("%s: jumping to EC-RW", d.Name)
		if err := d.Ctrl.JumpToRW(); err != nil {
			/* The EC may need a reset to unlock jumping if a
			   previous boot told it to stay in RO. Anything else
			   is a real failure. */
			if !errors.Is(err, ErrRebootToRO) {
				nv.RequestRecovery(o.NV, nv.ReasonECJumpRW)
			}
			return fmt.Errorf("%w: %s jump to RW: %s", ErrRebootToRO, d.Name, err)
		}
		d.InRW = true
	}

	if d.NeedROSync {
		if err := o.roSyncWithRetry(d); err != nil {
			return err
		}
	}

	if err := o.protect(d, ImageRO); err != nil {
		return err
	}
	if err := o.protect(d, rw); err != nil {
		return err
	}

	if err := d.Ctrl.DisableJump(); err != nil {
		log.Logf("%s: DisableJump: %s", d.Name, err)
		nv.RequestRecovery(o.NV, nv.ReasonECSoftwareSync)
		return fmt.Errorf("%w: %s disable jump: %s", ErrRebootToRO, d.Name, err)
	}
	return nil
}

// roSyncWithRetry flashes the RO image, retrying on failure. A failed try
// overwrites any pending recovery request, so the prior request is captured
// first and restored if a later try succeeds.
func (o *Orchestrator) roSyncWithRetry(d *Device) error {
	log.Logf("%s: RO software sync", d.Name)
	if err := o.NV.Set(nv.TryROSync, 0); err != nil {
		return fmt.Errorf("clear RO sync request: %w", err)
	}
	prior, err := o.NV.Get(nv.RecoveryRequest)
	if err != nil {
		return fmt.Errorf("read recovery request: %w", err)
	}

	tries := 0
	for ; tries < roRetries; tries++ {
		if o.updateAndVerify(d, ImageRO) == nil {
			break
		}
	}
	if tries == roRetries {
		return fmt.Errorf("%w: %s RO update failed %d times",
			ErrRebootToRO, d.Name, roRetries)
	}
	if tries > 0 {
		// a failed try polluted the recovery request; put it back
		if err := o.NV.Set(nv.RecoveryRequest, prior); err != nil {
			return fmt.Errorf("restore recovery request: %w", err)
		}
	}
	return nil
}

// updateAndVerify rewrites img on d and confirms the hash now matches.
func (o *Orchestrator) updateAndVerify(d *Device, img Image) error {
	log.Logf("%s: updating %s...", d.Name, img)
	data, err := d.Images.ExpectedImage(img)
	if err != nil {
		log.Logf("%s: expected %s image: %s", d.Name, img, err)
		nv.RequestRecovery(o.NV, nv.ReasonECExpectedImage)
		return fmt.Errorf("%s: expected %s image: %w", d.Name, img, err)
	}
	log.Logf("%s: image len = %d", d.Name, len(data))

	if err := d.Ctrl.UpdateImage(img, data); err != nil {
		log.Logf("%s: UpdateImage(%s): %s", d.Name, img, err)
		/* The EC may know it needs a reboot, to unprotect the region
		   before updating or to reboot after. That's not an error
		   requiring recovery mode; everything else is. */
		if !errors.Is(err, ErrRebootToRO) {
			nv.RequestRecovery(o.NV, nv.ReasonECUpdate)
		}
		return fmt.Errorf("%s: update %s: %w", d.Name, img, err)
	}

	*d.need(img) = false
	match, err := d.hashMatches(o.NV, img)
	if err != nil {
		return err
	}
	if !match {
		log.Logf("%s: %s still mismatched after update", d.Name, img)
		*d.need(img) = true
		nv.RequestRecovery(o.NV, nv.ReasonECUpdate)
		return fmt.Errorf("%s: %s mismatched after update", d.Name, img)
	}
	return nil
}

// Phase3 finalizes sync: the EC learns verification is done, then any
// pending battery cutoff runs. Cutoff must happen after EC updates and
// before a kernel starts; the cleared request is committed first so the
// cutoff can't repeat every boot.
func (o *Orchestrator) Phase3() error {
	if err := devsVbootDone(o.active(), o.Session.InRecovery()); err != nil {
		return err
	}

	if nv.IsSet(o.NV, nv.BatteryCutoffRequest) {
		log.Logf("request to cut off battery")
		if err := o.NV.Set(nv.BatteryCutoffRequest, 0); err != nil {
			return err
		}
		if err := o.NV.Commit(); err != nil {
			return err
		}
		if len(o.Devices) > 0 {
			if err := o.Devices[0].Ctrl.BatteryCutoff(); err != nil {
				return err
			}
		}
		return ErrShutdown
	}
	return nil
}

func devsVbootDone(devs []*Device, inRecovery bool) error {
	for _, d := range devs {
		if err := d.Ctrl.VbootDone(inRecovery); err != nil {
			return fmt.Errorf("%s: vboot done: %w", d.Name, err)
		}
	}
	return nil
}

// protect write-protects img on d. ErrRebootToRO from the controller passes
// through untouched; other failures request recovery.
func (o *Orchestrator) protect(d *Device, img Image) error {
	err := d.Ctrl.Protect(img)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrRebootToRO) {
		log.Logf("%s: protect %s needs reboot", d.Name, img)
		return fmt.Errorf("%s: protect %s: %w", d.Name, img, err)
	}
	log.Logf("%s: Protect(%s): %s", d.Name, img, err)
	nv.RequestRecovery(o.NV, nv.ReasonECProtect)
	return fmt.Errorf("%s: protect %s: %w", d.Name, img, err)
}
