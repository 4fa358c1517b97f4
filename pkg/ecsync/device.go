// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

//Package ecsync keeps embedded controller firmware in lockstep with the
//images the AP firmware carries. It decides which EC images need rewriting,
//performs the updates in a safe order (RW while running RO, then jump, then
//RO, then protect), and reports when the AP must instead reboot the EC or
//shut the machine down.
package ecsync

import (
	"crypto/subtle"
	"fmt"

	"github.com/purecloudlabs/gvboot/pkg/log"
	"github.com/purecloudlabs/gvboot/pkg/nv"
)

// Image selects one of the firmware images an EC carries.
type Image int

const (
	ImageRO Image = iota
	ImageRWA
	ImageRWB
)

func (i Image) String() string {
	switch i {
	case ImageRO:
		return "RO"
	case ImageRWA:
		return "RW-A"
	case ImageRWB:
		return "RW-B"
	}
	return "invalid"
}

// Controller is the transaction interface to one EC-like device. Every call
// is a blocking hardware exchange; implementations return ErrRebootToRO
// (wrapped or bare) when the EC needs a reset before it can comply.
type Controller interface {
	//RunningRW reports whether the EC is executing its RW image.
	RunningRW() (bool, error)
	//CurrentHash returns the EC's own digest of img.
	CurrentHash(img Image) ([]byte, error)
	JumpToRW() error
	//DisableJump locks the EC out of further image jumps until reset.
	DisableJump() error
	Protect(img Image) error
	UpdateImage(img Image, data []byte) error
	//VbootDone tells the EC that verification is finished and whether the
	//boot is a recovery boot.
	VbootDone(inRecovery bool) error
	BatteryCutoff() error
}

// ImageSource supplies the images (and their digests) the AP firmware
// expects the EC to run.
type ImageSource interface {
	ExpectedHash(img Image) ([]byte, error)
	ExpectedImage(img Image) ([]byte, error)
}

// Device pairs a controller with its image source and tracks what sync has
// learned about it. The flags replace the shared bitmask the state would
// otherwise hide in: each is set by exactly one check and read by name.
type Device struct {
	Name   string
	Ctrl   Controller
	Images ImageSource
	//only the primary EC carries a syncable RO image
	ROCapable bool

	//set by Phase1, consumed by Phase2
	NeedRWSync bool
	NeedROSync bool
	InRW       bool
}

// hashMatches compares the EC's current digest of img against the expected
// one. A failure to obtain either digest requests recovery and returns the
// error; a clean mismatch is (false, nil).
func (d *Device) hashMatches(s nv.Store, img Image) (bool, error) {
	cur, err := d.Ctrl.CurrentHash(img)
	if err != nil {
		log.Logf("%s: read %s hash: %s", d.Name, img, err)
		nv.RequestRecovery(s, nv.ReasonECHashFailed)
		return false, fmt.Errorf("%s: read %s hash: %w", d.Name, img, err)
	}
	log.Logf("%s: %s hash: %x", d.Name, img, cur)
	want, err := d.Images.ExpectedHash(img)
	if err != nil {
		log.Logf("%s: expected %s hash: %s", d.Name, img, err)
		nv.RequestRecovery(s, nv.ReasonECExpectedHash)
		return false, fmt.Errorf("%s: expected %s hash: %w", d.Name, img, err)
	}
	if len(cur) != len(want) {
		log.Logf("%s: EC uses %d-byte hash, firmware carries %d bytes",
			d.Name, len(cur), len(want))
		nv.RequestRecovery(s, nv.ReasonECHashSize)
		return false, fmt.Errorf("%s: %s hash size mismatch: %d vs %d",
			d.Name, img, len(cur), len(want))
	}
	if subtle.ConstantTimeCompare(cur, want) != 1 {
		log.Logf("%s: expected %s hash: %x", d.Name, img, want)
		return false, nil
	}
	return true, nil
}

// need returns a pointer to the sync flag covering img.
func (d *Device) need(img Image) *bool {
	if img == ImageRO {
		return &d.NeedROSync
	}
	return &d.NeedRWSync
}
