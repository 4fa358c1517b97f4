// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package nv

import "github.com/purecloudlabs/gvboot/pkg/log"

// Reason identifies why recovery mode was (or will be) entered. One code per
// failure site so a single NV read pinpoints the failed step.
type Reason uint32

const (
	ReasonNotRequested Reason = 0

	//EC software sync codes. Values are stable; they appear in field reports.
	ReasonECSoftwareSync Reason = 0x41 //disable-jump failed after sync
	ReasonECUnknownImage Reason = 0x42 //could not determine active EC image
	ReasonECHashFailed   Reason = 0x43 //EC did not produce a hash of its image
	ReasonECHashSize     Reason = 0x44 //current vs expected hash size mismatch
	ReasonECExpectedImage Reason = 0x45 //could not fetch image from firmware
	ReasonECUpdate        Reason = 0x46 //image write failed
	ReasonECJumpRW        Reason = 0x47 //EC refused to jump to RW
	ReasonECProtect       Reason = 0x48 //write-protect request failed
	ReasonECExpectedHash  Reason = 0x49 //could not fetch hash from firmware
)

func (r Reason) String() string {
	switch r {
	case ReasonNotRequested:
		return "not requested"
	case ReasonECSoftwareSync:
		return "ec software sync"
	case ReasonECUnknownImage:
		return "ec unknown image"
	case ReasonECHashFailed:
		return "ec hash failed"
	case ReasonECHashSize:
		return "ec hash size mismatch"
	case ReasonECExpectedImage:
		return "ec expected image"
	case ReasonECUpdate:
		return "ec update failed"
	case ReasonECJumpRW:
		return "ec jump to rw failed"
	case ReasonECProtect:
		return "ec protect failed"
	case ReasonECExpectedHash:
		return "ec expected hash"
	}
	return "unknown"
}

// Persist a recovery request. The value overwrites any previous request;
// callers needing the capture/restore compensation (RO sync retries) read the
// prior value first.
func RequestRecovery(s Store, r Reason) {
	log.Logf("request recovery (%#x %s)", uint32(r), r)
	if err := s.Set(RecoveryRequest, uint32(r)); err != nil {
		log.Logf("set %s: %s", RecoveryRequest, err)
	}
}

// Current pending recovery request, ReasonNotRequested if none.
func RecoveryRequested(s Store) Reason {
	v, err := s.Get(RecoveryRequest)
	if err != nil {
		log.Logf("read %s: %s", RecoveryRequest, err)
		return ReasonNotRequested
	}
	return Reason(v)
}
