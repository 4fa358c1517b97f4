// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package bootsession holds the record shared across one boot attempt:
// which switches were asserted at power-on, whether this boot is a recovery
// boot and why, and which RW firmware slot verified. The record is owned by
// the single boot control thread; it is created once per attempt and never
// outlives it.
package bootsession

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/purecloudlabs/gvboot/pkg/log"
	"github.com/purecloudlabs/gvboot/pkg/nv"
)

type Session struct {
	//correlates log output across boot stages
	ID string

	//nonzero when this boot attempt is a recovery boot
	RecoveryReason nv.Reason

	//the RW firmware slot that verified; false = A, true = B
	FirmwareB bool

	//switch state latched at power-on
	DevSwitchOn      bool
	RecSwitchOn      bool
	RecSwitchVirtual bool
	//platform tracks the developer switch in software
	HonorVirtualDevSwitch bool

	//firmware write protect asserted in hardware
	WPEnabled bool

	//platform wants EC software sync this boot
	ECSoftwareSync bool
	//EC flash writes are slow enough to warrant a wait screen
	ECSlowUpdate bool
}

func New() *Session {
	s := &Session{ID: uuid.New().String()}
	log.Logf("boot session %s", s.ID)
	return s
}

// True when this boot attempt is already in recovery mode.
func (s *Session) InRecovery() bool {
	return s.RecoveryReason != nv.ReasonNotRequested
}

// DebugDump renders the session for the Show Debug Info screens.
func (s *Session) DebugDump() string {
	slot := "A"
	if s.FirmwareB {
		slot = "B"
	}
	return fmt.Sprintf("session: %s\n"+
		"recovery reason: %#x (%s)\n"+
		"firmware slot: %s\n"+
		"dev switch: %t  rec switch: %t (virtual: %t)\n"+
		"write protect: %t\n",
		s.ID, uint32(s.RecoveryReason), s.RecoveryReason, slot,
		s.DevSwitchOn, s.RecSwitchOn, s.RecSwitchVirtual, s.WPEnabled)
}
