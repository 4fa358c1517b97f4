// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package bootui

import (
	"time"

	"github.com/purecloudlabs/gvboot/pkg/hw/input"
	"github.com/purecloudlabs/gvboot/pkg/log"
)

// Poll confirm-screen keys every 20ms.
const confirmKeyDelay = 20 * time.Millisecond

type Decision int

const (
	DecisionShutdown Decision = iota - 1
	DecisionNo
	DecisionYes
)

func (d Decision) String() string {
	switch d {
	case DecisionShutdown:
		return "shutdown"
	case DecisionNo:
		return "no"
	case DecisionYes:
		return "yes"
	}
	return "invalid"
}

// confirm blocks until the user answers a yes/no question or a chassis
// signal forces shutdown. With mustTrust, Enter only counts from a keyboard
// the firmware trusts; a fakeable one gets a beep and the wait continues. A
// physical (non-virtual) recovery button counts as yes on press-then-release.
// Space means no only when spaceNo is set; Esc always means no.
func (e *Env) confirm(mustTrust, spaceNo bool) Decision {
	log.Logf("confirm: mustTrust=%t spaceNo=%t", mustTrust, spaceNo)
	buttonWasPressed := false
	for {
		if e.wantShutdown() {
			return DecisionShutdown
		}
		key, trusted := e.Keys.ReadKeyTrusted()
		button := e.Keys.Switches(input.SwRecButtonPressed)
		switch key {
		case input.KeyEnter:
			if mustTrust && !trusted {
				e.Beep.Beep(120*time.Millisecond, 400)
				break
			}
			log.Logf("confirm: yes")
			return DecisionYes
		case input.KeySpace:
			if spaceNo {
				log.Logf("confirm: no (space)")
				return DecisionNo
			}
		case input.KeyEsc:
			log.Logf("confirm: no")
			return DecisionNo
		default:
			if !e.Session.RecSwitchVirtual {
				if button != 0 {
					buttonWasPressed = true
				} else if buttonWasPressed {
					log.Logf("confirm: yes (rec button)")
					return DecisionYes
				}
			}
		}
		e.sleep(confirmKeyDelay)
	}
}
