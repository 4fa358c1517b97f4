// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package bootui

import (
	"time"

	"github.com/purecloudlabs/gvboot/pkg/log"
)

// Developer-screen delay. Counted in polling ticks rather than wall-clock
// time, so slow key handling stretches the delay instead of eating it.
const (
	devKeyDelay   = 20 * time.Millisecond
	devDelay      = 30 * time.Second
	devDelayShort = 2 * time.Second

	//audible warnings late in the delay
	firstBeepAt  = 20 * time.Second
	secondBeepAt = 20*time.Second + 500*time.Millisecond
)

// countdown tracks progress through the developer-screen delay and sounds
// the warning beeps as it passes their marks.
type countdown struct {
	elapsed time.Duration
	total   time.Duration
	beeped  int
}

func newCountdown(short bool) *countdown {
	total := devDelay
	if short {
		total = devDelayShort
	}
	log.Logf("developer delay: %s", total)
	return &countdown{total: total}
}

// tick consumes one polling interval (sleeping it off through e) and reports
// whether the delay has run out.
func (c *countdown) tick(e *Env) (expired bool) {
	e.sleep(devKeyDelay)
	c.elapsed += devKeyDelay
	if c.beeped == 0 && c.elapsed >= firstBeepAt {
		c.beeped++
		e.Beep.Beep(250*time.Millisecond, 400)
	} else if c.beeped == 1 && c.elapsed >= secondBeepAt {
		c.beeped++
		e.Beep.Beep(250*time.Millisecond, 400)
	}
	return c.elapsed >= c.total
}
