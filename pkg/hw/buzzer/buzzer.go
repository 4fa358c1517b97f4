// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package buzzer abstracts the pc speaker used for audible feedback on
// rejected key presses and failed boot attempts.
package buzzer

import (
	"sync"
	"time"
)

type Beeper interface {
	//Beep blocks for d while sounding the buzzer at freqHz. freqHz 0 means
	//the platform default tone.
	Beep(d time.Duration, freqHz uint32)
}

// Nop is silent and does not block. Useful where audible feedback is
// unavailable, e.g. headless test rigs.
type Nop struct{}

func (Nop) Beep(time.Duration, uint32) {}

// Tone is one recorded beep.
type Tone struct {
	Dur  time.Duration
	Freq uint32
}

// Recorder captures beeps for inspection, without sleeping.
type Recorder struct {
	mu    sync.Mutex
	tones []Tone
}

var _ Beeper = (*Recorder)(nil)

func (r *Recorder) Beep(d time.Duration, freqHz uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tones = append(r.tones, Tone{Dur: d, Freq: freqHz})
}

func (r *Recorder) Tones() []Tone {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Tone, len(r.tones))
	copy(out, r.tones)
	return out
}

func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tones)
}
