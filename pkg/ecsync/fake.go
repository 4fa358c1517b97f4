// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// +build !release

package ecsync

import (
	"crypto/sha256"
	"fmt"
	"sync"
)

// FakeEC is an in-memory EC for tests and the simulator. It holds real image
// bytes and hashes them the way a controller would, so sync decisions run
// against it unmodified. Individual calls can be made to fail via the Fail*
// fields; FailUpdates counts down, letting a test fail the first n flashes.
type FakeEC struct {
	mu     sync.Mutex
	images map[Image][]byte
	inRW   bool

	jumpDisabled bool
	protected    map[Image]bool

	FailRunningRW bool
	FailJump      bool
	//error to return from JumpToRW when FailJump is set; nil means a
	//generic failure
	JumpErr error
	FailHash    bool
	FailProtect bool
	//fail the next n UpdateImage calls
	FailUpdates int
	FailDone    bool

	//call log, oldest first: "update RW-A", "jump", "protect RO", ...
	Calls []string

	CutoffDone bool
}

var _ Controller = (*FakeEC)(nil)

// NewFakeEC returns a fake EC running its RO image, with the given images
// flashed.
func NewFakeEC(ro, rw []byte) *FakeEC {
	return &FakeEC{
		images: map[Image][]byte{
			ImageRO:  append([]byte(nil), ro...),
			ImageRWA: append([]byte(nil), rw...),
			ImageRWB: append([]byte(nil), rw...),
		},
		protected: make(map[Image]bool),
	}
}

func (f *FakeEC) record(format string, args ...interface{}) {
	f.Calls = append(f.Calls, fmt.Sprintf(format, args...))
}

func (f *FakeEC) RunningRW() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("running-rw")
	if f.FailRunningRW {
		return f.inRW, fmt.Errorf("EC not responding")
	}
	return f.inRW, nil
}

// SetRunningRW forces the active-image state, as if a prior boot jumped.
func (f *FakeEC) SetRunningRW(rw bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inRW = rw
}

func (f *FakeEC) CurrentHash(img Image) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("hash %s", img)
	if f.FailHash {
		return nil, fmt.Errorf("hash command failed")
	}
	sum := sha256.Sum256(f.images[img])
	return sum[:], nil
}

func (f *FakeEC) JumpToRW() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("jump")
	if f.FailJump {
		if f.JumpErr != nil {
			return f.JumpErr
		}
		return fmt.Errorf("jump refused")
	}
	if f.jumpDisabled {
		return fmt.Errorf("%w: jump disabled until reset", ErrRebootToRO)
	}
	f.inRW = true
	return nil
}

func (f *FakeEC) DisableJump() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("disable-jump")
	f.jumpDisabled = true
	return nil
}

func (f *FakeEC) Protect(img Image) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("protect %s", img)
	if f.FailProtect {
		return fmt.Errorf("flash protect failed")
	}
	f.protected[img] = true
	return nil
}

func (f *FakeEC) Protected(img Image) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.protected[img]
}

func (f *FakeEC) UpdateImage(img Image, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("update %s", img)
	if f.protected[img] {
		return fmt.Errorf("%w: %s is protected", ErrRebootToRO, img)
	}
	if f.FailUpdates > 0 {
		f.FailUpdates--
		return fmt.Errorf("write verify failed")
	}
	f.images[img] = append([]byte(nil), data...)
	return nil
}

func (f *FakeEC) VbootDone(inRecovery bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("vboot-done recovery=%t", inRecovery)
	if f.FailDone {
		return fmt.Errorf("vboot done refused")
	}
	return nil
}

func (f *FakeEC) BatteryCutoff() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("battery-cutoff")
	f.CutoffDone = true
	return nil
}

// MemImages is an ImageSource over byte slices.
type MemImages struct {
	RO []byte
	RW []byte
}

var _ ImageSource = MemImages{}

func (m MemImages) image(img Image) []byte {
	if img == ImageRO {
		return m.RO
	}
	return m.RW
}

func (m MemImages) ExpectedHash(img Image) ([]byte, error) {
	if m.image(img) == nil {
		return nil, fmt.Errorf("no %s image", img)
	}
	sum := sha256.Sum256(m.image(img))
	return sum[:], nil
}

func (m MemImages) ExpectedImage(img Image) ([]byte, error) {
	if m.image(img) == nil {
		return nil, fmt.Errorf("no %s image", img)
	}
	return m.image(img), nil
}
