// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package input abstracts the key, button, and switch sources the boot menus
// poll. Reads never block: no key pending reads as KeyNone. Trust metadata
// distinguishes the built-in keyboard from devices that can be faked (USB).
package input

// Key is a single key or button event code. Printable ASCII codes match the
// character; button codes sit above the ASCII range.
type Key uint32

const (
	KeyNone  Key = 0
	KeyCtrlD Key = 0x04
	KeyCtrlL Key = 0x0c
	KeyEnter Key = '\r'
	KeyCtrlU Key = 0x15
	KeyEsc   Key = 0x1b
	KeySpace Key = ' '

	//short presses of physical buttons (detachables)
	ButtonPower   Key = 0x90
	ButtonVolUp   Key = 0x91
	ButtonVolDown Key = 0x92

	KeyUp   Key = 0x101
	KeyDown Key = 0x102
)

func (k Key) String() string {
	switch k {
	case KeyNone:
		return "none"
	case KeyCtrlD:
		return "ctrl-d"
	case KeyCtrlL:
		return "ctrl-l"
	case KeyEnter:
		return "enter"
	case KeyCtrlU:
		return "ctrl-u"
	case KeyEsc:
		return "esc"
	case KeySpace:
		return "space"
	case ButtonPower:
		return "power"
	case ButtonVolUp:
		return "volup"
	case ButtonVolDown:
		return "voldown"
	case KeyUp:
		return "up"
	case KeyDown:
		return "down"
	}
	return "unknown"
}

// Switch is a bitmask of physical switch states readable at any time, as
// opposed to edge-triggered key events.
type Switch uint32

const (
	SwRecButtonPressed Switch = 1 << iota
	SwAllowUSBBoot
)

// Source is the input collaborator contract.
type Source interface {
	//next pending key event, KeyNone if none
	ReadKey() Key
	//like ReadKey, also reporting whether the source is hardware-trusted
	ReadKeyTrusted() (Key, bool)
	//current state of the switches selected by mask
	Switches(mask Switch) Switch
}
