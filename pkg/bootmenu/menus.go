// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

//Package bootmenu models the menus shown before an OS is chosen: which menu
//is on screen, which entry is highlighted, and how confirming an entry moves
//between menus. It owns no IO - rendering, keys, and boot side effects belong
//to callers.
package bootmenu

// Menu identifies one of the fixed menus.
type Menu int

const (
	MenuDevWarning Menu = iota
	MenuDev
	MenuToNorm
	MenuRecovery
	MenuToDev
	MenuLanguages
	menuCount
)

func (m Menu) String() string {
	switch m {
	case MenuDevWarning:
		return "dev-warning"
	case MenuDev:
		return "dev"
	case MenuToNorm:
		return "to-norm"
	case MenuRecovery:
		return "recovery"
	case MenuToDev:
		return "to-dev"
	case MenuLanguages:
		return "languages"
	}
	return "invalid"
}

// Entry indexes within each menu. Order matches on-screen order.
const (
	WarnOptions = iota
	WarnDbgInfo
	WarnEnableVer
	WarnPowerOff
	WarnLanguage
)

const (
	DevNetwork = iota
	DevLegacy
	DevUSB
	DevDisk
	DevCancel
	DevPowerOff
	DevLanguage
)

const (
	ToNormConfirm = iota
	ToNormCancel
	ToNormPowerOff
	ToNormLanguage
)

const (
	RecToDev = iota
	RecDbgInfo
	RecPowerOff
	RecLanguage
)

const (
	ToDevConfirm = iota
	ToDevCancel
	ToDevPowerOff
	ToDevLanguage
)

const LangEnUS = 0

var devWarningItems = []string{
	"Developer Options",
	"Show Debug Info",
	"Enable Root Verification",
	"Power Off",
	"Language",
}

var devItems = []string{
	"Boot Network Image (not working yet)",
	"Boot Legacy BIOS",
	"Boot USB Image",
	"Boot Developer Image",
	"Cancel",
	"Power Off",
	"Language",
}

var toNormItems = []string{
	"Confirm Enabling Verified Boot",
	"Cancel",
	"Power Off",
	"Language",
}

var recoveryItems = []string{
	"Enable developer mode",
	"Show Debug Info",
	"Power Off",
	"Language",
}

var toDevItems = []string{
	"Confirm enabling developer mode",
	"Cancel",
	"Power Off",
	"Language",
}

// Only en-US for now. A real localization pass would replace this table.
var languagesItems = []string{
	"US English",
}

// Items returns m's entries in display order. Nil for an invalid menu.
func Items(m Menu) []string {
	switch m {
	case MenuDevWarning:
		return devWarningItems
	case MenuDev:
		return devItems
	case MenuToNorm:
		return toNormItems
	case MenuRecovery:
		return recoveryItems
	case MenuToDev:
		return toDevItems
	case MenuLanguages:
		return languagesItems
	}
	return nil
}

// Size returns the number of entries in m. Zero for an invalid menu.
func Size(m Menu) int { return len(Items(m)) }
