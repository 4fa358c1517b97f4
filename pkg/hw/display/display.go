// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package display is the boundary to the firmware's screen-painting
// collaborator. The decision core only ever asks for whole screens, centered
// menu text, and a debug-info dump; rendering fidelity is somebody else's
// problem. All calls are idempotent - redundant redraws are harmless.
package display

import "github.com/purecloudlabs/gvboot/pkg/log"

// Screen identifies a full-screen image owned by the display collaborator.
type Screen int

const (
	ScreenBlank Screen = iota
	//background for menu text
	ScreenBase
	//"return to verified mode?" prompt shown when dev boot is policy-disabled
	ScreenToNorm
	//confirmation that verified mode will be restored on reboot
	ScreenToNormConfirmed
	//unsolicited recovery; instructs the user how to force manual recovery
	ScreenBroken
	//recovery media present but unusable
	ScreenNoGood
)

func (s Screen) String() string {
	switch s {
	case ScreenBlank:
		return "blank"
	case ScreenBase:
		return "base"
	case ScreenToNorm:
		return "to-norm"
	case ScreenToNormConfirmed:
		return "to-norm-confirmed"
	case ScreenBroken:
		return "broken"
	case ScreenNoGood:
		return "no-good"
	}
	return "unknown"
}

type Display interface {
	Show(s Screen) error
	//draw one line of text at (col,row), optionally highlighted
	Text(col, row int, msg string, highlight bool) error
	Dimensions() (cols, rows int)
	//dump technical detail for Show Debug Info and policy notices
	DebugInfo(msg string) error
}

// RenderMenu draws items as a centered block with the selected line
// highlighted. Safe to call redundantly.
func RenderMenu(d Display, items []string, selected int) error {
	if len(items) == 0 {
		return nil
	}
	cols, rows := d.Dimensions()
	col := cols/2 - len(items[0])/2
	if col < 0 {
		col = 0
	}
	row := rows/2 - len(items)/2
	if row < 0 {
		row = 0
	}
	for i, item := range items {
		if err := d.Text(col, row+i, item, i == selected); err != nil {
			log.Logf("render %q @ (%d,%d): %s", item, col, row+i, err)
			return err
		}
	}
	return nil
}
