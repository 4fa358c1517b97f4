// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package main

import (
	"fmt"
	"time"

	"github.com/purecloudlabs/gvboot/pkg/hw/display"
)

// consoleDisplay renders screens and menu text as plain console output.
type consoleDisplay struct{}

var _ display.Display = (*consoleDisplay)(nil)

func (consoleDisplay) Show(s display.Screen) error {
	fmt.Printf("== screen: %s ==\n", s)
	return nil
}

func (consoleDisplay) Text(col, row int, msg string, highlight bool) error {
	cursor := "  "
	if highlight {
		cursor = "> "
	}
	fmt.Printf("%s%s\n", cursor, msg)
	return nil
}

func (consoleDisplay) Dimensions() (int, int) { return 80, 25 }

func (consoleDisplay) DebugInfo(msg string) error {
	fmt.Printf("-- debug --\n%s-- end --\n", msg)
	return nil
}

type consoleBeeper struct{}

func (consoleBeeper) Beep(d time.Duration, freqHz uint32) {
	fmt.Printf("** beep %s @ %dHz **\n", d, freqHz)
}
