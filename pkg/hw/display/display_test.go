// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package display

import (
	"strings"
	"testing"
)

func TestRenderMenu(t *testing.T) {
	m := NewMock()
	items := []string{"Boot Developer Image", "Cancel", "Power Off"}
	if err := RenderMenu(m, items, 2); err != nil {
		t.Fatal(err)
	}
	hl := m.Highlighted()
	if len(hl) != 1 || !strings.Contains(hl[0], "Power Off") {
		t.Errorf("highlighted: %v", hl)
	}
	for _, it := range items {
		if !m.Drawn(it) {
			t.Errorf("%q not drawn", it)
		}
	}
}

//A menu taller or wider than the screen still renders, clamped to origin.
func TestRenderMenuSmallScreen(t *testing.T) {
	m := NewMock()
	m.Cols, m.Rows = 4, 2
	if err := RenderMenu(m, []string{"A Very Long Entry", "B", "C"}, 0); err != nil {
		t.Fatal(err)
	}
	if !m.Drawn("(0,0)") {
		t.Error("origin clamp missing")
	}
}

func TestRenderEmpty(t *testing.T) {
	if err := RenderMenu(NewMock(), nil, 0); err != nil {
		t.Fatal(err)
	}
}
