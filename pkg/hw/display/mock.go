// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package display

import (
	"fmt"
	"strings"
	"sync"
)

// Mock records everything drawn to it, for tests and the simulator.
type Mock struct {
	mu      sync.Mutex
	Cols    int
	Rows    int
	screens []Screen
	lines   []string
	debug   []string
}

var _ Display = (*Mock)(nil)

func NewMock() *Mock {
	return &Mock{Cols: 80, Rows: 25}
}

func (m *Mock) Show(s Screen) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.screens = append(m.screens, s)
	return nil
}

func (m *Mock) Text(col, row int, msg string, highlight bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := " "
	if highlight {
		h = "*"
	}
	m.lines = append(m.lines, fmt.Sprintf("%s(%d,%d) %s", h, col, row, msg))
	return nil
}

func (m *Mock) Dimensions() (int, int) { return m.Cols, m.Rows }

func (m *Mock) DebugInfo(msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debug = append(m.debug, msg)
	return nil
}

// Screens returns every full screen shown, in order.
func (m *Mock) Screens() []Screen {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Screen, len(m.screens))
	copy(out, m.screens)
	return out
}

// LastScreen returns the most recent screen, or ScreenBlank if none.
func (m *Mock) LastScreen() Screen {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.screens) == 0 {
		return ScreenBlank
	}
	return m.screens[len(m.screens)-1]
}

func (m *Mock) Debug() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.debug))
	copy(out, m.debug)
	return out
}

// Drawn reports whether any text line containing substr was drawn.
func (m *Mock) Drawn(substr string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.lines {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

// Highlighted returns the text of highlighted lines, oldest first.
func (m *Mock) Highlighted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, l := range m.lines {
		if strings.HasPrefix(l, "*") {
			out = append(out, l)
		}
	}
	return out
}
