// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package nv

// MemStore keeps variables in memory. Suitable for tests and for platforms
// where the real NV hardware is mediated elsewhere. Commit is a no-op apart
// from counting, which lets tests assert on commit-before-reset behavior.
type MemStore struct {
	vals    map[Key]uint32
	Commits int
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{vals: make(map[Key]uint32)}
}

func (m *MemStore) Get(k Key) (uint32, error) {
	return m.vals[k], nil
}

func (m *MemStore) Set(k Key, v uint32) error {
	m.vals[k] = v
	return nil
}

func (m *MemStore) Commit() error {
	m.Commits++
	return nil
}
