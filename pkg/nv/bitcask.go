// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package nv

import (
	"encoding/binary"
	"errors"

	"github.com/prologic/bitcask"
)

// DiskStore persists variables in a bitcask db, giving the simulator NV
// state that survives "reboots" (process restarts). Sets are buffered; they
// reach disk on Commit(), matching the semantics of real NV hardware.
type DiskStore struct {
	bc      *bitcask.Bitcask
	pending map[Key]uint32
}

var _ Store = (*DiskStore)(nil)

func OpenDiskStore(path string) (*DiskStore, error) {
	bc, err := bitcask.Open(path)
	if err != nil {
		return nil, err
	}
	return &DiskStore{
		bc:      bc,
		pending: make(map[Key]uint32),
	}, nil
}

func (d *DiskStore) Get(k Key) (uint32, error) {
	if v, ok := d.pending[k]; ok {
		return v, nil
	}
	raw, err := d.bc.Get([]byte(k.String()))
	if errors.Is(err, bitcask.ErrKeyNotFound) {
		return 0, nil //unset reads as zero
	}
	if err != nil {
		return 0, err
	}
	if len(raw) != 4 {
		return 0, errors.New("nv: corrupt value for " + k.String())
	}
	return binary.LittleEndian.Uint32(raw), nil
}

func (d *DiskStore) Set(k Key, v uint32) error {
	d.pending[k] = v
	return nil
}

func (d *DiskStore) Commit() error {
	for k, v := range d.pending {
		var raw [4]byte
		binary.LittleEndian.PutUint32(raw[:], v)
		if err := d.bc.Put([]byte(k.String()), raw[:]); err != nil {
			return err
		}
	}
	d.pending = make(map[Key]uint32)
	return d.bc.Sync()
}

// Close discards uncommitted writes, like a reset would.
func (d *DiskStore) Close() error {
	d.pending = make(map[Key]uint32)
	return d.bc.Close()
}
