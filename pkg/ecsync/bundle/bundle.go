// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

//Package bundle loads the EC firmware images the AP firmware ships,
//xz-compressed on the firmware volume, and serves them to software sync.
package bundle

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/purecloudlabs/gvboot/pkg/ecsync"
	"github.com/purecloudlabs/gvboot/pkg/log"

	"github.com/ulikunitz/xz"
)

// On-disk names within a bundle dir. Both RW slots ship the same RW blob.
const (
	ROName = "ec_ro.bin.xz"
	RWName = "ec_rw.bin.xz"
)

// Source serves EC images from a bundle directory. Images are decompressed
// on first use and cached; a bundle holds one RO and one RW blob per device.
type Source struct {
	dir string

	mu    sync.Mutex
	cache map[string][]byte
}

var _ ecsync.ImageSource = (*Source)(nil)

func New(dir string) (*Source, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("EC image bundle: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("EC image bundle: %s is not a directory", dir)
	}
	return &Source{dir: dir, cache: make(map[string][]byte)}, nil
}

func name(img ecsync.Image) string {
	if img == ecsync.ImageRO {
		return ROName
	}
	return RWName
}

func (s *Source) load(fname string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if data, ok := s.cache[fname]; ok {
		return data, nil
	}
	f, err := os.Open(filepath.Join(s.dir, fname))
	if err != nil {
		return nil, fmt.Errorf("EC image %s: %w", fname, err)
	}
	defer f.Close()
	rdr, err := xz.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("EC image %s: %w", fname, err)
	}
	data, err := ioutil.ReadAll(rdr)
	if err != nil {
		return nil, fmt.Errorf("EC image %s: %w", fname, err)
	}
	log.Logf("loaded EC image %s, %d bytes", fname, len(data))
	s.cache[fname] = data
	return data, nil
}

func (s *Source) ExpectedImage(img ecsync.Image) ([]byte, error) {
	return s.load(name(img))
}

func (s *Source) ExpectedHash(img ecsync.Image) ([]byte, error) {
	data, err := s.load(name(img))
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)
	return sum[:], nil
}

// WriteImage compresses data into dir under the name for img. Used by
// tooling and tests that assemble bundles.
func WriteImage(dir string, img ecsync.Image, data []byte) error {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return ioutil.WriteFile(filepath.Join(dir, name(img)), buf.Bytes(), 0644)
}
