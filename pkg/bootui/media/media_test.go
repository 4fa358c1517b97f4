// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package media

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/purecloudlabs/gvboot/pkg/bootui"
)

//No matching device nodes must read as "nothing inserted", not as an error
//that would flag media as bad.
func TestNoDevices(t *testing.T) {
	dir, err := ioutil.TempDir("", "media")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	l := &Loader{RemovableGlobs: []string{filepath.Join(dir, "sd?1")}}
	err = l.LoadRemovable()
	if !errors.Is(err, bootui.ErrNoDisk) {
		t.Errorf("err = %v", err)
	}
}

func TestExpand(t *testing.T) {
	dir, err := ioutil.TempDir("", "media")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	for _, n := range []string{"sda1", "sdb1", "nvme0n1"} {
		if err := ioutil.WriteFile(filepath.Join(dir, n), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	devs := expand([]string{filepath.Join(dir, "sd?1")})
	if len(devs) != 2 {
		t.Errorf("devs: %v", devs)
	}
}
