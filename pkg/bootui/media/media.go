// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

//Package media finds and loads kernels from fixed and removable storage.
//Each candidate device is mounted read-only, searched for a kernel image,
//verified, and read into memory; the boot flows only see success, failure,
//or "nothing inserted".
package media

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/purecloudlabs/gvboot/pkg/bootui"
	"github.com/purecloudlabs/gvboot/pkg/log"

	"github.com/rjeczalik/notify"
	"github.com/u-root/u-root/pkg/mount"
	"golang.org/x/sys/unix"
)

const mountRO = uintptr(unix.MS_RDONLY)

// Filesystems tried on each candidate device, most likely first.
var fsTypes = []string{"vfat", "ext4", "iso9660"}

// Loader implements kernel loading over block devices. Verify, when set, is
// the signature check applied to a kernel image before it is accepted.
type Loader struct {
	//device node globs, e.g. /dev/nvme0n1p* for fixed, /dev/sd?1 for
	//removable
	FixedGlobs     []string
	RemovableGlobs []string
	//path of the kernel image within a volume
	KernelPath string
	//where volumes get mounted; a temp dir when empty
	MountBase string

	Verify func(kernel []byte) error

	kernel []byte
	dev    string
}

var _ bootui.KernelLoader = (*Loader)(nil)

// Kernel returns the most recently loaded image and the device it came from.
func (l *Loader) Kernel() ([]byte, string) { return l.kernel, l.dev }

func (l *Loader) LoadFixed() error {
	return l.load(l.FixedGlobs)
}

func (l *Loader) LoadRemovable() error {
	return l.load(l.RemovableGlobs)
}

func (l *Loader) load(globs []string) error {
	devs := expand(globs)
	if len(devs) == 0 {
		return fmt.Errorf("%w: no devices match %v", bootui.ErrNoDisk, globs)
	}
	var lastErr error
	for _, dev := range devs {
		kernel, err := l.tryDevice(dev)
		if err != nil {
			log.Logf("media: %s: %s", dev, err)
			lastErr = err
			continue
		}
		l.kernel = kernel
		l.dev = dev
		log.Logf("media: loaded %d-byte kernel from %s", len(kernel), dev)
		return nil
	}
	return fmt.Errorf("no usable kernel: %s", lastErr)
}

func expand(globs []string) (devs []string) {
	for _, g := range globs {
		matches, err := filepath.Glob(g)
		if err != nil {
			log.Logf("media: bad glob %q: %s", g, err)
			continue
		}
		devs = append(devs, matches...)
	}
	return
}

// tryDevice mounts dev, locates the kernel, verifies it, and reads it.
func (l *Loader) tryDevice(dev string) ([]byte, error) {
	mp, err := ioutil.TempDir(l.MountBase, "bootmedia")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(mp)

	var mounted bool
	for _, fs := range fsTypes {
		if _, err = mount.Mount(dev, mp, fs, "", mountRO); err == nil {
			mounted = true
			break
		}
	}
	if !mounted {
		return nil, fmt.Errorf("unmountable: %s", err)
	}
	defer func() {
		if uerr := mount.Unmount(mp, false, true); uerr != nil {
			log.Logf("media: unmount %s: %s", mp, uerr)
		}
	}()

	kpath := filepath.Join(mp, l.KernelPath)
	kernel, err := ioutil.ReadFile(kpath)
	if err != nil {
		return nil, fmt.Errorf("no kernel at %s: %w", l.KernelPath, err)
	}
	if l.Verify != nil {
		if err := l.Verify(kernel); err != nil {
			return nil, fmt.Errorf("kernel rejected: %w", err)
		}
	}
	return kernel, nil
}

// AwaitInsertion blocks until a device node appears under dir (usually /dev)
// or the timeout passes. Lets callers sleep between media polls instead of
// spinning.
func AwaitInsertion(dir string, timeout time.Duration) error {
	ch := make(chan notify.EventInfo, 4)
	if err := notify.Watch(dir, ch, notify.Create); err != nil {
		return err
	}
	defer notify.Stop(ch)
	select {
	case ei := <-ch:
		log.Logf("media: new device node %s", ei.Path())
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("no media after %s", timeout)
	}
}
