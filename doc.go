// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Subpackages implement the interactive decision core of verified boot:
// the boot-mode menus shown to the user in developer and recovery mode,
// and the software-sync protocol that verifies and updates the embedded
// companion controller (EC) before the system is allowed to proceed.
//
// The core is deliberately narrow. It owns state transitions and protocol
// sequencing; everything with a hardware or crypto dependency - painting
// the screen, polling keys, hashing images, flashing the EC, the NV
// variable store - is an external collaborator reached through a small
// interface. Collaborator implementations suitable for host-side use live
// alongside the interfaces (a bitcask-backed NV store, an xz firmware
// bundle reader, a removable-media kernel loader); cmd/vbsim wires them
// together into a simulator.
//
// Everything runs on a single control goroutine. Loops poll, sleep, and
// check the shutdown monitor once per iteration; there are no concurrent
// writers to any core state.
package gvboot
