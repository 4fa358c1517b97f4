// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package ecsync

import "errors"

var (
	//ErrRebootToRO means the AP must reboot the EC into its read-only
	//image before sync can make further progress. Not itself a failure
	//requiring recovery mode; controllers also return it (wrapped) when
	//the EC asks for a reset, e.g. to unprotect flash before an update.
	ErrRebootToRO = errors.New("EC reboot to RO required")

	//ErrShutdown means sync completed but the machine must power off
	//rather than continue booting, e.g. after a battery cutoff.
	ErrShutdown = errors.New("shutdown requested")
)
