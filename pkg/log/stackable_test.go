// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package log

import "testing"

// Test helper function returning logStack. Only suitable for testing - ignores
// logStackMtx.
func Stack() StackableLogger { return logStack }

func TestDuplicateLogger(t *testing.T) {
	DefaultLogStack()
	defer DefaultLogStack()
	if err := AddMemLog(); err == nil {
		t.Error("duplicate memLog accepted")
	}
}
