// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package input

import (
	"fmt"
	"strings"

	"github.com/google/shlex"
)

// Script replays a whitespace-separated sequence of key tokens, for tests and
// the simulator. Tokens match Key.String() ("down", "enter", "ctrl-d", ...);
// "none" injects an empty poll. A "~" prefix marks the event untrusted
// (e.g. "~enter" for an Enter from a USB keyboard). Once the script is
// exhausted, reads return KeyNone forever.
type Script struct {
	keys []scriptKey
	//switch state per Switches() call; last entry is sticky. Lets tests
	//express press/release edges of the recovery button.
	SwitchSeq []Switch
	//switches ORed into every read
	Held Switch
}

type scriptKey struct {
	k       Key
	trusted bool
}

var keyTokens = map[string]Key{}

func init() {
	for _, k := range []Key{
		KeyCtrlD, KeyCtrlL, KeyEnter, KeyCtrlU, KeyEsc, KeySpace,
		ButtonPower, ButtonVolUp, ButtonVolDown, KeyUp, KeyDown, KeyNone,
	} {
		keyTokens[k.String()] = k
	}
}

func NewScript(script string) (*Script, error) {
	toks, err := shlex.Split(script)
	if err != nil {
		return nil, err
	}
	s := &Script{}
	for _, tok := range toks {
		trusted := true
		if strings.HasPrefix(tok, "~") {
			trusted = false
			tok = tok[1:]
		}
		k, ok := keyTokens[tok]
		if !ok {
			return nil, fmt.Errorf("input: unknown key token %q", tok)
		}
		s.keys = append(s.keys, scriptKey{k: k, trusted: trusted})
	}
	return s, nil
}

// Like NewScript, but panics on a bad script. For tests with literal scripts.
func MustScript(script string) *Script {
	s, err := NewScript(script)
	if err != nil {
		panic(err)
	}
	return s
}

var _ Source = (*Script)(nil)

func (s *Script) ReadKey() Key {
	k, _ := s.ReadKeyTrusted()
	return k
}

func (s *Script) ReadKeyTrusted() (Key, bool) {
	if len(s.keys) == 0 {
		return KeyNone, true
	}
	sk := s.keys[0]
	s.keys = s.keys[1:]
	return sk.k, sk.trusted
}

func (s *Script) Switches(mask Switch) Switch {
	cur := s.Held
	if len(s.SwitchSeq) > 0 {
		cur |= s.SwitchSeq[0]
		if len(s.SwitchSeq) > 1 {
			s.SwitchSeq = s.SwitchSeq[1:]
		}
	}
	return cur & mask
}

// Remaining unread events; 0 once the script is exhausted.
func (s *Script) Remaining() int { return len(s.keys) }
