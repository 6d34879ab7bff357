// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package console

import (
	"bytes"

	"github.com/lassandro/gochip8/pkg/input"
	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/lassandro/gochip8/pkg/runner"
)

// Terminals only report presses, so a key stays held for this many frames
// after its last press. Auto-repeat keeps a held key alive.
const HOLD_FRAMES = 6

const (
	CHAR_CTRL_C = 0x03
	CHAR_CTRL_R = 0x12
	CHAR_ESCAPE = 0x1B
)

var SEQ_F5 = []byte("\x1b[15~")

type Keyboard struct {
	layout input.Layout
	holds  [machine.KEY_COUNT]int
}

func NewKeyboard(layout input.Layout) *Keyboard {
	return &Keyboard{layout: layout}
}

// Applies one chunk of terminal input to in
func (kb *Keyboard) Feed(chunk []byte, in *runner.Input) {
	if len(chunk) == 0 {
		return
	}

	if chunk[0] == CHAR_ESCAPE {
		switch {
		case len(chunk) == 1:
			in.Quit = true
		case bytes.HasPrefix(chunk, SEQ_F5):
			in.Reload = true
		}

		return
	}

	for _, c := range chunk {
		switch c {
		case CHAR_CTRL_C:
			in.Quit = true
			continue
		case CHAR_CTRL_R:
			in.Reload = true
			continue
		}

		r := rune(c)
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}

		switch r {
		case input.KEY_PAUSE:
			in.Pause = true
		case input.KEY_STEP:
			in.Step = true
		default:
			if key, ok := kb.layout.Key(r); ok {
				kb.holds[key] = HOLD_FRAMES
			}
		}
	}
}

// Reports the held keys and ages every hold by one frame
func (kb *Keyboard) Tick() [machine.KEY_COUNT]bool {
	var keys [machine.KEY_COUNT]bool

	for i := range kb.holds {
		if kb.holds[i] > 0 {
			keys[i] = true
			kb.holds[i]--
		}
	}

	return keys
}
