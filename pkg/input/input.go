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

// Package input maps host keyboard characters onto the 16 key hex keypad.
package input

import (
	"errors"
	"fmt"
	"unicode"

	"github.com/lassandro/gochip8/pkg/machine"
)

// Host character for each keypad key, indexed by key value. On a QWERTY
// keyboard the 1234/QWER/ASDF/ZXCV block mirrors the keypad's
// 123C/456D/789E/A0BF arrangement.
const DEFAULT_LAYOUT = "x123qweasdzc4rfv"

// Characters the runner keeps for itself
const (
	KEY_PAUSE = 'b'
	KEY_STEP  = 'n'
)

var ErrLayoutSize = fmt.Errorf("Layout must contain exactly %d keys", machine.KEY_COUNT)

var ErrReservedKey = errors.New("Layout uses a reserved key")

type DuplicateKeyError struct {
	Key    rune
	First  uint8
	Second uint8
}

func (err *DuplicateKeyError) Error() string {
	return fmt.Sprintf(
		"Key '%c' bound to both %X and %X", err.Key, err.First, err.Second,
	)
}

type Layout [machine.KEY_COUNT]rune

func Default() Layout {
	layout, err := Parse(DEFAULT_LAYOUT)

	if err != nil {
		panic(err)
	}

	return layout
}

// Parses a layout string listing the host character for keys 0 through F
func Parse(s string) (Layout, error) {
	var layout Layout

	runes := []rune(s)

	if len(runes) != machine.KEY_COUNT {
		return layout, ErrLayoutSize
	}

	for i, r := range runes {
		r = unicode.ToLower(r)

		if r == KEY_PAUSE || r == KEY_STEP {
			return layout, fmt.Errorf("%w: '%c'", ErrReservedKey, r)
		}

		for j := 0; j < i; j++ {
			if layout[j] == r {
				return layout, &DuplicateKeyError{r, uint8(j), uint8(i)}
			}
		}

		layout[i] = r
	}

	return layout, nil
}

// Returns the keypad key bound to a host character
func (layout *Layout) Key(r rune) (uint8, bool) {
	r = unicode.ToLower(r)

	for i, bound := range layout {
		if bound == r {
			return uint8(i), true
		}
	}

	return 0, false
}

func (layout Layout) String() string {
	return string(layout[:])
}
