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

//go:build sdl

package sdlwindow_test

import (
	"testing"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/lassandro/gochip8/pkg/frontend/sdlwindow"
	"github.com/lassandro/gochip8/pkg/machine"
)

func TestKeycode(t *testing.T) {
	if have := sdlwindow.Keycode('a'); have != sdl.K_a {
		t.Fatalf("Keycode('a')\nwant:%d\nhave:%d", sdl.K_a, have)
	}

	if have := sdlwindow.Keycode('7'); have != sdl.K_7 {
		t.Fatalf("Keycode('7')\nwant:%d\nhave:%d", sdl.K_7, have)
	}
}

func TestPixelRects(t *testing.T) {
	var fb machine.Framebuffer
	fb[0] = 1 << 63
	fb[2] = 1

	rects := sdlwindow.PixelRects(&fb, 10)

	want := []sdl.Rect{
		{X: 0, Y: 0, W: 10, H: 10},
		{X: 630, Y: 20, W: 10, H: 10},
	}

	if len(rects) != len(want) {
		t.Fatalf("Rect count\nwant:%d\nhave:%d", len(want), len(rects))
	}

	for i := range want {
		if rects[i] != want[i] {
			t.Fatalf("Rect %d\nwant:%v\nhave:%v", i, want[i], rects[i])
		}
	}
}
