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

package machine_test

import (
	"testing"

	"github.com/lassandro/gochip8/pkg/machine"
)

// Builds a machine that runs DRW V0, V1, n with the sprite at 0x300
func drawMachine(x, y uint8, sprite ...uint8) *machine.Machine {
	mc := machine.New()
	mc.State.Registers[0] = x
	mc.State.Registers[1] = y
	mc.State.Index = 0x300

	copy(mc.State.Memory[0x300:], sprite)

	word := 0xD010 | uint16(len(sprite))
	mc.LoadProgram([]byte{
		byte(word >> 8), byte(word),
		byte(word >> 8), byte(word),
	})

	return mc
}

func TestDrawSprite(t *testing.T) {
	mc := drawMachine(2, 3, 0xF0, 0x90)
	mc.ClearDrawFlag()

	if err := mc.Step(); err != nil {
		t.Fatal(err)
	}

	fb, dirty := mc.Framebuffer()

	if !dirty {
		t.Error("Draw flag not set")
	}

	want := map[[2]int]bool{
		{2, 3}: true, {3, 3}: true, {4, 3}: true, {5, 3}: true,
		{2, 4}: true, {5, 4}: true,
	}

	for y := 0; y < machine.DISPLAY_HEIGHT; y++ {
		for x := 0; x < machine.DISPLAY_WIDTH; x++ {
			if have := fb.Pixel(x, y); have != want[[2]int{x, y}] {
				t.Errorf(
					"Pixel mismatch\nwant:%v (%d,%d)\nhave:%v",
					want[[2]int{x, y}],
					x,
					y,
					have,
				)
			}
		}
	}

	if have := mc.State.Registers[0xF]; have != 0 {
		t.Errorf("Collision flag mismatch\nwant:0\nhave:%d", have)
	}
}

func TestDrawTwiceRestores(t *testing.T) {
	mc := drawMachine(10, 10, 0x3C, 0x42, 0x81, 0xFF)

	before, _ := mc.Framebuffer()

	mc.Step()

	if have := mc.State.Registers[0xF]; have != 0 {
		t.Errorf("First draw collision mismatch\nwant:0\nhave:%d", have)
	}

	mc.Step()

	after, _ := mc.Framebuffer()

	if after != before {
		t.Errorf("Display not restored\nwant:\n%s\nhave:\n%s", &before, &after)
	}

	if have := mc.State.Registers[0xF]; have != 1 {
		t.Errorf("Second draw collision mismatch\nwant:1\nhave:%d", have)
	}
}

func TestDrawClipsRightEdge(t *testing.T) {
	mc := drawMachine(60, 0, 0xFF)
	mc.Step()

	fb, _ := mc.Framebuffer()

	for x := 0; x < machine.DISPLAY_WIDTH; x++ {
		want := x >= 60
		if have := fb.Pixel(x, 0); have != want {
			t.Errorf("Pixel mismatch\nwant:%v (%d,0)\nhave:%v", want, x, have)
		}
	}

	if have := fb[0]; have != 0xF {
		t.Errorf("Row mismatch\nwant:%#016x\nhave:%#016x", 0xF, have)
	}
}

func TestDrawClipsBottomEdge(t *testing.T) {
	mc := drawMachine(0, 30, 0x80, 0x80, 0x80, 0x80)
	mc.Step()

	fb, _ := mc.Framebuffer()

	for y := 0; y < machine.DISPLAY_HEIGHT; y++ {
		want := y >= 30
		if have := fb.Pixel(0, y); have != want {
			t.Errorf("Pixel mismatch\nwant:%v (0,%d)\nhave:%v", want, y, have)
		}
	}
}

func TestDrawWrapsOrigin(t *testing.T) {
	mc := drawMachine(64+5, 32+2, 0x80)
	mc.Step()

	fb, _ := mc.Framebuffer()

	if !fb.Pixel(5, 2) {
		t.Errorf("Pixel mismatch\nwant:true (5,2)\nhave:false\n%s", &fb)
	}
}

func TestDrawCollisionStaysSet(t *testing.T) {
	mc := drawMachine(0, 0, 0xC0)
	mc.State.Display[0] = 1 << 63

	mc.Step()

	fb, _ := mc.Framebuffer()

	if fb.Pixel(0, 0) || !fb.Pixel(1, 0) {
		t.Errorf("Unexpected row %#016x", fb[0])
	}

	if have := mc.State.Registers[0xF]; have != 1 {
		t.Errorf("Collision flag mismatch\nwant:1\nhave:%d", have)
	}
}

func TestClearScreen(t *testing.T) {
	mc := machine.New()
	mc.LoadProgram([]byte{0x00, 0xE0})
	mc.State.Display[5] = 0xFFFF
	mc.ClearDrawFlag()

	mc.Step()

	fb, dirty := mc.Framebuffer()

	if fb != (machine.Framebuffer{}) {
		t.Errorf("Display not cleared\n%s", &fb)
	}

	if !dirty {
		t.Error("Draw flag not set")
	}
}

func TestFontSprite(t *testing.T) {
	// LD V2, 0x0B; LD F, V2; DRW V0, V1, 5
	mc := machine.New()
	mc.LoadProgram([]byte{0x62, 0x0B, 0xF2, 0x29, 0xD0, 0x15})

	for i := 0; i < 3; i++ {
		mc.Step()
	}

	fb, _ := mc.Framebuffer()

	for row, glyph := range machine.FontTable[0x0B*5 : 0x0B*5+5] {
		if have := uint8(fb[row] >> 56); have != glyph {
			t.Errorf(
				"Glyph row mismatch\nwant:%#02x (row %d)\nhave:%#02x",
				glyph,
				row,
				have,
			)
		}
	}
}
