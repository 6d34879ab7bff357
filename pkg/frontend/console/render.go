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
	"fmt"
	"strings"

	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/lassandro/gochip8/pkg/runner"
)

// Each character cell covers two pixel rows
var halfBlocks = [4]rune{' ', '▄', '▀', '█'}

func Render(fb *machine.Framebuffer) []string {
	rows := make([]string, 0, machine.DISPLAY_HEIGHT/2)

	var sb strings.Builder

	for y := 0; y < machine.DISPLAY_HEIGHT; y += 2 {
		sb.Reset()

		for x := 0; x < machine.DISPLAY_WIDTH; x++ {
			var cell int

			if fb.Pixel(x, y) {
				cell |= 2
			}

			if fb.Pixel(x, y+1) {
				cell |= 1
			}

			sb.WriteRune(halfBlocks[cell])
		}

		rows = append(rows, sb.String())
	}

	return rows
}

func StatusLine(status runner.Status) string {
	state := "RUN"
	if status.Paused {
		state = "PAUSE"
	}

	line := fmt.Sprintf("%-5s cycles:%d", state, status.Cycles)

	if status.Beep {
		line += " BEEP"
	}

	return line
}
