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

package machine

import (
	"math/rand"
)

type Op uint8

// A decoded instruction word. Fields are always extracted, whether or not
// the operation uses them.
type Instruction struct {
	Word uint16
	Op   Op
	X    uint8
	Y    uint8
	N    uint8
	KK   uint8
	NNN  uint16
}

// One row per uint64, bit 63 is the leftmost column
type Framebuffer [DISPLAY_HEIGHT]uint64

type MachineState struct {
	Registers    [REGISTER_COUNT]uint8
	Index        uint16
	Program      uint16
	Stack        [STACK_SIZE]uint16
	StackPointer uint8
	DelayTimer   uint8
	SoundTimer   uint8
	Display      Framebuffer
	DrawFlag     bool
	Keys         [KEY_COUNT]bool
	KeysMemory   [KEY_COUNT]bool
	Memory       [MEMORY_SIZE]uint8
}

type MachineDebugger interface {
	Step(mc *Machine)
	Read(addr uint16, mc *Machine)
	Write(addr uint16, mc *Machine)
}

type Machine struct {
	State    MachineState
	Debugger MachineDebugger
	Random   *rand.Rand
}
