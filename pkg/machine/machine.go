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
	"io"
	"math/rand"
	"time"

	"github.com/lassandro/gochip8/pkg/encoding"
)

func New() *Machine {
	mc := &Machine{
		Random: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	mc.State.Reset()

	return mc
}

func (mc *MachineState) Reset() {
	*mc = MachineState{}

	copy(mc.Memory[MEMSPACE_FONT:], FontTable[:])

	mc.Program = MEMSPACE_PROGRAM
	mc.DrawFlag = true
}

// Replaces the random source used by RND with a deterministic one
func (mc *Machine) Seed(seed int64) {
	mc.Random = rand.New(rand.NewSource(seed))
}

// Copies a program image to MEMSPACE_PROGRAM. Oversized images are rejected
// without touching memory.
func (mc *Machine) LoadProgram(program []byte) error {
	if len(program) >= MAX_PROGRAM_SIZE {
		return &ProgramSizeError{len(program), MAX_PROGRAM_SIZE}
	}

	copy(mc.State.Memory[MEMSPACE_PROGRAM:], program)

	return nil
}

// Resets the machine and loads a whole program image from reader
func (mc *Machine) LoadBin(reader io.Reader) error {
	mc.State.Reset()

	program, err := io.ReadAll(io.LimitReader(reader, int64(MAX_PROGRAM_SIZE)))

	if err != nil {
		return err
	}

	return mc.LoadProgram(program)
}

// Decrements both timers towards zero. Returns true when the sound timer
// expired on this tick.
func (mc *Machine) TickTimers() bool {
	if mc.State.DelayTimer > 0 {
		mc.State.DelayTimer--
	}

	if mc.State.SoundTimer > 0 {
		mc.State.SoundTimer--
		return mc.State.SoundTimer == 0
	}

	return false
}

func (mc *Machine) SetKey(key uint8, pressed bool) {
	if int(key) < KEY_COUNT {
		mc.State.Keys[key] = pressed
	}
}

// Returns a copy of the display and whether it changed since the last
// ClearDrawFlag
func (mc *Machine) Framebuffer() (Framebuffer, bool) {
	return mc.State.Display, mc.State.DrawFlag
}

func (mc *Machine) ClearDrawFlag() {
	mc.State.DrawFlag = false
}

func (fb *Framebuffer) Pixel(x, y int) bool {
	if x < 0 || x >= DISPLAY_WIDTH || y < 0 || y >= DISPLAY_HEIGHT {
		return false
	}

	return fb[y]&(1<<(DISPLAY_WIDTH-1-x)) != 0
}

// Renders the display as rows of '#' and '.'
func (fb *Framebuffer) String() string {
	buf := make([]byte, 0, (DISPLAY_WIDTH+1)*DISPLAY_HEIGHT)

	for y := 0; y < DISPLAY_HEIGHT; y++ {
		for x := 0; x < DISPLAY_WIDTH; x++ {
			if fb.Pixel(x, y) {
				buf = append(buf, '#')
			} else {
				buf = append(buf, '.')
			}
		}
		buf = append(buf, '\n')
	}

	return string(buf)
}

// Reads the instruction word at addr without triggering watchpoints
func (mc *Machine) Fetch(addr uint16) uint16 {
	return encoding.DecodeWord(
		mc.State.Memory[addr&MEMORY_ADDR_MASK],
		mc.State.Memory[(addr+1)&MEMORY_ADDR_MASK],
	)
}

func (mc *Machine) read(addr uint16) uint8 {
	addr &= MEMORY_ADDR_MASK

	if mc.Debugger != nil {
		mc.Debugger.Read(addr, mc)
	}

	return mc.State.Memory[addr]
}

func (mc *Machine) write(addr uint16, value uint8) {
	addr &= MEMORY_ADDR_MASK

	mc.State.Memory[addr] = value

	if mc.Debugger != nil {
		mc.Debugger.Write(addr, mc)
	}
}

func (mc *Machine) push(addr, value uint16) error {
	if int(mc.State.StackPointer) >= STACK_SIZE {
		return &StackError{addr, ErrStackOverflow}
	}

	mc.State.Stack[mc.State.StackPointer] = value
	mc.State.StackPointer++

	return nil
}

func (mc *Machine) pop(addr uint16) (uint16, error) {
	if mc.State.StackPointer == 0 {
		return 0, &StackError{addr, ErrStackUnderflow}
	}

	mc.State.StackPointer--

	return mc.State.Stack[mc.State.StackPointer], nil
}

func (mc *Machine) random() uint8 {
	if mc.Random == nil {
		mc.Random = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return uint8(mc.Random.Intn(256))
}

// Runs one fetch-decode-execute cycle. Stack faults leave the program
// counter on the faulting instruction and are fatal; an invalid opcode is
// skipped and reported as a non-fatal *InvalidOpcodeError.
func (mc *Machine) Step() error {
	addr := mc.State.Program
	instruction := Decode(mc.Fetch(addr))

	mc.State.Program += 2

	err := mc.execute(addr, instruction)

	if mc.Debugger != nil {
		mc.Debugger.Step(mc)
	}

	return err
}
