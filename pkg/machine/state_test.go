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
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/lassandro/gochip8/pkg/machine"
)

func TestReset(t *testing.T) {
	mc := machine.New()
	mc.State.Registers[3] = 9
	mc.State.Memory[0x400] = 1
	mc.State.StackPointer = 2

	mc.State.Reset()

	if mc.State.Program != machine.MEMSPACE_PROGRAM {
		t.Errorf("Program register mismatch\nwant:0x200\nhave:%#04x", mc.State.Program)
	}

	if mc.State.Registers != [16]uint8{} || mc.State.StackPointer != 0 {
		t.Error("Registers not cleared")
	}

	if !bytes.Equal(mc.State.Memory[:80], machine.FontTable[:]) {
		t.Error("Font table not loaded")
	}

	if mc.State.Memory[0x400] != 0 {
		t.Error("Memory not cleared")
	}
}

func TestLoadProgram(t *testing.T) {
	mc := machine.New()

	image := make([]byte, machine.MAX_PROGRAM_SIZE-1)
	for i := range image {
		image[i] = byte(i)
	}

	if err := mc.LoadProgram(image); err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(mc.State.Memory[0x200:0x200+len(image)], image) {
		t.Error("Program image mismatch")
	}
}

func TestLoadProgramTooLarge(t *testing.T) {
	mc := machine.New()

	err := mc.LoadProgram(bytes.Repeat([]byte{0xAA}, machine.MAX_PROGRAM_SIZE))

	if !errors.Is(err, machine.ErrProgramTooLarge) {
		t.Fatalf("Error mismatch\nwant:%v\nhave:%v", machine.ErrProgramTooLarge, err)
	}

	if mc.State.Memory[0x200] != 0 {
		t.Error("Oversized program partially copied")
	}
}

func TestLoadBin(t *testing.T) {
	mc := machine.New()
	mc.State.Registers[0] = 0x55

	if err := mc.LoadBin(bytes.NewReader([]byte{0x12, 0x00})); err != nil {
		t.Fatal(err)
	}

	if mc.State.Registers[0] != 0 {
		t.Error("Machine not reset")
	}

	if have := mc.Fetch(0x200); have != 0x1200 {
		t.Errorf("Fetch mismatch\nwant:0x1200\nhave:%#04x", have)
	}

	err := mc.LoadBin(bytes.NewReader(make([]byte, 0x1000)))

	if !errors.Is(err, machine.ErrProgramTooLarge) {
		t.Errorf("Error mismatch\nwant:%v\nhave:%v", machine.ErrProgramTooLarge, err)
	}
}

func TestTickTimers(t *testing.T) {
	mc := machine.New()
	mc.State.DelayTimer = 2
	mc.State.SoundTimer = 1

	if beep := mc.TickTimers(); !beep {
		t.Error("Sound timer expiry not reported")
	}

	if beep := mc.TickTimers(); beep {
		t.Error("Sound timer expiry reported twice")
	}

	if mc.State.DelayTimer != 0 || mc.State.SoundTimer != 0 {
		t.Errorf(
			"Timer mismatch\nwant:0 0\nhave:%d %d",
			mc.State.DelayTimer,
			mc.State.SoundTimer,
		)
	}

	mc.TickTimers()

	if mc.State.DelayTimer != 0 || mc.State.SoundTimer != 0 {
		t.Error("Timers underflowed")
	}
}

func TestWaitKeyPressRelease(t *testing.T) {
	mc := machine.New()
	mc.LoadProgram([]byte{0xF5, 0x0A})

	for i := 0; i < 3; i++ {
		mc.Step()
	}

	mc.SetKey(0x3, true)

	for i := 0; i < 3; i++ {
		mc.Step()

		if have := mc.State.Program; have != 0x200 {
			t.Fatalf("Program register mismatch\nwant:0x200\nhave:%#04x", have)
		}
	}

	mc.SetKey(0x3, false)
	mc.Step()

	if have := mc.State.Program; have != 0x202 {
		t.Errorf("Program register mismatch\nwant:0x202\nhave:%#04x", have)
	}

	if have := mc.State.Registers[5]; have != 0x3 {
		t.Errorf("Register mismatch\nwant:0x3\nhave:%#02x", have)
	}

	if mc.State.KeysMemory != [16]bool{} {
		t.Error("Key memory not cleared")
	}
}

func TestWaitKeyHeldAtEntry(t *testing.T) {
	mc := machine.New()
	mc.LoadProgram([]byte{0xF1, 0x0A})
	mc.SetKey(0xC, true)

	mc.Step()

	if have := mc.State.Program; have != 0x200 {
		t.Fatalf("Program register mismatch\nwant:0x200\nhave:%#04x", have)
	}

	mc.SetKey(0xC, false)
	mc.Step()

	if have := mc.State.Registers[1]; have != 0xC {
		t.Errorf("Register mismatch\nwant:0xC\nhave:%#02x", have)
	}
}

func TestSetKeyOutOfRange(t *testing.T) {
	mc := machine.New()
	mc.SetKey(16, true)

	if mc.State.Keys != [16]bool{} {
		t.Error("Out of range key changed state")
	}
}

func TestRandom(t *testing.T) {
	mc := machine.New()
	mc.Seed(42)
	mc.LoadProgram([]byte{0xC3, 0x0F, 0xC4, 0x00})

	mc.Step()
	mc.Step()

	want := uint8(rand.New(rand.NewSource(42)).Intn(256)) & 0x0F

	if have := mc.State.Registers[3]; have != want {
		t.Errorf("Register mismatch\nwant:%#02x\nhave:%#02x", want, have)
	}

	if have := mc.State.Registers[4]; have != 0 {
		t.Errorf("Masked random mismatch\nwant:0\nhave:%#02x", have)
	}
}

func TestFetchWrapsAddress(t *testing.T) {
	mc := machine.New()
	mc.State.Memory[0xFFF] = 0x12
	mc.State.Memory[0x000] = 0x34

	if have := mc.Fetch(0xFFF); have != 0x1234 {
		t.Errorf("Fetch mismatch\nwant:0x1234\nhave:%#04x", have)
	}
}
