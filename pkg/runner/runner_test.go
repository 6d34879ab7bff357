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

package runner_test

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/lassandro/gochip8/pkg/runner"
)

func newSession(t *testing.T, clock int, program ...byte) (*runner.Session, *bytes.Buffer) {
	var out bytes.Buffer

	mc := machine.New()
	mc.Seed(1)

	session, err := runner.NewSession(mc, program, clock, log.New(&out, "", 0))

	if err != nil {
		t.Fatal(err)
	}

	return session, &out
}

func frame(t *testing.T, session *runner.Session, in runner.Input) {
	if err := session.Frame(in); err != nil {
		t.Fatal(err)
	}
}

// ADD V0, 0x01
// JP 0x200
var counter = []byte{0x70, 0x01, 0x12, 0x00}

func TestFrameSteps(t *testing.T) {
	session, _ := newSession(t, 600, counter...)

	frame(t, session, runner.Input{})

	if have := session.Machine.State.Registers[0]; have != 5 {
		t.Fatalf("V0 after one frame\nwant:5\nhave:%d", have)
	}

	if have := session.Status().Cycles; have != 10 {
		t.Fatalf("Cycles after one frame\nwant:10\nhave:%d", have)
	}

	if have := session.Status().Frames; have != 1 {
		t.Fatalf("Frames\nwant:1\nhave:%d", have)
	}
}

func TestFrameRemainder(t *testing.T) {
	session, _ := newSession(t, 90, counter...)

	frame(t, session, runner.Input{})

	if have := session.Status().Cycles; have != 1 {
		t.Fatalf("Cycles after one frame\nwant:1\nhave:%d", have)
	}

	frame(t, session, runner.Input{})

	if have := session.Status().Cycles; have != 3 {
		t.Fatalf("Cycles after two frames\nwant:3\nhave:%d", have)
	}
}

func TestDefaultClock(t *testing.T) {
	session, _ := newSession(t, 0, counter...)

	if session.Clock != runner.DEFAULT_CLOCK {
		t.Fatalf("Clock\nwant:%d\nhave:%d", runner.DEFAULT_CLOCK, session.Clock)
	}
}

func TestTimersTickOncePerFrame(t *testing.T) {
	session, _ := newSession(t, 600, counter...)
	session.Machine.State.DelayTimer = 5

	frame(t, session, runner.Input{})

	if have := session.Machine.State.DelayTimer; have != 4 {
		t.Fatalf("Delay timer\nwant:4\nhave:%d", have)
	}
}

func TestBeep(t *testing.T) {
	// LD V0, 0x01
	// LD ST, V0
	// JP 0x204
	session, out := newSession(t, 180, 0x60, 0x01, 0xF0, 0x18, 0x12, 0x04)

	frame(t, session, runner.Input{})

	if !strings.Contains(out.String(), "BEEP") {
		t.Fatalf("Missing BEEP\nhave:%q", out.String())
	}

	if session.Status().Beep {
		t.Fatal("Beep status still set after the sound timer expired")
	}
}

func TestPauseAndStep(t *testing.T) {
	session, out := newSession(t, 600, counter...)

	frame(t, session, runner.Input{Pause: true})

	if !session.Paused() {
		t.Fatal("Session not paused")
	}

	if have := session.Status().Cycles; have != 0 {
		t.Fatalf("Cycles while paused\nwant:0\nhave:%d", have)
	}

	session.Machine.State.DelayTimer = 5

	frame(t, session, runner.Input{Step: true})

	if have := session.Status().Cycles; have != 1 {
		t.Fatalf("Cycles after single step\nwant:1\nhave:%d", have)
	}

	if have := session.Machine.State.DelayTimer; have != 5 {
		t.Fatalf("Delay timer while paused\nwant:5\nhave:%d", have)
	}

	if !strings.Contains(out.String(), "PC: 0x0202") {
		t.Fatalf("Missing state dump\nhave:%q", out.String())
	}

	frame(t, session, runner.Input{Pause: true})

	if session.Paused() {
		t.Fatal("Session still paused")
	}
}

func TestReload(t *testing.T) {
	session, _ := newSession(t, 600, counter...)

	frame(t, session, runner.Input{})
	frame(t, session, runner.Input{Pause: true, Reload: true})

	state := &session.Machine.State

	if state.Registers[0] != 0 || state.Program != machine.MEMSPACE_PROGRAM {
		t.Fatalf(
			"State after reload\nwant:V0=0 PC=0x200\nhave:V0=%d PC=%#04x",
			state.Registers[0], state.Program,
		)
	}

	if state.Memory[machine.MEMSPACE_PROGRAM] != counter[0] {
		t.Fatal("Program not reloaded")
	}
}

func TestKeys(t *testing.T) {
	session, _ := newSession(t, 600, counter...)

	var in runner.Input
	in.Keys[5] = true

	frame(t, session, in)

	if !session.Machine.State.Keys[5] {
		t.Fatal("Key 5 not pressed")
	}

	frame(t, session, runner.Input{})

	if session.Machine.State.Keys[5] {
		t.Fatal("Key 5 not released")
	}
}

func TestInvalidOpcodeLoggedOnce(t *testing.T) {
	// .WORD 0xFFFF
	// JP 0x200
	session, out := newSession(t, 600, 0xFF, 0xFF, 0x12, 0x00)

	frame(t, session, runner.Input{})
	frame(t, session, runner.Input{})

	if have := strings.Count(out.String(), "invalid opcode"); have != 1 {
		t.Fatalf("Invalid opcode reports\nwant:1\nhave:%d\n%s", have, out.String())
	}
}

func TestFatalStops(t *testing.T) {
	// RET
	session, _ := newSession(t, 600, 0x00, 0xEE)

	err := session.Frame(runner.Input{})

	if err == nil || !machine.IsFatal(err) {
		t.Fatalf("want:fatal stack error\nhave:%v", err)
	}

	if !errors.Is(err, machine.ErrStackUnderflow) {
		t.Fatalf("want:%v\nhave:%v", machine.ErrStackUnderflow, err)
	}
}

func TestQuit(t *testing.T) {
	session, _ := newSession(t, 600, counter...)

	if err := session.Frame(runner.Input{Quit: true}); !errors.Is(err, runner.ErrQuit) {
		t.Fatalf("want:%v\nhave:%v", runner.ErrQuit, err)
	}
}

type stopAfter struct {
	session *runner.Session
	steps   int
}

func (dbg *stopAfter) Step(mc *machine.Machine) {
	if dbg.steps--; dbg.steps == 0 {
		dbg.session.Stop()
	}
}

func (dbg *stopAfter) Read(addr uint16, mc *machine.Machine)  {}
func (dbg *stopAfter) Write(addr uint16, mc *machine.Machine) {}

func TestStop(t *testing.T) {
	session, _ := newSession(t, 600, counter...)
	session.Machine.Debugger = &stopAfter{session, 3}

	if err := session.Frame(runner.Input{}); !errors.Is(err, runner.ErrQuit) {
		t.Fatalf("Frame error\nwant:%v\nhave:%v", runner.ErrQuit, err)
	}

	if have := session.Status().Cycles; have != 3 {
		t.Fatalf("Cycles\nwant:%d\nhave:%d", 3, have)
	}

	if err := session.Frame(runner.Input{}); !errors.Is(err, runner.ErrQuit) {
		t.Fatalf("Frame after stop\nwant:%v\nhave:%v", runner.ErrQuit, err)
	}
}

func TestProgramTooLarge(t *testing.T) {
	program := make([]byte, machine.MAX_PROGRAM_SIZE)

	_, err := runner.NewSession(machine.New(), program, 0, nil)

	if !errors.Is(err, machine.ErrProgramTooLarge) {
		t.Fatalf("want:%v\nhave:%v", machine.ErrProgramTooLarge, err)
	}
}

type fakeFrontend struct {
	polls    int
	quitAt   int
	presents int
	last     machine.Framebuffer
}

func (fe *fakeFrontend) Poll() (runner.Input, error) {
	fe.polls++
	return runner.Input{Quit: fe.polls >= fe.quitAt}, nil
}

func (fe *fakeFrontend) Present(fb *machine.Framebuffer, status runner.Status) error {
	fe.presents++
	fe.last = *fb
	return nil
}

func (fe *fakeFrontend) Close() error {
	return nil
}

func TestRun(t *testing.T) {
	// LD V0, 0x00
	// LD F, V0
	// DRW V0, V0, 5
	// JP 0x206
	session, _ := newSession(
		t, 600, 0x60, 0x00, 0xF0, 0x29, 0xD0, 0x05, 0x12, 0x06,
	)

	fe := &fakeFrontend{quitAt: 4}

	if err := runner.Run(context.Background(), session, fe); err != nil {
		t.Fatal(err)
	}

	if fe.polls != 4 {
		t.Fatalf("Polls\nwant:4\nhave:%d", fe.polls)
	}

	if fe.presents == 0 {
		t.Fatal("No frame presented")
	}

	// Top row of the 0 glyph is 0xF0
	if have := fe.last[0] >> 56; have != 0xF0 {
		t.Fatalf("Presented row 0\nwant:0xF0\nhave:%#02x", have)
	}
}

func TestRunFatal(t *testing.T) {
	session, _ := newSession(t, 600, 0x00, 0xEE)

	err := runner.Run(context.Background(), session, &fakeFrontend{quitAt: 100})

	if !machine.IsFatal(err) {
		t.Fatalf("want:fatal stack error\nhave:%v", err)
	}
}

func TestRunCancelled(t *testing.T) {
	session, _ := newSession(t, 600, counter...)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runner.Run(ctx, session, &fakeFrontend{quitAt: 100})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want:%v\nhave:%v", context.Canceled, err)
	}
}
