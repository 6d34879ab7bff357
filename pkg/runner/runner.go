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

package runner

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/lassandro/gochip8/pkg/debugger"
	"github.com/lassandro/gochip8/pkg/machine"
)

const (
	FRAME_RATE    = 60
	DEFAULT_CLOCK = 700
)

// Returned by Frame when the user asked to quit
var ErrQuit = errors.New("Quit requested")

// Host input gathered by a frontend for one frame. Pause, Step and Reload
// are edges, Keys and Quit are levels.
type Input struct {
	Keys   [machine.KEY_COUNT]bool
	Pause  bool
	Step   bool
	Reload bool
	Quit   bool
}

type Status struct {
	Paused bool
	Beep   bool
	Frames uint64
	Cycles uint64
}

type Frontend interface {
	Poll() (Input, error)
	Present(fb *machine.Framebuffer, status Status) error
	Close() error
}

type Session struct {
	Machine *machine.Machine
	Logger  *log.Logger

	// Instructions per second
	Clock int

	program []byte
	paused  bool
	budget  int
	frames  uint64
	cycles  uint64
	stopped bool
	invalid map[uint16]bool
}

// Creates a session around mc with program loaded. A nil logger logs
// through the standard logger.
func NewSession(mc *machine.Machine, program []byte, clock int, logger *log.Logger) (*Session, error) {
	if logger == nil {
		logger = log.Default()
	}

	if clock <= 0 {
		clock = DEFAULT_CLOCK
	}

	session := &Session{
		Machine: mc,
		Logger:  logger,
		Clock:   clock,
		program: program,
		invalid: make(map[uint16]bool),
	}

	if err := session.Reload(); err != nil {
		return nil, err
	}

	return session, nil
}

// Resets the machine and loads the program again
func (s *Session) Reload() error {
	s.Machine.State.Reset()
	s.budget = 0

	for addr := range s.invalid {
		delete(s.invalid, addr)
	}

	return s.Machine.LoadProgram(s.program)
}

// Makes the current and every later Frame return ErrQuit. Safe to call from
// debugger hooks while a frame is running.
func (s *Session) Stop() {
	s.stopped = true
}

func (s *Session) Paused() bool {
	return s.paused
}

func (s *Session) SetPaused(paused bool) {
	s.paused = paused
}

func (s *Session) Status() Status {
	return Status{
		Paused: s.paused,
		Beep:   s.Machine.State.SoundTimer != 0,
		Frames: s.frames,
		Cycles: s.cycles,
	}
}

// Number of instructions to run this frame, carrying the remainder of
// Clock/FRAME_RATE over to later frames
func (s *Session) stepsThisFrame() int {
	s.budget += s.Clock
	steps := s.budget / FRAME_RATE
	s.budget %= FRAME_RATE

	return steps
}

func (s *Session) step() error {
	err := s.Machine.Step()
	s.cycles++

	if err == nil {
		return nil
	}

	if machine.IsFatal(err) {
		return err
	}

	var invalid *machine.InvalidOpcodeError

	if errors.As(err, &invalid) {
		if !s.invalid[invalid.Addr] {
			s.invalid[invalid.Addr] = true
			s.Logger.Println(err)
		}

		return nil
	}

	return err
}

func (s *Session) logState() {
	var builder strings.Builder

	debugger.PrintState(&builder, s.Machine)

	for _, line := range strings.Split(strings.TrimSpace(builder.String()), "\n") {
		s.Logger.Println(line)
	}
}

// Advances the session by one 60 Hz frame: applies input, runs the frame's
// instructions and ticks the timers once. While paused only an explicit
// Step executes, one instruction at a time, and the timers hold.
func (s *Session) Frame(in Input) error {
	if in.Quit || s.stopped {
		return ErrQuit
	}

	if in.Reload {
		if err := s.Reload(); err != nil {
			return err
		}

		s.Logger.Println("Program reloaded")
	}

	if in.Pause {
		s.paused = !s.paused

		if s.paused {
			s.Logger.Println("Paused")
		} else {
			s.Logger.Println("Resumed")
		}
	}

	for key, pressed := range in.Keys {
		s.Machine.SetKey(uint8(key), pressed)
	}

	if s.paused {
		if !in.Step {
			return nil
		}

		err := s.step()
		s.logState()

		return err
	}

	for i, steps := 0, s.stepsThisFrame(); i < steps; i++ {
		if err := s.step(); err != nil {
			return err
		}

		if s.stopped {
			return ErrQuit
		}
	}

	if s.Machine.TickTimers() {
		s.Logger.Println("BEEP")
	}

	s.frames++

	return nil
}

// Drives a session from a frontend at FRAME_RATE until the user quits, ctx
// is cancelled or the machine hits a fatal error. Frames are presented when
// the display or the status changed.
func Run(ctx context.Context, s *Session, fe Frontend) error {
	ticker := time.NewTicker(time.Second / FRAME_RATE)
	defer ticker.Stop()

	var last Status

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		in, err := fe.Poll()

		if err != nil {
			return err
		}

		if err := s.Frame(in); err != nil {
			if errors.Is(err, ErrQuit) {
				return nil
			}

			return err
		}

		fb, dirty := s.Machine.Framebuffer()
		status := s.Status()

		if dirty || status.Paused != last.Paused || status.Beep != last.Beep {
			if err := fe.Present(&fb, status); err != nil {
				return err
			}

			s.Machine.ClearDrawFlag()
		}

		last = status
	}
}
