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

// Package script exposes a machine to Lua for headless runs and ROM tests.
//
// Globals:
//
//	step([n])       execute n instructions (default 1)
//	tick([n])       decrement the timers n times
//	frame([n])      run n frames of StepsPerFrame instructions and one tick
//	press(k)        hold keypad key k
//	release(k)      let go of keypad key k
//	reg(i)          read Vi
//	setreg(i, v)    write Vi
//	pc() index() sp() dt() st()
//	peek(a)         read a memory byte
//	poke(a, v)      write a memory byte
//	pixel(x, y)     true when the display pixel is lit
//	screen()        the display as text, '#' lit and '.' dark
//	load(path)      reset and load a binary, or assemble a .asm/.s source
//	log(...)        print through the script logger
package script

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/lassandro/gochip8/pkg/assembler"
	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/lassandro/gochip8/pkg/runner"
)

var ErrAssembly = errors.New("assembly failed")

type Script struct {
	Machine       *machine.Machine
	Logger        *log.Logger
	StepsPerFrame int

	state *lua.LState
	fault error
}

func New(mc *machine.Machine, logger *log.Logger) *Script {
	if logger == nil {
		logger = log.Default()
	}

	s := &Script{
		Machine:       mc,
		Logger:        logger,
		StepsPerFrame: runner.DEFAULT_CLOCK / runner.FRAME_RATE,
		state:         lua.NewState(),
	}

	for name, fn := range map[string]lua.LGFunction{
		"step":    s.step,
		"tick":    s.tick,
		"frame":   s.frame,
		"press":   s.press,
		"release": s.release,
		"reg":     s.reg,
		"setreg":  s.setreg,
		"pc":      s.pc,
		"index":   s.index,
		"sp":      s.sp,
		"dt":      s.dt,
		"st":      s.st,
		"peek":    s.peek,
		"poke":    s.poke,
		"pixel":   s.pixel,
		"screen":  s.screen,
		"load":    s.load,
		"log":     s.log,
	} {
		s.state.SetGlobal(name, s.state.NewFunction(fn))
	}

	return s
}

func (s *Script) Close() {
	s.state.Close()
}

func (s *Script) DoString(source string) error {
	return s.result(s.state.DoString(source))
}

func (s *Script) DoFile(path string) error {
	return s.result(s.state.DoFile(path))
}

// Fatal machine errors are returned as themselves rather than as Lua errors
func (s *Script) result(err error) error {
	if s.fault != nil {
		return s.fault
	}

	return err
}

func (s *Script) count(L *lua.LState) int {
	n := L.OptInt(1, 1)

	if n < 0 {
		L.ArgError(1, "count must not be negative")
	}

	return n
}

func (s *Script) execute(L *lua.LState, n int) {
	if s.fault != nil {
		L.RaiseError("%s", s.fault)
	}

	for i := 0; i < n; i++ {
		err := s.Machine.Step()

		if machine.IsFatal(err) {
			s.fault = err
			L.RaiseError("%s", err)
		}

		if err != nil {
			s.Logger.Println(err)
		}
	}
}

func (s *Script) step(L *lua.LState) int {
	s.execute(L, s.count(L))
	return 0
}

func (s *Script) tick(L *lua.LState) int {
	for i := s.count(L); i > 0; i-- {
		s.Machine.TickTimers()
	}

	return 0
}

func (s *Script) frame(L *lua.LState) int {
	for i := s.count(L); i > 0; i-- {
		s.execute(L, s.StepsPerFrame)

		if s.Machine.TickTimers() {
			s.Logger.Println("BEEP")
		}
	}

	return 0
}

func checkRange(L *lua.LState, n, limit int, what string) int {
	v := L.CheckInt(n)

	if v < 0 || v >= limit {
		L.ArgError(n, fmt.Sprintf("%s out of range: %d", what, v))
	}

	return v
}

func (s *Script) press(L *lua.LState) int {
	s.Machine.SetKey(uint8(checkRange(L, 1, machine.KEY_COUNT, "key")), true)
	return 0
}

func (s *Script) release(L *lua.LState) int {
	s.Machine.SetKey(uint8(checkRange(L, 1, machine.KEY_COUNT, "key")), false)
	return 0
}

func (s *Script) reg(L *lua.LState) int {
	i := checkRange(L, 1, machine.REGISTER_COUNT, "register")
	L.Push(lua.LNumber(s.Machine.State.Registers[i]))
	return 1
}

func (s *Script) setreg(L *lua.LState) int {
	i := checkRange(L, 1, machine.REGISTER_COUNT, "register")
	v := checkRange(L, 2, 0x100, "value")
	s.Machine.State.Registers[i] = uint8(v)
	return 0
}

func (s *Script) pc(L *lua.LState) int {
	L.Push(lua.LNumber(s.Machine.State.Program))
	return 1
}

func (s *Script) index(L *lua.LState) int {
	L.Push(lua.LNumber(s.Machine.State.Index))
	return 1
}

func (s *Script) sp(L *lua.LState) int {
	L.Push(lua.LNumber(s.Machine.State.StackPointer))
	return 1
}

func (s *Script) dt(L *lua.LState) int {
	L.Push(lua.LNumber(s.Machine.State.DelayTimer))
	return 1
}

func (s *Script) st(L *lua.LState) int {
	L.Push(lua.LNumber(s.Machine.State.SoundTimer))
	return 1
}

func (s *Script) peek(L *lua.LState) int {
	addr := L.CheckInt(1) & machine.MEMORY_ADDR_MASK
	L.Push(lua.LNumber(s.Machine.State.Memory[addr]))
	return 1
}

func (s *Script) poke(L *lua.LState) int {
	addr := L.CheckInt(1) & machine.MEMORY_ADDR_MASK
	v := checkRange(L, 2, 0x100, "value")
	s.Machine.State.Memory[addr] = uint8(v)
	return 0
}

func (s *Script) pixel(L *lua.LState) int {
	L.Push(lua.LBool(s.Machine.State.Display.Pixel(L.CheckInt(1), L.CheckInt(2))))
	return 1
}

func (s *Script) screen(L *lua.LState) int {
	L.Push(lua.LString(s.Machine.State.Display.String()))
	return 1
}

func (s *Script) load(L *lua.LState) int {
	path := L.CheckString(1)

	if err := s.Load(path); err != nil {
		L.RaiseError("%s", err)
	}

	s.fault = nil

	return 0
}

// Resets the machine and loads path. Files ending in .asm or .s are
// assembled first.
func (s *Script) Load(path string) error {
	file, err := os.Open(path)

	if err != nil {
		return err
	}

	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".asm", ".s":
		program, errs := assembler.AssembleSource(file, nil)

		if len(errs) > 0 {
			return fmt.Errorf("%w: %s: %v", ErrAssembly, path, errs[0])
		}

		s.Machine.State.Reset()

		return s.Machine.LoadProgram(program)
	default:
		return s.Machine.LoadBin(file)
	}
}

func (s *Script) log(L *lua.LState) int {
	args := make([]string, 0, L.GetTop())

	for i := 1; i <= L.GetTop(); i++ {
		args = append(args, L.ToStringMeta(L.Get(i)).String())
	}

	s.Logger.Println(strings.Join(args, "\t"))

	return 0
}
