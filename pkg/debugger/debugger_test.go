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

package debugger_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lassandro/gochip8/pkg/assembler"
	"github.com/lassandro/gochip8/pkg/debugger"
	"github.com/lassandro/gochip8/pkg/machine"
)

func newMachine(t *testing.T, program ...byte) *machine.Machine {
	mc := machine.New()

	if err := mc.LoadProgram(program); err != nil {
		t.Fatal(err)
	}

	return mc
}

func TestBreakpoint(t *testing.T) {
	// LD V0, 0x01
	// JP 0x200
	mc := newMachine(t, 0x60, 0x01, 0x12, 0x00)

	hits := 0
	dbg := &debugger.Debugger{
		HandleBreak: func(dbg *debugger.Debugger, mc *machine.Machine) {
			hits++
		},
	}

	if !dbg.AddBreakpoint(0x200) {
		t.Fatal("Breakpoint not added")
	}

	if dbg.AddBreakpoint(0x200) {
		t.Fatal("Duplicate breakpoint added")
	}

	mc.Debugger = dbg

	for i := 0; i < 6; i++ {
		if err := mc.Step(); err != nil {
			t.Fatal(err)
		}
	}

	if hits != 3 {
		t.Fatalf("Breakpoint hits mismatch\nwant:3\nhave:%d", hits)
	}
}

func TestBreakpointStationary(t *testing.T) {
	tests := []struct {
		Name    string
		Program []byte
		Addr    uint16
	}{
		// LD V0, K
		{"Key Wait", []byte{0xF0, 0x0A}, 0x200},
		// LD V0, 0x01
		// JP 0x202
		{"Self Jump", []byte{0x60, 0x01, 0x12, 0x02}, 0x202},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			mc := newMachine(t, test.Program...)

			hits := 0
			dbg := &debugger.Debugger{
				HandleBreak: func(dbg *debugger.Debugger, mc *machine.Machine) {
					hits++
				},
			}

			dbg.AddBreakpoint(test.Addr)
			mc.Debugger = dbg

			for i := 0; i < 11; i++ {
				if err := mc.Step(); err != nil {
					t.Fatal(err)
				}
			}

			if mc.State.Program != test.Addr {
				t.Fatalf("PC\nwant:%#04x\nhave:%#04x", test.Addr, mc.State.Program)
			}

			if hits != 1 {
				t.Fatalf("Breakpoint hits mismatch\nwant:1\nhave:%d", hits)
			}
		})
	}
}

func TestBreakpointAfterKeyWait(t *testing.T) {
	// LD V0, K
	// JP 0x200
	mc := newMachine(t, 0xF0, 0x0A, 0x12, 0x00)

	hits := 0
	dbg := &debugger.Debugger{
		HandleBreak: func(dbg *debugger.Debugger, mc *machine.Machine) {
			hits++
		},
	}

	dbg.AddBreakpoint(0x200)
	mc.Debugger = dbg

	step := func() {
		if err := mc.Step(); err != nil {
			t.Fatal(err)
		}
	}

	step()
	step()

	mc.SetKey(0x3, true)
	step()
	mc.SetKey(0x3, false)
	step() // wait resolves
	step() // JP back to the wait

	if hits != 2 {
		t.Fatalf("Breakpoint hits mismatch\nwant:2\nhave:%d", hits)
	}

	if have := mc.State.Registers[0]; have != 0x3 {
		t.Fatalf("V0\nwant:0x3\nhave:%#x", have)
	}
}

func TestBreakFlag(t *testing.T) {
	mc := newMachine(t, 0x60, 0x01)

	hits := 0
	dbg := &debugger.Debugger{
		Break: true,
		HandleBreak: func(dbg *debugger.Debugger, mc *machine.Machine) {
			hits++
		},
	}

	mc.Debugger = dbg

	if err := mc.Step(); err != nil {
		t.Fatal(err)
	}

	if hits != 1 {
		t.Fatalf("Break hits mismatch\nwant:1\nhave:%d", hits)
	}
}

func TestWatchpoints(t *testing.T) {
	program := []byte{
		0xA3, 0x00, // LD I, 0x300
		0x60, 0x07, // LD V0, 0x07
		0xF0, 0x55, // LD [I], V0
		0xA3, 0x00, // LD I, 0x300
		0xF0, 0x65, // LD V0, [I]
	}

	tests := []struct {
		Name   string
		Type   debugger.WatchpointType
		Reads  int
		Writes int
	}{
		{"Read", debugger.ReadWatch, 1, 0},
		{"Write", debugger.WriteWatch, 0, 1},
		{"ReadWrite", debugger.ReadWriteWatch, 1, 1},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			mc := newMachine(t, program...)

			reads, writes := 0, 0
			dbg := &debugger.Debugger{
				HandleRead: func(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
					if addr != 0x300 {
						t.Fatalf("Read watch address\nwant:0x300\nhave:%#04x", addr)
					}
					reads++
				},
				HandleWrite: func(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
					if addr != 0x300 {
						t.Fatalf("Write watch address\nwant:0x300\nhave:%#04x", addr)
					}
					writes++
				},
			}

			dbg.AddWatchpoint(0x300, test.Type)
			mc.Debugger = dbg

			for i := 0; i < len(program)/2; i++ {
				if err := mc.Step(); err != nil {
					t.Fatal(err)
				}
			}

			if reads != test.Reads || writes != test.Writes {
				t.Fatalf(
					"Watch hits mismatch\nwant:%d reads, %d writes\nhave:%d reads, %d writes",
					test.Reads, test.Writes, reads, writes,
				)
			}
		})
	}
}

func TestPrintState(t *testing.T) {
	mc := newMachine(t, 0x60, 0x01)
	mc.State.Registers[0xA] = 0x42
	mc.State.DelayTimer = 3

	var out bytes.Buffer
	debugger.PrintState(&out, mc)

	for _, want := range []string{
		"PC: 0x0200 | SP: 0x00 | I: 0x0000 | Opcode: 0x6001 (LD V0, 0x01)",
		"VA: 0x42",
		"Delay Timer: 3 | Sound Timer: 0",
	} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("State dump missing %q\nhave:\n%s", want, out.String())
		}
	}
}

func TestPrintMem(t *testing.T) {
	mc := newMachine(t)
	mc.State.Memory[0x300] = 0xAB

	var out bytes.Buffer
	dbg := &debugger.Debugger{Output: &out}
	dbg.PrintMem(&mc.State, 0x300, 2)

	for _, want := range []string{"[0x0300]", "0xab", "0x00"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("Memory dump missing %q\nhave:%q", want, out.String())
		}
	}
}

func TestPrintMemWraps(t *testing.T) {
	mc := newMachine(t)
	mc.State.Memory[0x000] = 0xCD

	var out bytes.Buffer
	dbg := &debugger.Debugger{Output: &out}
	dbg.PrintMem(&mc.State, 0xFFF0, 0x20)

	// 4 rows of 8 bytes, each row prefixed by its address
	if have := strings.Count(out.String(), "0x"); have != 4+0x20 {
		t.Fatalf("Memory dump values\nwant:%d\nhave:%d\n%q", 4+0x20, have, out.String())
	}

	for _, want := range []string{"[0x0ff0]", "[0x0ff8]", "0xcd"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("Memory dump missing %q\nhave:%q", want, out.String())
		}
	}
}

func TestPrintDisasm(t *testing.T) {
	mc := newMachine(t, 0x00, 0xE0, 0x12, 0x00)

	var out bytes.Buffer
	dbg := &debugger.Debugger{
		Output: &out,
		SymTable: &assembler.SymTable{
			Labels: map[uint16]string{0x200: "start"},
		},
	}

	dbg.PrintDisasm(mc, 0x200, 2)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")

	if len(lines) != 2 {
		t.Fatalf("Disassembly line count\nwant:2\nhave:%d", len(lines))
	}

	if !strings.HasPrefix(lines[0], "=>") || !strings.Contains(lines[0], "CLS") {
		t.Fatalf("Unexpected first line: %q", lines[0])
	}

	if !strings.Contains(lines[0], "(start)") {
		t.Fatalf("Missing label: %q", lines[0])
	}

	if !strings.Contains(lines[1], "JP 0x200") {
		t.Fatalf("Unexpected second line: %q", lines[1])
	}
}

func TestPrintSource(t *testing.T) {
	source := "start:\nCLS\nloop: JP loop\n"
	path := filepath.Join(t.TempDir(), "test.asm")

	if err := os.WriteFile(path, []byte(source), 0644); err != nil {
		t.Fatal(err)
	}

	file, err := os.Open(path)

	if err != nil {
		t.Fatal(err)
	}

	defer file.Close()

	symtable := assembler.NewSymTable(path)

	if _, errs := assembler.AssembleSource(file, symtable); len(errs) > 0 {
		t.Fatal(errs[0])
	}

	var out bytes.Buffer
	dbg := &debugger.Debugger{
		Output:   &out,
		Source:   file,
		SymTable: symtable,
	}

	dbg.PrintSource(0x202, 1)

	if !strings.Contains(out.String(), "loop: JP loop") {
		t.Fatalf("Source listing missing line\nhave:%q", out.String())
	}

	out.Reset()
	dbg.PrintSource(0x300, 1)

	if !strings.Contains(out.String(), "No instruction found") {
		t.Fatalf("Unexpected listing\nhave:%q", out.String())
	}
}
