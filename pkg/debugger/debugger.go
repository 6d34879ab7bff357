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

package debugger

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/lassandro/gochip8/pkg/machine"
)

func (dbg *Debugger) out() io.Writer {
	if dbg.Output == nil {
		return os.Stdout
	}

	return dbg.Output
}

// Breakpoints fire when the program counter arrives at their address. An
// instruction that leaves the program counter in place, such as a key wait
// polling, does not fire them again.
func (dbg *Debugger) Step(mc *machine.Machine) {
	arrived := !dbg.stepped || mc.State.Program != dbg.last
	dbg.last = mc.State.Program
	dbg.stepped = true

	if dbg.Break {
		if dbg.HandleBreak != nil {
			dbg.HandleBreak(dbg, mc)
		}
		return
	}

	if !arrived {
		return
	}

	for _, breakpoint := range dbg.Breakpoints {
		if mc.State.Program == breakpoint.Addr {
			if dbg.HandleBreak != nil {
				dbg.HandleBreak(dbg, mc)
			}
			break
		}
	}
}

func (dbg *Debugger) Read(addr uint16, mc *machine.Machine) {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type&ReadWatch == 0 {
			continue
		}

		if addr == watchpoint.Addr {
			if dbg.HandleRead != nil {
				dbg.HandleRead(addr, dbg, mc)
			}
			break
		}
	}
}

func (dbg *Debugger) Write(addr uint16, mc *machine.Machine) {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type&WriteWatch == 0 {
			continue
		}

		if addr == watchpoint.Addr {
			if dbg.HandleWrite != nil {
				dbg.HandleWrite(addr, dbg, mc)
			}
			break
		}
	}
}

// Adds a breakpoint unless one already exists at addr
func (dbg *Debugger) AddBreakpoint(addr uint16) bool {
	for _, breakpoint := range dbg.Breakpoints {
		if breakpoint.Addr == addr {
			return false
		}
	}

	dbg.Breakpoints = append(dbg.Breakpoints, Breakpoint{addr})

	return true
}

// Adds a watchpoint unless an identical one already exists
func (dbg *Debugger) AddWatchpoint(addr uint16, wtype WatchpointType) bool {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Addr == addr && watchpoint.Type == wtype {
			return false
		}
	}

	dbg.Watchpoints = append(dbg.Watchpoints, Watchpoint{addr, wtype})

	return true
}

func (dbg *Debugger) PrintSource(addr uint16, count uint16) {
	out := dbg.out()

	if dbg.Source == nil {
		fmt.Fprintln(out, "No source file loaded")
		return
	}

	if dbg.SymTable == nil {
		fmt.Fprintln(out, "No symbol table loaded")
		return
	}

	if offset, exists := dbg.SymTable.Symbols[addr]; exists {
		if _, err := dbg.Source.Seek(offset, io.SeekStart); err != nil {
			fmt.Fprintln(out, err)
			return
		}

		scanner := bufio.NewScanner(dbg.Source)
		scanner.Split(bufio.ScanLines)

		for i := uint16(0); i < count; i++ {
			if !scanner.Scan() {
				break
			}

			line := scanner.Text()

			foundaddr := false
			for lineaddr, linebyte := range dbg.SymTable.Symbols {
				if linebyte == offset {
					fmt.Fprintf(out, "\033[1m[%#04x]\033[0m ", lineaddr)
					foundaddr = true
					break
				}
			}

			if !foundaddr {
				fmt.Fprint(out, "\033[1;30m~~~~~~~\033[0m ")
			}

			fmt.Fprintln(out, line)

			offset += int64(len(line) + 1)
		}

		if err := scanner.Err(); err != nil {
			fmt.Fprintln(out, err)
		}
	} else {
		fmt.Fprintf(out, "No instruction found at %#04x\n", addr)
	}
}

func (dbg *Debugger) PrintMem(mc *machine.MachineState, addr, count uint16) {
	out := dbg.out()

	for n := uint16(0); n < count; n++ {
		i := (addr + n) & machine.MEMORY_ADDR_MASK

		if n == 0 {
			fmt.Fprintf(out, "\033[1m[%#04x]\033[0m ", i)
		} else if n%8 == 0 {
			fmt.Fprintln(out)
			fmt.Fprintf(out, "\033[1m[%#04x]\033[0m ", i)
		}

		result := mc.Memory[i]

		if result == 0 {
			fmt.Fprintf(out, "\033[1;30m%#02x\033[0m ", result)
		} else {
			fmt.Fprintf(out, "%#02x ", result)
		}
	}

	fmt.Fprintln(out)
}

// Lists count instructions starting at addr, marking the program counter
func (dbg *Debugger) PrintDisasm(mc *machine.Machine, addr, count uint16) {
	out := dbg.out()

	for i := uint16(0); i < count; i++ {
		at := addr + i*2
		word := mc.Fetch(at)

		marker := "  "
		if at == mc.State.Program {
			marker = "=>"
		}

		label := ""
		if dbg.SymTable != nil {
			if name, ok := dbg.SymTable.Labels[at]; ok {
				label = " \033[1;30m(" + name + ")\033[0m"
			}
		}

		fmt.Fprintf(
			out, "%s \033[1m[%#04x]\033[0m %04X  %s%s\n",
			marker, at, word, machine.Decode(word), label,
		)
	}
}

// Dumps the registers, stack and timers along with the next instruction
func PrintState(out io.Writer, mc *machine.Machine) {
	st := &mc.State
	word := mc.Fetch(st.Program)

	fmt.Fprintf(
		out, "PC: 0x%04X | SP: 0x%02X | I: 0x%04X | Opcode: 0x%04X (%s)\n",
		st.Program, st.StackPointer, st.Index, word, machine.Decode(word),
	)

	fmt.Fprint(out, "Registers:")
	for i, register := range st.Registers {
		fmt.Fprintf(out, " V%X: 0x%02X", i, register)
	}
	fmt.Fprintln(out)

	fmt.Fprint(out, "Stack:")
	for i := 0; i < int(st.StackPointer); i++ {
		fmt.Fprintf(out, " 0x%04X", st.Stack[i])
	}
	fmt.Fprintln(out)

	fmt.Fprintf(out, "Delay Timer: %d | Sound Timer: %d\n", st.DelayTimer, st.SoundTimer)
}
