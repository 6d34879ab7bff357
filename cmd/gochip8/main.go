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

package main

import (
	"encoding/gob"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lassandro/gochip8/pkg/assembler"
	"github.com/lassandro/gochip8/pkg/debugger"
	"github.com/lassandro/gochip8/pkg/input"
	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/lassandro/gochip8/pkg/runner"
	"github.com/lassandro/gochip8/pkg/script"
)

var helpvar bool
var debugvar bool
var frontendvar string
var clockvar int
var scalevar int
var keysvar string
var scriptvar string
var seedvar int64
var fullscreenvar bool

const usage = "gochip8 [-frontend window|sdl|console] [-debug] [-script file.lua] filename"

func init() {
	exe, _ := os.Executable()
	log.SetFlags(0)
	log.SetPrefix(fmt.Sprintf("%s: ", filepath.Base(exe)))
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(&debugvar, "debug", false, "Runs the machine under a debug CLI on stdin")
	flag.StringVar(&frontendvar, "frontend", "window", "Selects the display frontend")
	flag.IntVar(&clockvar, "clock", runner.DEFAULT_CLOCK, "Instructions executed per second")
	flag.IntVar(&scalevar, "scale", 10, "Window pixels per display pixel")
	flag.StringVar(
		&keysvar, "keys", input.DEFAULT_LAYOUT,
		"Host keys bound to keypad keys 0 through F, in order",
	)
	flag.StringVar(&scriptvar, "script", "", "Runs a Lua script against the machine without a display")
	flag.Int64Var(&seedvar, "seed", 0, "Seeds the random number generator, 0 seeds from the clock")
	flag.BoolVar(&fullscreenvar, "fullscreen", false, "Starts window frontends in fullscreen")
	flag.Parse()
}

func frontendNames() string {
	names := make([]string, 0, len(frontends))
	for name := range frontends {
		names = append(names, name)
	}

	sort.Strings(names)

	return strings.Join(names, ", ")
}

func runScript(mc *machine.Machine, args []string) int {
	sc := script.New(mc, log.Default())
	defer sc.Close()

	if len(args) == 1 {
		if err := sc.Load(args[0]); err != nil {
			log.Println(err)
			return 1
		}
	}

	if err := sc.DoFile(scriptvar); err != nil {
		log.Println(err)
		return 1
	}

	return 0
}

func attachDebugger(mc *machine.Machine, path string) *debugger.Debugger {
	var dbg debugger.Debugger
	dbg.HandleBreak = handleBreak
	dbg.HandleRead = handleRead
	dbg.HandleWrite = handleWrite
	mc.Debugger = &dbg

	if file, err := os.Open(assembler.SymbolFilename(path)); err == nil {
		var symtable assembler.SymTable

		if err := gob.NewDecoder(file).Decode(&symtable); err == nil {
			dbg.SymTable = &symtable
		} else {
			log.Println("Error loading symbol file")
			log.Println(err)
		}

		file.Close()
	} else {
		log.Println("Error loading symbol file")
		log.Println(err)
	}

	if dbg.SymTable != nil && dbg.SymTable.Source != "" {
		if file, err := os.Open(dbg.SymTable.Source); err == nil {
			dbg.Source = file
		} else {
			log.Println("Error loading source file")
			log.Println(err)
		}
	}

	c := make(chan os.Signal, 1)

	signal.Notify(c, os.Interrupt)
	go func() {
		for range c {
			fmt.Println()
			dbg.Break = true
		}
	}()

	return &dbg
}

func gochip8() int {
	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	args := flag.Args()

	mc := machine.New()

	if seedvar != 0 {
		mc.Seed(seedvar)
	}

	if scriptvar != "" {
		if len(args) > 1 {
			log.Println(usage)
			return 1
		}

		return runScript(mc, args)
	}

	if len(args) != 1 {
		log.Println(usage)
		return 1
	}

	start, ok := frontends[frontendvar]

	if !ok {
		log.Printf("Unknown frontend '%s', available: %s", frontendvar, frontendNames())
		return 1
	}

	layout, err := input.Parse(keysvar)

	if err != nil {
		log.Println(err)
		return 1
	}

	program, err := os.ReadFile(args[0])

	if err != nil {
		log.Println(err)
		return 1
	}

	session, err := runner.NewSession(mc, program, clockvar, log.Default())

	if err != nil {
		log.Println(err)
		return 1
	}

	if debugvar {
		if frontendvar == "console" {
			log.Println("-debug needs stdin and cannot be used with the console frontend")
			return 1
		}

		dbg := attachDebugger(mc, args[0])

		if dbg.Source != nil {
			defer dbg.Source.Close()
		}

		debugSession = session
		debugREPL(dbg, mc)
	}

	opts := frontendOptions{
		Title:      filepath.Base(args[0]),
		Scale:      scalevar,
		Layout:     layout,
		Fullscreen: fullscreenvar,
	}

	if err := start(session, opts); err != nil {
		log.Println(err)
		return 1
	}

	return 0
}

func main() {
	os.Exit(gochip8())
}
