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
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/lassandro/gochip8/pkg/frontend/console"
	"github.com/lassandro/gochip8/pkg/frontend/window"
	"github.com/lassandro/gochip8/pkg/input"
	"github.com/lassandro/gochip8/pkg/runner"
)

type frontendOptions struct {
	Title      string
	Scale      int
	Layout     input.Layout
	Fullscreen bool
}

type startFunc func(*runner.Session, frontendOptions) error

// Frontends built behind tags register themselves from init
var frontends = map[string]startFunc{
	"window":  startWindow,
	"console": startConsole,
}

func startWindow(session *runner.Session, opts frontendOptions) error {
	return window.Run(session, window.Options{
		Title:      opts.Title,
		Scale:      opts.Scale,
		Layout:     opts.Layout,
		Fullscreen: opts.Fullscreen,
	})
}

// Runs fe until it quits, closing it afterwards
func runFrontend(session *runner.Session, fe runner.Frontend) error {
	ctx := context.Background()

	// Under the debugger an interrupt breaks into the REPL instead
	if !debugvar {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, os.Interrupt)
		defer stop()
	}

	err := runner.Run(ctx, session, fe)

	if cerr := fe.Close(); err == nil {
		err = cerr
	}

	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

func startConsole(session *runner.Session, opts frontendOptions) error {
	fe, err := console.New(os.Stdin, os.Stdout, opts.Layout)

	if err != nil {
		return err
	}

	return runFrontend(session, fe)
}
