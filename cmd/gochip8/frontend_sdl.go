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

//go:build sdl

package main

import (
	"runtime"

	"github.com/lassandro/gochip8/pkg/frontend/sdlwindow"
	"github.com/lassandro/gochip8/pkg/runner"
)

func init() {
	// SDL must run on the main thread, which only init can pin
	runtime.LockOSThread()

	frontends["sdl"] = startSDL
}

func startSDL(session *runner.Session, opts frontendOptions) error {
	fe, err := sdlwindow.New(opts.Title, opts.Scale, opts.Layout)

	if err != nil {
		return err
	}

	if opts.Fullscreen {
		fe.ToggleFullscreen()
	}

	return runFrontend(session, fe)
}
