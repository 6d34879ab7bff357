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

// Package sdlwindow presents a session through an SDL2 window. It is only
// built with the sdl build tag since it needs the SDL2 development libraries.
// Callers must create and drive a Window from the main OS thread, locked
// with runtime.LockOSThread in an init of package main.
package sdlwindow

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/lassandro/gochip8/pkg/input"
	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/lassandro/gochip8/pkg/runner"
)

const DEFAULT_SCALE = 10

// Printable SDL keycodes share their ASCII values
func Keycode(r rune) sdl.Keycode {
	return sdl.Keycode(r)
}

// Lit pixels of fb as rectangles at the given scale
func PixelRects(fb *machine.Framebuffer, scale int32) []sdl.Rect {
	rects := make([]sdl.Rect, 0, 64)

	for y := 0; y < machine.DISPLAY_HEIGHT; y++ {
		for x := 0; x < machine.DISPLAY_WIDTH; x++ {
			if fb.Pixel(x, y) {
				rects = append(rects, sdl.Rect{
					X: int32(x) * scale,
					Y: int32(y) * scale,
					W: scale,
					H: scale,
				})
			}
		}
	}

	return rects
}

type Window struct {
	title      string
	scale      int32
	fullscreen bool
	window     *sdl.Window
	renderer   *sdl.Renderer
	keys       map[sdl.Keycode]uint8
	held       [machine.KEY_COUNT]bool
}

func New(title string, scale int, layout input.Layout) (*Window, error) {
	if scale <= 0 {
		scale = DEFAULT_SCALE
	}

	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, err
	}

	width := int32(machine.DISPLAY_WIDTH * scale)
	height := int32(machine.DISPLAY_HEIGHT * scale)

	window, err := sdl.CreateWindow(
		title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		width, height, sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE,
	)

	if err != nil {
		sdl.Quit()
		return nil, err
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)

	if err != nil {
		window.Destroy()
		sdl.Quit()
		return nil, err
	}

	if err := renderer.SetLogicalSize(width, height); err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
		return nil, err
	}

	w := &Window{
		title:    title,
		scale:    int32(scale),
		window:   window,
		renderer: renderer,
		keys:     make(map[sdl.Keycode]uint8),
	}

	for i, r := range layout {
		w.keys[Keycode(r)] = uint8(i)
	}

	return w, nil
}

func (w *Window) Poll() (runner.Input, error) {
	var in runner.Input

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch t := event.(type) {
		case *sdl.QuitEvent:
			in.Quit = true

		case *sdl.KeyboardEvent:
			down := t.Type == sdl.KEYDOWN
			sym := t.Keysym.Sym

			if key, ok := w.keys[sym]; ok {
				w.held[key] = down
				continue
			}

			if !down || t.Repeat != 0 {
				continue
			}

			switch sym {
			case Keycode(input.KEY_PAUSE):
				in.Pause = true
			case Keycode(input.KEY_STEP):
				in.Step = true
			case sdl.K_F5:
				in.Reload = true
			case sdl.K_F11:
				w.ToggleFullscreen()
			case sdl.K_ESCAPE:
				in.Quit = true
			}
		}
	}

	in.Keys = w.held

	return in, nil
}

func (w *Window) ToggleFullscreen() {
	w.fullscreen = !w.fullscreen

	if w.fullscreen {
		w.window.SetFullscreen(sdl.WINDOW_FULLSCREEN_DESKTOP)
	} else {
		w.window.SetFullscreen(0)
	}
}

func (w *Window) Present(fb *machine.Framebuffer, status runner.Status) error {
	if err := w.renderer.SetDrawColor(0x10, 0x10, 0x10, 0xFF); err != nil {
		return err
	}

	if err := w.renderer.Clear(); err != nil {
		return err
	}

	if rects := PixelRects(fb, w.scale); len(rects) > 0 {
		if err := w.renderer.SetDrawColor(0xE0, 0xE0, 0xE0, 0xFF); err != nil {
			return err
		}

		if err := w.renderer.FillRects(rects); err != nil {
			return err
		}
	}

	if status.Beep {
		if err := w.renderer.SetDrawColor(0xDC, 0x32, 0x32, 0xFF); err != nil {
			return err
		}

		marker := sdl.Rect{X: 0, Y: 0, W: w.scale, H: w.scale}

		if err := w.renderer.FillRect(&marker); err != nil {
			return err
		}
	}

	title := w.title
	if status.Paused {
		title += " [PAUSED]"
	}
	w.window.SetTitle(title)

	w.renderer.Present()

	return nil
}

func (w *Window) Close() error {
	var err error

	if w.renderer != nil {
		err = w.renderer.Destroy()
	}

	if w.window != nil {
		if derr := w.window.Destroy(); err == nil {
			err = derr
		}
	}

	sdl.Quit()

	return err
}
