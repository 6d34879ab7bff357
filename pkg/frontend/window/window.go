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

// Package window runs a session in a desktop window through ebiten.
package window

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"

	"github.com/lassandro/gochip8/pkg/input"
	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/lassandro/gochip8/pkg/runner"
)

const (
	DEFAULT_SCALE = 10
	STATUS_HEIGHT = 18
)

var (
	ColorOn  = color.RGBA{0xE0, 0xE0, 0xE0, 0xFF}
	ColorOff = color.RGBA{0x10, 0x10, 0x10, 0xFF}

	statusBackground = color.RGBA{0x00, 0x00, 0x00, 0xFF}
	statusOff        = color.RGBA{0x78, 0x78, 0x78, 0xFF}
	statusOn         = color.RGBA{0x00, 0xDC, 0x5A, 0xFF}
)

var hostKeys = map[rune]ebiten.Key{
	'0': ebiten.KeyDigit0, '1': ebiten.KeyDigit1, '2': ebiten.KeyDigit2,
	'3': ebiten.KeyDigit3, '4': ebiten.KeyDigit4, '5': ebiten.KeyDigit5,
	'6': ebiten.KeyDigit6, '7': ebiten.KeyDigit7, '8': ebiten.KeyDigit8,
	'9': ebiten.KeyDigit9,
	'a': ebiten.KeyA, 'b': ebiten.KeyB, 'c': ebiten.KeyC, 'd': ebiten.KeyD,
	'e': ebiten.KeyE, 'f': ebiten.KeyF, 'g': ebiten.KeyG, 'h': ebiten.KeyH,
	'i': ebiten.KeyI, 'j': ebiten.KeyJ, 'k': ebiten.KeyK, 'l': ebiten.KeyL,
	'm': ebiten.KeyM, 'n': ebiten.KeyN, 'o': ebiten.KeyO, 'p': ebiten.KeyP,
	'q': ebiten.KeyQ, 'r': ebiten.KeyR, 's': ebiten.KeyS, 't': ebiten.KeyT,
	'u': ebiten.KeyU, 'v': ebiten.KeyV, 'w': ebiten.KeyW, 'x': ebiten.KeyX,
	'y': ebiten.KeyY, 'z': ebiten.KeyZ,
}

// Returns the physical key for a layout character
func HostKey(r rune) (ebiten.Key, bool) {
	key, ok := hostKeys[r]
	return key, ok
}

// Writes the framebuffer as RGBA pixels into dst, which must hold
// DISPLAY_WIDTH*DISPLAY_HEIGHT*4 bytes
func Rasterize(dst []byte, fb *machine.Framebuffer, on, off color.RGBA) {
	for y := 0; y < machine.DISPLAY_HEIGHT; y++ {
		for x := 0; x < machine.DISPLAY_WIDTH; x++ {
			c := off

			if fb.Pixel(x, y) {
				c = on
			}

			i := (y*machine.DISPLAY_WIDTH + x) * 4
			dst[i], dst[i+1], dst[i+2], dst[i+3] = c.R, c.G, c.B, c.A
		}
	}
}

type StatusToken struct {
	Name    string
	Enabled bool
}

func StatusTokens(status runner.Status) []StatusToken {
	return []StatusToken{
		{"RUN", !status.Paused},
		{"|", false},
		{"PAUSE", status.Paused},
		{"|", false},
		{"BEEP", status.Beep},
		{fmt.Sprintf("%d", status.Cycles), false},
	}
}

type Options struct {
	Title      string
	Scale      int
	Layout     input.Layout
	Fullscreen bool
}

type Game struct {
	session    *runner.Session
	keys       [machine.KEY_COUNT]ebiten.Key
	pause      ebiten.Key
	step       ebiten.Key
	scale      int
	fullscreen bool
	display    *ebiten.Image
	pixels     []byte
	status     runner.Status
}

func NewGame(session *runner.Session, opts Options) (*Game, error) {
	game := &Game{
		session:    session,
		scale:      opts.Scale,
		fullscreen: opts.Fullscreen,
		pixels:     make([]byte, machine.DISPLAY_WIDTH*machine.DISPLAY_HEIGHT*4),
	}

	if game.scale <= 0 {
		game.scale = DEFAULT_SCALE
	}

	for i, r := range opts.Layout {
		key, ok := HostKey(r)

		if !ok {
			return nil, fmt.Errorf("Key '%c' has no window binding", r)
		}

		game.keys[i] = key
	}

	game.pause, _ = HostKey(input.KEY_PAUSE)
	game.step, _ = HostKey(input.KEY_STEP)

	fb, _ := session.Machine.Framebuffer()
	Rasterize(game.pixels, &fb, ColorOn, ColorOff)

	return game, nil
}

// Opens the window and runs the session until the window closes or the
// session stops
func Run(session *runner.Session, opts Options) error {
	game, err := NewGame(session, opts)

	if err != nil {
		return err
	}

	width, height := game.Layout(0, 0)

	ebiten.SetWindowTitle(opts.Title)
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowResizable(true)
	ebiten.SetTPS(runner.FRAME_RATE)
	ebiten.SetFullscreen(opts.Fullscreen)

	return ebiten.RunGame(game)
}

func (g *Game) Poll() (runner.Input, error) {
	var in runner.Input

	for i, key := range g.keys {
		in.Keys[i] = ebiten.IsKeyPressed(key)
	}

	in.Pause = inpututil.IsKeyJustPressed(g.pause)
	in.Step = inpututil.IsKeyJustPressed(g.step)
	in.Reload = inpututil.IsKeyJustPressed(ebiten.KeyF5)
	in.Quit = ebiten.IsKeyPressed(ebiten.KeyEscape)

	return in, nil
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		g.fullscreen = !g.fullscreen
		ebiten.SetFullscreen(g.fullscreen)
	}

	in, err := g.Poll()

	if err != nil {
		return err
	}

	if err := g.session.Frame(in); err != nil {
		if errors.Is(err, runner.ErrQuit) {
			return ebiten.Termination
		}

		return err
	}

	if fb, dirty := g.session.Machine.Framebuffer(); dirty {
		Rasterize(g.pixels, &fb, ColorOn, ColorOff)
		g.session.Machine.ClearDrawFlag()
	}

	g.status = g.session.Status()

	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.display == nil {
		g.display = ebiten.NewImage(machine.DISPLAY_WIDTH, machine.DISPLAY_HEIGHT)
	}

	g.display.WritePixels(g.pixels)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(g.scale), float64(g.scale))
	screen.DrawImage(g.display, op)

	g.drawStatusBar(screen)
}

func (g *Game) Layout(_, _ int) (int, int) {
	return machine.DISPLAY_WIDTH * g.scale,
		machine.DISPLAY_HEIGHT*g.scale + STATUS_HEIGHT
}

func (g *Game) drawStatusBar(screen *ebiten.Image) {
	face := basicfont.Face7x13
	width, _ := g.Layout(0, 0)
	y := machine.DISPLAY_HEIGHT * g.scale

	ebitenutil.DrawRect(
		screen, 0, float64(y), float64(width), STATUS_HEIGHT, statusBackground,
	)

	x := 6
	for _, token := range StatusTokens(g.status) {
		c := statusOff
		if token.Enabled {
			c = statusOn
		}

		text.Draw(screen, token.Name, face, x, y+13, c)
		x += text.BoundString(face, token.Name).Dx() + 8
	}
}
