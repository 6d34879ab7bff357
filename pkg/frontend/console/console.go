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

// Package console presents a session in the controlling terminal using
// half-block characters and raw keyboard input.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/lassandro/gochip8/pkg/input"
	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/lassandro/gochip8/pkg/runner"
)

const (
	MIN_COLUMNS = machine.DISPLAY_WIDTH
	MIN_ROWS    = machine.DISPLAY_HEIGHT/2 + 1
)

var ErrNotTerminal = errors.New("console frontend requires a terminal")

type Console struct {
	in       *os.File
	out      *bufio.Writer
	restore  unix.Termios
	keyboard *Keyboard
	chunks   chan []byte
	done     chan struct{}
	wg       sync.WaitGroup
	beeping  bool
}

func New(in, out *os.File, layout input.Layout) (*Console, error) {
	if !term.IsTerminal(int(in.Fd())) {
		return nil, ErrNotTerminal
	}

	if cols, rows, err := term.GetSize(int(out.Fd())); err == nil {
		if cols < MIN_COLUMNS || rows < MIN_ROWS {
			log.Printf(
				"terminal is %dx%d, display needs %dx%d",
				cols, rows, MIN_COLUMNS, MIN_ROWS,
			)
		}
	}

	c := &Console{
		in:       in,
		out:      bufio.NewWriter(out),
		keyboard: NewKeyboard(layout),
		chunks:   make(chan []byte, 16),
		done:     make(chan struct{}),
	}

	if err := c.enterRaw(); err != nil {
		return nil, err
	}

	// Clear screen, hide cursor
	c.out.WriteString("\033[2J\033[?25l")
	c.out.Flush()

	c.wg.Add(1)
	go c.readLoop()

	return c, nil
}

func (c *Console) enterRaw() error {
	fd := int(c.in.Fd())

	termios, err := unix.IoctlGetTermios(fd, ioctlGetTermios)

	if err != nil {
		return err
	}

	c.restore = *termios
	termstate := *termios

	termstate.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.INLCR | unix.ICRNL
	termstate.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.IEXTEN |
		unix.ISIG
	termstate.Cflag &^= unix.CSIZE | unix.PARENB
	termstate.Cflag |= unix.CS8

	// Reads return after at most a tenth of a second
	termstate.Cc[unix.VMIN] = 0
	termstate.Cc[unix.VTIME] = 1

	return unix.IoctlSetTermios(fd, ioctlSetTermios, &termstate)
}

func (c *Console) readLoop() {
	defer c.wg.Done()

	buf := make([]byte, 64)

	for {
		select {
		case <-c.done:
			return
		default:
		}

		n, err := c.in.Read(buf)

		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])

			select {
			case c.chunks <- chunk:
			case <-c.done:
				return
			}
		}

		if err != nil && !errors.Is(err, io.EOF) {
			return
		}
	}
}

func (c *Console) Poll() (runner.Input, error) {
	var in runner.Input

drain:
	for {
		select {
		case chunk := <-c.chunks:
			c.keyboard.Feed(chunk, &in)
		default:
			break drain
		}
	}

	in.Keys = c.keyboard.Tick()

	return in, nil
}

func (c *Console) Present(fb *machine.Framebuffer, status runner.Status) error {
	c.out.WriteString("\033[H")

	for _, row := range Render(fb) {
		c.out.WriteString(row)
		c.out.WriteString("\r\n")
	}

	fmt.Fprintf(c.out, "\033[2K%s\r\n", StatusLine(status))

	if status.Beep && !c.beeping {
		c.out.WriteByte('\a')
	}
	c.beeping = status.Beep

	return c.out.Flush()
}

func (c *Console) Close() error {
	close(c.done)
	c.wg.Wait()

	c.out.WriteString("\033[?25h")
	c.out.Flush()

	return unix.IoctlSetTermios(int(c.in.Fd()), ioctlSetTermios, &c.restore)
}
