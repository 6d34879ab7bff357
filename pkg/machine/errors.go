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

package machine

import (
	"errors"
	"fmt"
)

var (
	ErrStackOverflow   = errors.New("stack overflow")
	ErrStackUnderflow  = errors.New("stack underflow")
	ErrInvalidOpcode   = errors.New("invalid opcode")
	ErrProgramTooLarge = errors.New("program exceeds allowed size")
)

type StackError struct {
	Addr uint16
	Err  error
}

func (err *StackError) Error() string {
	return fmt.Sprintf("%#04x: %s", err.Addr, err.Err)
}

func (err *StackError) Unwrap() error {
	return err.Err
}

type InvalidOpcodeError struct {
	Addr uint16
	Word uint16
}

func (err *InvalidOpcodeError) Error() string {
	return fmt.Sprintf("%#04x: %s %04X", err.Addr, ErrInvalidOpcode, err.Word)
}

func (err *InvalidOpcodeError) Unwrap() error {
	return ErrInvalidOpcode
}

type ProgramSizeError struct {
	Size  int
	Limit int
}

func (err *ProgramSizeError) Error() string {
	return fmt.Sprintf(
		"%s\n\twant:<%d\n\thave:%d", ErrProgramTooLarge, err.Limit, err.Size,
	)
}

func (err *ProgramSizeError) Unwrap() error {
	return ErrProgramTooLarge
}

// Reports whether err should halt the machine. Invalid opcodes are skipped
// over and are not fatal.
func IsFatal(err error) bool {
	return err != nil && !errors.Is(err, ErrInvalidOpcode)
}
