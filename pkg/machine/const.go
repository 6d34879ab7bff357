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

const (
	MEMORY_SIZE      = 0x1000
	MEMORY_ADDR_MASK = MEMORY_SIZE - 1
)

const (
	MEMSPACE_FONT    uint16 = 0x0000
	MEMSPACE_PROGRAM uint16 = 0x0200
	MEMSPACE_END     uint16 = 0x0DFF
)

// A program image must be strictly smaller than this many bytes.
const MAX_PROGRAM_SIZE = int(MEMSPACE_END)

const (
	REGISTER_COUNT = 16
	STACK_SIZE     = 16
	KEY_COUNT      = 16

	// VF doubles as the carry, borrow, shift and collision flag
	FLAG_REGISTER = 0xF
)

const (
	DISPLAY_WIDTH  = 64
	DISPLAY_HEIGHT = 32
	SPRITE_WIDTH   = 8
)

const (
	FONT_GLYPH_SIZE  = 5
	FONT_GLYPH_COUNT = 16
)

// Hexadecimal digit glyphs 0-F, 8x5 pixels each, loaded at MEMSPACE_FONT
var FontTable = [FONT_GLYPH_SIZE * FONT_GLYPH_COUNT]uint8{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Instruction classes, taken from the top nibble of the instruction word
const (
	CLASS_SYS  uint8 = 0x0
	CLASS_JP   uint8 = 0x1
	CLASS_CALL uint8 = 0x2
	CLASS_SEB  uint8 = 0x3
	CLASS_SNEB uint8 = 0x4
	CLASS_SER  uint8 = 0x5
	CLASS_LDB  uint8 = 0x6
	CLASS_ADDB uint8 = 0x7
	CLASS_ALU  uint8 = 0x8
	CLASS_SNER uint8 = 0x9
	CLASS_LDI  uint8 = 0xA
	CLASS_JPV0 uint8 = 0xB
	CLASS_RND  uint8 = 0xC
	CLASS_DRW  uint8 = 0xD
	CLASS_KEY  uint8 = 0xE
	CLASS_MISC uint8 = 0xF
)

const (
	OP_INVALID Op = iota
	OP_CLS        // 00E0
	OP_RET        // 00EE
	OP_JP         // 1nnn
	OP_CALL       // 2nnn
	OP_SE_BYTE    // 3xkk
	OP_SNE_BYTE   // 4xkk
	OP_SE_REG     // 5xy0
	OP_LD_BYTE    // 6xkk
	OP_ADD_BYTE   // 7xkk
	OP_LD_REG     // 8xy0
	OP_OR         // 8xy1
	OP_AND        // 8xy2
	OP_XOR        // 8xy3
	OP_ADD_REG    // 8xy4
	OP_SUB        // 8xy5
	OP_SHR        // 8xy6
	OP_SUBN       // 8xy7
	OP_SHL        // 8xyE
	OP_SNE_REG    // 9xy0
	OP_LD_I       // Annn
	OP_JP_V0      // Bnnn
	OP_RND        // Cxkk
	OP_DRW        // Dxyn
	OP_SKP        // Ex9E
	OP_SKNP       // ExA1
	OP_LD_VX_DT   // Fx07
	OP_LD_VX_K    // Fx0A
	OP_LD_DT_VX   // Fx15
	OP_LD_ST_VX   // Fx18
	OP_ADD_I      // Fx1E
	OP_LD_F       // Fx29
	OP_LD_B       // Fx33
	OP_LD_MEM_VX  // Fx55
	OP_LD_VX_MEM  // Fx65
)
