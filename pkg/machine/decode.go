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
	"fmt"
)

// Splits an instruction word into its operand fields and resolves the
// operation. Unknown words decode to OP_INVALID; nothing is rejected here.
func Decode(word uint16) Instruction {
	instruction := Instruction{
		Word: word,
		X:    uint8((word >> 8) & 0xF),
		Y:    uint8((word >> 4) & 0xF),
		N:    uint8(word & 0xF),
		KK:   uint8(word & 0xFF),
		NNN:  word & 0xFFF,
	}

	switch uint8(word >> 12) {
	case CLASS_SYS:
		switch word {
		case 0x00E0:
			instruction.Op = OP_CLS
		case 0x00EE:
			instruction.Op = OP_RET
		}
	case CLASS_JP:
		instruction.Op = OP_JP
	case CLASS_CALL:
		instruction.Op = OP_CALL
	case CLASS_SEB:
		instruction.Op = OP_SE_BYTE
	case CLASS_SNEB:
		instruction.Op = OP_SNE_BYTE
	case CLASS_SER:
		instruction.Op = OP_SE_REG
	case CLASS_LDB:
		instruction.Op = OP_LD_BYTE
	case CLASS_ADDB:
		instruction.Op = OP_ADD_BYTE
	case CLASS_ALU:
		switch instruction.N {
		case 0x0:
			instruction.Op = OP_LD_REG
		case 0x1:
			instruction.Op = OP_OR
		case 0x2:
			instruction.Op = OP_AND
		case 0x3:
			instruction.Op = OP_XOR
		case 0x4:
			instruction.Op = OP_ADD_REG
		case 0x5:
			instruction.Op = OP_SUB
		case 0x6:
			instruction.Op = OP_SHR
		case 0x7:
			instruction.Op = OP_SUBN
		case 0xE:
			instruction.Op = OP_SHL
		}
	case CLASS_SNER:
		instruction.Op = OP_SNE_REG
	case CLASS_LDI:
		instruction.Op = OP_LD_I
	case CLASS_JPV0:
		instruction.Op = OP_JP_V0
	case CLASS_RND:
		instruction.Op = OP_RND
	case CLASS_DRW:
		instruction.Op = OP_DRW
	case CLASS_KEY:
		switch instruction.KK {
		case 0x9E:
			instruction.Op = OP_SKP
		case 0xA1:
			instruction.Op = OP_SKNP
		}
	case CLASS_MISC:
		switch instruction.KK {
		case 0x07:
			instruction.Op = OP_LD_VX_DT
		case 0x0A:
			instruction.Op = OP_LD_VX_K
		case 0x15:
			instruction.Op = OP_LD_DT_VX
		case 0x18:
			instruction.Op = OP_LD_ST_VX
		case 0x1E:
			instruction.Op = OP_ADD_I
		case 0x29:
			instruction.Op = OP_LD_F
		case 0x33:
			instruction.Op = OP_LD_B
		case 0x55:
			instruction.Op = OP_LD_MEM_VX
		case 0x65:
			instruction.Op = OP_LD_VX_MEM
		}
	}

	return instruction
}

// Formats the instruction in the syntax accepted by the assembler
func (in Instruction) String() string {
	switch in.Op {
	case OP_CLS:
		return "CLS"
	case OP_RET:
		return "RET"
	case OP_JP:
		return fmt.Sprintf("JP 0x%03X", in.NNN)
	case OP_CALL:
		return fmt.Sprintf("CALL 0x%03X", in.NNN)
	case OP_SE_BYTE:
		return fmt.Sprintf("SE V%X, 0x%02X", in.X, in.KK)
	case OP_SNE_BYTE:
		return fmt.Sprintf("SNE V%X, 0x%02X", in.X, in.KK)
	case OP_SE_REG:
		return fmt.Sprintf("SE V%X, V%X", in.X, in.Y)
	case OP_LD_BYTE:
		return fmt.Sprintf("LD V%X, 0x%02X", in.X, in.KK)
	case OP_ADD_BYTE:
		return fmt.Sprintf("ADD V%X, 0x%02X", in.X, in.KK)
	case OP_LD_REG:
		return fmt.Sprintf("LD V%X, V%X", in.X, in.Y)
	case OP_OR:
		return fmt.Sprintf("OR V%X, V%X", in.X, in.Y)
	case OP_AND:
		return fmt.Sprintf("AND V%X, V%X", in.X, in.Y)
	case OP_XOR:
		return fmt.Sprintf("XOR V%X, V%X", in.X, in.Y)
	case OP_ADD_REG:
		return fmt.Sprintf("ADD V%X, V%X", in.X, in.Y)
	case OP_SUB:
		return fmt.Sprintf("SUB V%X, V%X", in.X, in.Y)
	case OP_SHR:
		return fmt.Sprintf("SHR V%X, V%X", in.X, in.Y)
	case OP_SUBN:
		return fmt.Sprintf("SUBN V%X, V%X", in.X, in.Y)
	case OP_SHL:
		return fmt.Sprintf("SHL V%X, V%X", in.X, in.Y)
	case OP_SNE_REG:
		return fmt.Sprintf("SNE V%X, V%X", in.X, in.Y)
	case OP_LD_I:
		return fmt.Sprintf("LD I, 0x%03X", in.NNN)
	case OP_JP_V0:
		return fmt.Sprintf("JP V0, 0x%03X", in.NNN)
	case OP_RND:
		return fmt.Sprintf("RND V%X, 0x%02X", in.X, in.KK)
	case OP_DRW:
		return fmt.Sprintf("DRW V%X, V%X, %d", in.X, in.Y, in.N)
	case OP_SKP:
		return fmt.Sprintf("SKP V%X", in.X)
	case OP_SKNP:
		return fmt.Sprintf("SKNP V%X", in.X)
	case OP_LD_VX_DT:
		return fmt.Sprintf("LD V%X, DT", in.X)
	case OP_LD_VX_K:
		return fmt.Sprintf("LD V%X, K", in.X)
	case OP_LD_DT_VX:
		return fmt.Sprintf("LD DT, V%X", in.X)
	case OP_LD_ST_VX:
		return fmt.Sprintf("LD ST, V%X", in.X)
	case OP_ADD_I:
		return fmt.Sprintf("ADD I, V%X", in.X)
	case OP_LD_F:
		return fmt.Sprintf("LD F, V%X", in.X)
	case OP_LD_B:
		return fmt.Sprintf("LD B, V%X", in.X)
	case OP_LD_MEM_VX:
		return fmt.Sprintf("LD [I], V%X", in.X)
	case OP_LD_VX_MEM:
		return fmt.Sprintf("LD V%X, [I]", in.X)
	}

	return fmt.Sprintf(".WORD 0x%04X", in.Word)
}
