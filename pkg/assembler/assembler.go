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

package assembler

import (
	"bufio"
	"io"
	"strings"
	"unicode"

	"github.com/lassandro/gochip8/pkg/encoding"
	"github.com/lassandro/gochip8/pkg/machine"
)

type labelRef struct {
	Label    string
	Addr     uint16
	Size     LiteralType
	Position Cursor
}

type operand struct {
	Type  OperandType
	Reg   uint8
	Token *Token
}

type assembly struct {
	image   [machine.MEMORY_SIZE]uint8
	program uint32
	end     uint32
	labels  map[string]uint16
	refs    []labelRef
	errs    []error
}

func parseDirective(ident string) DirectiveType {
	return directives[strings.ToUpper(ident)]
}

func parseInstruction(ident string) InstructionType {
	return instructions[strings.ToUpper(ident)]
}

func parseLiteral(token *Token, bits LiteralType) (uint16, error) {
	result, err := encoding.DecodeLiteral(token.Value)

	if err != nil {
		return 0, &InvalidLiteralError{token.Position}
	}

	if bits < 16 {
		limit := uint16(1)<<bits - 1

		if result > limit {
			return 0, &OversizedLiteralError{token.Position, limit, result}
		}
	}

	return result, nil
}

func parseOperand(token *Token) operand {
	result := operand{Token: token}

	switch token.Type {
	case TOKEN_LITERAL:
		result.Type = OPERAND_VALUE
	case TOKEN_IDENT:
		if reg, ok := encoding.DecodeRegister(token.Value); ok {
			result.Type = OPERAND_REGISTER
			result.Reg = reg
		} else if kind, ok := operandNames[strings.ToUpper(token.Value)]; ok {
			result.Type = kind
		} else {
			result.Type = OPERAND_VALUE
		}
	}

	return result
}

func tokenizeLine(line string, cursor Cursor) (tokens []Token, errs []error) {
	var builder strings.Builder
	var tokenStart int = 0
	var tokenType TokenType = TOKEN_NONE
	var comma *Cursor

	flush := func() {
		if builder.Len() > 0 {
			tokens = append(tokens, Token{
				Type: tokenType,
				Position: Cursor{
					Line:     cursor.Line,
					Column:   tokenStart,
					Byte:     cursor.LineByte + int64(tokenStart-1),
					Size:     int64(builder.Len()),
					LineByte: cursor.LineByte,
				},
				Value: builder.String(),
			})
			builder.Reset()
		}

		tokenType = TOKEN_NONE
	}

scan:
	for column, char := range line {
		cursor.Column = column + 1

		if tokenType == TOKEN_NONE {
			tokenStart = cursor.Column
		}

		switch {
		// Whitespace
		case unicode.IsSpace(char):
			flush()
			continue

		// Comments
		case char == ';':
			break scan

		// Operand Separator
		case char == ',':
			flush()

			if comma != nil || len(tokens) == 0 {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

			position := cursor
			comma = &position
			continue

		// Label Suffix (i.e. loop:)
		case char == ':':
			if tokenType != TOKEN_IDENT || len(tokens) != 0 {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
				flush()
				continue
			}

			tokenType = TOKEN_LABEL
			flush()
			continue

		// Assembler Directives
		case char == '.':
			if tokenType != TOKEN_NONE {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
				continue
			}

			tokenType = TOKEN_DIRECTIVE

		// Base 10 Literal (i.e. #42)
		case char == '#':
			if tokenType != TOKEN_NONE {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
				continue
			}

			tokenType = TOKEN_LITERAL

		// Numeric Literal (i.e. 42, 0x2A)
		case unicode.IsDigit(char):
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_LITERAL
			}

		// Indirect Index (i.e. [I])
		case char == '[' || char == ']':
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_IDENT
			} else if tokenType != TOKEN_IDENT {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
				continue
			}

		// Underscore'd Identifier
		case char == '_':
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_IDENT
			} else if tokenType != TOKEN_IDENT {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
				continue
			}

		// Identifier
		case unicode.IsLetter(char):
			if char > unicode.MaxASCII {
				errs = append(errs, &OversizedCharacterError{cursor})
				continue
			}

			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_IDENT
			}

		default:
			if char > unicode.MaxASCII {
				errs = append(errs, &OversizedCharacterError{cursor})
			} else {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

			continue
		}

		comma = nil
		builder.WriteRune(char)
	}

	flush()

	if comma != nil {
		errs = append(errs, &UnexpectedCharacterError{*comma, ','})
	}

	return
}

// Assembles CHIP-8 source into a program image loaded at 0x200. Labels are
// resolved once the whole input has been read, so forward references work.
func AssembleSource(input io.Reader, symtable *SymTable) (result []byte, errs []error) {
	asm := assembly{
		program: uint32(machine.MEMSPACE_PROGRAM),
		end:     uint32(machine.MEMSPACE_PROGRAM),
		labels:  make(map[string]uint16),
		errs:    make([]error, 0),
	}

	var scanner = bufio.NewScanner(input)
	var cursor = Cursor{Line: 1}

	for scanner.Scan() {
		line := scanner.Text()
		cursor.Size = int64(len(line))

		done, overflow := asm.assembleLine(line, cursor, symtable)

		if overflow {
			return nil, asm.errs
		}

		if done {
			break
		}

		cursor.Line++
		cursor.Byte += int64(len(line) + 1)
		cursor.LineByte = cursor.Byte
	}

	if err := scanner.Err(); err != nil {
		asm.errs = append(asm.errs, err)
	}

	// Label
	// - Validate and resolve label references
	// - Add labels to symbol table
	for _, ref := range asm.refs {
		addr, exists := asm.labels[ref.Label]

		if !exists {
			asm.errs = append(
				asm.errs, &UnknownLabelError{ref.Position, ref.Label},
			)
			continue
		}

		if ref.Size == LITERAL_ADDR && addr > machine.MEMORY_ADDR_MASK {
			asm.errs = append(
				asm.errs,
				&OversizedLabelError{ref.Position, machine.MEMORY_ADDR_MASK, addr},
			)
			continue
		}

		word := encoding.DecodeWord(asm.image[ref.Addr], asm.image[ref.Addr+1])
		word |= addr

		asm.image[ref.Addr], asm.image[ref.Addr+1] = encoding.EncodeWord(word)
	}

	if symtable != nil {
		for label, addr := range asm.labels {
			symtable.Labels[addr] = label
		}
	}

	start := uint32(machine.MEMSPACE_PROGRAM)

	if int(asm.end-start) >= machine.MAX_PROGRAM_SIZE {
		asm.errs = append(asm.errs, &OversizedBinaryError{})
		return nil, asm.errs
	}

	result = make([]byte, asm.end-start)
	copy(result, asm.image[start:asm.end])

	return result, asm.errs
}

// Assembles a single line, reporting whether assembly should stop and
// whether it stopped because memory ran out
func (asm *assembly) assembleLine(line string, cursor Cursor, symtable *SymTable) (done bool, overflow bool) {
	tokens, errs := tokenizeLine(line, cursor)

	// Pass any potential assembler errors if we already had parser errors
	if len(errs) > 0 {
		asm.errs = append(asm.errs, errs...)
		return false, false
	}

	if len(tokens) == 0 {
		return false, false
	}

	rest := tokens

	// A colon always declares a label. Without one, a leading identifier is
	// only a label when it is not a mnemonic.
	if tokens[0].Type == TOKEN_LABEL || (tokens[0].Type == TOKEN_IDENT &&
		parseInstruction(tokens[0].Value) == INSTRUCTION_INVALID) {
		label := &tokens[0]

		if _, exists := asm.labels[label.Value]; !exists {
			asm.labels[label.Value] = uint16(asm.program)
		} else {
			asm.errs = append(
				asm.errs, &RedeclaredLabelError{label.Position, label.Value},
			)
		}

		rest = tokens[1:]
	}

	// No need to assemble label-only statements
	if len(rest) == 0 {
		return false, false
	}

	var instruction InstructionType
	var directive DirectiveType

	keyword := &rest[0]

	switch keyword.Type {
	case TOKEN_IDENT:
		instruction = parseInstruction(keyword.Value)
	case TOKEN_DIRECTIVE:
		directive = parseDirective(keyword.Value)
	}

	if instruction == INSTRUCTION_INVALID && directive == DIRECTIVE_INVALID {
		asm.errs = append(
			asm.errs, &UnknownIdentifierError{keyword.Position, keyword.Value},
		)
		return false, false
	}

	operands := make([]operand, 0, len(rest)-1)

	for i := 1; i < len(rest); i++ {
		operands = append(operands, parseOperand(&rest[i]))
	}

	switch directive {
	// .END
	case DIRECTIVE_END:
		if count := len(operands); count != 0 {
			asm.errs = append(
				asm.errs, &InvalidNumArgumentsError{keyword.Position, 0, count},
			)
		}

		return true, false

	// .ORIG addr
	case DIRECTIVE_ORIG:
		if !asm.expect(keyword, operands, 1) {
			break
		}

		errCount := len(asm.errs)
		origin := asm.value(operands[0], LITERAL_ADDR, false)

		if len(asm.errs) > errCount {
			break
		}

		if origin < machine.MEMSPACE_PROGRAM {
			asm.errs = append(
				asm.errs, &InvalidOriginError{operands[0].Token.Position, origin},
			)
			break
		}

		asm.program = uint32(origin)

	// .BYTE b{, b}
	case DIRECTIVE_BYTE:
		if len(operands) == 0 {
			asm.errs = append(
				asm.errs, &InvalidNumArgumentsError{keyword.Position, 1, 0},
			)
			break
		}

		asm.record(symtable, cursor)

		for _, op := range operands {
			if !asm.emitByte(uint8(asm.value(op, LITERAL_BYTE, false))) {
				return true, true
			}
		}

	// .WORD w{, w}
	case DIRECTIVE_WORD:
		if len(operands) == 0 {
			asm.errs = append(
				asm.errs, &InvalidNumArgumentsError{keyword.Position, 1, 0},
			)
			break
		}

		asm.record(symtable, cursor)

		for _, op := range operands {
			if !asm.emitWord(asm.value(op, LITERAL_WORD, true)) {
				return true, true
			}
		}
	}

	if instruction != INSTRUCTION_INVALID {
		asm.record(symtable, cursor)

		if !asm.emitWord(asm.encode(instruction, keyword, operands)) {
			return true, true
		}
	}

	return false, false
}

func (asm *assembly) record(symtable *SymTable, cursor Cursor) {
	if symtable != nil {
		symtable.Symbols[uint16(asm.program)] = cursor.LineByte
	}
}

func (asm *assembly) emitByte(value uint8) bool {
	if asm.program+1 > machine.MEMORY_SIZE {
		asm.errs = append(asm.errs, &OversizedBinaryError{})
		return false
	}

	asm.image[asm.program] = value
	asm.program++

	if asm.program > asm.end {
		asm.end = asm.program
	}

	return true
}

func (asm *assembly) emitWord(word uint16) bool {
	if asm.program+2 > machine.MEMORY_SIZE {
		asm.errs = append(asm.errs, &OversizedBinaryError{})
		return false
	}

	asm.image[asm.program], asm.image[asm.program+1] = encoding.EncodeWord(word)
	asm.program += 2

	if asm.program > asm.end {
		asm.end = asm.program
	}

	return true
}

func (asm *assembly) expect(keyword *Token, operands []operand, counts ...int) bool {
	for _, count := range counts {
		if len(operands) == count {
			return true
		}
	}

	asm.errs = append(
		asm.errs,
		&InvalidNumArgumentsError{keyword.Position, counts[0], len(operands)},
	)

	return false
}

func (asm *assembly) register(op operand) uint16 {
	if op.Type == OPERAND_REGISTER {
		return uint16(op.Reg)
	}

	if op.Type == OPERAND_VALUE && op.Token.Type == TOKEN_IDENT {
		asm.errs = append(asm.errs, &InvalidRegisterError{op.Token.Position})
	} else {
		asm.errs = append(
			asm.errs,
			&InvalidOperandError{
				op.Token.Position,
				[]OperandType{OPERAND_REGISTER},
				op.Type,
			},
		)
	}

	return 0
}

// Resolves a literal, or queues a label reference to be patched into the
// word at the current program address
func (asm *assembly) value(op operand, bits LiteralType, labels bool) uint16 {
	if op.Type != OPERAND_VALUE {
		asm.errs = append(
			asm.errs,
			&InvalidOperandError{
				op.Token.Position,
				[]OperandType{OPERAND_VALUE},
				op.Type,
			},
		)
		return 0
	}

	if op.Token.Type == TOKEN_IDENT {
		if !labels {
			asm.errs = append(asm.errs, &InvalidLiteralError{op.Token.Position})
			return 0
		}

		asm.refs = append(
			asm.refs,
			labelRef{op.Token.Value, uint16(asm.program), bits, op.Token.Position},
		)

		return 0
	}

	literal, err := parseLiteral(op.Token, bits)

	if err != nil {
		asm.errs = append(asm.errs, err)
	}

	return literal
}

func (asm *assembly) invalid(op operand, required ...OperandType) {
	asm.errs = append(
		asm.errs, &InvalidOperandError{op.Token.Position, required, op.Type},
	)
}

func (asm *assembly) encode(instruction InstructionType, keyword *Token, ops []operand) (word uint16) {
	switch instruction {
	// CLS  00E0
	case INSTRUCTION_CLS:
		asm.expect(keyword, ops, 0)
		word = 0x00E0

	// RET  00EE
	case INSTRUCTION_RET:
		asm.expect(keyword, ops, 0)
		word = 0x00EE

	// JP   1nnn     JP addr
	// JP   Bnnn     JP V0, addr
	case INSTRUCTION_JP:
		if !asm.expect(keyword, ops, 1, 2) {
			break
		}

		if len(ops) == 1 {
			word = 0x1000 | asm.value(ops[0], LITERAL_ADDR, true)
			break
		}

		if reg := asm.register(ops[0]); reg != 0 {
			asm.errs = append(asm.errs, &InvalidRegisterError{ops[0].Token.Position})
		}

		word = 0xB000 | asm.value(ops[1], LITERAL_ADDR, true)

	// CALL 2nnn
	case INSTRUCTION_CALL:
		if !asm.expect(keyword, ops, 1) {
			break
		}

		word = 0x2000 | asm.value(ops[0], LITERAL_ADDR, true)

	// SE   3xkk | 5xy0
	// SNE  4xkk | 9xy0
	case INSTRUCTION_SE, INSTRUCTION_SNE:
		if !asm.expect(keyword, ops, 2) {
			break
		}

		x := asm.register(ops[0]) << 8

		if ops[1].Type == OPERAND_REGISTER {
			if instruction == INSTRUCTION_SE {
				word = 0x5000
			} else {
				word = 0x9000
			}

			word |= x | uint16(ops[1].Reg)<<4
		} else {
			if instruction == INSTRUCTION_SE {
				word = 0x3000
			} else {
				word = 0x4000
			}

			word |= x | asm.value(ops[1], LITERAL_BYTE, false)
		}

	// LD   6xkk 8xy0 Annn Fx07 Fx0A Fx15 Fx18 Fx29 Fx33 Fx55 Fx65
	case INSTRUCTION_LD:
		if !asm.expect(keyword, ops, 2) {
			break
		}

		dst, src := ops[0], ops[1]

		switch dst.Type {
		case OPERAND_REGISTER:
			x := uint16(dst.Reg) << 8

			switch src.Type {
			case OPERAND_VALUE:
				word = 0x6000 | x | asm.value(src, LITERAL_BYTE, false)
			case OPERAND_REGISTER:
				word = 0x8000 | x | uint16(src.Reg)<<4
			case OPERAND_DELAY:
				word = 0xF007 | x
			case OPERAND_KEY:
				word = 0xF00A | x
			case OPERAND_INDIRECT:
				word = 0xF065 | x
			default:
				asm.invalid(
					src,
					OPERAND_VALUE,
					OPERAND_REGISTER,
					OPERAND_DELAY,
					OPERAND_KEY,
					OPERAND_INDIRECT,
				)
			}
		case OPERAND_INDEX:
			word = 0xA000 | asm.value(src, LITERAL_ADDR, true)
		case OPERAND_DELAY:
			word = 0xF015 | asm.register(src)<<8
		case OPERAND_SOUND:
			word = 0xF018 | asm.register(src)<<8
		case OPERAND_FONT:
			word = 0xF029 | asm.register(src)<<8
		case OPERAND_BCD:
			word = 0xF033 | asm.register(src)<<8
		case OPERAND_INDIRECT:
			word = 0xF055 | asm.register(src)<<8
		default:
			asm.invalid(
				dst,
				OPERAND_REGISTER,
				OPERAND_INDEX,
				OPERAND_DELAY,
				OPERAND_SOUND,
				OPERAND_FONT,
				OPERAND_BCD,
				OPERAND_INDIRECT,
			)
		}

	// ADD  7xkk | 8xy4 | Fx1E
	case INSTRUCTION_ADD:
		if !asm.expect(keyword, ops, 2) {
			break
		}

		dst, src := ops[0], ops[1]

		switch dst.Type {
		case OPERAND_REGISTER:
			x := uint16(dst.Reg) << 8

			if src.Type == OPERAND_REGISTER {
				word = 0x8004 | x | uint16(src.Reg)<<4
			} else {
				word = 0x7000 | x | asm.value(src, LITERAL_BYTE, false)
			}
		case OPERAND_INDEX:
			word = 0xF01E | asm.register(src)<<8
		default:
			asm.invalid(dst, OPERAND_REGISTER, OPERAND_INDEX)
		}

	// OR   8xy1
	// AND  8xy2
	// XOR  8xy3
	// SUB  8xy5
	// SUBN 8xy7
	case INSTRUCTION_OR,
		INSTRUCTION_AND,
		INSTRUCTION_XOR,
		INSTRUCTION_SUB,
		INSTRUCTION_SUBN:
		if !asm.expect(keyword, ops, 2) {
			break
		}

		switch instruction {
		case INSTRUCTION_OR:
			word = 0x8001
		case INSTRUCTION_AND:
			word = 0x8002
		case INSTRUCTION_XOR:
			word = 0x8003
		case INSTRUCTION_SUB:
			word = 0x8005
		case INSTRUCTION_SUBN:
			word = 0x8007
		}

		word |= asm.register(ops[0])<<8 | asm.register(ops[1])<<4

	// SHR  8xy6     SHR Vx{, Vy}
	// SHL  8xyE     SHL Vx{, Vy}
	case INSTRUCTION_SHR, INSTRUCTION_SHL:
		if !asm.expect(keyword, ops, 1, 2) {
			break
		}

		if instruction == INSTRUCTION_SHR {
			word = 0x8006
		} else {
			word = 0x800E
		}

		x := asm.register(ops[0])
		y := x

		if len(ops) == 2 {
			y = asm.register(ops[1])
		}

		word |= x<<8 | y<<4

	// RND  Cxkk
	case INSTRUCTION_RND:
		if !asm.expect(keyword, ops, 2) {
			break
		}

		word = 0xC000 | asm.register(ops[0])<<8
		word |= asm.value(ops[1], LITERAL_BYTE, false)

	// DRW  Dxyn
	case INSTRUCTION_DRW:
		if !asm.expect(keyword, ops, 3) {
			break
		}

		word = 0xD000 | asm.register(ops[0])<<8 | asm.register(ops[1])<<4
		word |= asm.value(ops[2], LITERAL_NIBBLE, false)

	// SKP  Ex9E
	// SKNP ExA1
	case INSTRUCTION_SKP, INSTRUCTION_SKNP:
		if !asm.expect(keyword, ops, 1) {
			break
		}

		if instruction == INSTRUCTION_SKP {
			word = 0xE09E
		} else {
			word = 0xE0A1
		}

		word |= asm.register(ops[0]) << 8
	}

	return
}
