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

func (mc *Machine) skipIf(cond bool) {
	if cond {
		mc.State.Program += 2
	}
}

func (mc *Machine) execute(addr uint16, in Instruction) error {
	regs := &mc.State.Registers

	switch in.Op {
	// 00E0 CLS
	case OP_CLS:
		mc.State.Display = Framebuffer{}
		mc.State.DrawFlag = true

	// 00EE RET
	case OP_RET:
		ret, err := mc.pop(addr)

		if err != nil {
			mc.State.Program = addr
			return err
		}

		mc.State.Program = ret

	// 1nnn JP addr
	case OP_JP:
		mc.State.Program = in.NNN

	// 2nnn CALL addr
	case OP_CALL:
		if err := mc.push(addr, mc.State.Program); err != nil {
			mc.State.Program = addr
			return err
		}

		mc.State.Program = in.NNN

	// 3xkk SE Vx, byte
	case OP_SE_BYTE:
		mc.skipIf(regs[in.X] == in.KK)

	// 4xkk SNE Vx, byte
	case OP_SNE_BYTE:
		mc.skipIf(regs[in.X] != in.KK)

	// 5xy0 SE Vx, Vy
	case OP_SE_REG:
		mc.skipIf(regs[in.X] == regs[in.Y])

	// 6xkk LD Vx, byte
	case OP_LD_BYTE:
		regs[in.X] = in.KK

	// 7xkk ADD Vx, byte (no carry)
	case OP_ADD_BYTE:
		regs[in.X] += in.KK

	// 8xy0 LD Vx, Vy
	case OP_LD_REG:
		regs[in.X] = regs[in.Y]

	// 8xy1 OR Vx, Vy
	case OP_OR:
		regs[in.X] |= regs[in.Y]
		regs[FLAG_REGISTER] = 0

	// 8xy2 AND Vx, Vy
	case OP_AND:
		regs[in.X] &= regs[in.Y]
		regs[FLAG_REGISTER] = 0

	// 8xy3 XOR Vx, Vy
	case OP_XOR:
		regs[in.X] ^= regs[in.Y]
		regs[FLAG_REGISTER] = 0

	// 8xy4 ADD Vx, Vy
	case OP_ADD_REG:
		sum := uint16(regs[in.X]) + uint16(regs[in.Y])
		regs[in.X] = uint8(sum)
		regs[FLAG_REGISTER] = boolToFlag(sum > 0xFF)

	// 8xy5 SUB Vx, Vy
	case OP_SUB:
		flag := boolToFlag(regs[in.X] >= regs[in.Y])
		regs[in.X] -= regs[in.Y]
		regs[FLAG_REGISTER] = flag

	// 8xy6 SHR Vx, Vy
	case OP_SHR:
		value := regs[in.Y]
		regs[in.X] = value >> 1
		regs[FLAG_REGISTER] = value & 0x1

	// 8xy7 SUBN Vx, Vy
	case OP_SUBN:
		flag := boolToFlag(regs[in.Y] >= regs[in.X])
		regs[in.X] = regs[in.Y] - regs[in.X]
		regs[FLAG_REGISTER] = flag

	// 8xyE SHL Vx, Vy
	case OP_SHL:
		value := regs[in.Y]
		regs[in.X] = value << 1
		regs[FLAG_REGISTER] = value >> 7

	// 9xy0 SNE Vx, Vy
	case OP_SNE_REG:
		mc.skipIf(regs[in.X] != regs[in.Y])

	// Annn LD I, addr
	case OP_LD_I:
		mc.State.Index = in.NNN

	// Bnnn JP V0, addr
	case OP_JP_V0:
		mc.State.Program = in.NNN + uint16(regs[0])

	// Cxkk RND Vx, byte
	case OP_RND:
		regs[in.X] = mc.random() & in.KK

	// Dxyn DRW Vx, Vy, nibble
	case OP_DRW:
		mc.draw(regs[in.X], regs[in.Y], in.N)

	// Ex9E SKP Vx
	case OP_SKP:
		mc.skipIf(mc.keyPressed(regs[in.X]))

	// ExA1 SKNP Vx
	case OP_SKNP:
		mc.skipIf(!mc.keyPressed(regs[in.X]))

	// Fx07 LD Vx, DT
	case OP_LD_VX_DT:
		regs[in.X] = mc.State.DelayTimer

	// Fx0A LD Vx, K
	case OP_LD_VX_K:
		if key, ok := mc.waitKey(); ok {
			regs[in.X] = key
		} else {
			mc.State.Program = addr
		}

	// Fx15 LD DT, Vx
	case OP_LD_DT_VX:
		mc.State.DelayTimer = regs[in.X]

	// Fx18 LD ST, Vx
	case OP_LD_ST_VX:
		mc.State.SoundTimer = regs[in.X]

	// Fx1E ADD I, Vx
	case OP_ADD_I:
		mc.State.Index += uint16(regs[in.X])

	// Fx29 LD F, Vx
	case OP_LD_F:
		mc.State.Index = MEMSPACE_FONT + FONT_GLYPH_SIZE*uint16(regs[in.X])

	// Fx33 LD B, Vx
	case OP_LD_B:
		value := regs[in.X]
		mc.write(mc.State.Index, value/100)
		mc.write(mc.State.Index+1, (value%100)/10)
		mc.write(mc.State.Index+2, value%10)

	// Fx55 LD [I], Vx
	case OP_LD_MEM_VX:
		for i := uint8(0); i <= in.X; i++ {
			mc.write(mc.State.Index, regs[i])
			mc.State.Index++
		}

	// Fx65 LD Vx, [I]
	case OP_LD_VX_MEM:
		for i := uint8(0); i <= in.X; i++ {
			regs[i] = mc.read(mc.State.Index)
			mc.State.Index++
		}

	default:
		return &InvalidOpcodeError{addr, in.Word}
	}

	return nil
}

func boolToFlag(b bool) uint8 {
	if b {
		return 1
	}

	return 0
}

func (mc *Machine) keyPressed(key uint8) bool {
	return int(key) < KEY_COUNT && mc.State.Keys[key]
}

// XORs an n-row sprite from memory[I] onto the display. The origin wraps,
// the sprite itself is clipped at the right and bottom edges.
func (mc *Machine) draw(vx, vy, rows uint8) {
	originX := int(vx) % DISPLAY_WIDTH
	originY := int(vy) % DISPLAY_HEIGHT

	mc.State.Registers[FLAG_REGISTER] = 0

	for row := 0; row < int(rows); row++ {
		y := originY + row

		if y >= DISPLAY_HEIGHT {
			break
		}

		sprite := mc.read(mc.State.Index + uint16(row))

		for col := 0; col < SPRITE_WIDTH; col++ {
			x := originX + col

			if x >= DISPLAY_WIDTH {
				break
			}

			if (sprite>>(SPRITE_WIDTH-1-col))&0x1 == 0 {
				continue
			}

			mask := uint64(1) << (DISPLAY_WIDTH - 1 - x)

			if mc.State.Display[y]&mask != 0 {
				mc.State.Registers[FLAG_REGISTER] = 1
			}

			mc.State.Display[y] ^= mask
		}
	}

	mc.State.DrawFlag = true
}

// Polls for a key that was held while waiting and has since been released.
// Held keys are remembered across calls; the memory is cleared once a key
// resolves the wait.
func (mc *Machine) waitKey() (uint8, bool) {
	for i := 0; i < KEY_COUNT; i++ {
		if mc.State.Keys[i] {
			mc.State.KeysMemory[i] = true
		} else if mc.State.KeysMemory[i] {
			mc.State.KeysMemory = [KEY_COUNT]bool{}
			return uint8(i), true
		}
	}

	return 0, false
}
