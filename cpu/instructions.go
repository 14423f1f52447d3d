package cpu

import "math/bits"

// instrTable dispatches by instruction id to its implementation. Each
// function receives the already-resolved operand in c.addr/c.operand and
// is responsible for any control-transfer override of c.PC.
var instrTable = [numInstructions]func(c *CPU, mode uint8){
	ADC: (*CPU).adc,
	AND: (*CPU).and,
	ASL: (*CPU).asl,
	BCC: (*CPU).bcc,
	BCS: (*CPU).bcs,
	BEQ: (*CPU).beq,
	BIT: (*CPU).bit,
	BMI: (*CPU).bmi,
	BNE: (*CPU).bne,
	BPL: (*CPU).bpl,
	BRK: (*CPU).brk,
	BVC: (*CPU).bvc,
	BVS: (*CPU).bvs,
	CLC: (*CPU).clc,
	CLD: (*CPU).cld,
	CLI: (*CPU).cli,
	CLV: (*CPU).clv,
	CMP: (*CPU).cmp,
	CPX: (*CPU).cpx,
	CPY: (*CPU).cpy,
	DEC: (*CPU).dec,
	DEX: (*CPU).dex,
	DEY: (*CPU).dey,
	EOR: (*CPU).eor,
	INC: (*CPU).inc,
	INX: (*CPU).inx,
	INY: (*CPU).iny,
	JMP: (*CPU).jmp,
	JSR: (*CPU).jsr,
	LDA: (*CPU).lda,
	LDX: (*CPU).ldx,
	LDY: (*CPU).ldy,
	LSR: (*CPU).lsr,
	NOP: (*CPU).nop,
	ORA: (*CPU).ora,
	PHA: (*CPU).pha,
	PHP: (*CPU).php,
	PLA: (*CPU).pla,
	PLP: (*CPU).plp,
	ROL: (*CPU).rol,
	ROR: (*CPU).ror,
	RTI: (*CPU).rti,
	RTS: (*CPU).rts,
	SBC: (*CPU).sbc,
	SEC: (*CPU).sec,
	SED: (*CPU).sed,
	SEI: (*CPU).sei,
	STA: (*CPU).sta,
	STX: (*CPU).stx,
	STY: (*CPU).sty,
	TAX: (*CPU).tax,
	TAY: (*CPU).tay,
	TSX: (*CPU).tsx,
	TXA: (*CPU).txa,
	TXS: (*CPU).txs,
	TYA: (*CPU).tya,
}

// addWithCarry implements ADC's semantics; SBC reuses it on the bitwise
// complement of its operand. Binary mode only (decimal mode disabled on
// this CPU variant).
func (c *CPU) addWithCarry(b uint8) {
	carryIn := uint16(0)
	if c.flag(FlagC) {
		carryIn = 1
	}
	sum := uint16(c.A) + uint16(b) + carryIn
	result := uint8(sum)

	c.setFlag(FlagC, sum > 0xFF)
	c.setFlag(FlagV, (c.A^result)&(b^result)&0x80 != 0)
	c.A = result
	c.setZN(c.A)
}

func (c *CPU) adc(mode uint8) { c.addWithCarry(c.operand) }
func (c *CPU) sbc(mode uint8) { c.addWithCarry(^c.operand) }

func (c *CPU) and(mode uint8) {
	c.A &= c.operand
	c.setZN(c.A)
}

func (c *CPU) ora(mode uint8) {
	c.A |= c.operand
	c.setZN(c.A)
}

func (c *CPU) eor(mode uint8) {
	c.A ^= c.operand
	c.setZN(c.A)
}

func (c *CPU) asl(mode uint8) {
	var old, result uint8
	if mode == ACC {
		old = c.A
		result = old << 1
		c.A = result
	} else {
		old = c.operand
		result = old << 1
		c.write(c.addr, result)
	}
	c.setFlag(FlagC, old&0x80 != 0)
	c.setZN(result)
}

func (c *CPU) lsr(mode uint8) {
	var old, result uint8
	if mode == ACC {
		old = c.A
		result = old >> 1
		c.A = result
	} else {
		old = c.operand
		result = old >> 1
		c.write(c.addr, result)
	}
	c.setFlag(FlagC, old&0x01 != 0)
	c.setZN(result)
}

func (c *CPU) rol(mode uint8) {
	var old, result uint8
	carryIn := uint8(0)
	if c.flag(FlagC) {
		carryIn = 1
	}
	if mode == ACC {
		old = c.A
		result = bits.RotateLeft8(old, 1)&^1 | carryIn
		c.A = result
	} else {
		old = c.operand
		result = bits.RotateLeft8(old, 1)&^1 | carryIn
		c.write(c.addr, result)
	}
	c.setFlag(FlagC, old&0x80 != 0)
	c.setZN(result)
}

func (c *CPU) ror(mode uint8) {
	var old, result uint8
	carryIn := uint8(0)
	if c.flag(FlagC) {
		carryIn = 1
	}
	if mode == ACC {
		old = c.A
		result = (old >> 1) | (carryIn << 7)
		c.A = result
	} else {
		old = c.operand
		result = (old >> 1) | (carryIn << 7)
		c.write(c.addr, result)
	}
	c.setFlag(FlagC, old&0x01 != 0)
	c.setZN(result)
}

// branch implements the eight conditional branches: take the branch when
// the flag's set-ness equals want. Taken costs +1 cycle, crossing a page
// on the taken branch costs +2 total.
func (c *CPU) branch(mask uint8, want bool) {
	if c.flag(mask) != want {
		return
	}
	oldPC := c.PC
	c.extraCycles++
	if (oldPC & 0xFF00) != (c.addr & 0xFF00) {
		c.extraCycles++
	}
	c.PC = c.addr
}

func (c *CPU) bcc(mode uint8) { c.branch(FlagC, false) }
func (c *CPU) bcs(mode uint8) { c.branch(FlagC, true) }
func (c *CPU) beq(mode uint8) { c.branch(FlagZ, true) }
func (c *CPU) bne(mode uint8) { c.branch(FlagZ, false) }
func (c *CPU) bmi(mode uint8) { c.branch(FlagS, true) }
func (c *CPU) bpl(mode uint8) { c.branch(FlagS, false) }
func (c *CPU) bvc(mode uint8) { c.branch(FlagV, false) }
func (c *CPU) bvs(mode uint8) { c.branch(FlagV, true) }

func (c *CPU) bit(mode uint8) {
	c.setFlag(FlagZ, c.A&c.operand == 0)
	c.setFlag(FlagV, c.operand&FlagV != 0)
	c.setFlag(FlagS, c.operand&FlagS != 0)
}

func (c *CPU) brk(mode uint8) {
	c.PC++ // skip the padding byte
	c.pushAddr(c.PC)
	c.pushStack(c.Status | FlagB | FlagU)
	c.setFlag(FlagI, true)
	c.PC = c.read16(vectorBRK)
}

func (c *CPU) rti(mode uint8) {
	c.Status = (c.popStack() &^ FlagB) | FlagU
	c.PC = c.popAddr()
}

func (c *CPU) rts(mode uint8) {
	c.PC = c.popAddr() + 1
}

func (c *CPU) jmp(mode uint8) { c.PC = c.addr }

func (c *CPU) jsr(mode uint8) {
	c.pushAddr(c.PC - 1)
	c.PC = c.addr
}

func (c *CPU) clc(mode uint8) { c.setFlag(FlagC, false) }
func (c *CPU) cld(mode uint8) { c.setFlag(FlagD, false) }
func (c *CPU) cli(mode uint8) { c.setFlag(FlagI, false) }
func (c *CPU) clv(mode uint8) { c.setFlag(FlagV, false) }
func (c *CPU) sec(mode uint8) { c.setFlag(FlagC, true) }
func (c *CPU) sed(mode uint8) { c.setFlag(FlagD, true) }
func (c *CPU) sei(mode uint8) { c.setFlag(FlagI, true) }

// compare sets C on a >= b, Z on equality, S from the high bit of a-b.
func (c *CPU) compare(a, b uint8) {
	c.setFlag(FlagC, a >= b)
	c.setZN(a - b)
}

func (c *CPU) cmp(mode uint8) { c.compare(c.A, c.operand) }
func (c *CPU) cpx(mode uint8) { c.compare(c.X, c.operand) }
func (c *CPU) cpy(mode uint8) { c.compare(c.Y, c.operand) }

func (c *CPU) dec(mode uint8) {
	v := c.operand - 1
	c.write(c.addr, v)
	c.setZN(v)
}

func (c *CPU) inc(mode uint8) {
	v := c.operand + 1
	c.write(c.addr, v)
	c.setZN(v)
}

func (c *CPU) dex(mode uint8) { c.X--; c.setZN(c.X) }
func (c *CPU) dey(mode uint8) { c.Y--; c.setZN(c.Y) }
func (c *CPU) inx(mode uint8) { c.X++; c.setZN(c.X) }
func (c *CPU) iny(mode uint8) { c.Y++; c.setZN(c.Y) }

func (c *CPU) lda(mode uint8) { c.A = c.operand; c.setZN(c.A) }
func (c *CPU) ldx(mode uint8) { c.X = c.operand; c.setZN(c.X) }
func (c *CPU) ldy(mode uint8) { c.Y = c.operand; c.setZN(c.Y) }

func (c *CPU) sta(mode uint8) { c.write(c.addr, c.A) }
func (c *CPU) stx(mode uint8) { c.write(c.addr, c.X) }
func (c *CPU) sty(mode uint8) { c.write(c.addr, c.Y) }

func (c *CPU) tax(mode uint8) { c.X = c.A; c.setZN(c.X) }
func (c *CPU) tay(mode uint8) { c.Y = c.A; c.setZN(c.Y) }
func (c *CPU) tsx(mode uint8) { c.X = c.SP; c.setZN(c.X) }
func (c *CPU) txa(mode uint8) { c.A = c.X; c.setZN(c.A) }
func (c *CPU) txs(mode uint8) { c.SP = c.X }
func (c *CPU) tya(mode uint8) { c.A = c.Y; c.setZN(c.A) }

func (c *CPU) pha(mode uint8) { c.pushStack(c.A) }
func (c *CPU) php(mode uint8) { c.pushStack(c.Status | FlagB | FlagU) }
func (c *CPU) pla(mode uint8) { c.A = c.popStack(); c.setZN(c.A) }
func (c *CPU) plp(mode uint8) { c.Status = (c.popStack() &^ FlagB) | FlagU }

func (c *CPU) nop(mode uint8) {}
