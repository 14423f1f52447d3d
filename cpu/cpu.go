// Package cpu implements the MOS 6502 instruction decoder and executor
// used as the console's CPU core. https://www.nesdev.org/obelisk-6502-guide/
package cpu

import (
	"fmt"
)

// Status flag bits. https://www.nesdev.org/obelisk-6502-guide/registers.html
const (
	FlagC uint8 = 1 << 0 // Carry
	FlagZ uint8 = 1 << 1 // Zero
	FlagI uint8 = 1 << 2 // Interrupt disable
	FlagD uint8 = 1 << 3 // Decimal (unused on this CPU variant)
	FlagB uint8 = 1 << 4 // Break
	FlagU uint8 = 1 << 5 // Unused; always observed as 1
	FlagV uint8 = 1 << 6 // Overflow
	FlagS uint8 = 1 << 7 // Sign (negative)
)

const stackPage = 0x0100

// traceDepth bounds the ring buffer of retired instructions kept for the
// diagnostic console's CPU trace.
const traceDepth = 32

// Interrupt vectors.
const (
	vectorNMI   = 0xFFFA
	vectorReset = 0xFFFC
	vectorIRQ   = 0xFFFE
	vectorBRK   = 0xFFFE
)

// Bus is the CPU's view of the shared address space. The bus is the sole
// owner of memory; the CPU never holds memory directly.
type Bus interface {
	Read(addr uint16) uint8
	Write(addr uint16, val uint8)
}

// IllegalOpcodeError is returned (and fatal) when the decoded opcode has
// no entry in the decode table.
type IllegalOpcodeError struct {
	Opcode uint8
	PC     uint16
}

func (e *IllegalOpcodeError) Error() string {
	return fmt.Sprintf("illegal opcode 0x%02X at PC=0x%04X", e.Opcode, e.PC)
}

// CPU holds all 6502 register and transient instruction state.
type CPU struct {
	A, X, Y uint8
	SP      uint8
	PC      uint16
	Status  uint8

	bus Bus

	opcode    uint8
	addr      uint16
	operand   uint8
	relOffset uint16

	cyclesRemaining uint8
	extraCycles     uint8 // bumped by branch() for taken/page-crossing branches
	totalCycles     uint64
	executing       bool // an instruction (not reset/interrupt cycles) is in flight

	Halted bool
	Err    error

	trace     [traceDepth]TraceEntry
	traceHead int
	traceLen  int
}

// TraceEntry is a snapshot of CPU state taken at the moment an
// instruction is fetched, before it executes.
type TraceEntry struct {
	PC             uint16
	Opcode         string
	A, X, Y, SP, P uint8
}

func (e TraceEntry) String() string {
	return fmt.Sprintf("PC=%04X %-3s A=%02X X=%02X Y=%02X SP=%02X P=%02X",
		e.PC, e.Opcode, e.A, e.X, e.Y, e.SP, e.P)
}

// New creates a CPU wired to bus and performs a power-on reset.
func New(bus Bus) *CPU {
	c := &CPU{bus: bus}
	c.Reset()
	return c
}

func (c *CPU) read(addr uint16) uint8       { return c.bus.Read(addr) }
func (c *CPU) write(addr uint16, v uint8)   { c.bus.Write(addr, v) }
func (c *CPU) read16(addr uint16) uint16 {
	lo := uint16(c.read(addr))
	hi := uint16(c.read(addr + 1))
	return hi<<8 | lo
}

// TotalCycles returns the number of cycles this CPU has consumed since
// power-on.
func (c *CPU) TotalCycles() uint64 { return c.totalCycles }

// Reset restores power-on register state and loads PC from the reset
// vector. Consumes 8 cycles.
func (c *CPU) Reset() {
	c.A, c.X, c.Y = 0, 0, 0
	c.SP = 0xFD
	c.Status = FlagI | FlagU
	c.PC = c.read16(vectorReset)
	c.cyclesRemaining = 8
	c.executing = false
	c.Halted = false
	c.Err = nil
}

// NMI services a non-maskable interrupt: push PC, push status (B=0,U=1),
// set I, vector through 0xFFFA/B. 8 cycles. Must only be invoked between
// instructions (cyclesRemaining == 0); the clock driver owns that timing
// and NMI edge-detection.
func (c *CPU) NMI() {
	c.pushAddr(c.PC)
	c.pushStack((c.Status &^ FlagB) | FlagU)
	c.setFlag(FlagI, true)
	c.PC = c.read16(vectorNMI)
	c.cyclesRemaining = 8
}

// IRQ services a maskable interrupt if FlagI is clear; otherwise a no-op.
// Identical shape to NMI but vectored through 0xFFFE/F and 7 cycles.
func (c *CPU) IRQ() {
	if c.Status&FlagI != 0 {
		return
	}
	c.pushAddr(c.PC)
	c.pushStack((c.Status &^ FlagB) | FlagU)
	c.setFlag(FlagI, true)
	c.PC = c.read16(vectorIRQ)
	c.cyclesRemaining = 7
}

// Clock advances the CPU by exactly one cycle. It returns true on the
// cycle that completes an instruction ("clock complete"), which is when
// the frame-stepping driver may safely deliver a pending interrupt or
// inspect retired state.
func (c *CPU) Clock() bool {
	if c.Halted {
		return true
	}

	if c.cyclesRemaining == 0 {
		c.step()
		c.executing = true
	}

	if c.cyclesRemaining > 0 {
		c.cyclesRemaining--
	}
	c.totalCycles++

	// Cycles consumed by Reset, NMI or IRQ do not complete an instruction.
	if c.cyclesRemaining == 0 && c.executing {
		c.executing = false
		return true
	}
	return false
}

// step fetches, decodes and executes exactly one instruction, setting
// cyclesRemaining to however many cycles it consumes.
func (c *CPU) step() {
	c.opcode = c.read(c.PC)
	op := opcodeTable[c.opcode]
	if !op.legal {
		c.Halted = true
		c.Err = &IllegalOpcodeError{Opcode: c.opcode, PC: c.PC}
		c.cyclesRemaining = 1
		return
	}

	c.recordTrace(instrNames[op.instr])
	c.PC++

	pageCrossed := c.resolveOperand(op.mode)

	cycles := op.cycles
	if pageCrossed && pageCrossSensitive[op.instr] {
		cycles++
	}

	// resolveOperand already advances PC past every operand byte; the
	// instruction body only needs to override PC for control transfers
	// (JMP/JSR/RTS/RTI/taken branches).
	c.extraCycles = 0
	instrTable[op.instr](c, op.mode)

	c.cyclesRemaining = cycles + c.extraCycles
}

// resolveOperand computes c.addr/c.operand for the current instruction's
// addressing mode and reports whether indexed addressing crossed a page
// boundary relative to the pre-indexed high byte.
func (c *CPU) resolveOperand(mode uint8) (pageCrossed bool) {
	switch mode {
	case IMP, ACC:
		// no operand fetch
	case IMM:
		c.addr = c.PC
		c.operand = c.read(c.addr)
		c.PC++
	case ZP0:
		c.addr = uint16(c.read(c.PC))
		c.PC++
		c.operand = c.read(c.addr)
	case ZPX:
		c.addr = uint16(c.read(c.PC) + c.X)
		c.PC++
		c.operand = c.read(c.addr)
	case ZPY:
		c.addr = uint16(c.read(c.PC) + c.Y)
		c.PC++
		c.operand = c.read(c.addr)
	case REL:
		off := c.read(c.PC)
		c.PC++
		// Sign-extend so unsigned wraparound equals signed addition.
		c.relOffset = uint16(int16(int8(off)))
		c.addr = c.PC + c.relOffset
	case ABS:
		c.addr = c.read16(c.PC)
		c.PC += 2
		c.operand = c.read(c.addr)
	case ABX:
		base := c.read16(c.PC)
		c.PC += 2
		c.addr = base + uint16(c.X)
		pageCrossed = (base & 0xFF00) != (c.addr & 0xFF00)
		c.operand = c.read(c.addr)
	case ABY:
		base := c.read16(c.PC)
		c.PC += 2
		c.addr = base + uint16(c.Y)
		pageCrossed = (base & 0xFF00) != (c.addr & 0xFF00)
		c.operand = c.read(c.addr)
	case IND:
		ptr := c.read16(c.PC)
		c.PC += 2
		// Hardware bug: the high-byte fetch does not carry across a
		// page boundary.
		lo := uint16(c.read(ptr))
		hiAddr := (ptr & 0xFF00) | ((ptr + 1) & 0x00FF)
		hi := uint16(c.read(hiAddr))
		c.addr = hi<<8 | lo
	case IDX:
		zp := c.read(c.PC) + c.X
		c.PC++
		lo := uint16(c.read(uint16(zp)))
		hi := uint16(c.read(uint16(zp + 1)))
		c.addr = hi<<8 | lo
		c.operand = c.read(c.addr)
	case IDY:
		zp := c.read(c.PC)
		c.PC++
		lo := uint16(c.read(uint16(zp)))
		hi := uint16(c.read(uint16(zp + 1)))
		base := hi<<8 | lo
		c.addr = base + uint16(c.Y)
		pageCrossed = (base & 0xFF00) != (c.addr & 0xFF00)
		c.operand = c.read(c.addr)
	}
	return pageCrossed
}

func (c *CPU) setFlag(mask uint8, on bool) {
	if on {
		c.Status |= mask
	} else {
		c.Status &^= mask
	}
}

func (c *CPU) flag(mask uint8) bool { return c.Status&mask != 0 }

func (c *CPU) setZN(v uint8) {
	c.setFlag(FlagZ, v == 0)
	c.setFlag(FlagS, v&0x80 != 0)
}

func (c *CPU) pushStack(v uint8) {
	c.write(stackPage+uint16(c.SP), v)
	c.SP--
}

func (c *CPU) popStack() uint8 {
	c.SP++
	return c.read(stackPage + uint16(c.SP))
}

func (c *CPU) pushAddr(addr uint16) {
	c.pushStack(uint8(addr >> 8))
	c.pushStack(uint8(addr & 0xFF))
}

func (c *CPU) popAddr() uint16 {
	lo := uint16(c.popStack())
	hi := uint16(c.popStack())
	return hi<<8 | lo
}

// String renders a one-line trace record, used by the diagnostic TUI.
func (c *CPU) String() string {
	return fmt.Sprintf("A=%02X X=%02X Y=%02X SP=%02X PC=%04X P=%s",
		c.A, c.X, c.Y, c.SP, c.PC, c.statusString())
}

func (c *CPU) statusString() string {
	bits := []struct {
		mask uint8
		ch   byte
	}{
		{FlagS, 'S'}, {FlagV, 'V'}, {FlagU, 'U'}, {FlagB, 'B'},
		{FlagD, 'D'}, {FlagI, 'I'}, {FlagZ, 'Z'}, {FlagC, 'C'},
	}
	b := make([]byte, len(bits))
	for i, f := range bits {
		if c.Status&f.mask != 0 {
			b[i] = f.ch
		} else {
			b[i] = '.'
		}
	}
	return string(b)
}

// recordTrace appends one retired-instruction snapshot to the ring
// buffer, called at fetch time so PC and the registers reflect state
// just before the instruction executes.
func (c *CPU) recordTrace(mnemonic string) {
	c.trace[c.traceHead] = TraceEntry{
		PC: c.PC, Opcode: mnemonic,
		A: c.A, X: c.X, Y: c.Y, SP: c.SP, P: c.Status,
	}
	c.traceHead = (c.traceHead + 1) % traceDepth
	if c.traceLen < traceDepth {
		c.traceLen++
	}
}

// Trace returns the last N retired instructions, oldest first.
func (c *CPU) Trace() []TraceEntry {
	out := make([]TraceEntry, c.traceLen)
	start := (c.traceHead - c.traceLen + traceDepth) % traceDepth
	for i := 0; i < c.traceLen; i++ {
		out[i] = c.trace[(start+i)%traceDepth]
	}
	return out
}

// Opcode returns the mnemonic of the instruction at PC, for tracing.
func (c *CPU) Opcode() string {
	op := opcodeTable[c.read(c.PC)]
	if !op.legal {
		return fmt.Sprintf("ILL(%02X)", c.read(c.PC))
	}
	return instrNames[op.instr]
}
