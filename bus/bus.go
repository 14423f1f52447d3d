// Package bus implements the CPU's view of the shared NES address space:
// RAM mirroring, PPU register mirroring, controller ports, and the OAM
// DMA align-wait/alternate-read-write state machine.
// https://www.nesdev.org/wiki/CPU_memory_map
package bus

import (
	"github.com/nesgo/nesgo/cartridge"
	"github.com/nesgo/nesgo/controller"
	"github.com/nesgo/nesgo/ppu"
)

const (
	ramSize   = 0x0800 // 2KiB built-in RAM
	oamDMAReg = 0x4014
	ctrl1Reg  = 0x4016
	ctrl2Reg  = 0x4017
)

// dma tracks the OAM DMA align-wait/alternate-read-write state machine
// triggered by a write to 0x4014.
type dma struct {
	active  bool
	waiting bool
	page    uint8
	addr    uint8
	buffer  uint8
	step    int
}

// Bus wires the CPU to RAM, the PPU's register file, the controller
// ports and the cartridge, and owns the OAM DMA sequencer.
type Bus struct {
	ram  [ramSize]uint8
	ppu  *ppu.PPU
	cart *cartridge.Cartridge

	ctrl1, ctrl2 *controller.Controller

	lastValue uint8 // open-bus value returned for unmapped reads
	dma       dma
}

// New wires a Bus around an already-loaded cartridge. The PPU is
// constructed here, since the cartridge (not the Bus) is its memory
// interface for CHR reads/writes and mirroring.
func New(cart *cartridge.Cartridge, ctrl1, ctrl2 controller.ButtonSource) *Bus {
	b := &Bus{cart: cart}
	b.ppu = ppu.New(cart)
	b.ctrl1 = controller.New(ctrl1)
	b.ctrl2 = controller.New(ctrl2)
	return b
}

// PPU exposes the owned PPU so the clock driver and host video backend
// can step it and read its frame buffer.
func (b *Bus) PPU() *ppu.PPU { return b.ppu }

// Read services a CPU memory read, applying the NES address decode
// table. https://www.nesdev.org/wiki/CPU_memory_map
func (b *Bus) Read(addr uint16) uint8 {
	var v uint8
	switch {
	case addr <= 0x1FFF:
		v = b.ram[addr&(ramSize-1)]
	case addr <= 0x3FFF:
		v = b.ppu.ReadRegister(uint8(addr & 0x0007))
	case addr == ctrl1Reg:
		v = b.ctrl1.Read()
	case addr == ctrl2Reg:
		// Frame counter / controller 2 input is out of scope; reads
		// report 0.
		v = 0
	case addr < 0x4020:
		v = b.lastValue
	case addr <= 0xFFFF:
		v = b.cart.PRGRead(addr)
	default:
		v = b.lastValue
	}
	b.lastValue = v
	return v
}

// Peek performs a diagnostic read identical to Read, except through the
// controller ports: it reports the next bit Read would return without
// shifting the register, so a diagnostic memory inspection never
// perturbs controller state.
func (b *Bus) Peek(addr uint16) uint8 {
	switch addr {
	case ctrl1Reg:
		return b.ctrl1.Peek()
	case ctrl2Reg:
		return 0
	default:
		return b.Read(addr)
	}
}

// Write services a CPU memory write, applying the same decode table.
func (b *Bus) Write(addr uint16, val uint8) {
	b.lastValue = val
	switch {
	case addr <= 0x1FFF:
		b.ram[addr&(ramSize-1)] = val
	case addr <= 0x3FFF:
		b.ppu.WriteRegister(uint8(addr&0x0007), val)
	case addr == oamDMAReg:
		b.startDMA(val)
	case addr == ctrl1Reg:
		// The strobe line on 0x4016 feeds both controller ports.
		b.ctrl1.Write(val)
		b.ctrl2.Write(val)
	case addr == ctrl2Reg:
		// APU frame counter register; no APU is emulated.
	case addr < 0x4020:
		// Unmapped APU/IO register.
	case addr <= 0xFFFF:
		b.cart.PRGWrite(addr, val)
	}
}

func (b *Bus) startDMA(page uint8) {
	b.dma = dma{active: true, waiting: true, page: page}
}

// DMAActive reports whether the OAM DMA sequencer currently owns the
// bus; while true the clock driver must not step the CPU.
func (b *Bus) DMAActive() bool { return b.dma.active }

// StepDMA advances the OAM DMA state machine by one CPU-cycle slot.
// cpuCycleOdd is the parity of the current CPU-cycle slot, passed on
// every call (the real CPU's own cycle counter is frozen while DMA holds
// the bus, so the driver counts slots externally): the sequencer spends
// slots waiting until that parity reads odd (the odd slot included)
// before it starts alternating reads and writes, matching the extra
// alignment cycle real hardware spends when DMA starts on an odd CPU
// cycle.
func (b *Bus) StepDMA(cpuCycleOdd bool) {
	if !b.dma.active {
		return
	}
	if b.dma.waiting {
		if cpuCycleOdd {
			b.dma.waiting = false
		}
		return
	}

	if b.dma.step%2 == 0 {
		b.dma.buffer = b.Read(uint16(b.dma.page)<<8 | uint16(b.dma.addr))
	} else {
		b.ppu.PokeOAM(b.dma.addr, b.dma.buffer)
		b.dma.addr++
		if b.dma.addr == 0 {
			b.dma.active = false
		}
	}
	b.dma.step++
}
