// Package system is the clock driver: the single-threaded, cooperative
// loop that interleaves the PPU and CPU at their native 3:1 ratio,
// delivers NMI on the PPU's vblank edge, and steps OAM DMA in place of
// the CPU while a transfer is in flight.
package system

import (
	"github.com/nesgo/nesgo/bus"
	"github.com/nesgo/nesgo/cartridge"
	"github.com/nesgo/nesgo/controller"
	"github.com/nesgo/nesgo/cpu"
	"github.com/nesgo/nesgo/ppu"
)

// System owns a wired-up CPU, Bus and PPU and advances them in
// lockstep. Nothing here is safe for concurrent use; the core is
// strictly single-threaded and cooperative.
type System struct {
	CPU *cpu.CPU
	bus *bus.Bus

	masterTick  uint64
	cpuTickSlot uint64
	nmiPending  bool

	// CPUTrace and PPUTrace gate whether the diag console renders the
	// CPU's retired-instruction ring buffer and the PPU's register-write
	// ring buffer; both buffers are always recorded regardless.
	CPUTrace bool
	PPUTrace bool
}

// New wires a System around an already-loaded cartridge and two
// controller input sources. cpu.New already performs the power-on
// reset that loads PC from the cartridge's reset vector.
func New(cart *cartridge.Cartridge, p1, p2 controller.ButtonSource) *System {
	b := bus.New(cart, p1, p2)
	s := &System{CPU: cpu.New(b), bus: b}
	return s
}

// Bus exposes the wired Bus, mainly for diagnostics (memory peek/poke).
func (s *System) Bus() *bus.Bus { return s.bus }

// PPU exposes the owned PPU so a host video backend can read the frame
// buffer and a diagnostic console can inspect renderer state.
func (s *System) PPU() *ppu.PPU { return s.bus.PPU() }

// Reset restores CPU and PPU power-on state without reloading the
// cartridge.
func (s *System) Reset() {
	s.CPU.Reset()
	s.PPU().Reset()
	s.masterTick, s.cpuTickSlot, s.nmiPending = 0, 0, false
}

// Tick advances exactly one master tick: the PPU always steps one dot;
// every third master tick is a CPU-cycle slot, spent on OAM DMA if one
// is in flight or on the CPU otherwise. It reports whether this tick
// retired a complete CPU instruction, the only point at which a
// pending NMI may be delivered.
func (s *System) Tick() bool {
	s.PPU().Clock()
	if s.PPU().TakeNMI() {
		s.nmiPending = true
	}

	s.masterTick++
	if s.masterTick%3 != 0 {
		return false
	}
	s.cpuTickSlot++

	if s.bus.DMAActive() {
		s.bus.StepDMA(s.cpuTickSlot%2 == 1)
		return false
	}

	complete := s.CPU.Clock()
	if complete && s.nmiPending {
		s.CPU.NMI()
		s.nmiPending = false
	}
	return complete
}

// StepInstruction runs master ticks until the CPU retires one complete
// instruction (absorbing any OAM DMA delay along the way), or until it
// halts on an illegal opcode.
func (s *System) StepInstruction() error {
	for {
		complete := s.Tick()
		if s.CPU.Halted {
			return s.CPU.Err
		}
		if complete {
			return nil
		}
	}
}

// RunFrame runs master ticks until the PPU reports a completed frame,
// or until the CPU halts on an illegal opcode. This is also the body
// of "auto" mode: the host simply calls RunFrame once per display
// refresh.
func (s *System) RunFrame() error {
	for {
		s.Tick()
		if s.CPU.Halted {
			return s.CPU.Err
		}
		if s.PPU().TakeFrameComplete() {
			return nil
		}
	}
}

// RunTicks runs exactly n master ticks, stopping early if the CPU
// halts on an illegal opcode.
func (s *System) RunTicks(n uint64) error {
	for i := uint64(0); i < n; i++ {
		s.Tick()
		if s.CPU.Halted {
			return s.CPU.Err
		}
	}
	return nil
}
