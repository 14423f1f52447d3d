// Package ppu implements the picture processing unit: register file,
// VRAM/palette/OAM memory, and the dot-based renderer that drives
// background and sprite output. https://www.nesdev.org/wiki/PPU
package ppu

import (
	"fmt"

	"github.com/nesgo/nesgo/cartridge"
)

const (
	width  = 256
	height = 240
)

// Resolution returns the fixed NES frame resolution; the host video
// backend sizes its window/layout from this rather than a constant of
// its own.
func Resolution() (int, int) { return width, height }

// Register select values, already reduced modulo 8 by the Bus's address
// decoder (registers mirror every 8 bytes over 0x2000..0x3FFF).
const (
	RegCTRL = iota
	RegMASK
	RegSTATUS
	RegOAMADDR
	RegOAMDATA
	RegSCROLL
	RegADDR
	RegDATA
)

// CTRL bits.
const (
	ctrlNametableX    uint8 = 1 << 0
	ctrlNametableY    uint8 = 1 << 1
	ctrlIncrementMode uint8 = 1 << 2
	ctrlSpritePattern uint8 = 1 << 3
	ctrlBGPattern     uint8 = 1 << 4
	ctrlSpriteSize    uint8 = 1 << 5
	ctrlMasterSlave   uint8 = 1 << 6
	ctrlNMIEnable     uint8 = 1 << 7
)

// MASK bits.
const (
	maskGreyscale    uint8 = 1 << 0
	maskShowBGLeft8  uint8 = 1 << 1
	maskShowSprLeft8 uint8 = 1 << 2
	maskShowBG       uint8 = 1 << 3
	maskShowSprites  uint8 = 1 << 4
)

// STATUS bits.
const (
	statusOverflow   uint8 = 1 << 5
	statusSpriteZero uint8 = 1 << 6
	statusVBlank     uint8 = 1 << 7
)

// Bus is the PPU's view of cartridge pattern data and nametable
// mirroring; the PPU owns nametable RAM, palette RAM and OAM itself.
type Bus interface {
	CHRRead(addr uint16) uint8
	CHRWrite(addr uint16, val uint8)
	Mirroring() cartridge.Mirroring
}

// PPU is the NES picture processing unit.
type PPU struct {
	bus Bus

	paletteRAM [32]uint8
	nameTables [2][1024]uint8
	oam        [256]uint8

	secondaryOAM  [32]uint8
	spriteCount   int
	spriteZeroHit bool // whether original sprite 0 landed in secondary OAM this evaluation

	activeSpritePatternLo [8]uint8
	activeSpritePatternHi [8]uint8
	activeSpriteAttr      [8]uint8
	activeSpriteX         [8]uint8
	activeSpritePixel     [8]uint8
	activeSpriteIsZero    [8]bool

	ctrl, mask, status uint8
	oamAddr            uint8

	v, t       loopy
	fineX      uint8
	writeLatch bool
	dataBuffer uint8

	bgNextTileID   uint8
	bgNextTileAttr uint8
	bgNextTileLo   uint8
	bgNextTileHi   uint8

	bgShifterPatternLo uint16
	bgShifterPatternHi uint16
	bgShifterAttrLo    uint16
	bgShifterAttrHi    uint16

	scanline int
	dot      int
	oddFrame bool

	FrameBuffer   [width * height]uint32
	frameComplete bool
	nmiPending    bool

	writeTrace     [ppuTraceDepth]RegisterWrite
	writeTraceHead int
	writeTraceLen  int
}

// ppuTraceDepth bounds the ring buffer of CPU-side register writes kept
// for the diagnostic console's PPU trace.
const ppuTraceDepth = 32

// regNames labels the eight PPU registers by their RegCTRL..RegDATA
// index, for the diagnostic console's write trace.
var regNames = [8]string{"CTRL", "MASK", "STATUS", "OAMADDR", "OAMDATA", "SCROLL", "ADDR", "DATA"}

// RegisterWrite is a recorded CPU-side write to one of the eight PPU
// registers.
type RegisterWrite struct {
	Reg uint8
	Val uint8
}

func (w RegisterWrite) String() string {
	name := "???"
	if int(w.Reg) < len(regNames) {
		name = regNames[w.Reg]
	}
	return fmt.Sprintf("%-7s = %02X", name, w.Val)
}

func New(bus Bus) *PPU {
	return &PPU{bus: bus}
}

// Reset restores power-on PPU state.
func (p *PPU) Reset() {
	*p = PPU{bus: p.bus}
}

// TakeNMI reports and clears a pending NMI request, which the clock
// driver delivers to the CPU on the rising edge only.
func (p *PPU) TakeNMI() bool {
	pending := p.nmiPending
	p.nmiPending = false
	return pending
}

// TakeFrameComplete reports and clears the end-of-frame flag.
func (p *PPU) TakeFrameComplete() bool {
	done := p.frameComplete
	p.frameComplete = false
	return done
}

// PokeOAM writes directly into primary OAM; used by the bus's OAM DMA
// state machine.
func (p *PPU) PokeOAM(addr uint8, val uint8) { p.oam[addr] = val }

// Nametable returns a copy of one of the two 1 KiB internal nametable
// slots, for diagnostic dumps. table is reduced modulo 2.
func (p *PPU) Nametable(table int) [1024]uint8 {
	return p.nameTables[table&1]
}

// Status renders a short human-readable snapshot of renderer state,
// used by the diagnostic console.
func (p *PPU) Status() string {
	return fmt.Sprintf("scanline=%3d dot=%3d ctrl=%02X mask=%02X status=%02X v=%04X t=%04X",
		p.scanline, p.dot, p.ctrl, p.mask, p.status, p.v.data, p.t.data)
}

func (p *PPU) renderingEnabled() bool {
	return p.mask&(maskShowBG|maskShowSprites) != 0
}

// ReadRegister implements CPU-side reads of the eight PPU registers.
func (p *PPU) ReadRegister(reg uint8) uint8 {
	switch reg {
	case RegSTATUS:
		result := (p.status & 0xE0) | (p.dataBuffer & 0x1F)
		p.status &^= statusVBlank
		p.writeLatch = false
		return result
	case RegOAMDATA:
		return p.oam[p.oamAddr]
	case RegDATA:
		addr := p.v.data & 0x3FFF
		var result uint8
		if addr >= 0x3F00 {
			result = p.readVRAM(addr)
		} else {
			result = p.dataBuffer
			p.dataBuffer = p.readVRAM(addr)
		}
		p.incrementV()
		return result
	default:
		return 0
	}
}

// WriteRegister implements CPU-side writes of the eight PPU registers.
func (p *PPU) WriteRegister(reg uint8, val uint8) {
	p.recordWrite(reg, val)
	switch reg {
	case RegCTRL:
		oldNMI := p.ctrl&ctrlNMIEnable != 0
		p.ctrl = val
		p.t.setNametableX(uint16(val & 0x01))
		p.t.setNametableY(uint16((val >> 1) & 0x01))
		if !oldNMI && val&ctrlNMIEnable != 0 && p.status&statusVBlank != 0 {
			p.nmiPending = true
		}
	case RegMASK:
		p.mask = val
	case RegOAMADDR:
		p.oamAddr = val
	case RegOAMDATA:
		p.oam[p.oamAddr] = val
		p.oamAddr++
	case RegSCROLL:
		if !p.writeLatch {
			p.t.setCoarseX(uint16(val >> 3))
			p.fineX = val & 0x07
			p.writeLatch = true
		} else {
			p.t.setCoarseY(uint16(val >> 3))
			p.t.setFineY(uint16(val & 0x07))
			p.writeLatch = false
		}
	case RegADDR:
		if !p.writeLatch {
			p.t.data = (p.t.data & 0x00FF) | (uint16(val&0x3F) << 8)
			p.writeLatch = true
		} else {
			p.t.data = (p.t.data & 0xFF00) | uint16(val)
			p.v = p.t
			p.writeLatch = false
		}
	case RegDATA:
		p.writeVRAM(p.v.data&0x3FFF, val)
		p.incrementV()
	}
}

// recordWrite appends one register write to the ring buffer.
func (p *PPU) recordWrite(reg, val uint8) {
	p.writeTrace[p.writeTraceHead] = RegisterWrite{Reg: reg, Val: val}
	p.writeTraceHead = (p.writeTraceHead + 1) % ppuTraceDepth
	if p.writeTraceLen < ppuTraceDepth {
		p.writeTraceLen++
	}
}

// WriteTrace returns the last N CPU-side register writes, oldest first.
func (p *PPU) WriteTrace() []RegisterWrite {
	out := make([]RegisterWrite, p.writeTraceLen)
	start := (p.writeTraceHead - p.writeTraceLen + ppuTraceDepth) % ppuTraceDepth
	for i := 0; i < p.writeTraceLen; i++ {
		out[i] = p.writeTrace[(start+i)%ppuTraceDepth]
	}
	return out
}

func (p *PPU) incrementV() {
	inc := uint16(1)
	if p.ctrl&ctrlIncrementMode != 0 {
		inc = 32
	}
	p.v.data = (p.v.data + inc) & 0x7FFF
}

func (p *PPU) readVRAM(addr uint16) uint8 {
	switch {
	case addr < 0x2000:
		return p.bus.CHRRead(addr)
	case addr < 0x3F00:
		table, offset := p.nameTableSlot(addr)
		return p.nameTables[table][offset]
	default:
		return p.paletteRAM[paletteIndex(addr)]
	}
}

func (p *PPU) writeVRAM(addr uint16, val uint8) {
	switch {
	case addr < 0x2000:
		p.bus.CHRWrite(addr, val)
	case addr < 0x3F00:
		table, offset := p.nameTableSlot(addr)
		p.nameTables[table][offset] = val
	default:
		p.paletteRAM[paletteIndex(addr)] = val & 0x3F
	}
}

func (p *PPU) nameTableSlot(addr uint16) (table int, offset int) {
	local := (addr - 0x2000) % 0x1000
	quadrant := int(local / 0x400)
	offset = int(local % 0x400)
	switch p.bus.Mirroring() {
	case cartridge.MirrorVertical:
		table = quadrant % 2
	case cartridge.MirrorSingleLower:
		table = 0
	case cartridge.MirrorSingleUpper:
		table = 1
	default: // horizontal, four-screen (no extra VRAM backing available)
		table = quadrant / 2
	}
	return table, offset
}

// paletteIndex folds the four backdrop-color mirrors (0x10/0x14/0x18/0x1C)
// onto their canonical entries (0x00/0x04/0x08/0x0C).
func paletteIndex(addr uint16) int {
	i := int(addr-0x3F00) % 32
	if i >= 0x10 && i%4 == 0 {
		i -= 0x10
	}
	return i
}

// Clock advances the PPU by exactly one dot.
func (p *PPU) Clock() {
	switch {
	case p.scanline == 241 && p.dot == 1:
		p.status |= statusVBlank
		if p.ctrl&ctrlNMIEnable != 0 {
			p.nmiPending = true
		}
	case p.scanline == 261 && p.dot == 1:
		p.status &^= statusVBlank | statusOverflow | statusSpriteZero
		p.resetActiveSprites()
	}

	renderLine := p.scanline == 261 || (p.scanline >= 0 && p.scanline <= 239)
	if renderLine && p.renderingEnabled() {
		p.runRenderCadence()
	}

	if p.scanline >= 0 && p.scanline <= 239 && p.dot >= 1 && p.dot <= 256 {
		p.renderPixel(p.dot-1, p.scanline)
	}

	p.advanceDot()
}

func (p *PPU) runRenderCadence() {
	inFetchWindow := (p.dot >= 1 && p.dot <= 256) || (p.dot >= 321 && p.dot <= 336)
	if inFetchWindow {
		p.shiftBackgroundRegisters()
		p.stepSpriteShifters()
		switch p.dot % 8 {
		case 1:
			p.bgNextTileID = p.readVRAM(0x2000 | (p.v.data & 0x0FFF))
		case 3:
			attrAddr := uint16(0x23C0) | (p.v.data & 0x0C00) | ((p.v.data >> 4) & 0x38) | ((p.v.data >> 2) & 0x07)
			attr := p.readVRAM(attrAddr)
			if p.v.coarseY()&0x02 != 0 {
				attr >>= 4
			}
			if p.v.coarseX()&0x02 != 0 {
				attr >>= 2
			}
			p.bgNextTileAttr = attr & 0x03
		case 5:
			p.bgNextTileLo = p.bus.CHRRead(p.bgPatternAddr())
		case 7:
			p.bgNextTileHi = p.bus.CHRRead(p.bgPatternAddr() + 8)
		case 0:
			p.reloadBackgroundShifters()
			p.v.incrementCoarseX()
		}
	}

	if p.dot == 256 {
		p.v.incrementFineY()
	}
	if p.dot == 257 {
		p.v.copyHorizontalFrom(&p.t)
		p.loadSpriteShifters()
	}
	if p.scanline == 261 && p.dot >= 280 && p.dot <= 304 {
		p.v.copyVerticalFrom(&p.t)
	}
	if p.dot == 1 {
		p.clearSecondaryOAM()
	}
	if p.dot == 64 {
		p.evaluateSprites()
	}
	if p.dot == 337 || p.dot == 339 {
		p.bgNextTileID = p.readVRAM(0x2000 | (p.v.data & 0x0FFF))
	}
}

func (p *PPU) bgPatternAddr() uint16 {
	base := uint16(0)
	if p.ctrl&ctrlBGPattern != 0 {
		base = 0x1000
	}
	return base + uint16(p.bgNextTileID)*16 + p.v.fineY()
}

func (p *PPU) shiftBackgroundRegisters() {
	p.bgShifterPatternLo <<= 1
	p.bgShifterPatternHi <<= 1
	p.bgShifterAttrLo <<= 1
	p.bgShifterAttrHi <<= 1
}

func (p *PPU) reloadBackgroundShifters() {
	p.bgShifterPatternLo = (p.bgShifterPatternLo & 0xFF00) | uint16(p.bgNextTileLo)
	p.bgShifterPatternHi = (p.bgShifterPatternHi & 0xFF00) | uint16(p.bgNextTileHi)

	lo, hi := uint16(0), uint16(0)
	if p.bgNextTileAttr&0x01 != 0 {
		lo = 0x00FF
	}
	if p.bgNextTileAttr&0x02 != 0 {
		hi = 0x00FF
	}
	p.bgShifterAttrLo = (p.bgShifterAttrLo & 0xFF00) | lo
	p.bgShifterAttrHi = (p.bgShifterAttrHi & 0xFF00) | hi
}

func (p *PPU) backgroundPixel() (pixel, palette uint8) {
	bit := uint16(0x8000) >> p.fineX
	if p.bgShifterPatternLo&bit != 0 {
		pixel |= 0x01
	}
	if p.bgShifterPatternHi&bit != 0 {
		pixel |= 0x02
	}
	if p.bgShifterAttrLo&bit != 0 {
		palette |= 0x01
	}
	if p.bgShifterAttrHi&bit != 0 {
		palette |= 0x02
	}
	return pixel, palette
}

func (p *PPU) spriteHeight() int {
	if p.ctrl&ctrlSpriteSize != 0 {
		return 16
	}
	return 8
}

func (p *PPU) clearSecondaryOAM() {
	for i := range p.secondaryOAM {
		p.secondaryOAM[i] = 0xFF
	}
	p.spriteCount = 0
	p.spriteZeroHit = false
}

// evaluateSprites scans primary OAM for sprites visible on the scanline
// immediately after the current one (scanline 261 prepares scanline 0).
func (p *PPU) evaluateSprites() {
	target := p.scanline + 1
	if target > 261 {
		target = 0
	}
	height := p.spriteHeight()

	n := 0
	for i := 0; i < 64; i++ {
		y := int(p.oam[i*4])
		row := target - y
		if row < 0 || row >= height {
			continue
		}
		if n >= 8 {
			p.status |= statusOverflow
			break
		}
		copy(p.secondaryOAM[n*4:n*4+4], p.oam[i*4:i*4+4])
		if i == 0 {
			p.spriteZeroHit = true
		}
		n++
	}
	p.spriteCount = n
}

func (p *PPU) resetActiveSprites() {
	for i := range p.activeSpritePatternLo {
		p.activeSpritePatternLo[i] = 0
		p.activeSpritePatternHi[i] = 0
		p.activeSpriteX[i] = 0xFF
		p.activeSpritePixel[i] = 0
		p.activeSpriteIsZero[i] = false
	}
}

// loadSpriteShifters fetches pattern bytes for each active secondary-OAM
// slot, preparing them for the upcoming scanline's rendering.
func (p *PPU) loadSpriteShifters() {
	target := p.scanline + 1
	if target > 261 {
		target = 0
	}
	height := p.spriteHeight()

	for slot := 0; slot < 8; slot++ {
		if slot >= p.spriteCount {
			p.activeSpritePatternLo[slot] = 0
			p.activeSpritePatternHi[slot] = 0
			p.activeSpriteX[slot] = 0xFF
			p.activeSpritePixel[slot] = 0
			p.activeSpriteIsZero[slot] = false
			continue
		}

		e := decodeSpriteEntry(p.secondaryOAM[slot*4 : slot*4+4])
		row := target - int(e.y)
		if e.flipV {
			row = height - 1 - row
		}
		addr := p.spritePatternAddr(e, row, height)
		lo := p.bus.CHRRead(addr)
		hi := p.bus.CHRRead(addr + 8)
		if !e.flipH {
			lo, hi = reverseByte(lo), reverseByte(hi)
		}

		p.activeSpritePatternLo[slot] = lo
		p.activeSpritePatternHi[slot] = hi
		p.activeSpriteAttr[slot] = e.palette | (uint8(e.pri) << 5)
		p.activeSpriteX[slot] = e.x
		p.activeSpritePixel[slot] = 0
		p.activeSpriteIsZero[slot] = slot == 0 && p.spriteZeroHit
	}
}

func (p *PPU) spritePatternAddr(e spriteEntry, row, height int) uint16 {
	if height == 8 {
		base := uint16(0)
		if p.ctrl&ctrlSpritePattern != 0 {
			base = 0x1000
		}
		return base + uint16(e.tileID)*16 + uint16(row)
	}

	table := uint16(e.tileID&0x01) * 0x1000
	tile := uint16(e.tileID &^ 0x01)
	if row >= 8 {
		tile++
		row -= 8
	}
	return table + tile*16 + uint16(row)
}

func (p *PPU) stepSpriteShifters() {
	for slot := 0; slot < p.spriteCount; slot++ {
		if p.activeSpriteX[slot] > 0 {
			p.activeSpriteX[slot]--
			continue
		}
		bit0 := (p.activeSpritePatternLo[slot] >> 7) & 1
		bit1 := (p.activeSpritePatternHi[slot] >> 7) & 1
		p.activeSpritePixel[slot] = (bit1 << 1) | bit0
		p.activeSpritePatternLo[slot] <<= 1
		p.activeSpritePatternHi[slot] <<= 1
	}
}

func (p *PPU) renderPixel(x, y int) {
	var bgPixel, bgPalette uint8
	if p.mask&maskShowBG != 0 && (x >= 8 || p.mask&maskShowBGLeft8 != 0) {
		bgPixel, bgPalette = p.backgroundPixel()
	}

	var sprPixel, sprPalette uint8
	sprPriority := priorityFront
	sprIsZero := false
	if p.mask&maskShowSprites != 0 && (x >= 8 || p.mask&maskShowSprLeft8 != 0) {
		for slot := 0; slot < p.spriteCount; slot++ {
			if p.activeSpriteX[slot] != 0 {
				continue
			}
			if p.activeSpritePixel[slot] == 0 {
				continue
			}
			sprPixel = p.activeSpritePixel[slot]
			sprPalette = p.activeSpriteAttr[slot] & 0x03
			sprPriority = spritePriority((p.activeSpriteAttr[slot] >> 5) & 0x01)
			sprIsZero = p.activeSpriteIsZero[slot]
			break
		}
	}

	if bgPixel != 0 && sprPixel != 0 && sprIsZero {
		p.status |= statusSpriteZero
	}

	var outPixel, outPalette uint8
	useSprite := false
	switch {
	case sprPixel != 0 && (bgPixel == 0 || sprPriority == priorityFront):
		outPixel, outPalette, useSprite = sprPixel, sprPalette, true
	default:
		outPixel, outPalette = bgPixel, bgPalette
	}

	base := uint16(0x3F00)
	var idx int
	if outPixel == 0 {
		idx = paletteIndex(0x3F00)
	} else {
		if useSprite {
			base = 0x3F10
		}
		idx = paletteIndex(base + uint16(outPalette)*4 + uint16(outPixel))
	}
	p.FrameBuffer[y*width+x] = SystemPalette[p.paletteRAM[idx]&0x3F]
}

func (p *PPU) advanceDot() {
	p.dot++
	if p.dot > 340 {
		p.dot = 0
		p.scanline++
		if p.scanline > 261 {
			p.scanline = 0
			p.oddFrame = !p.oddFrame
			p.frameComplete = true
		}
	}
	if p.scanline == 0 && p.dot == 0 && p.oddFrame && p.renderingEnabled() {
		p.dot = 1
	}
}

func reverseByte(b uint8) uint8 {
	var r uint8
	for i := 0; i < 8; i++ {
		r <<= 1
		r |= b & 1
		b >>= 1
	}
	return r
}
