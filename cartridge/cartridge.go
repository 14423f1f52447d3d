package cartridge

import (
	"fmt"
	"os"
)

const (
	prgPageSize = 16 * 1024
	chrPageSize = 8 * 1024
	trainerSize = 512
)

// UnsupportedMapperError is returned by Load when the ROM's header names
// a mapper this emulator has no implementation for.
type UnsupportedMapperError struct {
	Num uint8
}

func (e *UnsupportedMapperError) Error() string {
	return fmt.Sprintf("unsupported mapper %d", e.Num)
}

// Cartridge is a loaded iNES ROM image: its header plus the Mapper that
// owns and bank-switches its PRG/CHR storage.
type Cartridge struct {
	Header *Header
	Mapper Mapper
	path   string
}

// Load reads and parses an iNES ROM file from path.
func Load(path string) (*Cartridge, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cartridge: reading %s: %w", path, err)
	}
	return loadBytes(path, raw)
}

func loadBytes(path string, raw []byte) (*Cartridge, error) {
	h, err := parseHeader(raw)
	if err != nil {
		return nil, fmt.Errorf("cartridge: %s: %w", path, err)
	}

	off := 16
	if h.HasTrainer() {
		off += trainerSize
	}

	prgLen := int(h.PRGPages) * prgPageSize
	if off+prgLen > len(raw) {
		return nil, fmt.Errorf("cartridge: %s: truncated PRG data", path)
	}
	prg := raw[off : off+prgLen]
	off += prgLen

	var chr []byte
	chrLen := int(h.CHRPages) * chrPageSize
	if h.UsesCHRRAM() {
		chr = make([]byte, chrPageSize)
	} else {
		if off+chrLen > len(raw) {
			return nil, fmt.Errorf("cartridge: %s: truncated CHR data", path)
		}
		chr = raw[off : off+chrLen]
	}

	mapper, err := newMapper(h.MapperNum(), prg, chr, h.UsesCHRRAM(), h.HeaderMirroring())
	if err != nil {
		return nil, fmt.Errorf("cartridge: %s: %w", path, err)
	}

	return &Cartridge{Header: h, Mapper: mapper, path: path}, nil
}

func (c *Cartridge) PRGRead(addr uint16) uint8     { return c.Mapper.PRGRead(addr) }
func (c *Cartridge) PRGWrite(addr uint16, v uint8) { c.Mapper.PRGWrite(addr, v) }
func (c *Cartridge) CHRRead(addr uint16) uint8     { return c.Mapper.CHRRead(addr) }
func (c *Cartridge) CHRWrite(addr uint16, v uint8) { c.Mapper.CHRWrite(addr, v) }
func (c *Cartridge) Mirroring() Mirroring          { return c.Mapper.Mirroring() }
func (c *Cartridge) MapperName() string            { return c.Mapper.Name() }
