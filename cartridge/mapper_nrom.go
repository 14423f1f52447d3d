package cartridge

// nrom is mapper 0: fixed PRG (16 KiB mirrored twice, or 32 KiB) and
// fixed CHR (ROM or RAM), no bank switching, no PRG-RAM.
type nrom struct {
	prg       []byte
	chr       []byte
	chrIsRAM  bool
	mirroring Mirroring
}

func newNROM(prg, chr []byte, chrIsRAM bool, mirroring Mirroring) *nrom {
	return &nrom{
		prg:       prg,
		chr:       chr,
		chrIsRAM:  chrIsRAM,
		mirroring: mirroring,
	}
}

func (m *nrom) Name() string { return "NROM" }

func (m *nrom) PRGRead(addr uint16) uint8 {
	if addr < 0x8000 {
		// NROM has no PRG-RAM; 0x4020-0x7FFF is open bus.
		return 0
	}
	off := int(addr-0x8000) % len(m.prg)
	return m.prg[off]
}

func (m *nrom) PRGWrite(addr uint16, data uint8) {
	// PRG is ROM; writes are not honoured.
}

func (m *nrom) CHRRead(addr uint16) uint8 {
	return m.chr[int(addr)%len(m.chr)]
}

func (m *nrom) CHRWrite(addr uint16, data uint8) {
	if m.chrIsRAM {
		m.chr[int(addr)%len(m.chr)] = data
	}
}

func (m *nrom) Mirroring() Mirroring { return m.mirroring }
