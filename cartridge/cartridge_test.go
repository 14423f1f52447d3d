package cartridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildINES(prgPages, chrPages uint8, flags6 uint8, prg, chr []byte) []byte {
	h := make([]byte, 16)
	copy(h, []byte("NES\x1A"))
	h[4] = prgPages
	h[5] = chrPages
	h[6] = flags6
	buf := append([]byte{}, h...)
	buf = append(buf, prg...)
	buf = append(buf, chr...)
	return buf
}

func TestLoadNROM16KMirrored(t *testing.T) {
	prg := make([]byte, prgPageSize)
	prg[0] = 0xAA
	chr := make([]byte, chrPageSize)
	raw := buildINES(1, 1, 0, prg, chr)

	c, err := loadBytes("test.nes", raw)
	require.NoError(t, err)
	assert.Equal(t, "NROM", c.MapperName())

	assert.Equal(t, uint8(0xAA), c.PRGRead(0x8000))
	assert.Equal(t, uint8(0xAA), c.PRGRead(0xC000), "16KiB PRG mirrors into both halves")
}

func TestLoadNROM32K(t *testing.T) {
	prg := make([]byte, prgPageSize*2)
	prg[0] = 0x11
	prg[prgPageSize] = 0x22
	chr := make([]byte, chrPageSize)
	raw := buildINES(2, 1, 0, prg, chr)

	c, err := loadBytes("test.nes", raw)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x11), c.PRGRead(0x8000))
	assert.Equal(t, uint8(0x22), c.PRGRead(0xC000))
}

func TestNROMPRGWritesIgnored(t *testing.T) {
	prg := make([]byte, prgPageSize)
	chr := make([]byte, chrPageSize)
	raw := buildINES(1, 1, 0, prg, chr)
	c, err := loadBytes("test.nes", raw)
	require.NoError(t, err)

	c.PRGWrite(0x8000, 0xFF)
	assert.Equal(t, uint8(0), c.PRGRead(0x8000))
}

func TestNROMPRGReadBelow0x8000IsOpenBus(t *testing.T) {
	prg := make([]byte, prgPageSize)
	chr := make([]byte, chrPageSize)
	raw := buildINES(1, 1, 0, prg, chr)
	c, err := loadBytes("test.nes", raw)
	require.NoError(t, err)

	assert.Equal(t, uint8(0), c.PRGRead(0x6000), "NROM has no PRG-RAM window")
	assert.Equal(t, uint8(0), c.PRGRead(0x4020))
}

func TestNROMCHRRAMWhenNoChrPages(t *testing.T) {
	prg := make([]byte, prgPageSize)
	raw := buildINES(1, 0, 0, prg, nil)
	c, err := loadBytes("test.nes", raw)
	require.NoError(t, err)

	c.CHRWrite(0x0000, 0x42)
	assert.Equal(t, uint8(0x42), c.CHRRead(0x0000))
}

func TestHeaderMirroring(t *testing.T) {
	prg := make([]byte, prgPageSize)
	chr := make([]byte, chrPageSize)

	horiz := buildINES(1, 1, 0, prg, chr)
	c, err := loadBytes("h.nes", horiz)
	require.NoError(t, err)
	assert.Equal(t, MirrorHorizontal, c.Mirroring())

	vert := buildINES(1, 1, flag6Mirroring, prg, chr)
	c2, err := loadBytes("v.nes", vert)
	require.NoError(t, err)
	assert.Equal(t, MirrorVertical, c2.Mirroring())
}

func TestUnsupportedMapperRejected(t *testing.T) {
	prg := make([]byte, prgPageSize)
	chr := make([]byte, chrPageSize)
	raw := buildINES(1, 1, 0x20, prg, chr) // mapper 2 in high nibble of flags6
	_, err := loadBytes("bad.nes", raw)
	require.Error(t, err)
	var unsupported *UnsupportedMapperError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, uint8(2), unsupported.Num)
}

func TestMMC1ShiftRegisterWritesControl(t *testing.T) {
	prg := make([]byte, prgPageSize*4)
	chr := make([]byte, chrPageSize)
	raw := buildINES(4, 1, 0x10, prg, chr) // flags6 high nibble 1 => mapper 1
	c, err := loadBytes("mmc1.nes", raw)
	require.NoError(t, err)
	assert.Equal(t, "MMC1", c.MapperName())

	// Write control value 0b00010 (vertical mirroring) one bit per
	// write, LSB first, to the control register at 0x8000.
	bits := []uint8{0, 1, 0, 0, 0}
	for _, b := range bits {
		c.PRGWrite(0x8000, b)
	}
	assert.Equal(t, MirrorVertical, c.Mirroring())
}

func TestMMC1ResetOnBit7(t *testing.T) {
	prg := make([]byte, prgPageSize*4)
	chr := make([]byte, chrPageSize)
	raw := buildINES(4, 1, 0x10, prg, chr)
	c, err := loadBytes("mmc1.nes", raw)
	require.NoError(t, err)

	c.PRGWrite(0x8000, 1)
	c.PRGWrite(0x8000, 0x80) // bit 7 set: reset
	mm := c.Mapper.(*mmc1)
	assert.Equal(t, uint8(0), mm.shiftCount)
	assert.Equal(t, uint8(0x0C), mm.control&0x0C)
}

func TestMMC1PRGRAMPersists(t *testing.T) {
	prg := make([]byte, prgPageSize*2)
	chr := make([]byte, chrPageSize)
	raw := buildINES(2, 1, 0x10, prg, chr)
	c, err := loadBytes("mmc1.nes", raw)
	require.NoError(t, err)

	c.PRGWrite(0x6000, 0x7E)
	assert.Equal(t, uint8(0x7E), c.PRGRead(0x6000))
}

func TestMMC1PRGRAMDisabledByEnableBit(t *testing.T) {
	prg := make([]byte, prgPageSize*2)
	chr := make([]byte, chrPageSize)
	raw := buildINES(2, 1, 0x10, prg, chr)
	c, err := loadBytes("mmc1.nes", raw)
	require.NoError(t, err)

	c.PRGWrite(0x6000, 0x7E)
	assert.Equal(t, uint8(0x7E), c.PRGRead(0x6000), "enabled by default at power-on")

	// PRG bank register bit 4 set: disable PRG-RAM. Bank select = 0x10.
	writeMMC1Register(c, 0xE000, 0x10)
	assert.Equal(t, uint8(0), c.PRGRead(0x6000), "reads must report open bus while disabled")

	c.PRGWrite(0x6000, 0x55)
	assert.Equal(t, uint8(0), c.PRGRead(0x6000), "writes while disabled must not reach PRG-RAM")

	writeMMC1Register(c, 0xE000, 0x00) // re-enable, bank select back to 0
	assert.Equal(t, uint8(0x7E), c.PRGRead(0x6000), "prior contents survive being gated off")
}

func TestMMC1PRGBankSwitchMode3(t *testing.T) {
	prg := make([]byte, prgPageSize*4)
	prg[0] = 0x01             // bank 0
	prg[prgPageSize] = 0x02   // bank 1
	prg[prgPageSize*3] = 0x04 // last bank, fixed at 0xC000 in mode 3
	chr := make([]byte, chrPageSize)
	raw := buildINES(4, 1, 0x10, prg, chr)
	c, err := loadBytes("mmc1.nes", raw)
	require.NoError(t, err)

	assert.Equal(t, uint8(0x04), c.PRGRead(0xC000), "last bank fixed by default power-on control")

	writeMMC1Register(c, 0x8000, 0x1C) // control: PRG mode 3, CHR mode 1, single-lower mirroring
	writeMMC1Register(c, 0xE000, 0x01) // PRG bank select = 1
	assert.Equal(t, uint8(0x02), c.PRGRead(0x8000))
	assert.Equal(t, uint8(0x04), c.PRGRead(0xC000))
}

func writeMMC1Register(c *Cartridge, addr uint16, value uint8) {
	for i := 0; i < 5; i++ {
		c.PRGWrite(addr, (value>>uint(i))&1)
	}
}
