package cpu

// Addressing modes. REL sign-extends its fetched byte to 16 bits before
// use; IND reproduces the page-wrap fetch bug of real hardware.
const (
	IMP = iota // implicit; no operand
	ACC        // operates on the accumulator
	IMM        // immediate
	ZP0        // zero page
	ZPX        // zero page, X
	ZPY        // zero page, Y
	REL        // relative (branches)
	ABS        // absolute
	ABX        // absolute, X
	ABY        // absolute, Y
	IND        // indirect (JMP only)
	IDX        // indexed indirect, (zp,X)
	IDY        // indirect indexed, (zp),Y
)

var modeNames = [...]string{
	IMP: "IMP", ACC: "ACC", IMM: "IMM", ZP0: "ZP0", ZPX: "ZPX", ZPY: "ZPY",
	REL: "REL", ABS: "ABS", ABX: "ABX", ABY: "ABY", IND: "IND", IDX: "IDX", IDY: "IDY",
}

// The 56 documented 6502 instructions.
const (
	ADC = iota
	AND
	ASL
	BCC
	BCS
	BEQ
	BIT
	BMI
	BNE
	BPL
	BRK
	BVC
	BVS
	CLC
	CLD
	CLI
	CLV
	CMP
	CPX
	CPY
	DEC
	DEX
	DEY
	EOR
	INC
	INX
	INY
	JMP
	JSR
	LDA
	LDX
	LDY
	LSR
	NOP
	ORA
	PHA
	PHP
	PLA
	PLP
	ROL
	ROR
	RTI
	RTS
	SBC
	SEC
	SED
	SEI
	STA
	STX
	STY
	TAX
	TAY
	TSX
	TXA
	TXS
	TYA
	numInstructions
)

var instrNames = [numInstructions]string{
	ADC: "ADC", AND: "AND", ASL: "ASL", BCC: "BCC", BCS: "BCS", BEQ: "BEQ", BIT: "BIT",
	BMI: "BMI", BNE: "BNE", BPL: "BPL", BRK: "BRK", BVC: "BVC", BVS: "BVS", CLC: "CLC",
	CLD: "CLD", CLI: "CLI", CLV: "CLV", CMP: "CMP", CPX: "CPX", CPY: "CPY", DEC: "DEC",
	DEX: "DEX", DEY: "DEY", EOR: "EOR", INC: "INC", INX: "INX", INY: "INY", JMP: "JMP",
	JSR: "JSR", LDA: "LDA", LDX: "LDX", LDY: "LDY", LSR: "LSR", NOP: "NOP", ORA: "ORA",
	PHA: "PHA", PHP: "PHP", PLA: "PLA", PLP: "PLP", ROL: "ROL", ROR: "ROR", RTI: "RTI",
	RTS: "RTS", SBC: "SBC", SEC: "SEC", SED: "SED", SEI: "SEI", STA: "STA", STX: "STX",
	STY: "STY", TAX: "TAX", TAY: "TAY", TSX: "TSX", TXA: "TXA", TXS: "TXS", TYA: "TYA",
}

// pageCrossSensitive marks the "read group" instructions for which an
// extra cycle is charged when indexed addressing crosses a page boundary.
var pageCrossSensitive = [numInstructions]bool{
	ADC: true, AND: true, CMP: true, EOR: true, LDA: true, LDX: true, LDY: true,
	ORA: true, SBC: true,
}

type opcode struct {
	instr  uint8
	mode   uint8
	cycles uint8
	legal  bool
}

// opcodeTable is the static 256-entry decode table. Entries not listed
// below are zero-valued (legal == false) and dispatch to the illegal
// opcode handler. Base cycle counts match the standard published 6502
// timing table; page-cross and branch-taken extras are added at
// dispatch time rather than baked in here.
var opcodeTable = buildOpcodeTable()

type opEntry struct {
	op     uint8
	instr  uint8
	mode   uint8
	cycles uint8
}

var opcodeEntries = [...]opEntry{
	{0x69, ADC, IMM, 2}, {0x65, ADC, ZP0, 3}, {0x75, ADC, ZPX, 4}, {0x6D, ADC, ABS, 4},
	{0x7D, ADC, ABX, 4}, {0x79, ADC, ABY, 4}, {0x61, ADC, IDX, 6}, {0x71, ADC, IDY, 5},

	{0x29, AND, IMM, 2}, {0x25, AND, ZP0, 3}, {0x35, AND, ZPX, 4}, {0x2D, AND, ABS, 4},
	{0x3D, AND, ABX, 4}, {0x39, AND, ABY, 4}, {0x21, AND, IDX, 6}, {0x31, AND, IDY, 5},

	{0x0A, ASL, ACC, 2}, {0x06, ASL, ZP0, 5}, {0x16, ASL, ZPX, 6}, {0x0E, ASL, ABS, 6}, {0x1E, ASL, ABX, 7},

	{0x90, BCC, REL, 2}, {0xB0, BCS, REL, 2}, {0xF0, BEQ, REL, 2},

	{0x24, BIT, ZP0, 3}, {0x2C, BIT, ABS, 4},

	{0x30, BMI, REL, 2}, {0xD0, BNE, REL, 2}, {0x10, BPL, REL, 2},

	{0x00, BRK, IMP, 7},

	{0x50, BVC, REL, 2}, {0x70, BVS, REL, 2},

	{0x18, CLC, IMP, 2}, {0xD8, CLD, IMP, 2}, {0x58, CLI, IMP, 2}, {0xB8, CLV, IMP, 2},

	{0xC9, CMP, IMM, 2}, {0xC5, CMP, ZP0, 3}, {0xD5, CMP, ZPX, 4}, {0xCD, CMP, ABS, 4},
	{0xDD, CMP, ABX, 4}, {0xD9, CMP, ABY, 4}, {0xC1, CMP, IDX, 6}, {0xD1, CMP, IDY, 5},

	{0xE0, CPX, IMM, 2}, {0xE4, CPX, ZP0, 3}, {0xEC, CPX, ABS, 4},
	{0xC0, CPY, IMM, 2}, {0xC4, CPY, ZP0, 3}, {0xCC, CPY, ABS, 4},

	{0xC6, DEC, ZP0, 5}, {0xD6, DEC, ZPX, 6}, {0xCE, DEC, ABS, 6}, {0xDE, DEC, ABX, 7},
	{0xCA, DEX, IMP, 2}, {0x88, DEY, IMP, 2},

	{0x49, EOR, IMM, 2}, {0x45, EOR, ZP0, 3}, {0x55, EOR, ZPX, 4}, {0x4D, EOR, ABS, 4},
	{0x5D, EOR, ABX, 4}, {0x59, EOR, ABY, 4}, {0x41, EOR, IDX, 6}, {0x51, EOR, IDY, 5},

	{0xE6, INC, ZP0, 5}, {0xF6, INC, ZPX, 6}, {0xEE, INC, ABS, 6}, {0xFE, INC, ABX, 7},
	{0xE8, INX, IMP, 2}, {0xC8, INY, IMP, 2},

	{0x4C, JMP, ABS, 3}, {0x6C, JMP, IND, 5},

	{0x20, JSR, ABS, 6},

	{0xA9, LDA, IMM, 2}, {0xA5, LDA, ZP0, 3}, {0xB5, LDA, ZPX, 4}, {0xAD, LDA, ABS, 4},
	{0xBD, LDA, ABX, 4}, {0xB9, LDA, ABY, 4}, {0xA1, LDA, IDX, 6}, {0xB1, LDA, IDY, 5},

	{0xA2, LDX, IMM, 2}, {0xA6, LDX, ZP0, 3}, {0xB6, LDX, ZPY, 4}, {0xAE, LDX, ABS, 4}, {0xBE, LDX, ABY, 4},
	{0xA0, LDY, IMM, 2}, {0xA4, LDY, ZP0, 3}, {0xB4, LDY, ZPX, 4}, {0xAC, LDY, ABS, 4}, {0xBC, LDY, ABX, 4},

	{0x4A, LSR, ACC, 2}, {0x46, LSR, ZP0, 5}, {0x56, LSR, ZPX, 6}, {0x4E, LSR, ABS, 6}, {0x5E, LSR, ABX, 7},

	{0xEA, NOP, IMP, 2},

	{0x09, ORA, IMM, 2}, {0x05, ORA, ZP0, 3}, {0x15, ORA, ZPX, 4}, {0x0D, ORA, ABS, 4},
	{0x1D, ORA, ABX, 4}, {0x19, ORA, ABY, 4}, {0x01, ORA, IDX, 6}, {0x11, ORA, IDY, 5},

	{0x48, PHA, IMP, 3}, {0x08, PHP, IMP, 3}, {0x68, PLA, IMP, 4}, {0x28, PLP, IMP, 4},

	{0x2A, ROL, ACC, 2}, {0x26, ROL, ZP0, 5}, {0x36, ROL, ZPX, 6}, {0x2E, ROL, ABS, 6}, {0x3E, ROL, ABX, 7},
	{0x6A, ROR, ACC, 2}, {0x66, ROR, ZP0, 5}, {0x76, ROR, ZPX, 6}, {0x6E, ROR, ABS, 6}, {0x7E, ROR, ABX, 7},

	{0x40, RTI, IMP, 6}, {0x60, RTS, IMP, 6},

	{0xE9, SBC, IMM, 2}, {0xE5, SBC, ZP0, 3}, {0xF5, SBC, ZPX, 4}, {0xED, SBC, ABS, 4},
	{0xFD, SBC, ABX, 4}, {0xF9, SBC, ABY, 4}, {0xE1, SBC, IDX, 6}, {0xF1, SBC, IDY, 5},

	{0x38, SEC, IMP, 2}, {0xF8, SED, IMP, 2}, {0x78, SEI, IMP, 2},

	{0x85, STA, ZP0, 3}, {0x95, STA, ZPX, 4}, {0x8D, STA, ABS, 4}, {0x9D, STA, ABX, 5},
	{0x99, STA, ABY, 5}, {0x81, STA, IDX, 6}, {0x91, STA, IDY, 6},

	{0x86, STX, ZP0, 3}, {0x96, STX, ZPY, 4}, {0x8E, STX, ABS, 4},
	{0x84, STY, ZP0, 3}, {0x94, STY, ZPX, 4}, {0x8C, STY, ABS, 4},

	{0xAA, TAX, IMP, 2}, {0xA8, TAY, IMP, 2}, {0xBA, TSX, IMP, 2},
	{0x8A, TXA, IMP, 2}, {0x9A, TXS, IMP, 2}, {0x98, TYA, IMP, 2},
}

func buildOpcodeTable() [256]opcode {
	var t [256]opcode
	for _, e := range opcodeEntries {
		t[e.op] = opcode{instr: e.instr, mode: e.mode, cycles: e.cycles, legal: true}
	}
	return t
}
