// Package diag is the bubbletea-based operator console: a terminal
// replacement for the teacher's text-menu BIOS() loop, offering the
// same step/breakpoint/memory-inspection commands through a charm TUI.
package diag

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nesgo/nesgo/system"
)

// prompt identifies which, if any, line-input the console is currently
// collecting keystrokes for.
type prompt int

const (
	promptNone prompt = iota
	promptPeek
	promptPokeAddr
	promptPokeValue
	promptSetPC
	promptTicks
)

const frameInterval = time.Second / 60

type autoTickMsg struct{}

// Model is the bubbletea model driving a single System.
type Model struct {
	sys  *system.System
	auto bool

	prompt   prompt
	input    string
	pokeAddr uint16

	status string
	ntDump string
}

// New wraps an already-constructed System for interactive debugging.
func New(sys *system.System) Model {
	return Model{sys: sys, status: "ready"}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func tickCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(time.Time) tea.Msg { return autoTickMsg{} })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case autoTickMsg:
		if !m.auto {
			return m, nil
		}
		if err := m.sys.RunFrame(); err != nil {
			m.status = fmt.Sprintf("halted: %v", err)
			m.auto = false
			return m, nil
		}
		return m, tickCmd()

	case tea.KeyMsg:
		if m.prompt != promptNone {
			return m.updatePrompt(msg)
		}
		return m.updateCommand(msg)
	}
	return m, nil
}

func (m Model) updateCommand(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "s": // step one instruction
		if err := m.sys.StepInstruction(); err != nil {
			m.status = fmt.Sprintf("halted: %v", err)
		} else {
			m.status = "stepped one instruction"
		}

	case "a": // toggle auto-run
		m.auto = !m.auto
		if m.auto {
			m.status = "auto: running"
			return m, tickCmd()
		}
		m.status = "auto: stopped"

	case "f": // advance one frame
		if err := m.sys.RunFrame(); err != nil {
			m.status = fmt.Sprintf("halted: %v", err)
		} else {
			m.status = "advanced one frame"
		}

	case "n": // advance N master ticks
		m.prompt = promptTicks
		m.input = ""

	case "r": // reset
		m.sys.Reset()
		m.status = "reset"

	case "c": // toggle CPU trace
		m.sys.CPUTrace = !m.sys.CPUTrace
		m.status = fmt.Sprintf("CPU trace: %v", m.sys.CPUTrace)

	case "p": // toggle PPU trace
		m.sys.PPUTrace = !m.sys.PPUTrace
		m.status = fmt.Sprintf("PPU trace: %v", m.sys.PPUTrace)

	case "k": // peek memory
		m.prompt = promptPeek
		m.input = ""

	case "o": // poke memory
		m.prompt = promptPokeAddr
		m.input = ""

	case "g": // set PC
		m.prompt = promptSetPC
		m.input = ""

	case "d": // dump nametable 0
		m.ntDump = dumpNametable(m.sys, 0)
		m.status = "dumped nametable 0"
	}
	return m, nil
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.prompt = promptNone
		m.input = ""
		return m, nil

	case "enter":
		return m.commitPrompt()

	case "backspace":
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
		return m, nil

	default:
		if len(msg.Runes) == 1 {
			m.input += string(msg.Runes)
		}
		return m, nil
	}
}

func (m Model) commitPrompt() (tea.Model, tea.Cmd) {
	defer func() { m.input = "" }()

	switch m.prompt {
	case promptPeek:
		addr, err := parseHex16(m.input)
		if err != nil {
			m.status = err.Error()
		} else {
			m.status = fmt.Sprintf("peek 0x%04X = 0x%02X", addr, m.sys.Bus().Peek(addr))
		}
		m.prompt = promptNone

	case promptPokeAddr:
		addr, err := parseHex16(m.input)
		if err != nil {
			m.status = err.Error()
			m.prompt = promptNone
		} else {
			m.pokeAddr = addr
			m.prompt = promptPokeValue
			m.input = ""
		}

	case promptPokeValue:
		val, err := parseHex8(m.input)
		if err != nil {
			m.status = err.Error()
		} else {
			m.sys.Bus().Write(m.pokeAddr, val)
			m.status = fmt.Sprintf("poke 0x%04X = 0x%02X", m.pokeAddr, val)
		}
		m.prompt = promptNone

	case promptSetPC:
		addr, err := parseHex16(m.input)
		if err != nil {
			m.status = err.Error()
		} else {
			m.sys.CPU.PC = addr
			m.status = fmt.Sprintf("PC set to 0x%04X", addr)
		}
		m.prompt = promptNone

	case promptTicks:
		n, err := strconv.ParseUint(m.input, 10, 64)
		if err != nil {
			m.status = "not a number: " + m.input
		} else if err := m.sys.RunTicks(n); err != nil {
			m.status = fmt.Sprintf("halted: %v", err)
		} else {
			m.status = fmt.Sprintf("advanced %d master ticks", n)
		}
		m.prompt = promptNone
	}
	return m, nil
}

func parseHex16(s string) (uint16, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 16)
	if err != nil {
		return 0, fmt.Errorf("not a hex address: %s", s)
	}
	return uint16(v), nil
}

func parseHex8(s string) (uint8, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 8)
	if err != nil {
		return 0, fmt.Errorf("not a hex byte: %s", s)
	}
	return uint8(v), nil
}

// dumpNametable renders a 32x30 grid of tile IDs from the given
// nametable slot as hex.
func dumpNametable(sys *system.System, table int) string {
	nt := sys.PPU().Nametable(table)
	var b strings.Builder
	for row := 0; row < 30; row++ {
		for col := 0; col < 32; col++ {
			fmt.Fprintf(&b, "%02X ", nt[row*32+col])
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderCPUTrace renders the retired-instruction ring buffer, most
// recent last.
func renderCPUTrace(sys *system.System) string {
	entries := sys.CPU.Trace()
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.String())
		b.WriteString("\n")
	}
	return b.String()
}

// renderPPUTrace renders the PPU register-write ring buffer, most
// recent last.
func renderPPUTrace(sys *system.System) string {
	entries := sys.PPU().WriteTrace()
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.String())
		b.WriteString("\n")
	}
	return b.String()
}

var promptLabel = map[prompt]string{
	promptPeek:      "peek address (hex): ",
	promptPokeAddr:  "poke address (hex): ",
	promptPokeValue: "poke value (hex): ",
	promptSetPC:     "set PC to (hex): ",
	promptTicks:     "advance N master ticks: ",
}

func (m Model) View() string {
	header := lipgloss.NewStyle().Bold(true).Render("nesgo diagnostic console")

	keys := "[s]tep  [a]uto  [f]rame  [n]ticks  [r]eset  [c]pu-trace  [p]pu-trace  pee[k]  p[o]ke  [g]oto-pc  [d]ump-nt  [q]uit"

	cpuView := m.sys.CPU.String()
	ppuView := m.sys.PPU().Status()

	var promptLine string
	if m.prompt != promptNone {
		promptLine = promptLabel[m.prompt] + m.input + "_"
	}

	sections := []string{header, keys, "", cpuView, ppuView, "", m.status}
	if promptLine != "" {
		sections = append(sections, "", promptLine)
	}
	if m.ntDump != "" {
		sections = append(sections, "", "nametable 0:\n"+m.ntDump)
	}
	if m.sys.CPUTrace {
		sections = append(sections, "", "CPU trace:\n"+renderCPUTrace(m.sys))
	}
	if m.sys.PPUTrace {
		sections = append(sections, "", "PPU register writes:\n"+renderPPUTrace(m.sys))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// Run starts the interactive TUI, blocking until the operator quits.
func Run(sys *system.System) error {
	_, err := tea.NewProgram(New(sys)).Run()
	return err
}
