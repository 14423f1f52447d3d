// Command nesgo loads an iNES ROM and runs it, either in an ebiten
// window or, with -diag, in a bubbletea-based diagnostic console.
package main

import (
	"flag"
	"image/color"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/nesgo/nesgo/cartridge"
	"github.com/nesgo/nesgo/controller"
	"github.com/nesgo/nesgo/diag"
	"github.com/nesgo/nesgo/ppu"
	"github.com/nesgo/nesgo/system"
)

var (
	romFile  = flag.String("nes_rom", "", "Path to the NES ROM to run.")
	diagMode = flag.Bool("diag", false, "Launch the diagnostic console instead of the video window.")
)

// ebitenButtons polls ebiten's keyboard state for controller 1: arrow
// keys for the d-pad, X/Z for A/B, Enter for Start, left-shift for
// Select.
type ebitenButtons struct{}

func (ebitenButtons) ButtonState() uint8 {
	var s uint8
	if ebiten.IsKeyPressed(ebiten.KeyX) {
		s |= controller.ButtonA
	}
	if ebiten.IsKeyPressed(ebiten.KeyZ) {
		s |= controller.ButtonB
	}
	if ebiten.IsKeyPressed(ebiten.KeyShiftLeft) {
		s |= controller.ButtonSelect
	}
	if ebiten.IsKeyPressed(ebiten.KeyEnter) {
		s |= controller.ButtonStart
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		s |= controller.ButtonUp
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		s |= controller.ButtonDown
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		s |= controller.ButtonLeft
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		s |= controller.ButtonRight
	}
	return s
}

// noButtons is controller 2's input source; this build has no second
// controller binding.
type noButtons struct{}

func (noButtons) ButtonState() uint8 { return 0 }

// game adapts a System to the ebiten.Game interface: Update advances
// exactly one frame of emulation, Draw blits the PPU's frame buffer.
type game struct {
	sys *system.System
}

func (g *game) Update() error {
	return g.sys.RunFrame()
}

func (g *game) Draw(screen *ebiten.Image) {
	fb := g.sys.PPU().FrameBuffer
	w, h := ppu.Resolution()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px := fb[y*w+x]
			screen.Set(x, y, color.RGBA{
				R: uint8(px >> 16),
				G: uint8(px >> 8),
				B: uint8(px),
				A: 0xFF,
			})
		}
	}
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return ppu.Resolution()
}

func main() {
	flag.Parse()

	cart, err := cartridge.Load(*romFile)
	if err != nil {
		log.Printf("couldn't load cartridge: %v", err)
		os.Exit(1)
	}

	sys := system.New(cart, ebitenButtons{}, noButtons{})

	if *diagMode {
		if err := diag.Run(sys); err != nil {
			log.Printf("diagnostic console error: %v", err)
			os.Exit(1)
		}
		if sys.CPU.Halted {
			log.Printf("emulation halted: %v", sys.CPU.Err)
			os.Exit(1)
		}
		return
	}

	w, h := ppu.Resolution()
	ebiten.SetWindowSize(w*2, h*2)
	ebiten.SetWindowTitle("nesgo")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(&game{sys: sys}); err != nil {
		log.Printf("emulation halted: %v", err)
		os.Exit(1)
	}
}
