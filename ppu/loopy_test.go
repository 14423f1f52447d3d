package ppu

import (
	"testing"
)

func TestLoopyGet(t *testing.T) {
	cases := []struct {
		data                           uint16
		wantCoarseX, wantCoarseY       uint16
		wantNameTableX, wantNameTableY uint16
		wantFineY                      uint16
	}{
		{0b0000_0000_0000_0000, 0, 0, 0, 0, 0},
		{0b0111_1011_1001_1000, 0b11000, 0b11100, 0, 1, 0b111},
		{0b0011_0111_1001_0111, 0b10111, 0b11100, 1, 0, 0b011},
		{0b0011_1111_1001_0111, 0b10111, 0b11100, 1, 1, 0b011},
		{0b0011_0011_1011_0111, 0b10111, 0b11101, 0, 0, 0b011},
		{0b0011_0000_0001_0111, 0b10111, 0, 0, 0, 0b011},
	}

	for i, tc := range cases {
		l := &loopy{tc.data}

		cx, cy, ntx, nty, fy := l.coarseX(), l.coarseY(), l.nametableX(), l.nametableY(), l.fineY()
		if cx != tc.wantCoarseX || cy != tc.wantCoarseY || ntx != tc.wantNameTableX || nty != tc.wantNameTableY || fy != tc.wantFineY {
			t.Errorf("%d: Got %016b, %016b, %016b, %016b, %016b, wanted %016b, %016b, %016b, %016b, %016b", i, cx, cy, ntx, nty, fy, tc.wantCoarseX, tc.wantCoarseY, tc.wantNameTableX, tc.wantNameTableY, tc.wantFineY)
		}
	}
}

func TestLoopySetCoarseX(t *testing.T) {
	cases := []struct {
		data     uint16
		ocx, ncx uint16
	}{
		{0b0000_0000_0000_0000, 0, 0},
		{0b0111_1011_1001_1000, 0b11000, 0b11100},
		{0b0011_0111_1001_0111, 0b10111, 0b11100},
		{0b0011_1111_1001_0111, 0b10111, 0b10000},
		{0b0011_0011_1011_0111, 0b10111, 0b11101},
		{0b0011_0000_0001_0111, 0b10111, 0b00100},
	}

	for i, tc := range cases {
		l := &loopy{tc.data}

		ocx := l.coarseX()
		l.setCoarseX(tc.ncx)
		if got := l.coarseX(); ocx != tc.ocx || got != tc.ncx {
			t.Errorf("%d: Got ocx = %05b, ncx = %05b, wanted %05b, %05b", i, ocx, got, tc.ocx, tc.ncx)
		}
	}
}

func TestLoopyIncrementCoarseX(t *testing.T) {
	cases := []struct {
		data     uint16
		ocx, ncx uint16
		ontx, nntx uint16
	}{
		{0b0000_0000_0000_0000, 0, 1, 0, 0},
		{0b0111_1011_1001_1000, 0b11000, 0b11001, 0, 0},
		{0b0000_0000_0001_1111, 0b11111, 0, 0, 1},
		{0b0000_0100_0001_1111, 0b11111, 0, 1, 0},
	}

	for i, tc := range cases {
		l := &loopy{tc.data}

		ocx := l.coarseX()
		l.incrementCoarseX()
		if got, gnt := l.coarseX(), l.nametableX(); ocx != tc.ocx || got != tc.ncx || gnt != tc.nntx {
			t.Errorf("%d: Got ocx = %05b, ncx = %05b, nt = %01b, wanted %05b, %05b, %01b", i, ocx, got, gnt, tc.ocx, tc.ncx, tc.nntx)
		}
	}
}

func TestLoopySetCoarseY(t *testing.T) {
	cases := []struct {
		data     uint16
		ocy, ncy uint16
	}{
		{0b0000_0000_0000_0000, 0, 0},
		{0b0111_1011_1001_1000, 0b11100, 0b11100},
		{0b0011_0111_1011_0111, 0b11101, 0b10000},
		{0b0011_1111_1111_0111, 0b11111, 0b00000},
		{0b0011_0001_0101_0111, 0b01010, 0b10101},
	}

	for i, tc := range cases {
		l := &loopy{tc.data}

		ocy := l.coarseY()
		l.setCoarseY(tc.ncy)
		if got := l.coarseY(); ocy != tc.ocy || got != tc.ncy {
			t.Errorf("%d: Got ocy = %05b, ncy = %05b, wanted %05b, %05b", i, ocy, got, tc.ocy, tc.ncy)
		}
	}
}

func TestLoopySetFineY(t *testing.T) {
	cases := []struct {
		data     uint16
		ofy, nfy uint16
	}{
		{0b0000_0000_0000_0000, 0, 0},
		{0b0111_1011_1001_1000, 0b111, 0b101},
		{0b0011_0111_1011_0111, 0b011, 0},
		{0b0111_1111_1111_0111, 0b111, 0b010},
	}

	for i, tc := range cases {
		l := &loopy{tc.data}

		ofy := l.fineY()
		l.setFineY(tc.nfy)
		if got := l.fineY(); ofy != tc.ofy || got != tc.nfy {
			t.Errorf("%d: Got ofy = %03b, nfy = %03b, wanted %03b, %03b", i, ofy, got, tc.ofy, tc.nfy)
		}
	}
}

func TestLoopyIncrementFineY(t *testing.T) {
	cases := []struct {
		data           uint16
		ofy, nfy       uint16
		ocy, ncy       uint16
		onty, nnty     uint16
	}{
		{0b0000_0000_0000_0000, 0, 1, 0, 0, 0, 0},
		{0b0110_1011_1001_1000, 0b110, 0b111, 0b11100, 0b11100, 1, 1},
		// fineY==7, coarseY==29 wraps coarseY to 0 and toggles nametable-Y.
		{0b0111_0011_1011_0111, 0b111, 0, 0b11101, 0, 0, 1},
		// fineY==7, coarseY==31 wraps coarseY to 0 without toggling.
		{0b0111_0011_1111_0111, 0b111, 0, 0b11111, 0, 0, 0},
		// fineY==7, coarseY otherwise just increments.
		{0b0111_0001_0101_0111, 0b111, 0, 0b01010, 0b01011, 0, 0},
	}

	for i, tc := range cases {
		l := &loopy{tc.data}

		ofy, ocy, onty := l.fineY(), l.coarseY(), l.nametableY()
		l.incrementFineY()
		fy, cy, nty := l.fineY(), l.coarseY(), l.nametableY()
		if ofy != tc.ofy || ocy != tc.ocy || onty != tc.onty ||
			fy != tc.nfy || cy != tc.ncy || nty != tc.nnty {
			t.Errorf("%d: Got fy=%03b cy=%05b nty=%01b, wanted fy=%03b cy=%05b nty=%01b",
				i, fy, cy, nty, tc.nfy, tc.ncy, tc.nnty)
		}
	}
}

func TestLoopyCopyHorizontalFrom(t *testing.T) {
	l := &loopy{0}
	o := &loopy{0}
	o.setCoarseX(17)
	o.setNametableX(1)

	l.setCoarseX(3)
	l.setNametableX(0)
	l.setCoarseY(5)
	l.setNametableY(1)

	l.copyHorizontalFrom(o)

	if got := l.coarseX(); got != 17 {
		t.Errorf("coarseX = %05b, want %05b", got, 17)
	}
	if got := l.nametableX(); got != 1 {
		t.Errorf("nametableX = %01b, want 1", got)
	}
	// Vertical fields must be untouched.
	if got := l.coarseY(); got != 5 {
		t.Errorf("coarseY = %05b, want %05b (should be untouched)", got, 5)
	}
	if got := l.nametableY(); got != 1 {
		t.Errorf("nametableY = %01b, want 1 (should be untouched)", got)
	}
}

func TestLoopyCopyVerticalFrom(t *testing.T) {
	l := &loopy{0}
	o := &loopy{0}
	o.setCoarseY(21)
	o.setFineY(6)
	o.setNametableY(1)

	l.setCoarseX(9)
	l.setNametableX(1)

	l.copyVerticalFrom(o)

	if got := l.coarseY(); got != 21 {
		t.Errorf("coarseY = %05b, want %05b", got, 21)
	}
	if got := l.fineY(); got != 6 {
		t.Errorf("fineY = %03b, want %03b", got, 6)
	}
	if got := l.nametableY(); got != 1 {
		t.Errorf("nametableY = %01b, want 1", got)
	}
	// Horizontal fields must be untouched.
	if got := l.coarseX(); got != 9 {
		t.Errorf("coarseX = %05b, want %05b (should be untouched)", got, 9)
	}
	if got := l.nametableX(); got != 1 {
		t.Errorf("nametableX = %01b, want 1 (should be untouched)", got)
	}
}
