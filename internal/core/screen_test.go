package core

import (
	"strings"
	"testing"
)

func TestNewScreen(t *testing.T) {
	s := NewScreen(80, 24)

	if s.Width() != 80 || s.Height() != 24 {
		t.Fatalf("NewScreen size = %dx%d, want 80x24", s.Width(), s.Height())
	}

	for y := 0; y < s.Height(); y++ {
		for x := 0; x < s.Width(); x++ {
			if c := s.GetCell(x, y); c != blankCell {
				t.Fatalf("new screen cell (%d, %d) = %+v, want blank", x, y, c)
			}
		}
	}
}

func TestScreenSetGet(t *testing.T) {
	s := NewScreen(10, 10)

	s.Set(5, 5, 'X')
	if s.Get(5, 5) != 'X' {
		t.Errorf("Get(5, 5) = %q, want 'X'", s.Get(5, 5))
	}

	// Out of bounds writes are dropped
	s.Set(-1, 0, 'A')
	s.Set(100, 0, 'A')
	s.Set(0, -1, 'A')
	s.Set(0, 100, 'A')

	if s.Get(-1, 0) != ' ' || s.Get(100, 0) != ' ' {
		t.Error("out of bounds Get should return space")
	}
}

func TestScreenPenColor(t *testing.T) {
	s := NewScreen(10, 3)

	s.SetPen(ColorYellow)
	s.DrawText(0, 0, "ab")
	s.SetPen(ColorDefault)
	s.DrawText(2, 0, "c")

	if got := s.GetCell(0, 0); got.Color != ColorYellow || got.Rune != 'a' {
		t.Errorf("GetCell(0, 0) = %+v, want yellow 'a'", got)
	}
	if got := s.GetCell(2, 0); got.Color != ColorDefault {
		t.Errorf("GetCell(2, 0).Color = %v, want default", got.Color)
	}

	s.DrawTextColor(0, 1, "hi", ColorRed)
	if got := s.GetCell(1, 1); got.Color != ColorRed || got.Rune != 'i' {
		t.Errorf("GetCell(1, 1) = %+v, want red 'i'", got)
	}

	s.Clear()
	s.Set(0, 2, 'z')
	if got := s.GetCell(0, 2).Color; got != ColorDefault {
		t.Errorf("Clear should reset the pen, got %v", got)
	}
}

func TestScreenClearAndFill(t *testing.T) {
	s := NewScreen(5, 5)
	s.Fill('#')

	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			if s.Get(x, y) != '#' {
				t.Fatalf("after Fill, (%d, %d) = %q", x, y, s.Get(x, y))
			}
		}
	}

	s.Clear()
	if strings.TrimSpace(s.String()) != "" {
		t.Errorf("after Clear, screen = %q, want blank", s.String())
	}
}

func TestScreenDrawText(t *testing.T) {
	s := NewScreen(20, 5)
	s.DrawText(2, 1, "Hello")

	if got := s.Row(1)[2:7]; got != "Hello" {
		t.Errorf("DrawText wrote %q, want Hello", got)
	}

	// Clipped at the right edge
	s.DrawText(18, 0, "Hello")
	if s.Get(18, 0) != 'H' || s.Get(19, 0) != 'e' {
		t.Error("text should be clipped at right boundary")
	}
}

func TestScreenDrawTextCentered(t *testing.T) {
	s := NewScreen(20, 5)
	s.DrawTextCentered(2, "Hi")

	x := (20 - 2) / 2
	if s.Get(x, 2) != 'H' || s.Get(x+1, 2) != 'i' {
		t.Errorf("DrawTextCentered: row = %q", s.Row(2))
	}
}

func TestScreenDrawRect(t *testing.T) {
	s := NewScreen(10, 10)
	s.DrawRect(NewRect(2, 2, 3, 3), '#')

	for y := 2; y < 5; y++ {
		for x := 2; x < 5; x++ {
			if s.Get(x, y) != '#' {
				t.Errorf("DrawRect: (%d, %d) = %q, want '#'", x, y, s.Get(x, y))
			}
		}
	}
	if s.Get(1, 1) != ' ' || s.Get(5, 5) != ' ' {
		t.Error("DrawRect should not touch cells outside the rect")
	}
}

func TestScreenDrawBox(t *testing.T) {
	s := NewScreen(10, 10)
	s.DrawBox(NewRect(1, 1, 5, 4))

	corners := map[[2]int]rune{
		{1, 1}: '┌',
		{5, 1}: '┐',
		{1, 4}: '└',
		{5, 4}: '┘',
	}
	for pos, want := range corners {
		if got := s.Get(pos[0], pos[1]); got != want {
			t.Errorf("corner %v = %q, want %q", pos, got, want)
		}
	}

	for x := 2; x < 5; x++ {
		if s.Get(x, 1) != '─' || s.Get(x, 4) != '─' {
			t.Errorf("horizontal edge missing at x=%d", x)
		}
	}
	for y := 2; y < 4; y++ {
		if s.Get(1, y) != '│' || s.Get(5, y) != '│' {
			t.Errorf("vertical edge missing at y=%d", y)
		}
	}
}

func TestScreenString(t *testing.T) {
	s := NewScreen(5, 3)
	s.DrawText(0, 0, "AAAAA")
	s.DrawText(0, 1, "BBBBB")
	s.DrawText(0, 2, "CCCCC")

	if got, want := s.String(), "AAAAA\nBBBBB\nCCCCC"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestScreenResize(t *testing.T) {
	s := NewScreen(10, 10)
	s.SetPen(ColorGreen)
	s.DrawText(0, 0, "Hello")

	s.Resize(8, 4)
	if s.Width() != 8 || s.Height() != 4 {
		t.Fatalf("after resize, size = %dx%d, want 8x4", s.Width(), s.Height())
	}
	if !strings.HasPrefix(s.Row(0), "Hello") {
		t.Errorf("content should be preserved, row 0 = %q", s.Row(0))
	}

	s.Resize(15, 8)
	if !strings.HasPrefix(s.Row(0), "Hello") {
		t.Errorf("content should survive enlarging, row 0 = %q", s.Row(0))
	}
	if s.GetCell(0, 0).Color != ColorGreen {
		t.Error("resize should keep cell colours")
	}
}

func TestScreenRow(t *testing.T) {
	s := NewScreen(10, 5)
	s.DrawText(0, 2, "Test")

	row := s.Row(2)
	if !strings.HasPrefix(row, "Test") || len(row) != 10 {
		t.Errorf("Row(2) = %q", row)
	}
	if got := s.Row(-1); got != "          " {
		t.Errorf("out of bounds row = %q, want spaces", got)
	}
}
