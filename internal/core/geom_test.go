package core

import "testing"

func TestRectContains(t *testing.T) {
	r := NewRect(10, 10, 5, 5)

	tests := []struct {
		x, y int
		want bool
	}{
		{10, 10, true},
		{14, 14, true},
		{12, 12, true},
		{15, 10, false},
		{10, 15, false},
		{9, 10, false},
	}

	for _, tt := range tests {
		if got := r.Contains(tt.x, tt.y); got != tt.want {
			t.Errorf("Contains(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestRectEdges(t *testing.T) {
	r := NewRect(10, 20, 30, 40)

	if r.Right() != 40 {
		t.Errorf("Right() = %d, want 40", r.Right())
	}
	if r.Bottom() != 60 {
		t.Errorf("Bottom() = %d, want 60", r.Bottom())
	}
	if x, y := r.Center(); x != 25 || y != 40 {
		t.Errorf("Center() = (%d, %d), want (25, 40)", x, y)
	}
}

func TestRectCentered(t *testing.T) {
	outer := NewRect(0, 0, 20, 10)
	inner := outer.Centered(6, 4)

	want := Rect{X: 7, Y: 3, W: 6, H: 4}
	if inner != want {
		t.Errorf("Centered(6, 4) = %+v, want %+v", inner, want)
	}
}

func TestMinMax(t *testing.T) {
	if Min(3, 5) != 3 || Min(5, 3) != 3 {
		t.Error("Min failed")
	}
	if Max(3, 5) != 5 || Max(5, 3) != 5 {
		t.Error("Max failed")
	}
}
