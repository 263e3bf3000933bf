package renderer

import "testing"

func TestHeat(t *testing.T) {
	if c := heat(0); c.A != 0 {
		t.Errorf("empty cell should be transparent, got %+v", c)
	}
	prev := heat(0.01)
	for _, v := range []float32{0.3, 0.6, 0.9, 1} {
		c := heat(v)
		if c.A <= prev.A {
			t.Errorf("alpha should grow with density: %v -> %d, previous %d", v, c.A, prev.A)
		}
		prev = c
	}
	if c := heat(1); c.R != 255 || c.G != 255 || c.B != 255 {
		t.Errorf("saturated density should be white, got %+v", c)
	}
}
