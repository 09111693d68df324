package status_test

import (
	"image/color"
	"testing"

	"golang.org/x/image/colornames"

	"github.com/clktmr/pcebridge/drivers/status"
)

func TestBreathing(t *testing.T) {
	var got []uint8
	a := status.NewAnimation(nil, status.ShiftRegister)
	for i := 0; i < 130; i++ {
		got = append(got, a.Brightness())
		a.Tick()
	}
	for i, b := range got {
		want := uint8(127 - i%64)
		if b != want {
			t.Fatalf("step %d: brightness %d, want %d", i, b, want)
		}
	}
}

func TestColors(t *testing.T) {
	tests := []struct {
		scheme status.Scheme
		want   color.RGBA
	}{
		{status.ShiftRegister, colornames.Yellow},
		{status.ThreeButton, colornames.Cyan},
		{status.SixButton, colornames.Purple},
		{status.None, colornames.Black},
	}
	for _, tc := range tests {
		var shown []color.Color
		a := status.NewAnimation(status.IndicatorFunc(func(c color.Color) {
			shown = append(shown, c)
		}), tc.scheme)
		a.Tick()
		if tc.scheme.Color() != tc.want {
			t.Errorf("%v: got %v, want %v", tc.scheme, tc.scheme.Color(), tc.want)
		}
		if len(shown) != 1 {
			t.Fatalf("%v: %d colors shown, want 1", tc.scheme, len(shown))
		}
		r, g, b, _ := shown[0].RGBA()
		wr, wg, wb, _ := tc.want.RGBA()
		if r > wr/2 || g > wg/2 || b > wb/2 {
			t.Errorf("%v: shown %v brighter than half of %v", tc.scheme, shown[0], tc.want)
		}
	}
}
