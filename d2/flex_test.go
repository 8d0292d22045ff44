package d2

import (
	"math"
	"testing"
)

func spansNear(a, b [][2]float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		for j := range 2 {
			if math.Abs(float64(a[i][j]-b[i][j])) > 1e-4 {
				return false
			}
		}
	}
	return true
}

func TestFlex1D(t *testing.T) {
	tests := []struct {
		name     string
		gap      Unit
		justify  Justify
		template []Unit
		want     [][2]float32
	}{
		{"end with gap", Abs(5), JustifyEnd, []Unit{Abs(10), Pct(50), Abs(15)}, [][2]float32{{15, 25}, {30, 80}, {85, 100}}},
		{"start", Unit{}, JustifyStart, []Unit{Abs(10), Abs(20)}, [][2]float32{{0, 10}, {10, 30}}},
		{"center", Unit{}, JustifyCenter, []Unit{Abs(20)}, [][2]float32{{40, 60}}},
		{"space between", Unit{}, JustifySpaceBetween, []Unit{Abs(10), Abs(10), Abs(10)}, [][2]float32{{0, 10}, {45, 55}, {90, 100}}},
		{"space around", Unit{}, JustifySpaceAround, []Unit{Abs(10), Abs(10)}, [][2]float32{{20, 30}, {70, 80}}},
		{"space evenly", Unit{}, JustifySpaceEvenly, []Unit{Abs(20), Abs(20)}, [][2]float32{{20, 40}, {60, 80}}},
		{"fractions ignore justify", Abs(10), JustifyEnd, []Unit{Fr(1), Fr(3)}, [][2]float32{{0, 22.5}, {32.5, 100}}},
		{"fractional gap", Fr(1), JustifyStart, []Unit{Abs(20), Abs(20)}, [][2]float32{{0, 20}, {80, 100}}},
		{"single span has no gap", Abs(30), JustifyStart, []Unit{Fr(1)}, [][2]float32{{0, 100}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Flex1D(0, 100, tt.gap, tt.justify, tt.template)
			if !spansNear(got, tt.want) {
				t.Errorf("Flex1D = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFlex1DDegenerate(t *testing.T) {
	if got := Flex1D(0, 100, Unit{}, JustifyStart, nil); got != nil {
		t.Errorf("empty template = %v", got)
	}
	if got := Flex1D(100, 0, Unit{}, JustifyStart, []Unit{Fr(1)}); got != nil {
		t.Errorf("inverted range = %v", got)
	}
}

func TestFlex2D(t *testing.T) {
	b := Box(0, 0, 50, 100)
	rows := Flex2D(b, Vertical, Unit{}, JustifyStart, []Unit{Abs(10), Fr(1)})
	if len(rows) != 2 || rows[0] != Box(0, 0, 50, 10) || rows[1] != Box(0, 10, 50, 100) {
		t.Errorf("rows = %v", rows)
	}
	cols := Flex2D(b, Vertical.Flip(), Abs(10), JustifyStart, []Unit{Fr(1), Fr(1)})
	if len(cols) != 2 || cols[0] != Box(0, 0, 20, 100) || cols[1] != Box(30, 0, 50, 100) {
		t.Errorf("columns = %v", cols)
	}
}
