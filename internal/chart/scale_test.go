package chart

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

func TestBandScale(t *testing.T) {
	b := NewBandScale([]string{"A", "B", "A"}, 0, 800, 0.1)

	assert.Equal(t, []string{"A", "B"}, b.Domain(), "duplicates collapse, order kept")
	assert.InDelta(t, 342.857, b.Bandwidth(), 0.001)
	assert.InDelta(t, 38.095, b.Pos("A"), 0.001)
	assert.InDelta(t, 419.048, b.Pos("B"), 0.001)
	assert.True(t, math.IsNaN(b.Pos("C")))
}

func TestBandScaleSingle(t *testing.T) {
	b := NewBandScale([]string{"Only"}, 0, 800, 0.1)
	assert.InDelta(t, 654.545, b.Bandwidth(), 0.001)
	// centred: equal space either side
	assert.InDelta(t, 800-b.Pos("Only")-b.Bandwidth(), b.Pos("Only"), 0.001)
}

func TestLinearScale(t *testing.T) {
	y := LinearScale{D0: 0, D1: 90, R0: 260, R1: 0}
	assert.Equal(t, 260.0, y.Map(0))
	assert.Equal(t, 0.0, y.Map(90))
	assert.InDelta(t, 130.0, y.Map(45), 1e-9)

	flat := LinearScale{D0: 0, D1: 0, R0: 260, R1: 0}
	assert.Equal(t, 260.0, flat.Map(0), "zero-width domain maps to the baseline")
}

func TestLinearScaleTicks(t *testing.T) {
	tests := []struct {
		name string
		hi   float64
		want []float64
	}{
		{"tens", 90, []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90}},
		{"twenties", 175, []float64{0, 20, 40, 60, 80, 100, 120, 140, 160}},
		{"fractions", 0.5, []float64{0, 0.05, 0.1, 0.15, 0.2, 0.25, 0.3, 0.35, 0.4, 0.45, 0.5}},
		{"flat", 0, []float64{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LinearScale{D0: 0, D1: tt.hi, R0: 100, R1: 0}.Ticks(10)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestColorScale(t *testing.T) {
	cs := NewColorScale(60, 90, 70, [3]string{"#ffcccc", "#ff6666", "#ff0000"})
	assert.Equal(t, [3]float64{60, 90, 90}, cs.Breaks, "top break lifted to mid")

	assert.Equal(t, "#ffcccc", Hex(cs.Color(60)))
	assert.Equal(t, "#ffffff", Hex(cs.Color(10)), "extrapolates below low, saturating")
	assert.Equal(t, "#ffaaaa", Hex(cs.Color(70)))
	assert.Equal(t, "#ff0000", Hex(cs.Color(90)), "mid and top coincide")
	assert.Equal(t, "#ff8888", Hex(cs.Color(80)))
	assert.Equal(t, "#ff0000", Hex(cs.Color(500)), "clamped above")
	assert.Equal(t, "none", Hex(cs.Color(math.NaN())))

	wide := NewColorScale(60, 90, 120, [3]string{"#ffcccc", "#ff6666", "#ff0000"})
	assert.Equal(t, "#ff3333", Hex(wide.Color(105)))
}

func TestColorScaleBelowLow(t *testing.T) {
	year := NewColorScale(60, 90, 84.6, [3]string{"#ffcccc", "#ff6666", "#ff0000"})
	assert.Equal(t, "#ffe6e6", Hex(year.Color(52.5)))

	u5mr := NewColorScale(70, 99, 114.2, [3]string{"#cce5ff", "#4d94ff", "#0066ff"})
	assert.Equal(t, "#ffffff", Hex(u5mr.Color(2.5)))
	assert.Equal(t, "#8dbdff", Hex(u5mr.Color(84.5)))
}

func TestColorScaleTies(t *testing.T) {
	cs := NewColorScale(70, 99, 120, [3]string{"#cce5ff", "#4d94ff", "#0066ff"})
	assert.Equal(t, cs.Color(88.5), cs.Color(88.5))
	assert.Equal(t, drawing.ColorFromHex("0066ff"), cs.Color(120))
}
