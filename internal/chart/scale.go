package chart

import (
	"fmt"
	"math"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

type BandScale struct {
	domain    []string
	index     map[string]int
	start     float64
	step      float64
	bandwidth float64
}

// NewBandScale builds a band scale over the distinct values of domain, in order.
// Inner and outer padding are both padding; bands are centred (align 0.5).
func NewBandScale(domain []string, r0, r1, padding float64) *BandScale {
	b := &BandScale{index: make(map[string]int, len(domain))}
	for _, d := range domain {
		if _, ok := b.index[d]; ok {
			continue
		}
		b.index[d] = len(b.domain)
		b.domain = append(b.domain, d)
	}

	n := float64(len(b.domain))
	b.step = (r1 - r0) / math.Max(1, n-padding+padding*2)
	b.start = r0 + (r1-r0-b.step*(n-padding))*0.5
	b.bandwidth = b.step * (1 - padding)
	return b
}

func (b *BandScale) Domain() []string { return b.domain }

func (b *BandScale) Bandwidth() float64 { return b.bandwidth }

// Pos returns the start of the band for category, or NaN if it is unknown.
func (b *BandScale) Pos(category string) float64 {
	i, ok := b.index[category]
	if !ok {
		return math.NaN()
	}
	return b.start + b.step*float64(i)
}

// LinearScale maps [d0,d1] onto [r0,r1] without clamping.
type LinearScale struct {
	D0, D1 float64
	R0, R1 float64
}

// Map returns the range value for v. A zero-width domain maps to R0 (the baseline).
func (s LinearScale) Map(v float64) float64 {
	if s.D1 == s.D0 {
		return s.R0
	}
	return s.R0 + (v-s.D0)/(s.D1-s.D0)*(s.R1-s.R0)
}

func (s LinearScale) Ticks(count int) []float64 {
	lo, hi := s.D0, s.D1
	if lo > hi {
		lo, hi = hi, lo
	}
	if count <= 0 || math.IsNaN(lo) || math.IsNaN(hi) {
		return nil
	}
	if lo == hi {
		return []float64{lo}
	}

	step := tickStep(lo, hi, count)
	var out []float64
	if step >= 1 {
		for i := math.Ceil(lo / step); i <= math.Floor(hi/step); i++ {
			out = append(out, i*step)
		}
		return out
	}
	// divide by the inverse step so fractional ticks stay round
	inv := math.Round(1 / step)
	first, last := math.Round(lo*inv), math.Round(hi*inv)
	if first/inv < lo {
		first++
	}
	if last/inv > hi {
		last--
	}
	for i := first; i <= last; i++ {
		out = append(out, i/inv)
	}
	return out
}

func tickStep(lo, hi float64, count int) float64 {
	raw := (hi - lo) / float64(count)
	power := math.Floor(math.Log10(raw))
	base := math.Pow(10, power)
	switch err := raw / base; {
	case err >= math.Sqrt(50):
		base *= 10
	case err >= math.Sqrt(10):
		base *= 5
	case err >= math.Sqrt(2):
		base *= 2
	}
	return base
}

// ColorScale interpolates a value through three breakpoints onto three colours.
// Values below the low break extrapolate along the first segment; channels
// saturate at 0 and 255.
type ColorScale struct {
	Breaks [3]float64
	Colors [3]drawing.Color
}

// NewColorScale parses ramp hex colours. The top break never sits below mid.
func NewColorScale(low, mid, high float64, ramp [3]string) ColorScale {
	if math.IsNaN(high) || high < mid {
		high = mid
	}
	cs := ColorScale{Breaks: [3]float64{low, mid, high}}
	for i, hex := range ramp {
		cs.Colors[i] = drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
	}
	return cs
}

func (cs ColorScale) Color(v float64) drawing.Color {
	if math.IsNaN(v) {
		return drawing.ColorTransparent
	}
	b := cs.Breaks
	switch {
	case v >= b[2]:
		return cs.Colors[2]
	case v <= b[1]:
		return lerpColor(cs.Colors[0], cs.Colors[1], fraction(v, b[0], b[1]))
	default:
		return lerpColor(cs.Colors[1], cs.Colors[2], fraction(v, b[1], b[2]))
	}
}

func fraction(v, lo, hi float64) float64 {
	if hi == lo {
		return 1
	}
	return (v - lo) / (hi - lo)
}

func lerpColor(a, b drawing.Color, t float64) drawing.Color {
	ch := func(x, y uint8) uint8 {
		v := math.Round(float64(x) + (float64(y)-float64(x))*t)
		return uint8(math.Max(0, math.Min(255, v)))
	}
	return drawing.Color{R: ch(a.R, b.R), G: ch(a.G, b.G), B: ch(a.B, b.B), A: ch(a.A, b.A)}
}

func Hex(c drawing.Color) string {
	if c.A == 0 {
		return "none"
	}
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
