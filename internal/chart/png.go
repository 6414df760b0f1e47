package chart

import (
	"io"
	"math"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const legendSwatch = 15

// BarChart converts the layout into a go-chart bar chart, keeping bar order,
// per-bar fill and the vertical domain.
func (c *Chart) BarChart() gochart.BarChart {
	bars := make([]gochart.Value, 0, len(c.Bars))
	for i, b := range c.Bars {
		short := c.Mode.First.Short
		if i%2 == 1 {
			short = c.Mode.Second.Short
		}
		fill := drawing.ColorTransparent
		if !b.Missing {
			fill = drawing.ColorFromHex(b.Fill[1:])
		}
		v := b.Value
		if math.IsNaN(v) {
			v = 0
		}
		bars = append(bars, gochart.Value{
			Label: b.Country + " " + short,
			Value: v,
			Style: gochart.Style{
				FillColor:   fill,
				StrokeColor: fill,
				StrokeWidth: 1,
			},
		})
	}

	top := c.YDomain[1]
	if top <= 0 {
		top = 1
	}

	barWidth := int(c.Bandwidth / 3)
	if barWidth < 4 {
		barWidth = 4
	}

	return gochart.BarChart{
		Width:      int(c.Width),
		Height:     int(c.Height),
		BarWidth:   barWidth,
		BarSpacing: barWidth / 2,
		Background: gochart.Style{
			Padding: gochart.Box{
				Top:    int(c.Margin.Top),
				Left:   int(c.Margin.Left),
				Right:  int(c.Margin.Right),
				Bottom: int(c.Margin.Bottom),
			},
		},
		YAxis: gochart.YAxis{
			Name:  c.YLabel,
			Range: &gochart.ContinuousRange{Min: 0, Max: top},
		},
		Bars:     bars,
		Elements: []gochart.Renderable{legendElement(c.Legend)},
	}
}

// legendElement draws the swatches at the same absolute positions as the SVG.
func legendElement(entries []LegendEntry) gochart.Renderable {
	return func(r gochart.Renderer, _ gochart.Box, defaults gochart.Style) {
		for _, e := range entries {
			x, y := int(e.X), int(e.Y)
			fill := drawing.ColorFromHex(strings.TrimPrefix(e.Color, "#"))
			r.SetFillColor(fill)
			r.SetStrokeColor(fill)
			r.SetStrokeWidth(1)
			r.MoveTo(x, y)
			r.LineTo(x+legendSwatch, y)
			r.LineTo(x+legendSwatch, y+legendSwatch)
			r.LineTo(x, y+legendSwatch)
			r.Close()
			r.FillStroke()

			if defaults.Font != nil {
				r.SetFont(defaults.Font)
			}
			r.SetFontColor(drawing.ColorBlack)
			r.SetFontSize(10)
			r.Text(e.Label, x+22, y+12)
		}
	}
}

// WritePNG rasterises the chart with go-chart.
func (c *Chart) WritePNG(w io.Writer) error {
	return c.BarChart().Render(gochart.PNG, w)
}
