package chart

import (
	"errors"
	"fmt"
	"math"
	"net/url"

	"github.com/montanaflynn/stats"
	"github.com/rs/zerolog/log"

	"heatmap/internal/models"
)

var (
	ErrEmpty         = errors.New("chart: no records to draw")
	ErrMissingFields = errors.New("chart: records lack required fields")
)

const (
	bandPadding = 0.1
	yTickCount  = 10
	yAxisLabel  = "Scale"
)

type Margin struct {
	Top, Right, Bottom, Left float64
}

type Options struct {
	Width  float64
	Height float64
	Margin Margin
	// Mode pins the metric pair; nil detects it from the first record.
	Mode *models.Mode
	// Link builds the click target for a country.
	Link func(country string) string
}

func DefaultOptions() Options {
	return Options{
		Width:  900,
		Height: 400,
		Margin: Margin{Top: 80, Right: 50, Bottom: 60, Left: 50},
		Link:   CountryLink,
	}
}

// CountryLink is the default click target for a bar or label.
func CountryLink(country string) string {
	return "/country/" + url.PathEscape(country)
}

type Bar struct {
	Country string
	Metric  string
	Class   string
	Value   float64
	X, Y    float64
	W, H    float64
	Fill    string
	Href    string
	Missing bool
}

type Tick struct {
	Value float64
	Pos   float64
	Label string
}

type LegendEntry struct {
	Label string
	Color string
	X, Y  float64
}

type Label struct {
	Country string
	X, Y    float64
	Href    string
}

// Chart is a fully laid out dual-series bar chart.
// Coordinates of bars, ticks and labels are relative to the plot area.
type Chart struct {
	Width, Height float64
	Margin        Margin
	InnerWidth    float64
	InnerHeight   float64
	Mode          models.Mode
	Subset        bool

	Categories []string
	Bandwidth  float64
	YDomain    [2]float64

	Bars   []Bar
	XTicks []Tick
	YTicks []Tick
	YLabel string
	Legend []LegendEntry
	Labels []Label
}

// Renderer lays out charts with fixed options.
type Renderer struct {
	opts Options
}

func NewRenderer(opts Options) *Renderer {
	if opts.Link == nil {
		opts.Link = CountryLink
	}
	return &Renderer{opts: opts}
}

// Render lays out records. subset adds clickable country labels under the bars.
// Only the first record is checked for the required fields.
func (r *Renderer) Render(records []models.Record, subset bool) (*Chart, error) {
	if len(records) == 0 {
		return nil, ErrEmpty
	}

	mode, err := r.resolveMode(records[0])
	if err != nil {
		return nil, fmt.Errorf("first record %q: %w", records[0].Country, err)
	}

	o := r.opts
	c := &Chart{
		Width:       o.Width,
		Height:      o.Height,
		Margin:      o.Margin,
		InnerWidth:  o.Width - o.Margin.Left - o.Margin.Right,
		InnerHeight: o.Height - o.Margin.Top - o.Margin.Bottom,
		Mode:        mode,
		Subset:      subset,
		YLabel:      yAxisLabel,
	}

	// one pair per distinct country, first occurrence wins
	seen := make(map[string]struct{}, len(records))
	rows := make([]models.Record, 0, len(records))
	for _, rec := range records {
		if _, ok := seen[rec.Country]; ok {
			continue
		}
		seen[rec.Country] = struct{}{}
		rows = append(rows, rec)
		c.Categories = append(c.Categories, rec.Country)
	}

	x := NewBandScale(c.Categories, 0, c.InnerWidth, bandPadding)
	c.Bandwidth = x.Bandwidth()

	c.YDomain = [2]float64{0, domainMax(records, mode)}
	y := LinearScale{D0: 0, D1: c.YDomain[1], R0: c.InnerHeight, R1: 0}

	first := NewColorScale(mode.First.Low, mode.First.Mid, metricMax(records, mode.First.Field), mode.First.Ramp)
	second := NewColorScale(mode.Second.Low, mode.Second.Mid, metricMax(records, mode.Second.Field), mode.Second.Ramp)

	third := c.Bandwidth / 3
	for _, rec := range rows {
		x0 := x.Pos(rec.Country)
		href := o.Link(rec.Country)
		c.Bars = append(c.Bars,
			makeBar(rec, mode.First, first, y, c.InnerHeight, x0, third, href),
			makeBar(rec, mode.Second, second, y, c.InnerHeight, x0+c.Bandwidth*2/3, third, href),
		)
	}

	for _, cat := range c.Categories {
		c.XTicks = append(c.XTicks, Tick{Label: cat, Pos: x.Pos(cat) + c.Bandwidth/2})
	}
	for _, v := range y.Ticks(yTickCount) {
		c.YTicks = append(c.YTicks, Tick{Value: v, Pos: y.Map(v), Label: formatTick(v)})
	}

	if subset {
		for _, cat := range c.Categories {
			c.Labels = append(c.Labels, Label{
				Country: cat,
				X:       x.Pos(cat) + c.Bandwidth/2,
				Y:       c.InnerHeight + o.Margin.Bottom - 8,
				Href:    o.Link(cat),
			})
		}
	}

	c.Legend = []LegendEntry{
		{Label: mode.First.Label, Color: mode.First.Ramp[2], X: 8, Y: 4},
		{Label: mode.Second.Label, Color: mode.Second.Ramp[2], X: 8, Y: 23},
	}

	log.Debug().
		Str("mode", mode.Name).
		Int("categories", len(c.Categories)).
		Bool("subset", subset).
		Float64("ymax", c.YDomain[1]).
		Msg("chart rendered")
	return c, nil
}

func (r *Renderer) resolveMode(first models.Record) (models.Mode, error) {
	if r.opts.Mode != nil {
		if !r.opts.Mode.Accepts(first) {
			return models.Mode{}, fmt.Errorf("%w: need %v", ErrMissingFields, r.opts.Mode.Required())
		}
		return *r.opts.Mode, nil
	}
	mode, ok := models.DetectMode(first)
	if !ok {
		return models.Mode{}, ErrMissingFields
	}
	return mode, nil
}

func makeBar(rec models.Record, m models.Metric, cs ColorScale, y LinearScale, base, x, w float64, href string) Bar {
	v := rec.Value(m.Field)
	b := Bar{
		Country: rec.Country,
		Metric:  m.Field,
		Class:   "bar-" + m.Field,
		Value:   v,
		X:       x,
		W:       w,
		Href:    href,
	}
	if math.IsNaN(v) {
		b.Missing = true
		b.Class = "bar-missing"
		b.Y = base
		b.Fill = "none"
		return b
	}
	b.Y = y.Map(v)
	b.H = base - b.Y
	b.Fill = Hex(cs.Color(v))
	return b
}

// domainMax is the largest numeric value of either metric.
func domainMax(records []models.Record, mode models.Mode) float64 {
	a := metricMax(records, mode.First.Field)
	b := metricMax(records, mode.Second.Field)
	switch {
	case math.IsNaN(a) && math.IsNaN(b):
		return 0
	case math.IsNaN(a):
		return b
	case math.IsNaN(b):
		return a
	}
	return math.Max(a, b)
}

// metricMax returns NaN when no record has a numeric value for field.
func metricMax(records []models.Record, field string) float64 {
	values := make(stats.Float64Data, 0, len(records))
	for _, r := range records {
		if v := r.Value(field); !math.IsNaN(v) {
			values = append(values, v)
		}
	}
	max, err := values.Max()
	if err != nil {
		return math.NaN()
	}
	return max
}

func formatTick(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%g", v)
}
