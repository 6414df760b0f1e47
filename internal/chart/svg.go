package chart

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"math"
	"strconv"
)

//go:embed templates/chart.svg.tmpl
var templateFS embed.FS

var svgTemplate = template.Must(template.New("chart.svg.tmpl").Funcs(template.FuncMap{
	"num":   formatNum,
	"value": formatValue,
	"neg":   func(v float64) float64 { return -v },
	"half":  func(v float64) float64 { return v / 2 },
}).ParseFS(templateFS, "templates/chart.svg.tmpl"))

// WriteSVG writes c as a standalone SVG document.
func (c *Chart) WriteSVG(w io.Writer) error {
	return svgTemplate.Execute(w, c)
}

// SVG renders c for inlining in an HTML page.
func (c *Chart) SVG() (template.HTML, error) {
	var buf bytes.Buffer
	if err := c.WriteSVG(&buf); err != nil {
		return "", err
	}
	// produced by html/template, already escaped
	return template.HTML(buf.String()), nil
}

func formatNum(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
