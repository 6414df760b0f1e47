package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

const (
	FieldCountry = "Country"
	FieldCode    = "Code"
)

// Record is one country row as served by /get_data.
// Metric fields live in Values; a field that is present but not numeric holds NaN.
type Record struct {
	Country string
	Code    string
	Values  map[string]float64

	hasCountry bool
	hasCode    bool
}

func NewRecord(country, code string, values map[string]float64) Record {
	if values == nil {
		values = map[string]float64{}
	}
	return Record{Country: country, Code: code, Values: values, hasCountry: true, hasCode: true}
}

func (r Record) Has(field string) bool {
	switch field {
	case FieldCountry:
		return r.hasCountry || r.Country != ""
	case FieldCode:
		return r.hasCode || r.Code != ""
	}
	_, ok := r.Values[field]
	return ok
}

// Value returns the metric value for field, NaN when absent or non-numeric.
func (r Record) Value(field string) float64 {
	v, ok := r.Values[field]
	if !ok {
		return math.NaN()
	}
	return v
}

// SetField assigns a raw cell value by column name. Used by the tabular loaders.
func (r *Record) SetField(name, raw string) {
	switch name {
	case FieldCountry:
		r.Country = raw
		r.hasCountry = true
	case FieldCode:
		r.Code = raw
		r.hasCode = true
	default:
		if r.Values == nil {
			r.Values = map[string]float64{}
		}
		r.Values[name] = ParseNumber(raw)
	}
}

// ParseNumber parses a numeric cell, NaN on anything else including "Inf" and "NaN".
func ParseNumber(raw string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return math.NaN()
	}
	return finite(f)
}

func finite(f float64) float64 {
	if math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}

func (r *Record) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("record: expected object, got %s", string(b))
	}

	*r = Record{Values: make(map[string]float64, len(raw))}
	for k, v := range raw {
		switch k {
		case FieldCountry:
			if v != nil {
				r.Country = fmt.Sprint(v)
			}
			r.hasCountry = true
		case FieldCode:
			if v != nil {
				r.Code = fmt.Sprint(v)
			}
			r.hasCode = true
		default:
			r.Values[k] = toNumber(v)
		}
	}
	return nil
}

func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Values)+2)
	if r.Has(FieldCountry) {
		out[FieldCountry] = r.Country
	}
	if r.Has(FieldCode) {
		out[FieldCode] = r.Code
	}
	for k, v := range r.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out[k] = nil
			continue
		}
		out[k] = v
	}
	return json.Marshal(out)
}

func toNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		return finite(n)
	case json.Number:
		return ParseNumber(n.String())
	case string:
		return ParseNumber(n)
	default:
		return math.NaN()
	}
}

type Metric struct {
	Field string
	Label string
	Short string
	Low   float64
	Mid   float64
	Ramp  [3]string
}

// Mode is the pair of metrics a chart draws side by side.
type Mode struct {
	Name   string
	First  Metric
	Second Metric
}

func (m Mode) Metrics() []Metric { return []Metric{m.First, m.Second} }

func (m Mode) Required() []string {
	return []string{FieldCountry, m.First.Field, m.Second.Field}
}

func (m Mode) Accepts(r Record) bool {
	for _, f := range m.Required() {
		if !r.Has(f) {
			return false
		}
	}
	return true
}

var (
	redRamp  = [3]string{"#ffcccc", "#ff6666", "#ff0000"}
	blueRamp = [3]string{"#cce5ff", "#4d94ff", "#0066ff"}

	MortalityMode = Mode{
		Name:   "mortality",
		First:  Metric{Field: "Year", Label: "Year", Short: "Y", Low: 60, Mid: 90, Ramp: redRamp},
		Second: Metric{Field: "Underfive_mortality_rate", Label: "Underfive_mortality_rate", Short: "U5MR", Low: 70, Mid: 99, Ramp: blueRamp},
	}
	GenderMode = Mode{
		Name:   "gender",
		First:  Metric{Field: "males", Label: "males", Short: "M", Low: 40, Mid: 70, Ramp: blueRamp},
		Second: Metric{Field: "females", Label: "females", Short: "F", Low: 40, Mid: 70, Ramp: redRamp},
	}
)

var Modes = []Mode{MortalityMode, GenderMode}

// DetectMode picks the first known mode whose fields r carries.
func DetectMode(r Record) (Mode, bool) {
	for _, m := range Modes {
		if m.Accepts(r) {
			return m, true
		}
	}
	return Mode{}, false
}

// ModeByName resolves a configured mode name; empty means auto-detect.
func ModeByName(name string) (Mode, bool) {
	for _, m := range Modes {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return Mode{}, false
}

type MetricSummary struct {
	Field  string  `json:"field"`
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

type Summary struct {
	Mode      string          `json:"mode"`
	Countries int             `json:"countries"`
	Records   int             `json:"records"`
	Metrics   []MetricSummary `json:"metrics"`
}
