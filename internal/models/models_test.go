package models

import (
	"math"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalRecords(t *testing.T) {
	var records []Record
	require.NoError(t, json.Unmarshal([]byte(`[
		{"Country":"A","Code":"AAA","Year":"70","Underfive_mortality_rate":12.5},
		{"Country":null,"Code":"B","Year":"Inf","Underfive_mortality_rate":true},
		{"Country":"C","Year":"-Infinity","Underfive_mortality_rate":"n/a"}
	]`), &records))
	require.Len(t, records, 3)

	a := records[0]
	assert.Equal(t, "A", a.Country)
	assert.Equal(t, "AAA", a.Code)
	assert.Equal(t, 70.0, a.Value("Year"), "numeric strings are numbers")
	assert.Equal(t, 12.5, a.Value("Underfive_mortality_rate"))

	b := records[1]
	assert.Equal(t, "", b.Country)
	assert.True(t, b.Has(FieldCountry), "null Country is still present")
	assert.True(t, math.IsNaN(b.Value("Year")), "Inf is not a number")
	assert.True(t, math.IsNaN(b.Value("Underfive_mortality_rate")))
	assert.True(t, b.Has("Underfive_mortality_rate"))

	c := records[2]
	assert.False(t, c.Has(FieldCode))
	assert.True(t, math.IsNaN(c.Value("Year")))
	assert.True(t, math.IsNaN(c.Value("males")), "absent field")
	assert.False(t, c.Has("males"))
}

func TestUnmarshalRejectsNonObject(t *testing.T) {
	var records []Record
	assert.Error(t, json.Unmarshal([]byte(`[1]`), &records))
	assert.Error(t, json.Unmarshal([]byte(`["Chad"]`), &records))
}

func TestMarshalRecord(t *testing.T) {
	r := NewRecord("Chad", "TCD", map[string]float64{"Year": 52.5, "Underfive_mortality_rate": math.NaN()})
	b, err := json.Marshal(r)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, "Chad", out["Country"])
	assert.Equal(t, "TCD", out["Code"])
	assert.Equal(t, 52.5, out["Year"])
	v, ok := out["Underfive_mortality_rate"]
	assert.True(t, ok)
	assert.Nil(t, v, "NaN is written as null")

	var back Record
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.Has("Underfive_mortality_rate"))
	assert.True(t, math.IsNaN(back.Value("Underfive_mortality_rate")))
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, 12.5, ParseNumber(" 12.5 "))
	assert.Equal(t, -3.0, ParseNumber("-3"))
	for _, raw := range []string{"", "abc", "Inf", "+inf", "-Infinity", "NaN", "1e999"} {
		assert.True(t, math.IsNaN(ParseNumber(raw)), raw)
	}
}

func TestSetField(t *testing.T) {
	var r Record
	r.SetField(FieldCountry, "Mali")
	r.SetField("males", "60")
	r.SetField("females", "inf")

	assert.Equal(t, "Mali", r.Country)
	assert.False(t, r.Has(FieldCode))
	assert.Equal(t, 60.0, r.Value("males"))
	assert.True(t, math.IsNaN(r.Value("females")))
}

func TestDetectMode(t *testing.T) {
	m, ok := DetectMode(NewRecord("A", "A", map[string]float64{"Year": 1, "Underfive_mortality_rate": 2}))
	require.True(t, ok)
	assert.Equal(t, "mortality", m.Name)

	m, ok = DetectMode(NewRecord("A", "A", map[string]float64{"males": 1, "females": 2}))
	require.True(t, ok)
	assert.Equal(t, "gender", m.Name)

	var nullCountry Record
	require.NoError(t, json.Unmarshal([]byte(`{"Country":null,"males":1,"females":2}`), &nullCountry))
	_, ok = DetectMode(nullCountry)
	assert.True(t, ok)

	var noCountry Record
	require.NoError(t, json.Unmarshal([]byte(`{"Year":1,"Underfive_mortality_rate":2}`), &noCountry))
	_, ok = DetectMode(noCountry)
	assert.False(t, ok)

	_, ok = DetectMode(NewRecord("A", "A", map[string]float64{"Year": 1}))
	assert.False(t, ok)
}

func TestModeByName(t *testing.T) {
	m, ok := ModeByName("GENDER")
	require.True(t, ok)
	assert.Equal(t, []string{FieldCountry, "males", "females"}, m.Required())

	_, ok = ModeByName("")
	assert.False(t, ok)
	_, ok = ModeByName("income")
	assert.False(t, ok)
}
