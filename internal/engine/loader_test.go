package engine

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeTemp(t *testing.T, pattern string, content []byte) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), pattern)
	require.NoError(t, err)
	_, err = tmpFile.Write(content)
	require.NoError(t, err)
	require.NoError(t, tmpFile.Close())
	return tmpFile.Name()
}

func TestLoadFileJSON(t *testing.T) {
	path := writeTemp(t, "data_*.json", []byte(`[
  {"Country":"Afghanistan","Code":"AFG","Year":70,"Underfive_mortality_rate":80},
  {"Country":"Benin","Code":"BEN","Year":65,"Underfive_mortality_rate":"n/a"}
]`))

	records, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Afghanistan", records[0].Country)
	assert.Equal(t, "AFG", records[0].Code)
	assert.Equal(t, 70.0, records[0].Value("Year"))

	// present but non-numeric
	assert.True(t, records[1].Has("Underfive_mortality_rate"))
	assert.True(t, math.IsNaN(records[1].Value("Underfive_mortality_rate")))
}

func TestLoadFileCSV(t *testing.T) {
	path := writeTemp(t, "data_*.csv", []byte(`Country,Code,males,females
France,FRA,79.2,85.1

Japan,JPN,81.1
Chad,TCD,inf,52.0
`))

	records, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, records, 3, "blank row skipped")

	assert.Equal(t, 85.1, records[0].Value("females"))
	assert.False(t, records[1].Has("females"), "short row leaves females absent")
	assert.True(t, records[2].Has("males"))
	assert.True(t, math.IsNaN(records[2].Value("males")), "inf is not a number")
}

func TestLoadFileXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Country", "Code", "Year", "Underfive_mortality_rate"},
		{"Chad", "TCD", 55, 110},
		{"Mali", "MLI", 60, 97},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "data.xlsx")
	require.NoError(t, f.SaveAs(path))

	records, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Mali", records[1].Country)
	assert.Equal(t, 97.0, records[1].Value("Underfive_mortality_rate"))
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile("data.parquet")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := writeTemp(t, "bad_*.json", []byte(`{"Country":"A"}`))
	_, err = LoadFile(bad)
	assert.Error(t, err, "non-array JSON")
}
