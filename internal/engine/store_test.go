package engine

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heatmap/internal/models"
)

func sampleRecords() []models.Record {
	return []models.Record{
		models.NewRecord("Germany", "DEU", map[string]float64{"Year": 80, "Underfive_mortality_rate": 4}),
		models.NewRecord("France", "FRA", map[string]float64{"Year": 82, "Underfive_mortality_rate": 5}),
		models.NewRecord("germany", "DEU", map[string]float64{"Year": 81, "Underfive_mortality_rate": 3}),
	}
}

func TestStoreFilter(t *testing.T) {
	s := NewStore()
	require.False(t, s.Ready(), "new store")
	s.Replace(sampleRecords())

	require.True(t, s.Ready())
	assert.Equal(t, 3, s.Len())
	assert.Len(t, s.CountryDict, 2)
	assert.Equal(t, 2, s.Countries())

	assert.Len(t, s.Filter("ALL"), 3)

	got := s.Filter("GERMANY")
	require.Len(t, got, 2)
	assert.Equal(t, 80.0, got[0].Value("Year"), "load order kept")
	assert.Equal(t, 81.0, got[1].Value("Year"))

	none := s.Filter("atlantis")
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestStoreLookupFirstOccurrence(t *testing.T) {
	s := NewStore()
	s.Replace(sampleRecords())

	r, ok := s.Lookup("GERMANY")
	require.True(t, ok)
	assert.Equal(t, "Germany", r.Country)
	assert.Equal(t, 80.0, r.Value("Year"))

	_, ok = s.Lookup("Atlantis")
	assert.False(t, ok)
}

func TestStoreAllIsCopy(t *testing.T) {
	s := NewStore()
	s.Replace(sampleRecords())
	all := s.All()
	all[0] = models.Record{}

	r, _ := s.Lookup("Germany")
	assert.Equal(t, "DEU", r.Code)
}

func TestWatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"Country":"A","Code":"A","Year":1,"Underfive_mortality_rate":2}]`), 0o644))

	s := NewStore()
	var reloaded atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, s, func(records []models.Record) { reloaded.Store(int32(len(records))) })
	}()

	// give the watcher a moment to register
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`[{"Country":"A","Code":"A","Year":1,"Underfive_mortality_rate":2},{"Country":"B","Code":"B","Year":3,"Underfive_mortality_rate":4}]`), 0o644))

	require.Eventually(t, func() bool { return s.Len() == 2 && reloaded.Load() == 2 }, 3*time.Second, 20*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
