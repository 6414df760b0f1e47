package engine

import (
	"math"

	"github.com/montanaflynn/stats"

	"heatmap/internal/models"
)

// Summarize reduces records to per-metric statistics for mode.
// Non-numeric values are skipped; a metric with no numeric values reports zeros.
func Summarize(records []models.Record, mode models.Mode) *models.Summary {
	countries := make(map[string]struct{}, len(records))
	for _, r := range records {
		countries[r.Country] = struct{}{}
	}

	out := &models.Summary{
		Mode:      mode.Name,
		Countries: len(countries),
		Records:   len(records),
		Metrics:   make([]models.MetricSummary, 0, 2),
	}

	for _, m := range mode.Metrics() {
		values := make(stats.Float64Data, 0, len(records))
		for _, r := range records {
			if v := r.Value(m.Field); !math.IsNaN(v) {
				values = append(values, v)
			}
		}

		ms := models.MetricSummary{Field: m.Field, Count: len(values)}
		if len(values) > 0 {
			// stats only errors on empty input, checked above
			ms.Min, _ = values.Min()
			ms.Max, _ = values.Max()
			ms.Mean, _ = values.Mean()
			ms.Median, _ = values.Median()
		}
		out.Metrics = append(out.Metrics, ms)
	}
	return out
}
