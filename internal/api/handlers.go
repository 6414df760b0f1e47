package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"heatmap/internal/engine"
	"heatmap/internal/models"
)

type Handler struct {
	store *engine.Store
}

func NewHandler(store *engine.Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/get_data/:term", h.GetData)
	e.GET("/health", h.Health)

	api := e.Group("/api")
	api.GET("/records", h.GetRecords)
	api.GET("/summary", h.GetSummary)
}

// --- HANDLERS ---
func getPaginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// loading answers 503 until the dataset has been loaded once.
func (h *Handler) loading(c echo.Context) bool {
	if h.store.Ready() {
		return false
	}
	_ = c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "loading"})
	return true
}

// GetData returns the full dataset for "all", otherwise the rows whose
// Country matches the term ignoring case.
func (h *Handler) GetData(c echo.Context) error {
	if h.loading(c) {
		return nil
	}
	return c.JSON(http.StatusOK, h.store.Filter(PathParam(c, "term")))
}

func (h *Handler) GetRecords(c echo.Context) error {
	if h.loading(c) {
		return nil
	}
	records := h.store.All()
	total := len(records)
	limit, offset := getPaginationParams(c, total)

	if offset >= total {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"data":   []models.Record{},
			"total":  total,
			"limit":  limit,
			"offset": offset,
		})
	}

	end := offset + limit
	if end > total {
		end = total
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":   records[offset:end],
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// GetSummary reports per-metric statistics for the detected metric pair.
func (h *Handler) GetSummary(c echo.Context) error {
	if h.loading(c) {
		return nil
	}
	records := h.store.All()
	if len(records) == 0 {
		return c.JSON(http.StatusOK, &models.Summary{Metrics: []models.MetricSummary{}})
	}
	mode, ok := models.DetectMode(records[0])
	if !ok {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "unknown record shape"})
	}
	return c.JSON(http.StatusOK, engine.Summarize(records, mode))
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"ready":   h.store.Ready(),
		"records": h.store.Len(),
	})
}
