package web

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"heatmap/internal/api"
	"heatmap/internal/fetcher"
	"heatmap/internal/view"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Handler serves the chart page and its click targets.
type Handler struct {
	controller *view.Controller
	imagesDir  string
	title      string
}

func NewHandler(controller *view.Controller, imagesDir string) *Handler {
	return &Handler{controller: controller, imagesDir: imagesDir, title: "Country statistics"}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Index)
	e.GET("/filter", h.Filter)
	e.GET("/country/:name", h.Country)
	e.GET("/chart.svg", h.ChartSVG)
	e.GET("/chart.png", h.ChartPNG)
	if h.imagesDir != "" {
		e.Static("/static/images", h.imagesDir)
	}
}

type pageData struct {
	Title string
	Term  string
	Chart template.HTML
	Panel *view.Panel
}

func (h *Handler) Index(c echo.Context) error {
	return h.render(c, http.StatusOK)
}

// Filter backs the search form and the "show all" link.
func (h *Handler) Filter(c echo.Context) error {
	term := c.QueryParam("searchInput")
	if err := h.controller.ApplyFilter(c.Request().Context(), term); err != nil {
		logActionError(err, "filter", term)
	}
	return h.render(c, http.StatusOK)
}

// Country backs the bar and label links.
func (h *Handler) Country(c echo.Context) error {
	name := api.PathParam(c, "name")
	status := http.StatusOK
	if err := h.controller.SelectCountry(c.Request().Context(), name); err != nil {
		if errors.Is(err, view.ErrNotFound) {
			status = http.StatusNotFound
		}
		logActionError(err, "select", name)
	}
	return h.render(c, status)
}

func (h *Handler) ChartSVG(c echo.Context) error {
	ch := h.controller.Snapshot().View.Chart
	if ch == nil {
		return echo.NewHTTPError(http.StatusNotFound, "nothing drawn")
	}
	var buf bytes.Buffer
	if err := ch.WriteSVG(&buf); err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "image/svg+xml", buf.Bytes())
}

func (h *Handler) ChartPNG(c echo.Context) error {
	ch := h.controller.Snapshot().View.Chart
	if ch == nil {
		return echo.NewHTTPError(http.StatusNotFound, "nothing drawn")
	}
	var buf bytes.Buffer
	if err := ch.WritePNG(&buf); err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

// render draws the page from the current state.
func (h *Handler) render(c echo.Context, status int) error {
	s := h.controller.Snapshot()
	data := pageData{Title: h.title, Panel: s.Panel}
	if s.View.Term != fetcher.AllTerm {
		data.Term = s.View.Term
	}
	if s.View.Chart != nil {
		svg, err := s.View.Chart.SVG()
		if err != nil {
			return err
		}
		data.Chart = svg
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return err
	}
	return c.HTMLBlob(status, buf.Bytes())
}

func logActionError(err error, action, arg string) {
	if errors.Is(err, view.ErrStale) {
		log.Debug().Str("action", action).Str("arg", arg).Msg("superseded by a newer action")
		return
	}
	log.Warn().Err(err).Str("action", action).Str("arg", arg).Msg("action failed, keeping previous view")
}
