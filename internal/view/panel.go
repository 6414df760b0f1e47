package view

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"heatmap/internal/models"
)

var ErrNotFound = errors.New("view: no record for selection")

// Selection names the country to show, from a clicked record or a bare name.
type Selection struct {
	Country string
}

func ByRecord(r models.Record) Selection { return Selection{Country: r.Country} }

func ByCountry(name string) Selection { return Selection{Country: name} }

type Field struct {
	Label string
	Value string
}

type Panel struct {
	ID       uuid.UUID
	Country  string
	Code     string
	Fields   []Field
	ImageURL string
	Record   models.Record
}

// Images builds the image reference for a country.
type Images struct {
	// URLPrefix is where images are served, e.g. /static/images.
	URLPrefix string
	// Dir, when set, is checked for the file; a missing file falls back to Default.
	Dir     string
	Ext     string
	Default string
}

func DefaultImages() Images {
	return Images{URLPrefix: "/static/images", Ext: ".png", Default: "default.png"}
}

// URL returns {prefix}/{Country}{ext}.
func (im Images) URL(country string) string {
	name := country + im.Ext
	if country == "" || (im.Dir != "" && !fileExists(filepath.Join(im.Dir, name))) {
		name = im.Default
	}
	return im.URLPrefix + "/" + url.PathEscape(name)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Panels manages the single detail panel instance.
type Panels struct {
	mu      sync.Mutex
	images  Images
	current *Panel
}

func NewPanels(images Images) *Panels {
	return &Panels{images: images}
}

// Open resolves sel against all (first match wins), replaces any open panel
// and returns the new one. On ErrNotFound the open panel is left as is.
func (p *Panels) Open(sel Selection, all []models.Record, mode models.Mode) (*Panel, error) {
	rec, ok := resolve(sel, all)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, sel.Country)
	}

	panel := &Panel{
		ID:       uuid.New(),
		Country:  rec.Country,
		Code:     rec.Code,
		ImageURL: p.images.URL(rec.Country),
		Record:   rec,
	}
	panel.Fields = append(panel.Fields, Field{Label: "Code", Value: rec.Code})
	for _, m := range mode.Metrics() {
		panel.Fields = append(panel.Fields, Field{Label: m.Label, Value: formatMetric(rec.Value(m.Field))})
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil {
		log.Debug().Str("panel", p.current.ID.String()).Msg("closing detail panel")
	}
	p.current = panel
	log.Debug().Str("panel", panel.ID.String()).Str("country", panel.Country).Msg("detail panel opened")
	return panel, nil
}

func (p *Panels) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = nil
}

func (p *Panels) Current() *Panel {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func resolve(sel Selection, all []models.Record) (models.Record, bool) {
	for _, r := range all {
		if r.Country == sel.Country {
			return r, true
		}
	}
	return models.Record{}, false
}

func formatMetric(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
