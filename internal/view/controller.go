package view

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"heatmap/internal/chart"
	"heatmap/internal/fetcher"
	"heatmap/internal/models"
)

// ErrStale means a newer user action superseded this one; its result was dropped.
var ErrStale = errors.New("view: superseded by a newer action")

type Fetcher interface {
	LoadAll(ctx context.Context) ([]models.Record, error)
	LoadFiltered(ctx context.Context, term string) ([]models.Record, error)
}

// Controller turns user actions into state changes: it fetches, renders the
// chart and manages the detail panel. Safe for concurrent use; the most
// recently started action wins.
type Controller struct {
	fetcher  Fetcher
	renderer *chart.Renderer
	panels   *Panels
	store    *Store

	tokens atomic.Uint64
	// serialises the stale check with the dispatch
	commitMu sync.Mutex
}

func NewController(f Fetcher, r *chart.Renderer, p *Panels) *Controller {
	return &Controller{
		fetcher:  f,
		renderer: r,
		panels:   p,
		store:    NewStore(),
	}
}

func (c *Controller) Snapshot() State {
	return c.store.Snapshot()
}

// LoadAll fetches the full dataset and draws it. On failure the state is untouched.
func (c *Controller) LoadAll(ctx context.Context) error {
	tok := c.tokens.Add(1)
	records, err := c.fetcher.LoadAll(ctx)
	if err != nil {
		return err
	}
	return c.seed(tok, records)
}

// Seed installs records as the full dataset without fetching.
func (c *Controller) Seed(records []models.Record) error {
	return c.seed(c.tokens.Add(1), records)
}

func (c *Controller) seed(tok uint64, records []models.Record) error {
	c.commitMu.Lock()
	defer c.commitMu.Unlock()

	c.store.Dispatch(DatasetLoaded{Records: records})
	if c.tokens.Load() != tok {
		// keep the newer view, only the dataset changes
		return nil
	}
	v, err := c.draw(fetcher.AllTerm, records, false)
	c.panels.Close()
	c.store.Dispatch(PanelClosed{}, ViewChanged{View: v})
	return err
}

// ApplyFilter shows the records matching term with the first match's details.
// "all" or an empty result shows the full dataset instead.
func (c *Controller) ApplyFilter(ctx context.Context, term string) error {
	tok := c.tokens.Add(1)
	term = fetcher.NormalizeTerm(term)

	filtered, err := c.fetcher.LoadFiltered(ctx, term)
	if err != nil {
		return err
	}

	return c.commit(tok, func(s State) ([]Action, error) {
		c.panels.Close()
		actions := []Action{PanelClosed{}}

		if term == fetcher.AllTerm || len(filtered) == 0 {
			log.Info().Str("term", term).Int("matches", len(filtered)).Msg("Displaying entire dataset")
			v, err := c.draw(term, s.Dataset, false)
			return append(actions, ViewChanged{View: v}), err
		}

		log.Info().Str("term", term).Int("matches", len(filtered)).Msg("Displaying filtered data")
		v, err := c.draw(term, filtered, true)
		actions = append(actions, ViewChanged{View: v})
		if err != nil {
			return actions, err
		}

		panel, err := c.panels.Open(ByRecord(filtered[0]), s.Dataset, modeOf(v, filtered[0]))
		if err != nil {
			return actions, err
		}
		return append(actions, PanelOpened{Panel: panel}), nil
	})
}

// SelectCountry narrows the chart to one country and opens its panel.
// It backs the bar and label click targets.
func (c *Controller) SelectCountry(ctx context.Context, country string) error {
	tok := c.tokens.Add(1)
	if err := ctx.Err(); err != nil {
		return err
	}

	return c.commit(tok, func(s State) ([]Action, error) {
		subset := make([]models.Record, 0, 1)
		for _, r := range s.Dataset {
			if r.Country == country {
				subset = append(subset, r)
			}
		}
		if len(subset) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, country)
		}

		v, err := c.draw(country, subset, true)
		if err != nil {
			return []Action{ViewChanged{View: v}}, err
		}
		panel, err := c.panels.Open(ByCountry(country), s.Dataset, modeOf(v, subset[0]))
		if err != nil {
			return []Action{ViewChanged{View: v}}, err
		}
		return []Action{ViewChanged{View: v}, PanelOpened{Panel: panel}}, nil
	})
}

// commit runs fn against the current state and dispatches its actions,
// unless a newer action has started since tok was issued.
func (c *Controller) commit(tok uint64, fn func(State) ([]Action, error)) error {
	c.commitMu.Lock()
	defer c.commitMu.Unlock()

	if latest := c.tokens.Load(); latest != tok {
		log.Debug().Uint64("token", tok).Uint64("latest", latest).Msg("discarding stale response")
		return ErrStale
	}

	actions, err := fn(c.store.Snapshot())
	if len(actions) > 0 {
		c.store.Dispatch(actions...)
	}
	return err
}

// draw renders records into a fresh view. A failed render yields a view with no chart.
func (c *Controller) draw(term string, records []models.Record, subset bool) (View, error) {
	v := View{Term: term, Records: records, Subset: subset}
	ch, err := c.renderer.Render(records, subset)
	if err != nil {
		return v, err
	}
	v.Chart = ch
	return v, nil
}

func modeOf(v View, r models.Record) models.Mode {
	if v.Chart != nil {
		return v.Chart.Mode
	}
	m, _ := models.DetectMode(r)
	return m
}
