package view

import (
	"sync"

	"heatmap/internal/chart"
	"heatmap/internal/models"
)

type View struct {
	Term    string
	Records []models.Record
	Subset  bool
	// Chart is nil when the last render drew nothing.
	Chart *chart.Chart
}

// State is the whole UI state. Values handed out by Store are never mutated.
type State struct {
	Dataset []models.Record
	Loaded  bool
	View    View
	Panel   *Panel
}

// Action is applied to State by the store reducer.
type Action interface {
	apply(State) State
}

type DatasetLoaded struct {
	Records []models.Record
}

func (a DatasetLoaded) apply(s State) State {
	s.Dataset = a.Records
	s.Loaded = true
	return s
}

type ViewChanged struct {
	View View
}

func (a ViewChanged) apply(s State) State {
	s.View = a.View
	return s
}

type PanelOpened struct {
	Panel *Panel
}

func (a PanelOpened) apply(s State) State {
	s.Panel = a.Panel
	return s
}

type PanelClosed struct{}

func (PanelClosed) apply(s State) State {
	s.Panel = nil
	return s
}

// Store owns State. Dispatch is the single update path.
type Store struct {
	mu    sync.RWMutex
	state State
}

func NewStore() *Store {
	return &Store{}
}

// Dispatch applies actions atomically, in order.
func (s *Store) Dispatch(actions ...Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range actions {
		s.state = a.apply(s.state)
	}
	return s.state
}

func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}
