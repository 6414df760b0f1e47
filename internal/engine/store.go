package engine

import (
	"strings"
	"sync"

	"heatmap/internal/models"
)

// AllTerm is the filter sentinel that selects the whole dataset.
const AllTerm = "all"

// Store holds the served dataset with countries dictionary-encoded for lookups.
type Store struct {
	mu sync.RWMutex

	records []models.Record
	ready   bool

	// Dictionary Encoded IDs (row -> country id)
	CountryIDs []int32
	// Dictionary (ID -> Country name, first spelling seen)
	CountryDict []string

	// lower-cased country -> id
	index map[string]int32
	// country id -> first row
	firstRow []int
}

func NewStore() *Store {
	return &Store{index: make(map[string]int32)}
}

// Replace swaps in a new dataset. It is the only write path.
func (s *Store) Replace(records []models.Record) {
	ids := make([]int32, len(records))
	dict := make([]string, 0, len(records))
	index := make(map[string]int32, len(records))
	first := make([]int, 0, len(records))

	for row, r := range records {
		key := strings.ToLower(r.Country)
		id, ok := index[key]
		if !ok {
			id = int32(len(dict))
			dict = append(dict, r.Country)
			first = append(first, row)
			index[key] = id
		}
		ids[row] = id
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
	s.CountryIDs = ids
	s.CountryDict = dict
	s.index = index
	s.firstRow = first
	s.ready = true
}

func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// All returns a copy of every record in load order.
func (s *Store) All() []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Filter returns every record for "all", otherwise the rows whose Country
// equals term ignoring case. The result is never nil.
func (s *Store) Filter(term string) []models.Record {
	term = strings.TrimSpace(term)
	if strings.EqualFold(term, AllTerm) {
		return s.All()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Record, 0)
	id, ok := s.index[strings.ToLower(term)]
	if !ok {
		return out
	}
	for row, cid := range s.CountryIDs {
		if cid == id {
			out = append(out, s.records[row])
		}
	}
	return out
}

func (s *Store) Lookup(country string) (models.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.index[strings.ToLower(country)]
	if !ok {
		return models.Record{}, false
	}
	return s.records[s.firstRow[id]], true
}

func (s *Store) Countries() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.CountryDict)
}
