// Package trends projects the history of one parameter for one patient into
// a time series ready for charting. It never filters or flags points.
package trends

import (
	"sync"

	"github.com/mlastra-dana/PerfilabPortal/internal/domain/catalog"
	"github.com/mlastra-dana/PerfilabPortal/internal/domain/identity"
	"github.com/mlastra-dana/PerfilabPortal/internal/domain/refrange"
)

type Point struct {
	Date  string  `json:"date" toml:"date"`
	Value float64 `json:"value" toml:"value"`
}

type Series struct {
	IdentityKey    string         `json:"identity_key"`
	ParameterID    string         `json:"parameter_id"`
	Label          string         `json:"label"`
	Unit           string         `json:"unit,omitempty"`
	ReferenceRange refrange.Range `json:"reference_range"`
	ReferenceText  string         `json:"reference_text"`
	Points         []Point        `json:"points"`
}

type history struct {
	label  string
	points []Point
}

// Store keeps points per identity and parameter in the order they were
// appended.
type Store struct {
	mu     sync.RWMutex
	cat    *catalog.Catalog
	series map[string]map[string]*history
	order  map[string][]string
}

func NewStore(cat *catalog.Catalog) *Store {
	return &Store{
		cat:    cat,
		series: make(map[string]map[string]*history),
		order:  make(map[string][]string),
	}
}

func (s *Store) entry(key, parameterID string) *history {
	byParam, ok := s.series[key]
	if !ok {
		byParam = make(map[string]*history)
		s.series[key] = byParam
	}
	h, ok := byParam[parameterID]
	if !ok {
		h = &history{}
		byParam[parameterID] = h
		s.order[key] = append(s.order[key], parameterID)
	}
	return h
}

// Append adds points to a series. Points are not re-sorted.
func (s *Store) Append(identityKey, parameterID string, points ...Point) {
	if len(points) == 0 {
		return
	}
	key := identity.NormalizeKey(identityKey)
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.entry(key, parameterID)
	h.points = append(h.points, points...)
}

// SetLabel stores the label used when the catalog has no entry for the
// parameter. Pairs without history are left absent.
func (s *Store) SetLabel(identityKey, parameterID, label string) {
	key := identity.NormalizeKey(identityKey)
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.series[key][parameterID]; ok {
		h.label = label
	}
}

// GetTrend returns the series for the pair. Display fields come from the
// catalog; without an entry the stored label, then the raw id, is used.
func (s *Store) GetTrend(identityKey, parameterID string) (*Series, bool) {
	key := identity.NormalizeKey(identityKey)
	s.mu.RLock()
	h, ok := s.series[key][parameterID]
	if !ok {
		s.mu.RUnlock()
		return nil, false
	}
	label := h.label
	points := make([]Point, len(h.points))
	copy(points, h.points)
	s.mu.RUnlock()

	out := &Series{
		IdentityKey: key,
		ParameterID: parameterID,
		Label:       label,
		Points:      points,
	}
	if e, ok := s.cat.Entry(parameterID); ok {
		out.Label = e.DisplayName
		out.Unit = e.Unit
		out.ReferenceRange = e.ReferenceRange
	}
	if out.Label == "" {
		out.Label = parameterID
	}
	out.ReferenceText = refrange.FormatReferenceText(out.ReferenceRange, out.Unit)
	return out, true
}

// Parameters lists the parameter ids with history for identityKey, in the
// order they were first recorded.
func (s *Store) Parameters(identityKey string) []string {
	key := identity.NormalizeKey(identityKey)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order[key]))
	copy(out, s.order[key])
	return out
}
