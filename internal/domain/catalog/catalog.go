// Package catalog indexes the static clinical dataset: measurable parameters
// and the panels that group them. A Catalog is built once and never mutated.
package catalog

import (
	"errors"
	"fmt"

	"github.com/mlastra-dana/PerfilabPortal/internal/domain/refrange"
)

var ErrDuplicateID = errors.New("duplicate catalog id")

type Catalog struct {
	entries    []Entry
	panels     []Panel
	entryIndex map[string]int
	panelIndex map[string]int
}

// New indexes entries and panels. Panels may reference ids that are not (yet)
// in the catalog; only duplicate ids are rejected.
func New(entries []Entry, panels []Panel) (*Catalog, error) {
	c := &Catalog{
		entries:    make([]Entry, 0, len(entries)),
		panels:     make([]Panel, 0, len(panels)),
		entryIndex: make(map[string]int, len(entries)),
		panelIndex: make(map[string]int, len(panels)),
	}
	for _, e := range entries {
		if e.ID == "" {
			return nil, fmt.Errorf("catalog entry with empty id (%q)", e.DisplayName)
		}
		if _, dup := c.entryIndex[e.ID]; dup {
			return nil, fmt.Errorf("entry %q: %w", e.ID, ErrDuplicateID)
		}
		if e.ResultType != refrange.Numeric && e.ResultType != refrange.Qualitative {
			return nil, fmt.Errorf("entry %q: invalid result type %q", e.ID, e.ResultType)
		}
		c.entryIndex[e.ID] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	for _, p := range panels {
		if p.ID == "" {
			return nil, fmt.Errorf("catalog panel with empty id (%q)", p.DisplayName)
		}
		if _, dup := c.panelIndex[p.ID]; dup {
			return nil, fmt.Errorf("panel %q: %w", p.ID, ErrDuplicateID)
		}
		p.ParameterIDs = append([]string(nil), p.ParameterIDs...)
		c.panelIndex[p.ID] = len(c.panels)
		c.panels = append(c.panels, p)
	}
	return c, nil
}

// Entry looks up a parameter. Absence is a normal outcome.
func (c *Catalog) Entry(id string) (Entry, bool) {
	i, ok := c.entryIndex[id]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Panel looks up a panel. Absence is a normal outcome.
func (c *Catalog) Panel(id string) (Panel, bool) {
	i, ok := c.panelIndex[id]
	if !ok {
		return Panel{}, false
	}
	p := c.panels[i]
	p.ParameterIDs = append([]string(nil), p.ParameterIDs...)
	return p, true
}

// DisplayName returns the parameter's display name, or the raw id when the
// parameter is not in the catalog.
func (c *Catalog) DisplayName(id string) string {
	if e, ok := c.Entry(id); ok {
		return e.DisplayName
	}
	return id
}

// PanelEntries resolves a panel's parameters in order, skipping ids the
// catalog does not know.
func (c *Catalog) PanelEntries(panelID string) []Entry {
	p, ok := c.Panel(panelID)
	if !ok {
		return nil
	}
	out := make([]Entry, 0, len(p.ParameterIDs))
	for _, id := range p.ParameterIDs {
		if e, ok := c.Entry(id); ok {
			out = append(out, e)
		}
	}
	return out
}

// Entries returns all parameters in dataset order.
func (c *Catalog) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// Panels returns all panels in dataset order.
func (c *Catalog) Panels() []Panel {
	out := make([]Panel, len(c.panels))
	for i, p := range c.panels {
		p.ParameterIDs = append([]string(nil), p.ParameterIDs...)
		out[i] = p
	}
	return out
}
