package labresults

import (
	"errors"
	"fmt"

	"github.com/mlastra-dana/PerfilabPortal/internal/domain/catalog"
	"github.com/mlastra-dana/PerfilabPortal/internal/domain/refrange"
)

var (
	ErrUnknownParameter = errors.New("parameter not found in catalog")
	ErrUnknownPanel     = errors.New("panel not found in catalog")
)

// Builder assembles result items and panels from catalog definitions so that
// display name, unit and reference range always come from the catalog.
type Builder struct {
	cat *catalog.Catalog
}

func NewBuilder(cat *catalog.Catalog) *Builder {
	return &Builder{cat: cat}
}

func (b *Builder) entry(id string, want refrange.ResultType) (catalog.Entry, error) {
	e, ok := b.cat.Entry(id)
	if !ok {
		return catalog.Entry{}, fmt.Errorf("%w: %s", ErrUnknownParameter, id)
	}
	if e.ResultType != want {
		return catalog.Entry{}, fmt.Errorf("parameter %s is %s, not %s", id, e.ResultType, want)
	}
	return e, nil
}

func itemFromEntry(e catalog.Entry) ResultItem {
	return ResultItem{
		ParameterID:    e.ID,
		DisplayName:    e.DisplayName,
		ResultType:     e.ResultType,
		Unit:           e.Unit,
		ReferenceRange: cloneRange(e.ReferenceRange),
	}
}

// NumericItem builds a flagged numeric item.
func (b *Builder) NumericItem(id string, value float64, observation string) (ResultItem, error) {
	e, err := b.entry(id, refrange.Numeric)
	if err != nil {
		return ResultItem{}, err
	}
	it := itemFromEntry(e)
	it.ValueNumeric = &value
	it.Observation = observation
	it.Reflag()
	return it, nil
}

// QualitativeItem builds a flagged qualitative item.
func (b *Builder) QualitativeItem(id, value, observation string) (ResultItem, error) {
	e, err := b.entry(id, refrange.Qualitative)
	if err != nil {
		return ResultItem{}, err
	}
	it := itemFromEntry(e)
	it.ValueText = value
	it.Observation = observation
	it.Reflag()
	return it, nil
}

// Panel wraps items into a panel result named after the catalog panel.
func (b *Builder) Panel(panelID string, status OrderStatus, items ...ResultItem) (ExamPanelResult, error) {
	p, ok := b.cat.Panel(panelID)
	if !ok {
		return ExamPanelResult{}, fmt.Errorf("%w: %s", ErrUnknownPanel, panelID)
	}
	if !status.Valid() {
		return ExamPanelResult{}, fmt.Errorf("unknown order status %q", status)
	}
	if items == nil {
		items = []ResultItem{}
	}
	return ExamPanelResult{
		PanelID:   p.ID,
		PanelName: p.DisplayName,
		Category:  p.Category,
		Status:    status,
		Items:     items,
	}, nil
}

// Complete fills catalog-owned fields an item left empty and reflags it.
// Items whose parameter is not in the catalog keep their own definition and
// fall back to the raw id as display name.
func (b *Builder) Complete(it ResultItem) ResultItem {
	if e, ok := b.cat.Entry(it.ParameterID); ok {
		if it.DisplayName == "" {
			it.DisplayName = e.DisplayName
		}
		if it.ResultType == "" {
			it.ResultType = e.ResultType
		}
		if it.Unit == "" {
			it.Unit = e.Unit
		}
		if it.ReferenceRange.Empty() {
			it.ReferenceRange = cloneRange(e.ReferenceRange)
		}
	}
	if it.DisplayName == "" {
		it.DisplayName = it.ParameterID
	}
	it.Reflag()
	return it
}
