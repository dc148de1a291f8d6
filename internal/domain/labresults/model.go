// Package labresults holds laboratory order reports: the panels measured for
// an order and the flagged result items inside each panel.
package labresults

import (
	"fmt"
	"time"

	"github.com/mlastra-dana/PerfilabPortal/internal/domain/refrange"
)

// OrderStatus tracks an exam panel through the lab. The progression is
// pendiente, en_proceso, validado, entregado. Transitions are not enforced.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pendiente"
	StatusInProcess OrderStatus = "en_proceso"
	StatusValidated OrderStatus = "validado"
	StatusDelivered OrderStatus = "entregado"
)

// Rank orders statuses along the progression. Unknown statuses rank below
// pendiente.
func (s OrderStatus) Rank() int {
	switch s {
	case StatusPending:
		return 1
	case StatusInProcess:
		return 2
	case StatusValidated:
		return 3
	case StatusDelivered:
		return 4
	default:
		return 0
	}
}

func (s OrderStatus) Valid() bool { return s.Rank() > 0 }

func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown order status %q", s)
	}
	return st, nil
}

// ResultItem is one measured or observed parameter. Flag and ReferenceText
// are derived from the other fields by Reflag and are never set directly.
type ResultItem struct {
	ParameterID    string              `json:"parameter_id"`
	DisplayName    string              `json:"display_name"`
	ResultType     refrange.ResultType `json:"result_type"`
	Unit           string              `json:"unit,omitempty"`
	ReferenceRange refrange.Range      `json:"reference_range"`
	ValueNumeric   *float64            `json:"value_numeric,omitempty"`
	ValueText      string              `json:"value_text,omitempty"`
	Flag           refrange.Flag       `json:"flag"`
	ReferenceText  string              `json:"reference_text"`
	Observation    string              `json:"observation,omitempty"`
}

// Reflag recomputes the derived fields.
func (it *ResultItem) Reflag() {
	it.Flag = refrange.Evaluate(it.ResultType, it.ValueNumeric, it.ValueText, it.ReferenceRange)
	it.ReferenceText = refrange.FormatReferenceText(it.ReferenceRange, it.Unit)
}

func (it ResultItem) clone() ResultItem {
	if it.ValueNumeric != nil {
		v := *it.ValueNumeric
		it.ValueNumeric = &v
	}
	it.ReferenceRange = cloneRange(it.ReferenceRange)
	return it
}

func cloneRange(r refrange.Range) refrange.Range {
	if r.Min != nil {
		v := *r.Min
		r.Min = &v
	}
	if r.Max != nil {
		v := *r.Max
		r.Max = &v
	}
	return r
}

// ExamPanelResult is one panel measured within an order.
type ExamPanelResult struct {
	PanelID   string       `json:"panel_id"`
	PanelName string       `json:"panel_name"`
	Category  string       `json:"category"`
	Status    OrderStatus  `json:"status"`
	Items     []ResultItem `json:"items"`
}

// Report is the result set of one lab order.
type Report struct {
	OrderID     string            `json:"order_id"`
	OwnerID     string            `json:"owner_id"`
	ValidatedBy string            `json:"validated_by"`
	ValidatedAt *time.Time        `json:"validated_at,omitempty"`
	Notes       string            `json:"notes,omitempty"`
	PDFLocation string            `json:"pdf_location,omitempty"`
	Exams       []ExamPanelResult `json:"exams"`
}

// Status is the least advanced status among the report's panels. A report
// without panels is pending.
func (r *Report) Status() OrderStatus {
	if len(r.Exams) == 0 {
		return StatusPending
	}
	least := r.Exams[0].Status
	for _, e := range r.Exams[1:] {
		if e.Status.Rank() < least.Rank() {
			least = e.Status
		}
	}
	return least
}

// Reflag recomputes every item flag in the report.
func (r *Report) Reflag() {
	for i := range r.Exams {
		for j := range r.Exams[i].Items {
			r.Exams[i].Items[j].Reflag()
		}
	}
}

// Findings returns the items flagged low or high, in report order.
func (r *Report) Findings() []ResultItem {
	out := []ResultItem{}
	for _, e := range r.Exams {
		for _, it := range e.Items {
			if it.Flag.Abnormal() {
				out = append(out, it.clone())
			}
		}
	}
	return out
}

func (r *Report) clone() *Report {
	c := *r
	if r.ValidatedAt != nil {
		t := *r.ValidatedAt
		c.ValidatedAt = &t
	}
	c.Exams = make([]ExamPanelResult, len(r.Exams))
	for i, e := range r.Exams {
		items := make([]ResultItem, len(e.Items))
		for j, it := range e.Items {
			items[j] = it.clone()
		}
		e.Items = items
		c.Exams[i] = e
	}
	return &c
}
