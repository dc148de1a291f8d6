// Package seed loads the demo dataset: tenant profiles, document feeds, lab
// orders, trend history, share tokens and an initial audit trail.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/mlastra-dana/PerfilabPortal/internal/domain/audit"
	"github.com/mlastra-dana/PerfilabPortal/internal/domain/identity"
	"github.com/mlastra-dana/PerfilabPortal/internal/domain/labresults"
	"github.com/mlastra-dana/PerfilabPortal/internal/domain/results"
	"github.com/mlastra-dana/PerfilabPortal/internal/domain/sharetoken"
	"github.com/mlastra-dana/PerfilabPortal/internal/domain/trends"
)

//go:embed demo.toml
var demoDataset []byte

// Feed is one tenant's document feed, in listing order.
type Feed struct {
	Tenant    string                `toml:"tenant"`
	Documents []results.RawDocument `toml:"documents"`
}

type ItemRecord struct {
	ID          string   `toml:"id"`
	Value       *float64 `toml:"value"`
	Text        string   `toml:"text"`
	Observation string   `toml:"observation"`
}

type ExamRecord struct {
	Panel  string       `toml:"panel"`
	Status string       `toml:"status"`
	Items  []ItemRecord `toml:"items"`
}

type OrderRecord struct {
	OrderID     string       `toml:"order_id"`
	PatientID   string       `toml:"patient_id"`
	ValidatedBy string       `toml:"validated_by"`
	ValidatedAt *time.Time   `toml:"validated_at"`
	Notes       string       `toml:"notes"`
	PDFLocation string       `toml:"pdf_location"`
	Exams       []ExamRecord `toml:"exams"`
}

type TrendRecord struct {
	Identity  string         `toml:"identity"`
	Parameter string         `toml:"parameter"`
	Label     string         `toml:"label"`
	Points    []trends.Point `toml:"points"`
}

type TokenRecord struct {
	Token     string    `toml:"token"`
	ExpiresAt time.Time `toml:"expires_at"`
}

// Dataset is the decoded demo file.
type Dataset struct {
	Profiles  []identity.Profile `toml:"profiles"`
	Feeds     []Feed             `toml:"feeds"`
	LabOrders []OrderRecord      `toml:"lab_orders"`
	Trends    []TrendRecord      `toml:"trends"`
	Tokens    []TokenRecord      `toml:"tokens"`
	Audit     []audit.Event      `toml:"audit"`
}

// Parse decodes a TOML dataset. Unknown keys are rejected.
func Parse(r io.Reader) (*Dataset, error) {
	var ds Dataset
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ds); err != nil {
		return nil, fmt.Errorf("decode seed dataset: %w", err)
	}
	return &ds, nil
}

// Default returns the embedded demo dataset.
func Default() (*Dataset, error) {
	return Parse(bytes.NewReader(demoDataset))
}

// Directory indexes the dataset's profiles.
func (ds *Dataset) Directory() (*identity.Directory, error) {
	return identity.NewDirectory(ds.Profiles)
}

// TokenMap returns the share tokens keyed by value.
func (ds *Dataset) TokenMap() map[string]time.Time {
	out := make(map[string]time.Time, len(ds.Tokens))
	for _, t := range ds.Tokens {
		out[t.Token] = t.ExpiresAt.UTC()
	}
	return out
}

// Documents normalizes every feed. Within a tenant the result keeps file
// order.
func (ds *Dataset) Documents() ([]results.Document, error) {
	var out []results.Document
	for _, f := range ds.Feeds {
		tenant, err := identity.ParseTenant(f.Tenant)
		if err != nil {
			return nil, fmt.Errorf("feed: %w", err)
		}
		for _, raw := range f.Documents {
			if raw.ID == "" {
				return nil, fmt.Errorf("feed %s: document without id", tenant)
			}
			out = append(out, results.Normalize(tenant, raw))
		}
	}
	return out, nil
}

// Reports builds the lab orders through b, so every item carries catalog
// names, units and flags.
func (ds *Dataset) Reports(b *labresults.Builder) ([]*labresults.Report, error) {
	out := make([]*labresults.Report, 0, len(ds.LabOrders))
	for _, o := range ds.LabOrders {
		rep := &labresults.Report{
			OrderID:     o.OrderID,
			OwnerID:     o.PatientID,
			ValidatedBy: o.ValidatedBy,
			Notes:       o.Notes,
			PDFLocation: o.PDFLocation,
			Exams:       make([]labresults.ExamPanelResult, 0, len(o.Exams)),
		}
		if o.ValidatedAt != nil {
			at := o.ValidatedAt.UTC()
			rep.ValidatedAt = &at
		}
		for _, e := range o.Exams {
			status, err := labresults.ParseOrderStatus(e.Status)
			if err != nil {
				return nil, fmt.Errorf("order %s: %w", o.OrderID, err)
			}
			items := make([]labresults.ResultItem, 0, len(e.Items))
			for _, ir := range e.Items {
				var it labresults.ResultItem
				if ir.Value != nil {
					it, err = b.NumericItem(ir.ID, *ir.Value, ir.Observation)
				} else {
					it, err = b.QualitativeItem(ir.ID, ir.Text, ir.Observation)
				}
				if err != nil {
					return nil, fmt.Errorf("order %s: %w", o.OrderID, err)
				}
				items = append(items, it)
			}
			panel, err := b.Panel(e.Panel, status, items...)
			if err != nil {
				return nil, fmt.Errorf("order %s: %w", o.OrderID, err)
			}
			rep.Exams = append(rep.Exams, panel)
		}
		out = append(out, rep)
	}
	return out, nil
}

// Targets are the stores Apply fills. Nil targets are skipped.
type Targets struct {
	Documents    results.Repository
	Reports      labresults.Repository
	Builder      *labresults.Builder
	Trends       *trends.Store
	Tokens       sharetoken.Registrar
	Audit        *audit.Recorder
	AuditArchive audit.Archive
}

// Summary counts what Apply inserted.
type Summary struct {
	Documents int
	Reports   int
	Trends    int
	Tokens    int
	Events    int
}

// Apply writes the dataset into t. Documents and reports that already exist
// are left alone, so Apply can run against a populated database.
func (ds *Dataset) Apply(ctx context.Context, t Targets) (Summary, error) {
	var sum Summary

	if t.Documents != nil {
		docs, err := ds.Documents()
		if err != nil {
			return sum, err
		}
		// Repositories list newest first; inserting backwards keeps file order.
		for i := len(docs) - 1; i >= 0; i-- {
			d := docs[i]
			_, err := t.Documents.GetByID(ctx, d.ID)
			if err == nil {
				continue
			}
			if !errors.Is(err, results.ErrDocumentNotFound) {
				return sum, fmt.Errorf("seed document %s: %w", d.ID, err)
			}
			if err := t.Documents.Create(ctx, &d); err != nil {
				return sum, fmt.Errorf("seed document %s: %w", d.ID, err)
			}
			sum.Documents++
		}
	}

	if t.Reports != nil && t.Builder != nil {
		reports, err := ds.Reports(t.Builder)
		if err != nil {
			return sum, err
		}
		for _, rep := range reports {
			_, err := t.Reports.GetByOrderID(ctx, rep.OrderID)
			if err == nil {
				continue
			}
			if !errors.Is(err, labresults.ErrReportNotFound) {
				return sum, fmt.Errorf("seed report %s: %w", rep.OrderID, err)
			}
			if err := t.Reports.Create(ctx, rep); err != nil {
				return sum, fmt.Errorf("seed report %s: %w", rep.OrderID, err)
			}
			sum.Reports++
		}
	}

	if t.Trends != nil {
		for _, tr := range ds.Trends {
			t.Trends.Append(tr.Identity, tr.Parameter, tr.Points...)
			if tr.Label != "" {
				t.Trends.SetLabel(tr.Identity, tr.Parameter, tr.Label)
			}
			sum.Trends++
		}
	}

	if t.Tokens != nil {
		for _, tok := range ds.Tokens {
			if err := t.Tokens.Register(ctx, tok.Token, tok.ExpiresAt.UTC()); err != nil {
				return sum, fmt.Errorf("seed token: %w", err)
			}
			sum.Tokens++
		}
	}

	if t.AuditArchive != nil {
		// History is listed newest first; archive it in the order it happened.
		for i := len(ds.Audit) - 1; i >= 0; i-- {
			e := ds.Audit[i]
			if err := t.AuditArchive.Write(ctx, e); err != nil {
				return sum, fmt.Errorf("seed audit event %s: %w", e.ID, err)
			}
		}
	}
	if t.Audit != nil && len(ds.Audit) > 0 {
		sum.Events = t.Audit.Seed(ds.Audit)
	}

	return sum, nil
}
