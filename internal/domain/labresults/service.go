package labresults

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mlastra-dana/PerfilabPortal/internal/domain/audit"
	"github.com/mlastra-dana/PerfilabPortal/internal/domain/identity"
)

type Service struct {
	reports  Repository
	builder  *Builder
	profiles *identity.Directory
	audit    *audit.Recorder
}

func NewService(reports Repository, builder *Builder, profiles *identity.Directory, recorder *audit.Recorder) *Service {
	return &Service{reports: reports, builder: builder, profiles: profiles, audit: recorder}
}

// resolve finds the internal id of a lab patient. Lab reports are only
// addressable through a resolved profile.
func (s *Service) resolve(id identity.Identity) string {
	if id.InternalID != "" {
		return id.InternalID
	}
	resolved, _, ok := s.profiles.Resolve(identity.Laboratorio, id)
	if !ok {
		return ""
	}
	return resolved.InternalID
}

// ReportsFor lists the reports owned by id, most recently validated first.
// Reports still awaiting validation come last in stored order.
func (s *Service) ReportsFor(ctx context.Context, id identity.Identity) ([]*Report, error) {
	owner := s.resolve(id)
	if owner == "" {
		return []*Report{}, nil
	}
	reports, err := s.reports.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list reports of %s: %w", owner, err)
	}
	sort.SliceStable(reports, func(i, j int) bool {
		a, b := reports[i].ValidatedAt, reports[j].ValidatedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	return reports, nil
}

func (s *Service) Get(ctx context.Context, orderID string) (*Report, error) {
	return s.reports.GetByOrderID(ctx, orderID)
}

// authorize loads a report for viewer; a nil viewer is staff access.
func (s *Service) authorize(ctx context.Context, orderID string, viewer *identity.Identity) (*Report, error) {
	rep, err := s.reports.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if viewer != nil && s.resolve(*viewer) != rep.OwnerID {
		return nil, ErrReportNotFound
	}
	return rep, nil
}

// ViewReport opens a report and records a document_view event.
func (s *Service) ViewReport(ctx context.Context, orderID string, viewer *identity.Identity, actor string) (*Report, error) {
	rep, err := s.authorize(ctx, orderID, viewer)
	if err != nil {
		return nil, err
	}
	s.audit.Record(audit.DocumentView, actor, "Visualizacion de orden "+rep.OrderID)
	return rep, nil
}

// RecordDownload records a PDF download of the report.
func (s *Service) RecordDownload(ctx context.Context, orderID string, viewer *identity.Identity, actor string) (*Report, error) {
	rep, err := s.authorize(ctx, orderID, viewer)
	if err != nil {
		return nil, err
	}
	s.audit.Record(audit.DownloadClicked, actor, "Descarga PDF "+rep.OrderID)
	return rep, nil
}

// Findings lists the abnormal items of a report.
func (s *Service) Findings(rep *Report) []ResultItem {
	return rep.Findings()
}

// AddReport stores a report, completing each item from the catalog.
func (s *Service) AddReport(ctx context.Context, rep *Report) error {
	if strings.TrimSpace(rep.OrderID) == "" {
		return fmt.Errorf("order_id is required")
	}
	if strings.TrimSpace(rep.OwnerID) == "" {
		return fmt.Errorf("owner_id is required")
	}
	if _, ok := s.profiles.Get(rep.OwnerID); !ok {
		return fmt.Errorf("unknown patient %s", rep.OwnerID)
	}
	for i := range rep.Exams {
		e := &rep.Exams[i]
		if !e.Status.Valid() {
			return fmt.Errorf("exam %s: unknown status %q", e.PanelID, e.Status)
		}
		if e.Items == nil {
			e.Items = []ResultItem{}
		}
		for j := range e.Items {
			e.Items[j] = s.builder.Complete(e.Items[j])
		}
	}
	if rep.Exams == nil {
		rep.Exams = []ExamPanelResult{}
	}
	return s.reports.Create(ctx, rep)
}
