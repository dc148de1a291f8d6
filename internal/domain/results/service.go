package results

import (
	"context"
	"fmt"
	"strings"

	"github.com/mlastra-dana/PerfilabPortal/internal/domain/audit"
	"github.com/mlastra-dana/PerfilabPortal/internal/domain/identity"
)

type Service struct {
	docs     Repository
	profiles *identity.Directory
	audit    *audit.Recorder
}

func NewService(docs Repository, profiles *identity.Directory, recorder *audit.Recorder) *Service {
	return &Service{docs: docs, profiles: profiles, audit: recorder}
}

// ResolveProfile matches id against the tenant directory. Without a profile
// the identity is returned unchanged and documents stay reachable by raw
// document number.
func (s *Service) ResolveProfile(tenant identity.Tenant, id identity.Identity) (identity.Identity, *identity.Profile) {
	resolved, p, ok := s.profiles.Resolve(tenant, id)
	if !ok {
		return id, nil
	}
	return resolved, p
}

// FindDocuments returns the tenant documents id may see, filtered and sorted
// newest first. No match is an empty result, never an error.
func (s *Service) FindDocuments(ctx context.Context, tenant identity.Tenant, id identity.Identity, f Filters) ([]*Document, error) {
	if id.Empty() {
		return []*Document{}, nil
	}
	id, _ = s.ResolveProfile(tenant, id)
	candidates, err := s.docs.ListByTenant(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("list %s documents: %w", tenant, err)
	}
	return Match(candidates, id, tenant.RequiresPolicy(), f), nil
}

func (s *Service) GetDocument(ctx context.Context, id string) (*Document, error) {
	return s.docs.GetByID(ctx, id)
}

// CanAccess applies the ownership rule of the document's tenant to viewer.
func (s *Service) CanAccess(d *Document, viewer identity.Identity) bool {
	viewer, _ = s.ResolveProfile(d.Tenant, viewer)
	return len(Match([]*Document{d}, viewer, d.Tenant.RequiresPolicy(), Filters{})) == 1
}

// authorize loads a document on behalf of viewer. A nil viewer is staff
// access. Documents the viewer may not see are reported as not found.
func (s *Service) authorize(ctx context.Context, docID string, viewer *identity.Identity) (*Document, error) {
	d, err := s.docs.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if viewer != nil && !s.CanAccess(d, *viewer) {
		return nil, ErrDocumentNotFound
	}
	return d, nil
}

// ViewDocument opens a document: it moves to seen and a document_view event
// is recorded.
func (s *Service) ViewDocument(ctx context.Context, docID string, viewer *identity.Identity, actor string) (*Document, error) {
	d, err := s.authorize(ctx, docID, viewer)
	if err != nil {
		return nil, err
	}
	if err := s.markSeen(ctx, d); err != nil {
		return nil, err
	}
	s.audit.Record(audit.DocumentView, actor, "Visualizacion de resultado "+d.ID)
	return d, nil
}

// MarkSeen moves a document from new to seen. Seen documents are left as is.
func (s *Service) MarkSeen(ctx context.Context, docID string) error {
	d, err := s.docs.GetByID(ctx, docID)
	if err != nil {
		return err
	}
	return s.markSeen(ctx, d)
}

func (s *Service) markSeen(ctx context.Context, d *Document) error {
	if d.Status == StatusSeen {
		return nil
	}
	if err := s.docs.UpdateStatus(ctx, d.ID, StatusSeen); err != nil {
		return fmt.Errorf("mark document %s seen: %w", d.ID, err)
	}
	d.Status = StatusSeen
	return nil
}

// RecordDownload records a download click and returns the document so the
// caller can hand out its location.
func (s *Service) RecordDownload(ctx context.Context, docID string, viewer *identity.Identity, actor string) (*Document, error) {
	d, err := s.authorize(ctx, docID, viewer)
	if err != nil {
		return nil, err
	}
	s.audit.Record(audit.DownloadClicked, actor, "Click descarga PDF "+d.ID)
	return d, nil
}

// AddDocument stores upload metadata as a new document.
func (s *Service) AddDocument(ctx context.Context, d *Document, actor string) error {
	tenant, err := identity.ParseTenant(string(d.Tenant))
	if err != nil {
		return err
	}
	d.Tenant = tenant
	if d.OwnerID == "" && strings.TrimSpace(d.OwnerDocument) == "" {
		return fmt.Errorf("owner_id or owner_document is required")
	}
	if d.Tenant.RequiresPolicy() && strings.TrimSpace(d.PolicyNumber) == "" {
		return fmt.Errorf("policy_number is required for %s", d.Tenant)
	}
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if strings.TrimSpace(d.Date) == "" {
		return fmt.Errorf("date is required")
	}
	if d.Kind == "" {
		d.Kind = parseKind("", d.FileName)
	}
	if !d.Kind.Valid() {
		return fmt.Errorf("invalid kind: %s", d.Kind)
	}
	if d.Site == "" && d.OwnerID != "" {
		if p, ok := s.profiles.Get(d.OwnerID); ok {
			d.Site = p.Site
		}
	}
	d.Status = StatusNew
	if err := s.docs.Create(ctx, d); err != nil {
		return err
	}
	s.audit.Record(audit.Upload, actor, "Documento subido: "+d.Title)
	return nil
}
