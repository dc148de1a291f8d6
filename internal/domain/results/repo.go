package results

import (
	"context"
	"errors"

	"github.com/mlastra-dana/PerfilabPortal/internal/domain/identity"
)

var ErrDocumentNotFound = errors.New("document not found")

type Repository interface {
	Create(ctx context.Context, d *Document) error
	GetByID(ctx context.Context, id string) (*Document, error)
	// ListByTenant returns the tenant's documents, most recently stored first.
	ListByTenant(ctx context.Context, tenant identity.Tenant) ([]*Document, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
}
