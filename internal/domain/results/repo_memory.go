package results

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mlastra-dana/PerfilabPortal/internal/domain/identity"
)

type memoryRepo struct {
	mu    sync.RWMutex
	docs  map[string]*Document
	order []string // newest first
	now   func() time.Time
}

// NewMemoryRepo returns a Repository kept in process memory.
func NewMemoryRepo() Repository {
	return &memoryRepo{docs: make(map[string]*Document), now: time.Now}
}

func (r *memoryRepo) Create(_ context.Context, d *Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if _, dup := r.docs[d.ID]; dup {
		return fmt.Errorf("document %s already exists", d.ID)
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = r.now().UTC()
	}
	r.docs[d.ID] = d.clone()
	r.order = append([]string{d.ID}, r.order...)
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.docs[id]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return d.clone(), nil
}

func (r *memoryRepo) ListByTenant(_ context.Context, tenant identity.Tenant) ([]*Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Document
	for _, id := range r.order {
		if d := r.docs[id]; d.Tenant == tenant {
			out = append(out, d.clone())
		}
	}
	return out, nil
}

func (r *memoryRepo) UpdateStatus(_ context.Context, id string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return ErrDocumentNotFound
	}
	d.Status = status
	return nil
}
