package labresults

import (
	"context"
	"fmt"
	"sync"
)

type memoryRepo struct {
	mu      sync.RWMutex
	reports map[string]*Report
	order   []string
}

// NewMemoryRepo returns a Repository kept in process memory. Listing keeps
// insertion order.
func NewMemoryRepo() Repository {
	return &memoryRepo{reports: make(map[string]*Report)}
}

func (m *memoryRepo) Create(_ context.Context, r *Report) error {
	if r.OrderID == "" {
		return fmt.Errorf("order_id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.reports[r.OrderID]; dup {
		return fmt.Errorf("lab report %s already exists", r.OrderID)
	}
	m.reports[r.OrderID] = r.clone()
	m.order = append(m.order, r.OrderID)
	return nil
}

func (m *memoryRepo) GetByOrderID(_ context.Context, orderID string) (*Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reports[orderID]
	if !ok {
		return nil, ErrReportNotFound
	}
	return r.clone(), nil
}

func (m *memoryRepo) ListByOwner(_ context.Context, ownerID string) ([]*Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*Report{}
	for _, id := range m.order {
		if r := m.reports[id]; r.OwnerID == ownerID {
			out = append(out, r.clone())
		}
	}
	return out, nil
}
