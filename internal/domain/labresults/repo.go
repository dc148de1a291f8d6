package labresults

import (
	"context"
	"errors"
)

var ErrReportNotFound = errors.New("lab report not found")

// Repository stores lab order reports.
type Repository interface {
	Create(ctx context.Context, r *Report) error
	GetByOrderID(ctx context.Context, orderID string) (*Report, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Report, error)
}
