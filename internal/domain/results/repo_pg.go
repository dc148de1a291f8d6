package results

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mlastra-dana/PerfilabPortal/internal/domain/identity"
	"github.com/mlastra-dana/PerfilabPortal/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type documentRepoPG struct{ pool *pgxpool.Pool }

func NewDocumentRepoPG(pool *pgxpool.Pool) Repository { return &documentRepoPG{pool: pool} }

func (r *documentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const documentCols = `id, tenant, owner_id, owner_document, policy_number, category, service,
	title, date, kind, file_name, file_location, status, site, tags, created_at`

func (r *documentRepoPG) scanDocument(row pgx.Row) (*Document, error) {
	var d Document
	var tenant, kind, status string
	err := row.Scan(&d.ID, &tenant, &d.OwnerID, &d.OwnerDocument, &d.PolicyNumber, &d.Category, &d.Service,
		&d.Title, &d.Date, &kind, &d.FileName, &d.FileLocation, &status, &d.Site, &d.Tags, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	d.Tenant = identity.Tenant(tenant)
	d.Kind = Kind(kind)
	d.Status = Status(status)
	return &d, nil
}

func (r *documentRepoPG) Create(ctx context.Context, d *Document) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO documents (id, tenant, owner_id, owner_document, policy_number, category, service,
			title, date, kind, file_name, file_location, status, site, tags, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,COALESCE($16::timestamptz, NOW()))
		RETURNING created_at`,
		d.ID, string(d.Tenant), d.OwnerID, d.OwnerDocument, d.PolicyNumber, d.Category, d.Service,
		d.Title, d.Date, string(d.Kind), d.FileName, d.FileLocation, string(d.Status), d.Site, tags,
		nullTime(d),
	).Scan(&d.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func nullTime(d *Document) interface{} {
	if d.CreatedAt.IsZero() {
		return nil
	}
	return d.CreatedAt
}

func (r *documentRepoPG) GetByID(ctx context.Context, id string) (*Document, error) {
	d, err := r.scanDocument(r.conn(ctx).QueryRow(ctx, `SELECT `+documentCols+` FROM documents WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	return d, err
}

func (r *documentRepoPG) ListByTenant(ctx context.Context, tenant identity.Tenant) ([]*Document, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+documentCols+` FROM documents
		WHERE tenant = $1 ORDER BY created_at DESC`, string(tenant))
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var items []*Document
	for rows.Next() {
		d, err := r.scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (r *documentRepoPG) UpdateStatus(ctx context.Context, id string, status Status) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE documents SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}
