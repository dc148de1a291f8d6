package labresults

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mlastra-dana/PerfilabPortal/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type reportRepoPG struct{ pool *pgxpool.Pool }

func NewReportRepoPG(pool *pgxpool.Pool) Repository { return &reportRepoPG{pool: pool} }

func (r *reportRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const reportCols = `order_id, owner_id, validated_by, validated_at, notes, pdf_location, exams`

func (r *reportRepoPG) scanReport(row pgx.Row) (*Report, error) {
	var rep Report
	var exams []byte
	if err := row.Scan(&rep.OrderID, &rep.OwnerID, &rep.ValidatedBy, &rep.ValidatedAt,
		&rep.Notes, &rep.PDFLocation, &exams); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(exams, &rep.Exams); err != nil {
		return nil, fmt.Errorf("decode exams of %s: %w", rep.OrderID, err)
	}
	// Flags are never trusted from storage.
	rep.Reflag()
	return &rep, nil
}

func (r *reportRepoPG) Create(ctx context.Context, rep *Report) error {
	exams, err := json.Marshal(rep.Exams)
	if err != nil {
		return fmt.Errorf("encode exams: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO lab_reports (`+reportCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rep.OrderID, rep.OwnerID, rep.ValidatedBy, rep.ValidatedAt, rep.Notes, rep.PDFLocation, exams)
	if err != nil {
		return fmt.Errorf("insert lab report: %w", err)
	}
	return nil
}

func (r *reportRepoPG) GetByOrderID(ctx context.Context, orderID string) (*Report, error) {
	rep, err := r.scanReport(r.conn(ctx).QueryRow(ctx,
		`SELECT `+reportCols+` FROM lab_reports WHERE order_id = $1`, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	return rep, err
}

func (r *reportRepoPG) ListByOwner(ctx context.Context, ownerID string) ([]*Report, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+reportCols+` FROM lab_reports WHERE owner_id = $1 ORDER BY order_id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list lab reports: %w", err)
	}
	defer rows.Close()

	items := []*Report{}
	for rows.Next() {
		rep, err := r.scanReport(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rep)
	}
	return items, rows.Err()
}
