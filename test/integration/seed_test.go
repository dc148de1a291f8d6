package integration

import (
	"context"
	"testing"

	"github.com/mlastra-dana/PerfilabPortal/internal/domain/audit"
	"github.com/mlastra-dana/PerfilabPortal/internal/domain/catalog"
	"github.com/mlastra-dana/PerfilabPortal/internal/domain/identity"
	"github.com/mlastra-dana/PerfilabPortal/internal/domain/labresults"
	"github.com/mlastra-dana/PerfilabPortal/internal/domain/results"
	"github.com/mlastra-dana/PerfilabPortal/internal/platform/db"
	"github.com/mlastra-dana/PerfilabPortal/internal/seed"
)

func TestMigrations_AllApplied(t *testing.T) {
	statuses, err := db.NewMigrator(globalPool, db.Migrations()).Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(statuses) == 0 {
		t.Fatal("expected at least one migration")
	}
	for _, s := range statuses {
		if !s.Applied {
			t.Errorf("migration %d (%s) not applied", s.Version, s.Name)
		}
	}
}

func TestSeed_IdempotentOnPostgres(t *testing.T) {
	ds, err := seed.Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	inRollbackTx(t, func(ctx context.Context) {
		targets := seed.Targets{
			Documents:    results.NewDocumentRepoPG(globalPool),
			Reports:      labresults.NewReportRepoPG(globalPool),
			Builder:      labresults.NewBuilder(catalog.Default()),
			AuditArchive: audit.NewStore(globalPool),
		}

		first, err := ds.Apply(ctx, targets)
		if err != nil {
			t.Fatalf("first Apply: %v", err)
		}
		if first.Documents != 18 || first.Reports != 6 {
			t.Errorf("expected 18 documents and 6 reports, got %+v", first)
		}

		second, err := ds.Apply(ctx, targets)
		if err != nil {
			t.Fatalf("second Apply: %v", err)
		}
		if second.Documents != 0 || second.Reports != 0 {
			t.Errorf("expected nothing inserted on second run, got %+v", second)
		}

		docs, err := targets.Documents.ListByTenant(ctx, identity.Aseguradora)
		if err != nil {
			t.Fatalf("ListByTenant: %v", err)
		}
		if len(docs) != 3 {
			t.Errorf("expected 3 insurer documents, got %d", len(docs))
		}

		stored, err := audit.NewStore(globalPool).Recent(ctx, 1000)
		if err != nil {
			t.Fatalf("Recent: %v", err)
		}
		seen := map[string]int{}
		for _, e := range stored {
			seen[e.ID]++
		}
		for _, id := range []string{"a-001", "a-002", "a-003"} {
			if seen[id] != 1 {
				t.Errorf("expected %s stored once, got %d", id, seen[id])
			}
		}
	})
}
