package integration

import (
	"context"
	"testing"
	"time"

	"github.com/mlastra-dana/PerfilabPortal/internal/domain/audit"
)

func TestAuditStore_WriteAndRecent(t *testing.T) {
	inRollbackTx(t, func(ctx context.Context) {
		store := audit.NewStore(globalPool)
		base := time.Date(2026, 2, 25, 13, 0, 0, 0, time.UTC)

		events := []audit.Event{
			{ID: "it-a-1", Type: audit.PageView, Actor: "demo-user", Message: "Navegacion a /results", Timestamp: base},
			{ID: "it-a-2", Type: audit.DocumentView, Actor: "demo-user", Message: "Visualizacion de resultado lr-001", Timestamp: base.Add(time.Minute)},
			{ID: "it-a-3", Type: audit.DownloadClicked, Actor: "demo-user", Message: "Click descarga PDF lr-001", Timestamp: base.Add(2 * time.Minute)},
		}
		for _, e := range events {
			if err := store.Write(ctx, e); err != nil {
				t.Fatalf("Write: %v", err)
			}
		}
		// Replays are ignored.
		if err := store.Write(ctx, events[0]); err != nil {
			t.Fatalf("duplicate Write: %v", err)
		}

		got, err := store.Recent(ctx, 2)
		if err != nil {
			t.Fatalf("Recent: %v", err)
		}
		if len(got) != 2 || got[0].ID != "it-a-3" || got[1].ID != "it-a-2" {
			t.Errorf("expected it-a-3, it-a-2; got %+v", got)
		}
		if got[0].Type != audit.DownloadClicked {
			t.Errorf("expected download_clicked, got %s", got[0].Type)
		}
	})
}

func TestAuditStore_RestoreIntoNewRecorder(t *testing.T) {
	inRollbackTx(t, func(ctx context.Context) {
		store := audit.NewStore(globalPool)
		// Far-future timestamps keep these rows newest in a shared database.
		base := time.Date(2099, 1, 1, 8, 0, 0, 0, time.UTC)
		events := []audit.Event{
			{ID: "it-r-1", Type: audit.PageView, Actor: "demo-user", Message: "Navegacion a /results", Timestamp: base},
			{ID: "it-r-2", Type: audit.DocumentView, Actor: "demo-user", Message: "Visualizacion de resultado lr-002", Timestamp: base.Add(time.Minute)},
		}
		for _, e := range events {
			if err := store.Write(ctx, e); err != nil {
				t.Fatalf("Write: %v", err)
			}
		}

		restarted := audit.NewRecorder()
		n, err := restarted.Restore(ctx, store, 2)
		if err != nil {
			t.Fatalf("Restore: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 restored events, got %d", n)
		}
		got := restarted.Events()
		if len(got) != 2 || got[0].ID != "it-r-2" || got[1].ID != "it-r-1" {
			t.Errorf("expected it-r-2, it-r-1; got %+v", got)
		}
	})
}
