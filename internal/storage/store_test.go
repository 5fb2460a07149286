package storage

import (
	"context"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir() + "/journal.sqlite")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestInsertAndListAlerts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	alerts := []Alert{
		{TxHash: "0x1", TargetAddress: "0xaaa", TargetName: "Whale1", Symbol: "ETH", Amount: "20.00", CreatedAt: base},
		{TxHash: "0x2", TargetAddress: "0xaaa", TargetName: "Whale1", Symbol: "USDC", Amount: "25000.00", CreatedAt: base.Add(time.Minute)},
		{TxHash: "0x3", TargetAddress: "0xbbb", TargetName: "Whale2", Symbol: "WETH", Amount: "11.50", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, a := range alerts {
		if err := store.InsertAlert(ctx, a); err != nil {
			t.Fatalf("insert %s: %v", a.TxHash, err)
		}
	}

	got, err := store.RecentAlerts(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(got))
	}
	if got[0].TxHash != "0x3" || got[1].TxHash != "0x2" {
		t.Fatalf("expected newest first, got %s then %s", got[0].TxHash, got[1].TxHash)
	}
	if got[0].Amount != "11.50" || got[0].Symbol != "WETH" {
		t.Fatalf("unexpected record: %+v", got[0])
	}
}

func TestInsertAlertIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := Alert{TxHash: "0x1", TargetAddress: "0xaaa", TargetName: "W", Symbol: "ETH", Amount: "20.00"}
	if err := store.InsertAlert(ctx, a); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.InsertAlert(ctx, a); err != nil {
		t.Fatalf("re-insert should be a no-op: %v", err)
	}

	got, err := store.RecentAlerts(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 alert after duplicate insert, got %d", len(got))
	}
}

func TestInsertAlertValidation(t *testing.T) {
	store := newTestStore(t)
	if err := store.InsertAlert(context.Background(), Alert{Symbol: "ETH"}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestPing(t *testing.T) {
	store := newTestStore(t)
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}

	var nilStore *Store
	if err := nilStore.Ping(context.Background()); err == nil {
		t.Fatal("nil store ping should fail")
	}
}
