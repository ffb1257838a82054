package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	logx "raidbot/pkg/logx"
)

func openTestSQLite(t *testing.T) Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	st, err := Open(Config{Driver: "sqlite", Path: path, BusyTimeout: time.Second}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestSQLiteLoadEmpty(t *testing.T) {
	st := openTestSQLite(t)
	if _, err := st.Load(context.Background()); !errors.Is(err, ErrNotExist) {
		t.Fatalf("err = %v, want ErrNotExist", err)
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	st := openTestSQLite(t)
	ctx := context.Background()

	before := time.Now()
	doc := &Document{Events: []EventRecord{testRecord("Pumpkinmon"), testRecord("Datamon")}}
	if err := st.Save(ctx, doc); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Version != SchemaVersion {
		t.Fatalf("version = %q, want %q", got.Version, SchemaVersion)
	}
	if got.UpdatedAt.Before(before) {
		t.Fatalf("last_updated not stamped: %v", got.UpdatedAt)
	}
	if len(got.Events) != 2 {
		t.Fatalf("events = %d, want 2", len(got.Events))
	}
	// Catalog order survives the round trip.
	if got.Events[0].Name != "Pumpkinmon" || got.Events[1].Name != "Datamon" {
		t.Fatalf("order = %q, %q", got.Events[0].Name, got.Events[1].Name)
	}

	r := got.Events[0]
	if r.Category != "Data" || r.RecurrenceDays != 1 || r.Anchor != "2025-08-18T19:30:00+09:00" {
		t.Fatalf("record fields lost: %+v", r)
	}
	if len(r.Triggers) != 2 || r.Triggers[0] != "19:30" || r.Triggers[1] != "21:30" {
		t.Fatalf("triggers round trip: %v", r.Triggers)
	}
}

func TestSQLiteSaveReplaces(t *testing.T) {
	st := openTestSQLite(t)
	ctx := context.Background()

	if err := st.Save(ctx, &Document{Events: []EventRecord{testRecord("A"), testRecord("B")}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	first, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Second save replaces the event set and updates the existing meta rows.
	if err := st.Save(ctx, &Document{Events: []EventRecord{testRecord("C")}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Events) != 1 || got.Events[0].Name != "C" {
		t.Fatalf("events = %+v, want just C", got.Events)
	}
	if got.UpdatedAt.Before(first.UpdatedAt) {
		t.Fatalf("last_updated went backwards: %v -> %v", first.UpdatedAt, got.UpdatedAt)
	}
}
