package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	logx "raidbot/pkg/logx"
)

func testRecord(name string) EventRecord {
	return EventRecord{
		Name:           name,
		Category:       "Data",
		Location:       "Shibuya",
		Reward:         "Digital Hazard Coin",
		Triggers:       []string{"19:30", "21:30"},
		RecurrenceDays: 1,
		Anchor:         "2025-08-18T19:30:00+09:00",
	}
}

func TestFileStoreLoadMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	if _, err := st.Load(context.Background()); !errors.Is(err, ErrNotExist) {
		t.Fatalf("err = %v, want ErrNotExist", err)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()
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
	if len(got.Events) != 2 || got.Events[0].Name != "Pumpkinmon" {
		t.Fatalf("events = %+v", got.Events)
	}
	if got.Events[1].Triggers[1] != "21:30" {
		t.Fatalf("triggers = %v", got.Events[1].Triggers)
	}
}

func TestFileStoreSaveReplacesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()
	ctx := context.Background()

	if err := st.Save(ctx, &Document{Events: []EventRecord{testRecord("A")}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := st.Save(ctx, &Document{Events: []EventRecord{testRecord("B")}}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Events) != 1 || got.Events[0].Name != "B" {
		t.Fatalf("events = %+v", got.Events)
	}
	if _, err := os.Stat(path + ".tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("temp file left behind after save")
	}
}

func TestFileStoreLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	if _, err := st.Load(context.Background()); err == nil || errors.Is(err, ErrNotExist) {
		t.Fatalf("corrupt document: err = %v, want parse error", err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(Config{Driver: "bolt"}, logx.Nop()); err == nil {
		t.Fatal("unknown driver must fail")
	}
}
