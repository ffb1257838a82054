package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	logx "raidbot/pkg/logx"
)

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS events (
	name            TEXT PRIMARY KEY COLLATE NOCASE,
	category        TEXT NOT NULL,
	location        TEXT NOT NULL,
	reward          TEXT NOT NULL,
	triggers        TEXT NOT NULL, -- JSON array of "HH:MM"
	recurrence_days INTEGER NOT NULL,
	anchor          TEXT NOT NULL, -- RFC 3339 with zone offset
	image           TEXT NOT NULL DEFAULT '',
	color           INTEGER NOT NULL DEFAULT 0,
	category_icon   TEXT NOT NULL DEFAULT '',
	reward_icon     TEXT NOT NULL DEFAULT ''
);
`

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("catalog.path is required for the sqlite driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqliteStore{db: db, log: log}, nil
}

func (s *sqliteStore) Load(ctx context.Context) (*Document, error) {
	var updated string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'last_updated'`).Scan(&updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, err
	}

	doc := &Document{Version: SchemaVersion}
	if t, perr := time.Parse(time.RFC3339Nano, updated); perr == nil {
		doc.UpdatedAt = t
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, category, location, reward, triggers, recurrence_days,
		       anchor, image, color, category_icon, reward_icon
		FROM events ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var r EventRecord
		var triggers string
		if err := rows.Scan(&r.Name, &r.Category, &r.Location, &r.Reward, &triggers,
			&r.RecurrenceDays, &r.Anchor, &r.Image, &r.Color, &r.CategoryIcon, &r.RewardIcon); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(triggers), &r.Triggers); err != nil {
			return nil, fmt.Errorf("event %q: bad trigger list: %w", r.Name, err)
		}
		doc.Events = append(doc.Events, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Save replaces the whole catalog in one transaction. The catalog is small
// (tens of events), so a full rewrite is simpler than row-level diffs.
func (s *sqliteStore) Save(ctx context.Context, doc *Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	doc.Version = SchemaVersion
	doc.UpdatedAt = time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM events`); err != nil {
		return err
	}
	for _, r := range doc.Events {
		triggers, err := json.Marshal(r.Triggers)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO events(name, category, location, reward, triggers, recurrence_days,
			                   anchor, image, color, category_icon, reward_icon)
			VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
			r.Name, r.Category, r.Location, r.Reward, string(triggers), r.RecurrenceDays,
			r.Anchor, r.Image, r.Color, r.CategoryIcon, r.RewardIcon); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO meta(key, value) VALUES('version', ?), ('last_updated', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		doc.Version, doc.UpdatedAt.Format(time.RFC3339Nano)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.log.Debug("catalog saved", logx.Int("events", len(doc.Events)))
	return nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
