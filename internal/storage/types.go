package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotExist is returned by Load when no catalog has been persisted yet.
	// The catalog service seeds the built-in defaults and writes immediately.
	ErrNotExist = errors.New("catalog store: no document")
)

// Config configures the catalog store.
//
// Driver values:
//   - "file" (or empty): single JSON document, atomically replaced on save
//   - "sqlite": SQLite database file
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// SchemaVersion is written into every persisted document.
const SchemaVersion = "1.0"

// Document is the persisted catalog: the event list plus metadata.
type Document struct {
	Version   string        `json:"version"`
	UpdatedAt time.Time     `json:"last_updated"`
	Events    []EventRecord `json:"events"`
}

// EventRecord is the serialized form of an event definition. Date/time fields
// use timezone-qualified RFC 3339 text; trigger times are "HH:MM" strings.
// The catalog owns the mapping to and from its domain type.
type EventRecord struct {
	Name           string   `json:"name"`
	Category       string   `json:"category"`
	Location       string   `json:"location"`
	Reward         string   `json:"reward"`
	Triggers       []string `json:"triggers"`
	RecurrenceDays int      `json:"recurrence_days"`
	Anchor         string   `json:"anchor"`
	Image          string   `json:"image,omitempty"`
	Color          int      `json:"color,omitempty"`
	CategoryIcon   string   `json:"category_icon,omitempty"`
	RewardIcon     string   `json:"reward_icon,omitempty"`
}

// Store is the persistence API used by the catalog service.
type Store interface {
	Load(ctx context.Context) (*Document, error)
	Save(ctx context.Context, doc *Document) error
	Close() error
}
