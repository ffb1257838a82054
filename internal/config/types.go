package config

type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`

	// Timezone is the fixed operating time zone for trigger times and anchor
	// dates. Defaults to "Asia/Seoul" (raid schedules are published in KST).
	Timezone string `json:"timezone,omitempty"`

	Alerts  AlertsConfig   `json:"alerts"`
	Catalog CatalogConfig  `json:"catalog"`
	Deliver *DeliverConfig `json:"deliver,omitempty"`
}

type TelegramConfig struct {
	Token        string  `json:"token"`
	OwnerUserIDs []int64 `json:"owner_user_ids"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// AlertsConfig controls the occurrence poller.
//
// All durations are Go duration strings (e.g. "60s", "20m").
//
// SpawnAlert is a pointer so we can distinguish "omitted" (default true)
// from an explicit false.
type AlertsConfig struct {
	Enabled bool `json:"enabled"`

	// PollInterval is the check cadence. Default "60s"; trigger times are
	// minute-granular, so sub-minute intervals buy nothing.
	PollInterval string `json:"poll_interval,omitempty"`

	// EarlyWarning is the lead time before a spawn. Default "20m".
	EarlyWarning string `json:"early_warning,omitempty"`

	SpawnAlert *bool `json:"spawn_alert,omitempty"`

	// MentionAll prefixes spawn alerts with a broad-audience mention.
	MentionAll bool `json:"mention_all,omitempty"`

	// Chats seeds the destination registry at startup. Destinations can also
	// be registered at runtime via /setchannel and by auto-discovery.
	Chats []ChatRef `json:"chats,omitempty"`
}

type ChatRef struct {
	ChatID   int64 `json:"chat_id"`
	ThreadID int   `json:"thread_id,omitempty"`
}

// DeliverConfig controls the async delivery pipeline. If the whole section
// is omitted, defaults apply (2 workers, queue 512, 3 msg/s, 2 retries).
type DeliverConfig struct {
	Workers       int    `json:"workers,omitempty"`
	QueueSize     int    `json:"queue_size,omitempty"`
	RatePerSec    int    `json:"rate_per_sec,omitempty"`
	RetryMax      int    `json:"retry_max,omitempty"`
	RetryBase     string `json:"retry_base,omitempty"`
	RetryMaxDelay string `json:"retry_max_delay,omitempty"`
}

// CatalogConfig controls the durable event store.
//
// Driver values:
//   - "file" (default): single JSON document, atomically replaced on save
//   - "sqlite": SQLite database file
type CatalogConfig struct {
	Driver string `json:"driver,omitempty"`
	Path   string `json:"path,omitempty"`
	// BusyTimeout is a Go duration string (sqlite only).
	BusyTimeout string `json:"busy_timeout,omitempty"`
}
