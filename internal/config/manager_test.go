package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
  "telegram": {"token": "123:abc", "owner_user_ids": [42], "poll_timeout": "10s"},
  "logging": {"level": "debug", "console": true},
  "timezone": "Asia/Seoul",
  "alerts": {"enabled": true, "early_warning": "15m", "spawn_alert": false},
  "catalog": {"driver": "sqlite", "path": "cat.db"}
}`)
	cfg, err := NewManager(path).Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" || cfg.Telegram.OwnerUserIDs[0] != 42 {
		t.Fatalf("telegram = %+v", cfg.Telegram)
	}
	if cfg.Alerts.EarlyWarning != "15m" {
		t.Fatalf("early_warning = %q", cfg.Alerts.EarlyWarning)
	}
	if cfg.Alerts.SpawnAlert == nil || *cfg.Alerts.SpawnAlert {
		t.Fatal("explicit spawn_alert=false lost")
	}
	if cfg.Catalog.Driver != "sqlite" {
		t.Fatalf("catalog = %+v", cfg.Catalog)
	}
}

func TestParseYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
telegram:
  token: "123:abc"
  owner_user_ids: [1, 2]
logging:
  level: info
  console: true
alerts:
  enabled: true
  chats:
    - chat_id: -100123
      thread_id: 7
`)
	cfg, err := NewManager(path).Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cfg.Telegram.OwnerUserIDs) != 2 {
		t.Fatalf("owners = %v", cfg.Telegram.OwnerUserIDs)
	}
	if len(cfg.Alerts.Chats) != 1 || cfg.Alerts.Chats[0].ChatID != -100123 || cfg.Alerts.Chats[0].ThreadID != 7 {
		t.Fatalf("chats = %+v", cfg.Alerts.Chats)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "config.json", `{"telegram": {"token": "x"}, "logging": {}, "alrets": {}}`)
	if _, err := NewManager(path).Parse(); err == nil {
		t.Fatal("unknown top-level key must be rejected")
	}
}

func TestParseRejectsTrailingData(t *testing.T) {
	path := writeConfig(t, "config.json", `{"telegram": {"token": "x"}, "logging": {}, "alerts": {}, "catalog": {}} {"extra": 1}`)
	if _, err := NewManager(path).Parse(); err == nil {
		t.Fatal("trailing JSON must be rejected")
	}
}

func TestLoadCommitsAndGet(t *testing.T) {
	path := writeConfig(t, "config.json", `{"telegram": {"token": "x"}, "logging": {}, "alerts": {}, "catalog": {}}`)
	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Get() != cfg {
		t.Fatal("Get must return the committed config")
	}
}

func TestSubscribePublishUnsubscribe(t *testing.T) {
	m := NewManager("unused")
	ch := m.Subscribe(1)

	cfg := &Config{}
	m.publish(cfg)
	select {
	case got := <-ch:
		if got != cfg {
			t.Fatal("wrong config delivered")
		}
	case <-time.After(time.Second):
		t.Fatal("publish did not deliver")
	}

	// A full buffer gets the stale item replaced, not a blocked publish.
	m.publish(&Config{Timezone: "old"})
	newest := &Config{Timezone: "new"}
	m.publish(newest)
	if got := <-ch; got != newest {
		t.Fatalf("got timezone %q, want newest", got.Timezone)
	}

	m.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Fatal("channel must be closed after Unsubscribe")
	}
	m.publish(cfg) // must not panic
}

func TestParseDurationField(t *testing.T) {
	if d, err := ParseDurationField("x", "  "); err != nil || d != 0 {
		t.Fatalf("blank: d=%v err=%v", d, err)
	}
	if d, err := ParseDurationField("x", "90s"); err != nil || d != 90*time.Second {
		t.Fatalf("90s: d=%v err=%v", d, err)
	}
	if _, err := ParseDurationField("x", "-5s"); err == nil {
		t.Fatal("negative duration must fail")
	}
	if _, err := ParseDurationField("x", "soon"); err == nil {
		t.Fatal("garbage duration must fail")
	}
}

func TestParseDurationOrDefault(t *testing.T) {
	if d, err := ParseDurationOrDefault("x", "", time.Minute); err != nil || d != time.Minute {
		t.Fatalf("default: d=%v err=%v", d, err)
	}
	if d, err := ParseDurationOrDefault("x", "20m", time.Minute); err != nil || d != 20*time.Minute {
		t.Fatalf("explicit: d=%v err=%v", d, err)
	}
	if _, err := ParseDurationOrDefault("x", "nope", time.Minute); err == nil {
		t.Fatal("garbage duration must fail")
	}
}
