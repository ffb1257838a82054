package alerts

import (
	"context"
	"time"

	"raidbot/internal/catalog"
)

// Kind classifies an alert emission.
type Kind string

const (
	// KindSpawn fires exactly at an occurrence's instant.
	KindSpawn Kind = "spawn"
	// KindEarlyWarning fires a fixed lead time before an occurrence.
	KindEarlyWarning Kind = "early_warning"
)

// Alert is the payload handed to the dispatcher: everything needed to render
// and deliver one notification for one (event, trigger) occurrence.
type Alert struct {
	ID      string
	Kind    Kind
	Event   catalog.RaidEvent
	Trigger catalog.TriggerTime
	At      time.Time     // the occurrence instant
	Lead    time.Duration // remaining time; zero for spawn alerts
}

// Sink receives alerts from the poller. Delivery errors are the sink's to
// absorb per destination; the returned error is logged by the poller and
// never aborts a tick.
type Sink interface {
	Deliver(ctx context.Context, a Alert) error
}
