package alerts

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"raidbot/internal/notifier"
	logx "raidbot/pkg/logx"
	"raidbot/pkg/tgui"
)

// Dispatcher renders alerts and broadcasts them through the notifier.
// It implements Sink.
type Dispatcher struct {
	log logx.Logger
	n   *notifier.Service

	mu         sync.Mutex
	mentionAll bool
}

func NewDispatcher(n *notifier.Service, mentionAll bool, log logx.Logger) *Dispatcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Dispatcher{log: log, n: n, mentionAll: mentionAll}
}

// Apply updates the broadcast-mention toggle.
func (d *Dispatcher) Apply(mentionAll bool) {
	d.mu.Lock()
	d.mentionAll = mentionAll
	d.mu.Unlock()
}

func (d *Dispatcher) Deliver(ctx context.Context, a Alert) error {
	msg := d.render(a)
	n, err := d.n.Broadcast(ctx, msg.Text, msg.Opt)
	if err != nil {
		return err
	}
	d.log.Debug("alert broadcast queued",
		logx.String("id", a.ID), logx.Int("destinations", n))
	return nil
}

func (d *Dispatcher) render(a Alert) tgui.Message {
	d.mu.Lock()
	mention := d.mentionAll
	d.mu.Unlock()

	e := a.Event
	b := tgui.New()

	switch a.Kind {
	case KindSpawn:
		b.RawLine(mentionPrefix(mention) + "🚨 " + tgui.B(e.Name).String() + " is spawning now!")
	default:
		b.RawLine(mentionPrefix(mention) + "⏰ " + tgui.B(e.Name).String() +
			" spawns in " + formatLead(a.Lead))
		b.KV("When", a.At.Format("15:04 MST"))
	}
	b.KV("Location", e.Location)
	b.KV("Reward", strings.TrimSpace(e.RewardIcon+" "+e.Reward))
	b.KV("Type", strings.TrimSpace(e.CategoryIcon+" "+e.Category))
	if e.Image != "" {
		b.RawLine(tgui.Link("Preview", e.Image).String())
	}
	return b.Build()
}

func mentionPrefix(on bool) string {
	if on {
		return "📢 "
	}
	return ""
}

func formatLead(d time.Duration) string {
	m := int(d.Round(time.Minute) / time.Minute)
	if m <= 0 {
		return "less than a minute"
	}
	if m == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}
