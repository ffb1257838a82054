package router

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"raidbot/internal/alerts"
	"raidbot/internal/catalog"
	"raidbot/internal/ical"
	"raidbot/internal/notifier"
	"raidbot/internal/schedule"
	kit "raidbot/internal/transport"
	"raidbot/pkg/tgui"
)

// Deps bundles the services the command handlers operate on.
type Deps struct {
	Catalog  *catalog.Service
	Poller   *alerts.Poller
	Notifier *notifier.Service
	Started  time.Time

	// Clock defaults to time.Now; tests override it.
	Clock func() time.Time
}

func (d Deps) now() time.Time {
	clock := d.Clock
	if clock == nil {
		clock = time.Now
	}
	return clock().In(d.Catalog.Location())
}

// Commands builds the full command set.
func Commands(d Deps) []Command {
	return []Command{
		{
			Name:        "raids",
			Description: "list all upcoming raids",
			Usage:       "/raids",
			Handle:      d.handleRaids,
		},
		{
			Name:        "raid",
			Aliases:     []string{"next"},
			Description: "show one raid's details and next spawn",
			Usage:       "/raid <name>",
			Handle:      d.handleRaid,
		},
		{
			Name:        "kst",
			Description: "show the current time in KST",
			Usage:       "/kst",
			Handle:      d.handleKST,
		},
		{
			Name:        "stats",
			Description: "catalog statistics",
			Usage:       "/stats",
			Handle:      d.handleStats,
		},
		{
			Name:        "status",
			Description: "bot status",
			Usage:       "/status",
			Access:      AccessOwnerOnly,
			Handle:      d.handleStatus,
		},
		{
			Name:        "setchannel",
			Description: "send raid alerts to this chat",
			Usage:       "/setchannel",
			Access:      AccessOwnerOnly,
			Handle:      d.handleSetChannel,
		},
		{
			Name:        "unsetchannel",
			Description: "stop raid alerts in this chat",
			Usage:       "/unsetchannel",
			Access:      AccessOwnerOnly,
			Handle:      d.handleUnsetChannel,
		},
		{
			Name:        "addraid",
			Description: "add a raid event",
			Usage:       `/addraid name=<n> type=<Data|Virus|Vaccine> map=<m> reward=<r> times=HH:MM[,HH:MM] [days=N] [start=YYYY-MM-DD] [image=url]`,
			Access:      AccessOwnerOnly,
			Handle:      d.handleAddRaid,
		},
		{
			Name:        "removeraid",
			Description: "remove a raid event",
			Usage:       "/removeraid <name>",
			Access:      AccessOwnerOnly,
			Handle:      d.handleRemoveRaid,
		},
		{
			Name:        "updateraid",
			Description: "update fields of a raid event",
			Usage:       "/updateraid <name> [type=..] [map=..] [reward=..] [times=..] [days=N] [start=YYYY-MM-DD] [image=url]",
			Access:      AccessOwnerOnly,
			Handle:      d.handleUpdateRaid,
		},
		{
			Name:        "export",
			Description: "export the raid schedule as iCalendar",
			Usage:       "/export",
			Timeout:     30 * time.Second,
			Handle:      d.handleExport,
		},
	}
}

func (d Deps) handleRaids(ctx context.Context, req *Request) error {
	now := d.now()
	ups := schedule.UpcomingAll(d.Catalog.All(), now)
	return req.Reply(ctx, renderUpcoming(ups, now))
}

func (d Deps) handleRaid(ctx context.Context, req *Request) error {
	name := strings.Join(req.Args, " ")
	if strings.TrimSpace(name) == "" {
		return req.ReplyText(ctx, "usage: /raid <name>")
	}
	e, ok := d.Catalog.Find(name)
	if !ok {
		return req.Reply(ctx, d.notFoundMessage(name))
	}
	now := d.now()
	next, err := schedule.NextAny(e, now)
	if err != nil {
		next = time.Time{}
	}
	return req.Reply(ctx, renderEventDetail(e, next, now))
}

func (d Deps) notFoundMessage(name string) tgui.Message {
	b := tgui.New().
		RawLine("❌ " + tgui.B(name).String() + " not found").
		Blank().
		Section("Available raids")
	for _, e := range d.Catalog.All() {
		b.Line("• " + e.Name)
	}
	return b.Build()
}

func (d Deps) handleKST(ctx context.Context, req *Request) error {
	now := d.now()
	msg := tgui.New().
		Title("🕒", "Current Time").
		KV("KST", now.Format("2006-01-02 15:04:05 MST")).
		KV("Used by", "Digimon Super Rumble (KST server time)").
		Build()
	return req.Reply(ctx, msg)
}

func (d Deps) handleStats(ctx context.Context, req *Request) error {
	return req.Reply(ctx, renderStats(d.Catalog.Stats(), d.now()))
}

func (d Deps) handleStatus(ctx context.Context, req *Request) error {
	st := d.Poller.Status()
	dests := d.Notifier.Registry().List()
	now := d.now()

	running := "stopped"
	if st.Running {
		running = "running"
	}
	b := tgui.New().
		Title("🤖", "Bot Status").
		KV("Time (KST)", now.Format("2006-01-02 15:04:05 MST")).
		KV("Uptime", time.Since(d.Started).Round(time.Second).String()).
		KV("Monitored raids", strconv.Itoa(d.Catalog.Count())).
		KV("Poller", running).
		KV("Poll interval", st.PollInterval.String()).
		KV("Early warning", st.EarlyWarning.String()).
		KV("Spawn alerts", strconv.FormatBool(st.SpawnAlert)).
		KV("Ticks", strconv.FormatUint(st.Ticks, 10)).
		Blank().
		Section("Alert destinations")
	if len(dests) == 0 {
		b.Line("none configured (auto-discovery will pick one)")
	}
	for _, t := range dests {
		line := strconv.FormatInt(t.ChatID, 10)
		if t.ThreadID != 0 {
			line += " (thread " + strconv.Itoa(t.ThreadID) + ")"
		}
		b.Line("• " + line)
	}

	ups := schedule.UpcomingAll(d.Catalog.All(), now)
	if len(ups) > 0 {
		b.Blank().Section("Next spawns")
		for i, u := range ups {
			if i == 3 {
				break
			}
			b.RawLine("• " + tgui.B(u.Event.Name).String() + " " +
				tgui.Esc(u.At.Format("15:04")+" ("+formatRemaining(u.Until)+")").String())
		}
	}
	return req.Reply(ctx, b.Build())
}

func (d Deps) handleSetChannel(ctx context.Context, req *Request) error {
	d.Notifier.Registry().Set(req.Chat)
	req.Logger.Info("alert destination registered")
	return req.ReplyText(ctx, "✅ raid alerts will be sent to this chat")
}

func (d Deps) handleUnsetChannel(ctx context.Context, req *Request) error {
	if !d.Notifier.Registry().Remove(req.Chat.ChatID) {
		return req.ReplyText(ctx, "this chat was not receiving alerts")
	}
	req.Logger.Info("alert destination removed")
	return req.ReplyText(ctx, "🔕 raid alerts disabled for this chat")
}

func (d Deps) handleAddRaid(ctx context.Context, req *Request) error {
	e := catalog.RaidEvent{
		Name:     req.KV["name"],
		Category: req.KV["type"],
		Location: req.KV["map"],
		Reward:   req.KV["reward"],
		Image:    req.KV["image"],
	}
	if v, ok := req.KV["times"]; ok {
		ts, err := catalog.ParseTriggerList(v)
		if err != nil {
			return req.ReplyText(ctx, "❌ "+err.Error())
		}
		e.Triggers = ts
	}
	e.RecurrenceDays = 1
	if v, ok := req.KV["days"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req.ReplyText(ctx, "❌ days must be a number")
		}
		e.RecurrenceDays = n
	}
	if v, ok := req.KV["start"]; ok {
		t, err := time.ParseInLocation("2006-01-02", v, d.Catalog.Location())
		if err != nil {
			return req.ReplyText(ctx, "❌ start must be YYYY-MM-DD")
		}
		e.Anchor = t
	}

	if err := d.Catalog.Add(ctx, e); err != nil {
		switch {
		case errors.Is(err, catalog.ErrDuplicate):
			return req.ReplyText(ctx, fmt.Sprintf("❌ %q already exists", e.Name))
		default:
			return req.ReplyText(ctx, "❌ "+err.Error())
		}
	}
	added, _ := d.Catalog.Get(e.Name)
	return req.Reply(ctx, renderEventDetail(added, time.Time{}, d.now()))
}

func (d Deps) handleRemoveRaid(ctx context.Context, req *Request) error {
	name := strings.Join(req.Args, " ")
	if strings.TrimSpace(name) == "" {
		return req.ReplyText(ctx, "usage: /removeraid <name>")
	}
	if err := d.Catalog.Remove(ctx, name); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return req.Reply(ctx, d.notFoundMessage(name))
		}
		return req.ReplyText(ctx, "❌ "+err.Error())
	}
	return req.ReplyText(ctx, "🗑️ removed "+name)
}

func (d Deps) handleUpdateRaid(ctx context.Context, req *Request) error {
	name := strings.Join(req.Args, " ")
	if v, ok := req.KV["name"]; ok && strings.TrimSpace(name) == "" {
		name = v
	}
	if strings.TrimSpace(name) == "" {
		return req.ReplyText(ctx, "usage: /updateraid <name> field=value ...")
	}

	var p catalog.Patch
	if v, ok := req.KV["type"]; ok {
		p.Category = &v
	}
	if v, ok := req.KV["map"]; ok {
		p.Location = &v
	}
	if v, ok := req.KV["reward"]; ok {
		p.Reward = &v
	}
	if v, ok := req.KV["image"]; ok {
		p.Image = &v
	}
	if v, ok := req.KV["times"]; ok {
		ts, err := catalog.ParseTriggerList(v)
		if err != nil {
			return req.ReplyText(ctx, "❌ "+err.Error())
		}
		p.Triggers = ts
	}
	if v, ok := req.KV["days"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req.ReplyText(ctx, "❌ days must be a number")
		}
		p.RecurrenceDays = &n
	}
	if v, ok := req.KV["start"]; ok {
		t, err := time.ParseInLocation("2006-01-02", v, d.Catalog.Location())
		if err != nil {
			return req.ReplyText(ctx, "❌ start must be YYYY-MM-DD")
		}
		p.Anchor = &t
	}

	updated, err := d.Catalog.Update(ctx, name, p)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return req.Reply(ctx, d.notFoundMessage(name))
		}
		return req.ReplyText(ctx, "❌ "+err.Error())
	}
	now := d.now()
	next, _ := schedule.NextAny(updated, now)
	return req.Reply(ctx, renderEventDetail(updated, next, now))
}

func (d Deps) handleExport(ctx context.Context, req *Request) error {
	ics, err := ical.Export(d.Catalog.All(), d.now())
	if err != nil {
		return req.ReplyText(ctx, "❌ export failed: "+err.Error())
	}
	opt := &kit.SendOptions{DisablePreview: true}
	for _, chunk := range tgui.SplitLines(ics, tgui.MaxMessageLen) {
		if _, err := req.Adapter.SendText(ctx, req.Chat, chunk, opt); err != nil {
			return err
		}
	}
	return nil
}
