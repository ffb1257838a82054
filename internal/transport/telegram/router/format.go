package router

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"raidbot/internal/catalog"
	"raidbot/internal/schedule"
	"raidbot/pkg/tgui"
)

// formatRemaining renders time-until-spawn the way dsrworldwiki.com does:
// whole days once past 24h, otherwise h/m/s.
func formatRemaining(d time.Duration) string {
	if d <= 0 {
		return "AVAILABLE NOW!"
	}
	total := int(d.Seconds())
	days := total / (24 * 3600)
	hours := (total % (24 * 3600)) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if days > 0 {
		if days == 1 {
			return "1 Day (KST)"
		}
		return fmt.Sprintf("%d Days (KST)", days)
	}
	return fmt.Sprintf("%dh %dm %ds (KST)", hours, minutes, seconds)
}

func triggerList(ts []catalog.TriggerTime) string {
	parts := make([]string, 0, len(ts))
	for _, t := range ts {
		parts = append(parts, t.String())
	}
	return strings.Join(parts, ", ")
}

func recurrenceText(days int) string {
	if days == 1 {
		return "daily"
	}
	return fmt.Sprintf("every %d days", days)
}

func renderUpcoming(ups []schedule.Upcoming, now time.Time) tgui.Message {
	b := tgui.New().Title("⚔️", "Upcoming Raids")
	if len(ups) == 0 {
		b.Line("no raids in the catalog")
		return b.Build()
	}
	b.Line(now.Format("2006-01-02 15:04 MST")).Blank()
	for i, u := range ups {
		e := u.Event
		b.RawLine(fmt.Sprintf("%d. %s %s (%s) — %s",
			i+1,
			tgui.Esc(e.CategoryIcon),
			tgui.B(e.Name),
			u.Trigger.String(),
			tgui.Esc(formatRemaining(u.Until))))
	}
	return b.Build()
}

func renderEventDetail(e catalog.RaidEvent, next time.Time, now time.Time) tgui.Message {
	b := tgui.New().
		Title("📊", e.Name+" — Raid Info").
		KV("Type", strings.TrimSpace(e.CategoryIcon+" "+e.Category)).
		KV("Map", e.Location).
		KV("Reward", strings.TrimSpace(e.RewardIcon+" "+e.Reward)).
		KV("Spawn times", triggerList(e.Triggers)).
		KV("Recurrence", recurrenceText(e.RecurrenceDays))
	if !next.IsZero() {
		b.KV("Next spawn", next.Format("2006-01-02 15:04 MST")).
			KV("Respawn", formatRemaining(next.Sub(now)))
	}
	if e.Image != "" {
		b.RawLine(tgui.Link("Image", e.Image).String())
	}
	return b.Build()
}

func renderStats(st catalog.Stats, now time.Time) tgui.Message {
	b := tgui.New().
		Title("📈", "Raid Statistics").
		KV("Monitored raids", fmt.Sprintf("%d", st.Total)).
		KV("Time (KST)", now.Format("2006-01-02 15:04:05 MST")).
		Blank().
		Section("By type")
	for _, cat := range []string{catalog.CategoryData, catalog.CategoryVirus, catalog.CategoryVaccine} {
		if n := st.ByCategory[cat]; n > 0 {
			b.KV(cat, fmt.Sprintf("%d", n))
		}
	}
	if len(st.ByReward) > 0 {
		b.Blank().Section("By reward")
		rewards := make([]string, 0, len(st.ByReward))
		for reward := range st.ByReward {
			rewards = append(rewards, reward)
		}
		sort.Strings(rewards)
		for _, reward := range rewards {
			b.KV(reward, fmt.Sprintf("%d", st.ByReward[reward]))
		}
	}
	return b.Build()
}
