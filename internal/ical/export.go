// Package ical renders the raid schedule as an iCalendar feed. Each
// (event, trigger) pair becomes one recurring VEVENT anchored at its next
// occurrence.
package ical

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"raidbot/internal/catalog"
	"raidbot/internal/schedule"
)

const raidDuration = 30 * time.Minute

// Export serializes the catalog into iCalendar text. Events without trigger
// times are skipped.
func Export(events []catalog.RaidEvent, now time.Time) (string, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetXWRCalName("Digimon Raid Schedule")

	for _, e := range events {
		for _, trig := range e.Triggers {
			start := schedule.Next(e, trig, now)

			rule, err := rrule.NewRRule(rrule.ROption{
				Freq:     rrule.DAILY,
				Interval: e.RecurrenceDays,
				Dtstart:  start,
			})
			if err != nil {
				return "", fmt.Errorf("rrule for %s %s: %w", e.Name, trig.String(), err)
			}

			uid := fmt.Sprintf("%s-%s@raidbot", sanitizeUID(e.Name), trig.String())
			ev := cal.AddEvent(uid)
			ev.SetDtStampTime(now)
			ev.SetStartAt(start)
			ev.SetEndAt(start.Add(raidDuration))
			ev.SetSummary(fmt.Sprintf("%s raid", e.Name))
			ev.SetLocation(e.Location)
			ev.SetDescription(fmt.Sprintf("%s raid (%s), reward: %s", e.Name, e.Category, e.Reward))
			ev.AddRrule(rule.String())
		}
	}
	return cal.Serialize(), nil
}

func sanitizeUID(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		default:
			out = append(out, '-')
		}
	}
	return string(out)
}
