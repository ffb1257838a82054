// Package schedule computes raid occurrence instants. It is pure: the same
// inputs always produce the same output, and nothing here touches the clock.
package schedule

import (
	"errors"
	"sort"
	"time"

	"raidbot/internal/catalog"
)

// ErrNoTriggers is returned for an event with an empty trigger list. The
// catalog prevents this on add/update; callers still defend against it.
var ErrNoTriggers = errors.New("event has no trigger times")

// Next returns the earliest instant strictly after now that matches trig's
// hour/minute and lies on the event's recurrence cadence.
//
// The candidate starts at the anchor's calendar date combined with the
// trigger time (seconds zeroed) and advances by RecurrenceDays while it is
// not strictly after now. Advancing on equality means the boundary minute
// rolls forward to the next cycle, so a minute-granular poller observes each
// occurrence exactly once.
func Next(e catalog.RaidEvent, trig catalog.TriggerTime, now time.Time) time.Time {
	loc := e.Anchor.Location()
	if loc == nil {
		loc = time.UTC
	}
	step := e.RecurrenceDays
	if step < 1 {
		step = 1
	}

	cand := time.Date(e.Anchor.Year(), e.Anchor.Month(), e.Anchor.Day(),
		trig.Hour, trig.Minute, 0, 0, loc)
	for !cand.After(now) {
		cand = cand.AddDate(0, 0, step)
	}
	return cand
}

// Occurs reports whether now lies exactly on one of the trigger's occurrence
// instants at minute granularity. Because Next advances past equality, the
// check rewinds the reference by one minute: the first candidate strictly
// after now-1m is now itself exactly when now is an occurrence.
func Occurs(e catalog.RaidEvent, trig catalog.TriggerTime, now time.Time) bool {
	return Next(e, trig, now.Add(-time.Minute)).Equal(now)
}

// NextAny returns the event's overall next occurrence: the minimum of Next
// across all trigger times. Used for single-value display; alerting must
// evaluate every trigger independently.
func NextAny(e catalog.RaidEvent, now time.Time) (time.Time, error) {
	if len(e.Triggers) == 0 {
		return time.Time{}, ErrNoTriggers
	}
	var best time.Time
	for _, trig := range e.Triggers {
		n := Next(e, trig, now)
		if best.IsZero() || n.Before(best) {
			best = n
		}
	}
	return best, nil
}

// Upcoming is one (event, trigger) occurrence stream entry.
type Upcoming struct {
	Event   catalog.RaidEvent
	Trigger catalog.TriggerTime
	At      time.Time
	Until   time.Duration
}

// UpcomingAll expands every event into per-trigger occurrence entries sorted
// by time remaining. Events with no trigger times are skipped.
func UpcomingAll(events []catalog.RaidEvent, now time.Time) []Upcoming {
	var out []Upcoming
	for _, e := range events {
		for _, trig := range e.Triggers {
			at := Next(e, trig, now)
			out = append(out, Upcoming{
				Event:   e,
				Trigger: trig,
				At:      at,
				Until:   at.Sub(now),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].At.Equal(out[j].At) {
			return out[i].At.Before(out[j].At)
		}
		return out[i].Event.Name < out[j].Event.Name
	})
	return out
}
