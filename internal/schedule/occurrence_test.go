package schedule

import (
	"testing"
	"time"

	"raidbot/internal/catalog"
)

var kst = time.FixedZone("KST", 9*3600)

func event(anchor time.Time, days int, triggers ...catalog.TriggerTime) catalog.RaidEvent {
	return catalog.RaidEvent{
		Name:           "Pumpkinmon",
		Category:       catalog.CategoryData,
		Location:       "Hidden Crevasse",
		Reward:         "Digital Hazard Coin",
		Triggers:       triggers,
		RecurrenceDays: days,
		Anchor:         anchor,
	}
}

func at(y int, mo time.Month, d, h, m int) time.Time {
	return time.Date(y, mo, d, h, m, 0, 0, kst)
}

func TestNextBeforeTriggerSameDay(t *testing.T) {
	e := event(at(2025, 8, 18, 0, 0), 1, catalog.TriggerTime{Hour: 19, Minute: 30})
	now := at(2025, 8, 20, 10, 0)
	got := Next(e, e.Triggers[0], now)
	if want := at(2025, 8, 20, 19, 30); !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestNextAfterTriggerRollsToNextCycle(t *testing.T) {
	e := event(at(2025, 8, 18, 0, 0), 1, catalog.TriggerTime{Hour: 19, Minute: 30})
	now := at(2025, 8, 20, 20, 0)
	got := Next(e, e.Triggers[0], now)
	if want := at(2025, 8, 21, 19, 30); !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestNextAdvancesOnExactBoundary(t *testing.T) {
	// At the exact occurrence minute, the result is the NEXT cycle.
	e := event(at(2025, 8, 18, 0, 0), 1, catalog.TriggerTime{Hour: 19, Minute: 30})
	now := at(2025, 8, 20, 19, 30)
	got := Next(e, e.Triggers[0], now)
	if want := at(2025, 8, 21, 19, 30); !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if !got.After(now) {
		t.Fatal("result must be strictly after now")
	}
}

func TestNextMultiDayRecurrence(t *testing.T) {
	e := event(at(2025, 8, 23, 0, 0), 5, catalog.TriggerTime{Hour: 16, Minute: 0})
	now := at(2025, 8, 25, 12, 0)
	got := Next(e, e.Triggers[0], now)
	if want := at(2025, 8, 28, 16, 0); !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestNextFutureAnchor(t *testing.T) {
	// Anchor in the future: first occurrence is on the anchor date itself.
	e := event(at(2025, 8, 31, 0, 0), 13, catalog.TriggerTime{Hour: 16, Minute: 0})
	now := at(2025, 8, 20, 12, 0)
	got := Next(e, e.Triggers[0], now)
	if want := at(2025, 8, 31, 16, 0); !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestNextIdempotentAndMonotonic(t *testing.T) {
	e := event(at(2025, 8, 18, 0, 0), 1, catalog.TriggerTime{Hour: 19, Minute: 30})
	now1 := at(2025, 8, 20, 10, 0)
	a := Next(e, e.Triggers[0], now1)
	b := Next(e, e.Triggers[0], now1)
	if !a.Equal(b) {
		t.Fatalf("not idempotent: %v vs %v", a, b)
	}
	for _, later := range []time.Time{
		at(2025, 8, 20, 19, 29),
		at(2025, 8, 20, 19, 30),
		at(2025, 8, 22, 3, 0),
	} {
		n := Next(e, e.Triggers[0], later)
		if n.Before(a) {
			t.Fatalf("monotonicity violated: Next(%v)=%v < Next(%v)=%v", later, n, now1, a)
		}
	}
}

func TestNextCadenceAlignedToAnchor(t *testing.T) {
	e := event(at(2025, 8, 24, 0, 0), 6, catalog.TriggerTime{Hour: 14, Minute: 30})
	got := Next(e, e.Triggers[0], at(2025, 9, 10, 0, 0))
	// Whole multiples of 6 days back from the result must land on the
	// anchor date.
	diff := got.Sub(at(2025, 8, 24, 14, 30))
	if rem := diff % (6 * 24 * time.Hour); rem != 0 {
		t.Fatalf("result %v not on 6-day cadence (off by %v)", got, rem)
	}
}

func TestOccursOnlyAtExactMinute(t *testing.T) {
	e := event(at(2025, 8, 18, 0, 0), 1, catalog.TriggerTime{Hour: 19, Minute: 30})
	trig := e.Triggers[0]
	if !Occurs(e, trig, at(2025, 8, 20, 19, 30)) {
		t.Fatal("expected occurrence at 19:30")
	}
	if Occurs(e, trig, at(2025, 8, 20, 19, 29)) {
		t.Fatal("no occurrence at 19:29")
	}
	if Occurs(e, trig, at(2025, 8, 20, 19, 31)) {
		t.Fatal("no occurrence at 19:31")
	}
}

func TestNextAnyPicksEarliestTrigger(t *testing.T) {
	// now 17:00: the 18:00 trigger is due today, the 16:00 one tomorrow.
	e := event(at(2025, 8, 18, 0, 0), 1,
		catalog.TriggerTime{Hour: 16, Minute: 0},
		catalog.TriggerTime{Hour: 18, Minute: 0})
	now := at(2025, 8, 20, 17, 0)

	got, err := NextAny(e, now)
	if err != nil {
		t.Fatalf("NextAny: %v", err)
	}
	if want := at(2025, 8, 20, 18, 0); !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	// Per-trigger results remain independent.
	if n := Next(e, e.Triggers[0], now); !n.Equal(at(2025, 8, 21, 16, 0)) {
		t.Fatalf("16:00 trigger: got %v", n)
	}
}

func TestNextAnyNoTriggers(t *testing.T) {
	e := event(at(2025, 8, 18, 0, 0), 1)
	if _, err := NextAny(e, at(2025, 8, 20, 10, 0)); err != ErrNoTriggers {
		t.Fatalf("err = %v, want ErrNoTriggers", err)
	}
}

func TestUpcomingAllSortedByTimeRemaining(t *testing.T) {
	a := event(at(2025, 8, 18, 0, 0), 1, catalog.TriggerTime{Hour: 19, Minute: 30})
	b := a
	b.Name = "Datamon"
	b.Triggers = []catalog.TriggerTime{{Hour: 12, Minute: 0}, {Hour: 23, Minute: 0}}
	now := at(2025, 8, 20, 10, 0)

	ups := UpcomingAll([]catalog.RaidEvent{a, b}, now)
	if len(ups) != 3 {
		t.Fatalf("entries = %d, want 3", len(ups))
	}
	for i := 1; i < len(ups); i++ {
		if ups[i].At.Before(ups[i-1].At) {
			t.Fatalf("not sorted: %v before %v", ups[i].At, ups[i-1].At)
		}
	}
	if ups[0].Event.Name != "Datamon" || ups[0].Trigger.Hour != 12 {
		t.Fatalf("first entry = %s %v", ups[0].Event.Name, ups[0].Trigger)
	}
}
