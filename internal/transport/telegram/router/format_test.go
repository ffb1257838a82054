package router

import (
	"strings"
	"testing"
	"time"

	"raidbot/internal/catalog"
	"raidbot/internal/schedule"
)

func TestFormatRemaining(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "AVAILABLE NOW!"},
		{-time.Minute, "AVAILABLE NOW!"},
		{45 * time.Second, "0h 0m 45s (KST)"},
		{90 * time.Minute, "1h 30m 0s (KST)"},
		{23*time.Hour + 59*time.Minute + 59*time.Second, "23h 59m 59s (KST)"},
		{24 * time.Hour, "1 Day (KST)"},
		{36 * time.Hour, "1 Day (KST)"},
		{5 * 24 * time.Hour, "5 Days (KST)"},
	}
	for _, c := range cases {
		if got := formatRemaining(c.d); got != c.want {
			t.Errorf("formatRemaining(%v) = %q, want %q", c.d, got, c.want)
		}
	}
}

func TestTriggerListAndRecurrenceText(t *testing.T) {
	if got := triggerList([]catalog.TriggerTime{{Hour: 19, Minute: 30}, {Hour: 21, Minute: 30}}); got != "19:30, 21:30" {
		t.Fatalf("triggerList = %q", got)
	}
	if got := recurrenceText(1); got != "daily" {
		t.Fatalf("recurrenceText(1) = %q", got)
	}
	if got := recurrenceText(6); got != "every 6 days" {
		t.Fatalf("recurrenceText(6) = %q", got)
	}
}

func TestRenderUpcoming(t *testing.T) {
	kst := time.FixedZone("KST", 9*3600)
	now := time.Date(2025, 8, 20, 10, 0, 0, 0, kst)
	e := catalog.RaidEvent{
		Name:         "Pumpkinmon",
		Category:     catalog.CategoryData,
		CategoryIcon: "X",
	}
	ups := []schedule.Upcoming{{
		Event:   e,
		Trigger: catalog.TriggerTime{Hour: 19, Minute: 30},
		At:      time.Date(2025, 8, 20, 19, 30, 0, 0, kst),
		Until:   9*time.Hour + 30*time.Minute,
	}}

	msg := renderUpcoming(ups, now)
	if !strings.Contains(msg.Text, "<b>Pumpkinmon</b>") {
		t.Fatalf("missing bold name:\n%s", msg.Text)
	}
	if !strings.Contains(msg.Text, "(19:30)") {
		t.Fatalf("missing trigger time:\n%s", msg.Text)
	}
	if !strings.Contains(msg.Text, "9h 30m 0s (KST)") {
		t.Fatalf("missing remaining time:\n%s", msg.Text)
	}

	empty := renderUpcoming(nil, now)
	if !strings.Contains(empty.Text, "no raids in the catalog") {
		t.Fatalf("empty catalog message:\n%s", empty.Text)
	}
}

func TestRenderEventDetail(t *testing.T) {
	kst := time.FixedZone("KST", 9*3600)
	now := time.Date(2025, 8, 20, 10, 0, 0, 0, kst)
	e := catalog.RaidEvent{
		Name:           "Omegamon",
		Category:       catalog.CategoryVaccine,
		Location:       "Valley Of Darkness",
		Reward:         "Sacred Codes",
		Triggers:       []catalog.TriggerTime{{Hour: 14, Minute: 30}},
		RecurrenceDays: 6,
		Image:          "https://example.com/omegamon.png",
	}
	next := time.Date(2025, 8, 24, 14, 30, 0, 0, kst)

	msg := renderEventDetail(e, next, now)
	for _, want := range []string{
		"Valley Of Darkness",
		"every 6 days",
		"2025-08-24 14:30",
		"4 Days (KST)",
		`href="https://example.com/omegamon.png"`,
	} {
		if !strings.Contains(msg.Text, want) {
			t.Fatalf("missing %q in:\n%s", want, msg.Text)
		}
	}
}

func TestRenderStats(t *testing.T) {
	now := time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC)
	st := catalog.Stats{
		Total: 3,
		ByCategory: map[string]int{
			catalog.CategoryData:  2,
			catalog.CategoryVirus: 1,
		},
		ByReward: map[string]int{
			"Digital Hazard Coin": 2,
			"Sacred Codes":        1,
		},
	}
	msg := renderStats(st, now)
	if !strings.Contains(msg.Text, "By type") || !strings.Contains(msg.Text, "By reward") {
		t.Fatalf("missing sections:\n%s", msg.Text)
	}
	// Virus count present, Vaccine (zero) absent.
	if !strings.Contains(msg.Text, catalog.CategoryVirus) {
		t.Fatalf("missing virus count:\n%s", msg.Text)
	}
	if strings.Contains(msg.Text, catalog.CategoryVaccine) {
		t.Fatalf("zero-count category rendered:\n%s", msg.Text)
	}
}
