package catalog

import (
	"testing"
	"time"
)

func TestParseTriggerTime(t *testing.T) {
	cases := []struct {
		in      string
		want    TriggerTime
		wantErr bool
	}{
		{in: "19:30", want: TriggerTime{19, 30}},
		{in: " 01:05 ", want: TriggerTime{1, 5}},
		{in: "0:0", want: TriggerTime{0, 0}},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "-1:30", wantErr: true},
		{in: "1930", wantErr: true},
		{in: "aa:bb", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, c := range cases {
		got, err := ParseTriggerTime(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseTriggerTime(%q): expected error, got %v", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTriggerTime(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseTriggerTime(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseTriggerList(t *testing.T) {
	got, err := ParseTriggerList("19:30, 21:30,, 01:00")
	if err != nil {
		t.Fatalf("ParseTriggerList: %v", err)
	}
	want := []TriggerTime{{19, 30}, {21, 30}, {1, 0}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}

	if _, err := ParseTriggerList(" , "); err == nil {
		t.Fatal("empty list must fail")
	}
	if _, err := ParseTriggerList("19:30,25:00"); err == nil {
		t.Fatal("out-of-range entry must fail")
	}
}

func validEvent() RaidEvent {
	return RaidEvent{
		Name:           "Pumpkinmon",
		Category:       CategoryData,
		Location:       "Shibuya",
		Reward:         "Digital Hazard Coin",
		Triggers:       []TriggerTime{{19, 30}},
		RecurrenceDays: 1,
		Anchor:         time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC),
	}
}

func TestValidate(t *testing.T) {
	e := validEvent()
	if err := e.Validate(); err != nil {
		t.Fatalf("valid event rejected: %v", err)
	}

	mutations := []struct {
		name string
		mut  func(*RaidEvent)
	}{
		{"empty name", func(e *RaidEvent) { e.Name = "  " }},
		{"empty category", func(e *RaidEvent) { e.Category = "" }},
		{"empty location", func(e *RaidEvent) { e.Location = "" }},
		{"empty reward", func(e *RaidEvent) { e.Reward = "" }},
		{"no triggers", func(e *RaidEvent) { e.Triggers = nil }},
		{"bad trigger", func(e *RaidEvent) { e.Triggers = []TriggerTime{{25, 0}} }},
		{"zero recurrence", func(e *RaidEvent) { e.RecurrenceDays = 0 }},
	}
	for _, m := range mutations {
		e := validEvent()
		m.mut(&e)
		if err := e.Validate(); err == nil {
			t.Errorf("%s: expected validation error", m.name)
		}
	}
}

func TestApplyDefaults(t *testing.T) {
	now := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)

	e := RaidEvent{
		Name:     "Omegamon",
		Category: CategoryVaccine,
		Reward:   "Sacred Codes",
		Triggers: []TriggerTime{{21, 30}, {14, 30}},
	}
	e.applyDefaults(now)

	if !e.Anchor.Equal(now) {
		t.Fatalf("anchor = %v, want now", e.Anchor)
	}
	if e.CategoryIcon == "" || e.CategoryIcon == "❓" {
		t.Fatalf("category icon not derived: %q", e.CategoryIcon)
	}
	if e.RewardIcon != "⭐" {
		t.Fatalf("reward icon = %q", e.RewardIcon)
	}
	if e.Color != 0x00FF00 {
		t.Fatalf("color = %#x", e.Color)
	}
	if e.Triggers[0] != (TriggerTime{14, 30}) {
		t.Fatalf("triggers not sorted: %v", e.Triggers)
	}

	// Explicit values are not overwritten.
	e2 := validEvent()
	e2.CategoryIcon = "X"
	e2.Color = 7
	e2.applyDefaults(now)
	if e2.CategoryIcon != "X" || e2.Color != 7 {
		t.Fatalf("explicit fields clobbered: %q %d", e2.CategoryIcon, e2.Color)
	}
	if !e2.Anchor.Equal(validEvent().Anchor) {
		t.Fatal("non-zero anchor clobbered")
	}
}

func TestCloneIsolatesTriggers(t *testing.T) {
	e := validEvent()
	cp := e.Clone()
	cp.Triggers[0] = TriggerTime{0, 0}
	if e.Triggers[0] != (TriggerTime{19, 30}) {
		t.Fatal("Clone shares trigger slice with original")
	}
}
