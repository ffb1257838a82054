// Package catalog holds the raid event definitions: the in-memory,
// persisted collection the poller and the command surface read from.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// TriggerTime is a daily recurring time-of-day slot (operating time zone).
type TriggerTime struct {
	Hour   int
	Minute int
}

func (t TriggerTime) Valid() bool {
	return t.Hour >= 0 && t.Hour <= 23 && t.Minute >= 0 && t.Minute <= 59
}

func (t TriggerTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTriggerTime parses "HH:MM" (24-hour clock).
func ParseTriggerTime(s string) (TriggerTime, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return TriggerTime{}, fmt.Errorf("invalid trigger time %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return TriggerTime{}, fmt.Errorf("invalid trigger time %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return TriggerTime{}, fmt.Errorf("invalid trigger time %q: %w", s, err)
	}
	t := TriggerTime{Hour: h, Minute: m}
	if !t.Valid() {
		return TriggerTime{}, fmt.Errorf("trigger time %q out of range", s)
	}
	return t, nil
}

// ParseTriggerList parses a comma-separated list of "HH:MM" entries.
func ParseTriggerList(s string) ([]TriggerTime, error) {
	var out []TriggerTime
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		t, err := ParseTriggerTime(part)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, errors.New("trigger list is empty")
	}
	return out, nil
}

// Event categories mirror the game's attribute triangle.
const (
	CategoryData    = "Data"
	CategoryVirus   = "Virus"
	CategoryVaccine = "Vaccine"
)

// RaidEvent is one recurring raid definition.
//
// Scheduling only reads Triggers, RecurrenceDays and Anchor; the remaining
// fields are display metadata carried through to alerts and listings.
type RaidEvent struct {
	Name     string
	Category string
	Location string
	Reward   string

	Triggers       []TriggerTime
	RecurrenceDays int

	// Anchor seeds the recurrence. Only its calendar date matters; the
	// hour/minute are overridden per trigger time.
	Anchor time.Time

	Image        string
	Color        int
	CategoryIcon string
	RewardIcon   string
}

func (e RaidEvent) Clone() RaidEvent {
	cp := e
	cp.Triggers = append([]TriggerTime(nil), e.Triggers...)
	return cp
}

// Validate checks the catalog invariants for a single event.
func (e *RaidEvent) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return errors.New("event name is required")
	}
	if strings.TrimSpace(e.Category) == "" {
		return errors.New("category is required")
	}
	if strings.TrimSpace(e.Location) == "" {
		return errors.New("location is required")
	}
	if strings.TrimSpace(e.Reward) == "" {
		return errors.New("reward is required")
	}
	if len(e.Triggers) == 0 {
		return errors.New("at least one trigger time is required")
	}
	for _, t := range e.Triggers {
		if !t.Valid() {
			return fmt.Errorf("trigger time %02d:%02d out of range", t.Hour, t.Minute)
		}
	}
	if e.RecurrenceDays < 1 {
		return fmt.Errorf("recurrence_days must be >= 1 (got %d)", e.RecurrenceDays)
	}
	return nil
}

// applyDefaults fills derived display fields and the anchor.
// now must already be in the operating time zone.
func (e *RaidEvent) applyDefaults(now time.Time) {
	if e.Anchor.IsZero() {
		e.Anchor = now
	}
	if e.CategoryIcon == "" {
		e.CategoryIcon = categoryIcon(e.Category)
	}
	if e.RewardIcon == "" {
		e.RewardIcon = rewardIcon(e.Reward)
	}
	if e.Color == 0 {
		e.Color = categoryColor(e.Category)
	}
	sortTriggers(e.Triggers)
}

// refreshDerived recomputes icon/color fields after a category or reward
// change on update.
func (e *RaidEvent) refreshDerived(categoryChanged, rewardChanged bool) {
	if categoryChanged {
		e.CategoryIcon = categoryIcon(e.Category)
		e.Color = categoryColor(e.Category)
	}
	if rewardChanged {
		e.RewardIcon = rewardIcon(e.Reward)
	}
}

func sortTriggers(ts []TriggerTime) {
	sort.Slice(ts, func(i, j int) bool {
		if ts[i].Hour != ts[j].Hour {
			return ts[i].Hour < ts[j].Hour
		}
		return ts[i].Minute < ts[j].Minute
	})
}

func categoryIcon(category string) string {
	switch category {
	case CategoryData:
		return "\U0001F4BE" // floppy disk
	case CategoryVirus:
		return "\U0001F9A0" // microbe
	case CategoryVaccine:
		return "\U0001F6E1\uFE0F" // shield
	default:
		return "❓"
	}
}

func categoryColor(category string) int {
	switch category {
	case CategoryData:
		return 0x0099FF
	case CategoryVirus:
		return 0xFF3366
	case CategoryVaccine:
		return 0x00FF00
	default:
		return 0x808080
	}
}

func rewardIcon(reward string) string {
	switch reward {
	case "Digital Hazard Coin":
		return "\U0001FA99" // coin
	case "Evil Digital Hazard Coin":
		return "\U0001F4B0" // money bag
	case "Sacred Codes":
		return "⭐" // star
	default:
		return "❓"
	}
}
