package catalog

import (
	"fmt"
	"time"

	"raidbot/internal/storage"
)

// anchorFormat is the persisted anchor form: RFC 3339 with zone offset.
const anchorFormat = time.RFC3339

func toRecord(e RaidEvent) storage.EventRecord {
	triggers := make([]string, 0, len(e.Triggers))
	for _, t := range e.Triggers {
		triggers = append(triggers, t.String())
	}
	return storage.EventRecord{
		Name:           e.Name,
		Category:       e.Category,
		Location:       e.Location,
		Reward:         e.Reward,
		Triggers:       triggers,
		RecurrenceDays: e.RecurrenceDays,
		Anchor:         e.Anchor.Format(anchorFormat),
		Image:          e.Image,
		Color:          e.Color,
		CategoryIcon:   e.CategoryIcon,
		RewardIcon:     e.RewardIcon,
	}
}

// fromRecord parses a persisted record and normalizes its anchor into the
// operating time zone.
func fromRecord(r storage.EventRecord, loc *time.Location) (RaidEvent, error) {
	e := RaidEvent{
		Name:           r.Name,
		Category:       r.Category,
		Location:       r.Location,
		Reward:         r.Reward,
		RecurrenceDays: r.RecurrenceDays,
		Image:          r.Image,
		Color:          r.Color,
		CategoryIcon:   r.CategoryIcon,
		RewardIcon:     r.RewardIcon,
	}
	for _, raw := range r.Triggers {
		t, err := ParseTriggerTime(raw)
		if err != nil {
			return RaidEvent{}, fmt.Errorf("event %q: %w", r.Name, err)
		}
		e.Triggers = append(e.Triggers, t)
	}
	anchor, err := time.Parse(anchorFormat, r.Anchor)
	if err != nil {
		return RaidEvent{}, fmt.Errorf("event %q: bad anchor %q: %w", r.Name, r.Anchor, err)
	}
	e.Anchor = anchor.In(loc)
	if err := e.Validate(); err != nil {
		return RaidEvent{}, fmt.Errorf("event %q: %w", r.Name, err)
	}
	return e, nil
}
