package catalog

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"raidbot/internal/eventbus"
	"raidbot/internal/storage"
	logx "raidbot/pkg/logx"
)

var (
	ErrNotFound  = errors.New("event not found")
	ErrDuplicate = errors.New("event already exists")
)

// Service owns the in-memory catalog and keeps the durable store in sync:
// loaded once at startup, persisted after every mutation. All methods are
// safe for concurrent use; returned events are copies.
type Service struct {
	log   logx.Logger
	store storage.Store
	bus   eventbus.Bus
	loc   *time.Location

	clock func() time.Time

	mu     sync.RWMutex
	events []RaidEvent
}

func NewService(store storage.Store, loc *time.Location, log logx.Logger, bus eventbus.Bus) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		log:   log,
		store: store,
		bus:   bus,
		loc:   loc,
		clock: time.Now,
	}
}

func (s *Service) Location() *time.Location { return s.loc }

// Load populates the catalog from the store. A missing document seeds the
// built-in defaults and writes them immediately; an unreadable document
// falls back to defaults without overwriting the broken file.
func (s *Service) Load(ctx context.Context) error {
	doc, err := s.store.Load(ctx)
	switch {
	case errors.Is(err, storage.ErrNotExist):
		s.mu.Lock()
		s.events = Defaults(s.loc)
		s.mu.Unlock()
		s.log.Info("no catalog document; seeding defaults", logx.Int("events", s.Count()))
		return s.persist(ctx)
	case err != nil:
		s.mu.Lock()
		s.events = Defaults(s.loc)
		s.mu.Unlock()
		s.log.Error("catalog load failed; using built-in defaults", logx.Err(err))
		return nil
	}

	events := make([]RaidEvent, 0, len(doc.Events))
	for _, r := range doc.Events {
		e, err := fromRecord(r, s.loc)
		if err != nil {
			// One bad record must not take the rest of the catalog down.
			s.log.Warn("skipping invalid catalog record", logx.Err(err))
			continue
		}
		events = append(events, e)
	}
	s.mu.Lock()
	s.events = events
	s.mu.Unlock()
	s.log.Info("catalog loaded", logx.Int("events", len(events)))
	return nil
}

// All returns a snapshot of every event, in catalog order.
func (s *Service) All() []RaidEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RaidEvent, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Clone())
	}
	return out
}

func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Get returns the event with the exact (case-insensitive) name.
func (s *Service) Get(name string) (RaidEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOfLocked(name); i >= 0 {
		return s.events[i].Clone(), true
	}
	return RaidEvent{}, false
}

// Find resolves a user-supplied name: exact case-insensitive match first,
// then substring matches. Ambiguous substring matches resolve
// deterministically to the shortest event name (ties lexicographic).
func (s *Service) Find(name string) (RaidEvent, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return RaidEvent{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOfLocked(name); i >= 0 {
		return s.events[i].Clone(), true
	}

	var matches []RaidEvent
	for _, e := range s.events {
		if strings.Contains(strings.ToLower(e.Name), needle) {
			matches = append(matches, e)
		}
	}
	if len(matches) == 0 {
		return RaidEvent{}, false
	}
	sort.Slice(matches, func(i, j int) bool {
		if len(matches[i].Name) != len(matches[j].Name) {
			return len(matches[i].Name) < len(matches[j].Name)
		}
		return matches[i].Name < matches[j].Name
	})
	return matches[0].Clone(), true
}

// Add validates, defaults and inserts a new event, then persists.
func (s *Service) Add(ctx context.Context, e RaidEvent) error {
	e = e.Clone()
	e.applyDefaults(s.clock().In(s.loc))
	if err := e.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.indexOfLocked(e.Name) >= 0 {
		s.mu.Unlock()
		return ErrDuplicate
	}
	s.events = append(s.events, e)
	s.mu.Unlock()

	s.publish("catalog.added", e.Name)
	s.log.Info("event added", logx.String("name", e.Name))
	return s.persist(ctx)
}

// Patch carries partial field replacements for Update. Nil fields are left
// unchanged.
type Patch struct {
	Category       *string
	Location       *string
	Reward         *string
	Image          *string
	Triggers       []TriggerTime
	RecurrenceDays *int
	Anchor         *time.Time
}

// Update applies a field-by-field overwrite to an existing event (exact
// case-insensitive name), recomputing derived display fields when category
// or reward change, then persists.
func (s *Service) Update(ctx context.Context, name string, p Patch) (RaidEvent, error) {
	s.mu.Lock()
	i := s.indexOfLocked(name)
	if i < 0 {
		s.mu.Unlock()
		return RaidEvent{}, ErrNotFound
	}

	updated := s.events[i].Clone()
	categoryChanged := false
	rewardChanged := false
	if p.Category != nil && *p.Category != updated.Category {
		updated.Category = *p.Category
		categoryChanged = true
	}
	if p.Reward != nil && *p.Reward != updated.Reward {
		updated.Reward = *p.Reward
		rewardChanged = true
	}
	if p.Location != nil {
		updated.Location = *p.Location
	}
	if p.Image != nil {
		updated.Image = *p.Image
	}
	if p.Triggers != nil {
		updated.Triggers = append([]TriggerTime(nil), p.Triggers...)
		sortTriggers(updated.Triggers)
	}
	if p.RecurrenceDays != nil {
		updated.RecurrenceDays = *p.RecurrenceDays
	}
	if p.Anchor != nil {
		updated.Anchor = p.Anchor.In(s.loc)
	}
	updated.refreshDerived(categoryChanged, rewardChanged)

	if err := updated.Validate(); err != nil {
		s.mu.Unlock()
		return RaidEvent{}, err
	}
	s.events[i] = updated
	s.mu.Unlock()

	s.publish("catalog.updated", updated.Name)
	s.log.Info("event updated", logx.String("name", updated.Name))
	if err := s.persist(ctx); err != nil {
		return updated.Clone(), err
	}
	return updated.Clone(), nil
}

// Remove deletes an event by exact (case-insensitive) name, then persists.
func (s *Service) Remove(ctx context.Context, name string) error {
	s.mu.Lock()
	i := s.indexOfLocked(name)
	if i < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	removed := s.events[i].Name
	s.events = append(s.events[:i], s.events[i+1:]...)
	s.mu.Unlock()

	s.publish("catalog.removed", removed)
	s.log.Info("event removed", logx.String("name", removed))
	return s.persist(ctx)
}

// Stats aggregates catalog counts. Pure read, no side effects.
type Stats struct {
	Total      int
	ByCategory map[string]int
	ByReward   map[string]int
	ByLocation map[string]int
}

func (s *Service) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{
		Total:      len(s.events),
		ByCategory: map[string]int{},
		ByReward:   map[string]int{},
		ByLocation: map[string]int{},
	}
	for _, e := range s.events {
		st.ByCategory[e.Category]++
		st.ByReward[e.Reward]++
		st.ByLocation[e.Location]++
	}
	return st
}

func (s *Service) indexOfLocked(name string) int {
	needle := strings.ToLower(strings.TrimSpace(name))
	for i, e := range s.events {
		if strings.ToLower(e.Name) == needle {
			return i
		}
	}
	return -1
}

// persist writes the current catalog to the store. A write failure is logged
// and swallowed: in-memory state stays authoritative for the session and the
// next successful write makes it durable again.
func (s *Service) persist(ctx context.Context) error {
	s.mu.RLock()
	doc := &storage.Document{Events: make([]storage.EventRecord, 0, len(s.events))}
	for _, e := range s.events {
		doc.Events = append(doc.Events, toRecord(e))
	}
	s.mu.RUnlock()

	if err := s.store.Save(ctx, doc); err != nil {
		s.log.Error("catalog persist failed; in-memory state remains authoritative", logx.Err(err))
	}
	return nil
}

func (s *Service) publish(typ, name string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.Event{Type: typ, Data: name})
}
