// Package alerts runs the minute-cadence occurrence poller and the alert
// dispatcher behind it.
package alerts

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"raidbot/internal/catalog"
	"raidbot/internal/eventbus"
	"raidbot/internal/schedule"
	logx "raidbot/pkg/logx"
)

// Config controls the poller. Zero values take the defaults below.
type Config struct {
	Enabled      bool
	PollInterval time.Duration // default 60s
	EarlyWarning time.Duration // default 20m; 0 disables warnings
	SpawnAlert   bool          // exact-match alerts on/off
}

// Catalog is the read surface the poller needs.
type Catalog interface {
	All() []catalog.RaidEvent
}

const statusEvery = 10 * time.Minute

// Poller checks every catalog event's trigger times once per interval and
// forwards due alerts to the sink. One tick runs to completion before the
// next is scheduled; a failure in one event never stops the others.
type Poller struct {
	log  logx.Logger
	bus  eventbus.Bus
	cat  Catalog
	sink Sink
	loc  *time.Location

	clock func() time.Time

	mu         sync.Mutex
	cfg        Config
	cr         *cron.Cron
	runCtx     context.Context
	ticks      uint64
	lastStatus time.Time
}

func NewPoller(cfg Config, cat Catalog, sink Sink, loc *time.Location, log logx.Logger, bus eventbus.Bus) *Poller {
	if log.IsZero() {
		log = logx.Nop()
	}
	if loc == nil {
		loc = time.UTC
	}
	p := &Poller{
		log:   log.With(logx.String("comp", "alerts")),
		bus:   bus,
		cat:   cat,
		sink:  sink,
		loc:   loc,
		clock: time.Now,
	}
	p.cfg = normalize(cfg)
	return p
}

func normalize(cfg Config) Config {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Minute
	}
	switch {
	case cfg.EarlyWarning <= 0:
		cfg.EarlyWarning = 0
	default:
		// Trigger matching is minute-granular; a sub-minute lead could never
		// line up with a tick, so round to the nearest whole minute (at
		// least one).
		cfg.EarlyWarning = cfg.EarlyWarning.Round(time.Minute)
		if cfg.EarlyWarning < time.Minute {
			cfg.EarlyWarning = time.Minute
		}
	}
	return cfg
}

// Start begins ticking. Idempotent; a disabled config is a no-op.
func (p *Poller) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cr != nil || !p.cfg.Enabled {
		return
	}
	p.runCtx = ctx
	p.startLocked()
	p.log.Info("poller started",
		logx.Duration("interval", p.cfg.PollInterval),
		logx.Duration("early_warning", p.cfg.EarlyWarning),
		logx.Bool("spawn_alert", p.cfg.SpawnAlert))
}

func (p *Poller) startLocked() {
	cr := cron.New(cron.WithLocation(p.loc))
	tick := cron.FuncJob(func() {
		p.mu.Lock()
		ctx := p.runCtx
		p.mu.Unlock()
		if ctx == nil || ctx.Err() != nil {
			return
		}
		p.tick(ctx)
	})
	// A tick runs to completion before the next one starts; a slow tick
	// skips overlapping fires instead of stacking goroutines.
	cr.Schedule(cron.Every(p.cfg.PollInterval),
		cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(tick))
	cr.Start()
	p.cr = cr
}

// Stop halts ticking and waits for an in-flight tick until ctx expires.
func (p *Poller) Stop(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	p.mu.Lock()
	cr := p.cr
	p.cr = nil
	p.runCtx = nil
	p.mu.Unlock()
	if cr == nil {
		return
	}
	select {
	case <-cr.Stop().Done():
	case <-ctx.Done():
	}
}

// Apply installs a new config. Interval or enable changes restart the
// underlying cron; an in-flight tick finishes under the old settings.
func (p *Poller) Apply(cfg Config) {
	cfg = normalize(cfg)
	p.mu.Lock()
	defer p.mu.Unlock()
	prev := p.cfg
	p.cfg = cfg

	running := p.cr != nil
	switch {
	case running && !cfg.Enabled:
		p.cr.Stop()
		p.cr = nil
		p.log.Info("poller disabled")
	case running && cfg.PollInterval != prev.PollInterval:
		p.cr.Stop()
		p.startLocked()
		p.log.Info("poller interval changed", logx.Duration("interval", cfg.PollInterval))
	case !running && cfg.Enabled && p.runCtx != nil:
		p.startLocked()
		p.log.Info("poller enabled", logx.Duration("interval", cfg.PollInterval))
	}
}

// Status describes the poller's current settings and activity for
// operational commands.
type Status struct {
	Running      bool
	PollInterval time.Duration
	EarlyWarning time.Duration
	SpawnAlert   bool
	Ticks        uint64
}

func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{
		Running:      p.cr != nil,
		PollInterval: p.cfg.PollInterval,
		EarlyWarning: p.cfg.EarlyWarning,
		SpawnAlert:   p.cfg.SpawnAlert,
		Ticks:        p.ticks,
	}
}

// tick evaluates every event's trigger times against the current minute.
func (p *Poller) tick(ctx context.Context) {
	p.mu.Lock()
	cfg := p.cfg
	p.ticks++
	ticks := p.ticks
	p.mu.Unlock()

	now := p.clock().In(p.loc).Truncate(time.Minute)
	events := p.cat.All()
	for _, e := range events {
		p.checkEvent(ctx, e, now, cfg)
	}
	p.maybeLogStatus(now, len(events), ticks)
}

// checkEvent evaluates one event. Panics and per-trigger errors stay inside
// this call so the remaining events still get checked.
func (p *Poller) checkEvent(ctx context.Context, e catalog.RaidEvent, now time.Time, cfg Config) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("event check panicked",
				logx.String("event", e.Name), logx.Any("panic", r))
		}
	}()

	if len(e.Triggers) == 0 {
		// Catalog validation prevents this; defend anyway.
		p.log.Warn("event has no trigger times; skipping", logx.String("event", e.Name))
		return
	}

	for _, trig := range e.Triggers {
		if cfg.SpawnAlert && schedule.Occurs(e, trig, now) {
			p.emit(ctx, Alert{
				Kind:    KindSpawn,
				Event:   e,
				Trigger: trig,
				At:      now,
			})
			continue
		}
		if cfg.EarlyWarning <= 0 {
			continue
		}
		next := schedule.Next(e, trig, now)
		if now.Equal(next.Add(-cfg.EarlyWarning)) {
			p.emit(ctx, Alert{
				Kind:    KindEarlyWarning,
				Event:   e,
				Trigger: trig,
				At:      next,
				Lead:    cfg.EarlyWarning,
			})
		}
	}
}

func (p *Poller) emit(ctx context.Context, a Alert) {
	a.ID = uuid.NewString()
	p.log.Info("alert due",
		logx.String("id", a.ID),
		logx.String("kind", string(a.Kind)),
		logx.String("event", a.Event.Name),
		logx.String("trigger", a.Trigger.String()),
		logx.Time("at", a.At))
	if p.bus != nil {
		p.bus.Publish(eventbus.Event{Type: "alerts." + string(a.Kind), Time: time.Now(), Data: a})
	}
	if p.sink == nil {
		return
	}
	if err := p.sink.Deliver(ctx, a); err != nil {
		p.log.Error("alert delivery failed",
			logx.String("id", a.ID), logx.String("event", a.Event.Name), logx.Err(err))
	}
}

func (p *Poller) maybeLogStatus(now time.Time, events int, ticks uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.lastStatus.IsZero() && now.Sub(p.lastStatus) < statusEvery {
		return
	}
	p.lastStatus = now
	p.log.Info("poller status",
		logx.Int("events", events),
		logx.Uint64("ticks", ticks),
		logx.Time("now", now))
}
