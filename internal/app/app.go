// Package app wires configuration, transport, catalog, alerting and the
// command surface into one lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"raidbot/internal/alerts"
	"raidbot/internal/catalog"
	"raidbot/internal/config"
	"raidbot/internal/eventbus"
	"raidbot/internal/notifier"
	rtsup "raidbot/internal/runtime/supervisor"
	"raidbot/internal/storage"
	kit "raidbot/internal/transport"
	"raidbot/internal/transport/telegram"
	"raidbot/internal/transport/telegram/router"
	logx "raidbot/pkg/logx"
)

const defaultTimezone = "Asia/Seoul"

type App struct {
	log  logx.Logger
	logs *logx.Service
	cfgm *config.Manager
	loc  *time.Location

	bus      eventbus.Bus
	store    storage.Store
	catalog  *catalog.Service
	registry *notifier.Registry
	notifier *notifier.Service
	dispatch *alerts.Dispatcher
	poller   *alerts.Poller
	adapter  *telegram.Adapter
	router   *router.Router

	runMu   sync.Mutex
	sup     *rtsup.Supervisor
	updates chan kit.Update
	started time.Time
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logs, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File:    logx.FileConfig(cfg.Logging.File),
	})
	cfgm.SetLogger(log.With(logx.String("comp", "config")))
	cfgm.SetValidator(func(ctx context.Context, c *config.Config) error {
		return validate(c)
	})

	loc, err := loadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	pollTimeout, err := config.ParseDurationField("telegram.poll_timeout", cfg.Telegram.PollTimeout)
	if err != nil {
		return nil, err
	}
	adapter, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
	}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		return nil, fmt.Errorf("telegram adapter: %w", err)
	}

	busyTimeout, err := config.ParseDurationField("catalog.busy_timeout", cfg.Catalog.BusyTimeout)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(storage.Config{
		Driver:      cfg.Catalog.Driver,
		Path:        cfg.Catalog.Path,
		BusyTimeout: busyTimeout,
	}, log.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, fmt.Errorf("open catalog store: %w", err)
	}

	bus := eventbus.New()
	cat := catalog.NewService(store, loc, log.With(logx.String("comp", "catalog")), bus)

	registry := notifier.NewRegistry(chatTargets(cfg.Alerts.Chats))
	deliverCfg, err := deliverConfig(cfg.Deliver)
	if err != nil {
		return nil, err
	}
	notif := notifier.New(deliverCfg, adapter, registry, log, bus)

	dispatch := alerts.NewDispatcher(notif, cfg.Alerts.MentionAll, log.With(logx.String("comp", "dispatch")))
	alertsCfg, err := alertsConfig(cfg.Alerts)
	if err != nil {
		return nil, err
	}
	poller := alerts.NewPoller(alertsCfg, cat, dispatch, loc, log, bus)

	rtr := router.New(log, adapter, cfg.Telegram.OwnerUserIDs)

	a := &App{
		log:      log.With(logx.String("comp", "app")),
		logs:     logs,
		cfgm:     cfgm,
		loc:      loc,
		bus:      bus,
		store:    store,
		catalog:  cat,
		registry: registry,
		notifier: notif,
		dispatch: dispatch,
		poller:   poller,
		adapter:  adapter,
		router:   rtr,
	}
	rtr.Register(router.Commands(router.Deps{
		Catalog:  cat,
		Poller:   poller,
		Notifier: notif,
		Started:  time.Now(),
	})...)
	return a, nil
}

func (a *App) Start(ctx context.Context) error {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	if a.sup != nil {
		return errors.New("already started")
	}
	a.started = time.Now()

	if err := a.catalog.Load(ctx); err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	a.sup = rtsup.New(ctx,
		rtsup.WithLogger(a.log),
		rtsup.WithCancelOnError(false),
	)
	a.updates = make(chan kit.Update, 256)

	if err := a.adapter.Start(a.sup.Context(), a.updates); err != nil {
		return fmt.Errorf("start adapter: %w", err)
	}
	a.notifier.Start(a.sup.Context())
	a.poller.Start(a.sup.Context())

	updates := a.updates
	a.sup.Go("router.dispatch", func(c context.Context) error {
		return a.router.DispatchLoop(c, updates)
	})
	a.sup.Go0("config.watch", func(c context.Context) {
		_ = a.cfgm.Watch(c)
	})

	events, unsub := a.bus.Subscribe(64)
	a.sup.Go0("eventbus.log", func(c context.Context) {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				a.log.Debug("event", logx.String("type", ev.Type), logx.Any("data", ev.Data))
			}
		}
	})

	reloads := a.cfgm.Subscribe(4)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(reloads)
		for {
			select {
			case <-c.Done():
				return
			case cfg, ok := <-reloads:
				if !ok {
					return
				}
				a.applyConfig(cfg)
			}
		}
	})

	a.log.Info("started",
		logx.String("timezone", a.loc.String()),
		logx.Int("events", a.catalog.Count()))
	return nil
}

// applyConfig propagates a validated hot-reload. Changes that need a process
// restart (token, catalog driver/path) are logged, not applied.
func (a *App) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	a.logs.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File:    logx.FileConfig(cfg.Logging.File),
	})
	a.router.SetOwners(cfg.Telegram.OwnerUserIDs)

	if alertsCfg, err := alertsConfig(cfg.Alerts); err == nil {
		a.poller.Apply(alertsCfg)
	} else {
		a.log.Warn("reload: bad alerts config", logx.Err(err))
	}
	a.dispatch.Apply(cfg.Alerts.MentionAll)
	for _, t := range chatTargets(cfg.Alerts.Chats) {
		a.registry.Set(t)
	}

	if deliverCfg, err := deliverConfig(cfg.Deliver); err == nil {
		a.notifier.Apply(deliverCfg)
	} else {
		a.log.Warn("reload: bad deliver config", logx.Err(err))
	}

	if !strings.EqualFold(strings.TrimSpace(cfg.Timezone), a.loc.String()) &&
		!(strings.TrimSpace(cfg.Timezone) == "" && a.loc.String() == defaultTimezone) {
		a.log.Warn("reload: timezone change requires restart")
	}
	a.log.Info("config applied")
}

func (a *App) Stop(ctx context.Context) error {
	a.runMu.Lock()
	sup := a.sup
	a.sup = nil
	a.runMu.Unlock()
	if sup == nil {
		return nil
	}

	a.poller.Stop(ctx)
	a.notifier.Stop(ctx)
	_ = a.adapter.Stop(ctx)

	sup.Cancel()
	wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = sup.Wait(wctx)

	if err := a.store.Close(); err != nil {
		a.log.Warn("closing catalog store", logx.Err(err))
	}
	a.log.Info("stopped", logx.Duration("uptime", time.Since(a.started).Round(time.Second)))
	_ = a.logs.Close()
	return nil
}

func validate(cfg *config.Config) error {
	if cfg == nil {
		return errors.New("empty config")
	}
	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return errors.New("telegram.token is required")
	}
	if _, err := loadLocation(cfg.Timezone); err != nil {
		return err
	}
	if _, err := config.ParseDurationField("telegram.poll_timeout", cfg.Telegram.PollTimeout); err != nil {
		return err
	}
	if _, err := alertsConfig(cfg.Alerts); err != nil {
		return err
	}
	if _, err := deliverConfig(cfg.Deliver); err != nil {
		return err
	}
	if _, err := config.ParseDurationField("catalog.busy_timeout", cfg.Catalog.BusyTimeout); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Catalog.Driver)) {
	case "", "file", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("catalog.driver: unknown driver %q", cfg.Catalog.Driver)
	}
	return nil
}

func loadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	return loc, nil
}

func alertsConfig(c config.AlertsConfig) (alerts.Config, error) {
	interval, err := config.ParseDurationOrDefault("alerts.poll_interval", c.PollInterval, time.Minute)
	if err != nil {
		return alerts.Config{}, err
	}
	warning, err := config.ParseDurationOrDefault("alerts.early_warning", c.EarlyWarning, 20*time.Minute)
	if err != nil {
		return alerts.Config{}, err
	}
	spawn := true
	if c.SpawnAlert != nil {
		spawn = *c.SpawnAlert
	}
	return alerts.Config{
		Enabled:      c.Enabled,
		PollInterval: interval,
		EarlyWarning: warning,
		SpawnAlert:   spawn,
	}, nil
}

func deliverConfig(c *config.DeliverConfig) (notifier.Config, error) {
	if c == nil {
		return notifier.Config{}, nil
	}
	base, err := config.ParseDurationField("deliver.retry_base", c.RetryBase)
	if err != nil {
		return notifier.Config{}, err
	}
	maxDelay, err := config.ParseDurationField("deliver.retry_max_delay", c.RetryMaxDelay)
	if err != nil {
		return notifier.Config{}, err
	}
	return notifier.Config{
		Workers:       c.Workers,
		QueueSize:     c.QueueSize,
		RatePerSec:    c.RatePerSec,
		RetryMax:      c.RetryMax,
		RetryBase:     base,
		RetryMaxDelay: maxDelay,
	}, nil
}

func chatTargets(refs []config.ChatRef) []kit.ChatTarget {
	out := make([]kit.ChatTarget, 0, len(refs))
	for _, r := range refs {
		out = append(out, kit.ChatTarget{ChatID: r.ChatID, ThreadID: r.ThreadID})
	}
	return out
}
