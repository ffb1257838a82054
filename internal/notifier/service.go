package notifier

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"raidbot/internal/eventbus"
	rtsup "raidbot/internal/runtime/supervisor"
	"raidbot/internal/transport"
	logx "raidbot/pkg/logx"

	"golang.org/x/time/rate"
)

type job struct {
	target transport.ChatTarget
	text   string
	opts   *transport.SendOptions
}

// Service implements an async alert delivery pipeline:
// queue + worker pool + rate limit + retry.
//
// Destinations come from the Registry. When the registry is empty at
// broadcast time the service falls back to discovery over the chats the
// adapter has seen. A send rejected with transport.ErrForbidden removes
// that destination permanently.
//
// It is safe for concurrent use.
type Service struct {
	mu sync.Mutex

	log     logx.Logger
	adapter transport.Adapter
	bus     eventbus.Bus
	reg     *Registry

	cfg     Config
	limiter *rate.Limiter

	accepting bool
	sendWG    sync.WaitGroup

	queue    chan job
	sup      *rtsup.Supervisor
	stopDone chan struct{} // non-nil while stopping
}

func New(cfg Config, adapter transport.Adapter, reg *Registry, log logx.Logger, bus eventbus.Bus) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if reg == nil {
		reg = NewRegistry(nil)
	}
	s := &Service{
		adapter: adapter,
		log:     log,
		bus:     bus,
		reg:     reg,
	}
	s.applyLocked(cfg)
	return s
}

func (s *Service) Registry() *Registry { return s.reg }

// Supervisor returns the notifier's internal supervisor (nil if not started).
// Used for operational visibility (/status).
func (s *Service) Supervisor() *rtsup.Supervisor {
	s.mu.Lock()
	sup := s.sup
	s.mu.Unlock()
	return sup
}

func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	s.applyLocked(cfg)
	s.mu.Unlock()
}

func (s *Service) applyLocked(cfg Config) {
	// Defaults
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 3
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 0
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = 10 * time.Second
	}

	s.cfg = cfg
	// Token bucket: burst = rate per sec, so short spikes don't block too hard.
	s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
}

func (s *Service) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	// Start is idempotent.
	s.mu.Lock()
	// If stopping, wait for it to finish before restarting.
	if s.stopDone != nil {
		done := s.stopDone
		s.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return
		}
		s.mu.Lock()
	}
	if s.queue != nil {
		s.mu.Unlock()
		return
	}

	s.queue = make(chan job, s.cfg.QueueSize)
	s.accepting = true
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = 2
	}

	s.sup = rtsup.New(ctx,
		rtsup.WithLogger(s.log.With(logx.String("comp", "notifier"))),
		// delivery failures should not take down the whole app
		rtsup.WithCancelOnError(false),
	)
	sup := s.sup
	q := s.queue
	s.mu.Unlock()

	for i := 0; i < workers; i++ {
		name := fmt.Sprintf("worker.%d", i)
		sup.GoRestart(name, func(c context.Context) error {
			s.workerLoop(c, q)
			// Clean exits happen on shutdown (queue close or context cancel);
			// returning nil lets the restart wrapper stop instead of spinning
			// against a closed queue.
			s.mu.Lock()
			stopping := s.stopDone != nil
			s.mu.Unlock()
			if stopping || c.Err() != nil {
				return nil
			}
			return errors.New("notifier worker exited unexpectedly")
		}, rtsup.WithPublishFirstError(true))
	}
}

// Stop stops intake and drains the queue best-effort until ctx deadline.
func (s *Service) Stop(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	q := s.queue
	sup := s.sup
	if q == nil {
		s.mu.Unlock()
		return
	}
	if s.stopDone != nil {
		done := s.stopDone
		s.mu.Unlock()
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		}
	}

	done := make(chan struct{})
	s.stopDone = done
	s.accepting = false
	s.mu.Unlock()

	// Shutdown happens asynchronously so callers can time out without leaking state.
	go func() {
		defer close(done)
		// Wait for in-flight enqueues to finish, then close the queue so workers can drain.
		s.sendWG.Wait()
		func() {
			defer func() { _ = recover() }()
			close(q)
		}()
		if sup != nil {
			_ = sup.Wait(context.Background())
		}

		s.mu.Lock()
		s.queue = nil
		s.stopDone = nil
		s.sup = nil
		s.mu.Unlock()
	}()

	select {
	case <-done:
		return
	case <-ctx.Done():
		if sup != nil {
			sup.Cancel()
		}
		return
	}
}

// Broadcast enqueues text for every registered destination. When the
// registry is empty it first attempts auto-discovery. Returns the number
// of destinations the message was queued for.
func (s *Service) Broadcast(ctx context.Context, text string, opts *transport.SendOptions) (int, error) {
	targets := s.reg.List()
	if len(targets) == 0 {
		if t, ok := s.discover(); ok {
			targets = []transport.ChatTarget{t}
		}
	}
	if len(targets) == 0 {
		return 0, ErrNoTargets
	}

	queued := 0
	var lastErr error
	for _, t := range targets {
		if err := s.Notify(ctx, t, text, opts); err != nil {
			lastErr = err
			continue
		}
		queued++
	}
	if queued == 0 {
		return 0, lastErr
	}
	return queued, nil
}

// Notify enqueues text for one destination.
func (s *Service) Notify(ctx context.Context, target transport.ChatTarget, text string, opts *transport.SendOptions) error {
	if ctx != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	s.mu.Lock()
	if !s.accepting || s.queue == nil {
		s.mu.Unlock()
		return ErrStopped
	}
	q := s.queue
	s.sendWG.Add(1)
	s.mu.Unlock()
	defer s.sendWG.Done()

	s.publish("notifier.queued", target, "")

	select {
	case q <- job{target: target, text: text, opts: opts}:
		return nil
	default:
		s.publish("notifier.dropped", target, ErrQueueFull.Error())
		return ErrQueueFull
	}
}

// discover picks a fallback destination from the adapter's seen chats and
// registers it so subsequent broadcasts reuse it.
func (s *Service) discover() (transport.ChatTarget, bool) {
	s.mu.Lock()
	ad := s.adapter
	s.mu.Unlock()

	lister, ok := ad.(transport.ChatLister)
	if !ok {
		return transport.ChatTarget{}, false
	}
	t, ok := PickFallback(lister.KnownChats())
	if !ok {
		return transport.ChatTarget{}, false
	}
	s.reg.Set(t)
	s.log.Info("auto-discovered alert destination", logx.Int64("chat_id", t.ChatID))
	return t, true
}

func (s *Service) workerLoop(ctx context.Context, q <-chan job) {
	if ctx == nil {
		ctx = context.Background()
	}
	if q == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-q:
			if !ok {
				return
			}
			s.sendWithRetry(ctx, j)
		}
	}
}

func (s *Service) sendWithRetry(runCtx context.Context, j job) {
	// config snapshot for this send
	s.mu.Lock()
	cfg := s.cfg
	lim := s.limiter
	ad := s.adapter
	log := s.log
	s.mu.Unlock()

	if ad == nil || j.text == "" {
		return
	}

	maxAttempts := 1
	if cfg.RetryMax > 0 {
		maxAttempts = 1 + cfg.RetryMax
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		// Rate limit (honor cancellation).
		if lim != nil {
			if err := lim.Wait(runCtx); err != nil {
				return
			}
		}

		// Bound per-send call. Keep tight to avoid hanging workers.
		callCtx, cancel := context.WithTimeout(runCtx, 10*time.Second)
		_, err := ad.SendText(callCtx, j.target, j.text, j.opts)
		cancel()
		if err == nil {
			s.publish("notifier.sent", j.target, "")
			return
		}
		if errors.Is(err, transport.ErrForbidden) {
			// Kicked or muted: drop this destination for good.
			if s.reg.Remove(j.target.ChatID) {
				log.Warn("destination rejected send; deregistered",
					logx.Int64("chat_id", j.target.ChatID), logx.Err(err))
			}
			s.publish("notifier.deregistered", j.target, err.Error())
			return
		}
		lastErr = err
		log.Debug("alert send failed",
			logx.Err(err), logx.Int("attempt", attempt), logx.Int("max", maxAttempts))

		if attempt >= maxAttempts {
			break
		}

		delay := retryDelay(cfg, attempt)
		if delay <= 0 {
			continue
		}
		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-runCtx.Done():
			if !t.Stop() {
				<-t.C
			}
			return
		}
	}

	if lastErr != nil {
		s.publish("notifier.failed", j.target, lastErr.Error())
	}
}

func (s *Service) publish(typ string, target transport.ChatTarget, errText string) {
	if s.bus == nil {
		return
	}
	now := time.Now()
	s.bus.Publish(eventbus.Event{Type: typ, Time: now, Data: DeliveryEvent{
		ChatID:   target.ChatID,
		ThreadID: target.ThreadID,
		At:       now,
		Error:    errText,
	}})
}

func retryDelay(cfg Config, attempt int) time.Duration {
	// attempt starts at 1 (first attempt), delay is for the NEXT attempt.
	base := cfg.RetryBase
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	maxD := cfg.RetryMaxDelay
	if maxD <= 0 {
		maxD = 10 * time.Second
	}
	// Exponential backoff: base * 2^(attempt-1)
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxD {
			d = maxD
			break
		}
	}
	// Jitter 0.7..1.3
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	j := 0.7 + rng.Float64()*0.6
	d = time.Duration(float64(d) * j)
	if d < 0 {
		return 0
	}
	if d > maxD {
		d = maxD
	}
	return d
}
