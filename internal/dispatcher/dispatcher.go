// Package dispatcher pays out due payment schedules on a fixed interval.
//
// Each pass lists every schedule, skips the ones that are not due, and credits
// each recipient through the ledger. Every successful credit immediately moves
// the schedule's last paid time to the pass time, so progress survives a crash
// mid-pass. Failed credits are logged and retried on a later pass; nothing is
// retried within a pass.
//
// Only one dispatcher may run against a store. Two instances can pay the same
// schedule twice.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/orgpay/internal/ledger"
	"github.com/wolfeidau/orgpay/internal/logger"
	"github.com/wolfeidau/orgpay/internal/store"
	"github.com/wolfeidau/orgpay/internal/telemetry"
)

var (
	// ErrPassInProgress is returned by RunPass while another pass is running.
	ErrPassInProgress = errors.New("dispatcher pass already in progress")

	// ErrAlreadyStarted is returned by Start on a running dispatcher.
	ErrAlreadyStarted = errors.New("dispatcher already started")

	// ErrNotStarted is returned by Stop on a dispatcher that isn't running.
	ErrNotStarted = errors.New("dispatcher not started")
)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClock overrides the time source used to decide due-ness and stamp payments.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// WithLogger sets the logger used for pass and schedule logging.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// Dispatcher runs payment passes.
type Dispatcher struct {
	cfg     Config
	store   store.Store
	ledger  ledger.Ledger
	now     func() time.Time
	logger  zerolog.Logger
	metrics *telemetry.Metrics

	running  atomic.Bool
	lastPass atomic.Pointer[completedPass]

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type completedPass struct {
	result PassResult
	at     time.Time
}

// New creates a dispatcher. Zero config values are replaced with defaults.
func New(cfg Config, st store.Store, l ledger.Ledger, opts ...Option) (*Dispatcher, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if l == nil {
		return nil, fmt.Errorf("ledger is required")
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dispatcher config: %w", err)
	}

	d := &Dispatcher{
		cfg:     cfg,
		store:   st,
		ledger:  l,
		now:     time.Now,
		logger:  log.Logger,
		metrics: telemetry.GetMetrics(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

// Start schedules passes every cfg.Interval until Stop is called.
// Ticks never overlap: a tick that fires while a pass is still running is skipped.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cron != nil {
		return ErrAlreadyStarted
	}

	// passes are cancelled by Stop, not by the caller's context
	passCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	cronLog := logger.NewCronLogger(d.logger)
	c := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	c.Schedule(cron.Every(d.cfg.Interval), cron.FuncJob(func() {
		d.tick(passCtx)
	}))
	c.Start()

	if d.cfg.RunOnStart {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.tick(passCtx)
		}()
	}

	d.cron = c
	d.cancel = cancel

	d.logger.Info().
		Dur("interval", d.cfg.Interval).
		Int("workers", d.cfg.Workers).
		Msg("Dispatcher started")

	return nil
}

// Stop stops scheduling new passes and waits for a running pass to finish.
// If ctx is done first the running pass is cancelled and ctx.Err() is returned
// once it has unwound. Credits already made stay recorded.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cron == nil {
		return ErrNotStarted
	}

	cronDone := d.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		d.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		d.logger.Warn().Msg("Shutdown deadline reached, cancelling running pass")
		d.cancel()
		<-done
		err = ctx.Err()
	}

	d.cancel()
	d.cron = nil
	d.cancel = nil

	d.logger.Info().Msg("Dispatcher stopped")

	return err
}

// LastPass returns the result and completion time of the most recent pass that
// listed schedules successfully. ok is false until a pass has completed.
func (d *Dispatcher) LastPass() (result PassResult, at time.Time, ok bool) {
	p := d.lastPass.Load()
	if p == nil {
		return PassResult{}, time.Time{}, false
	}
	return p.result, p.at, true
}

func (d *Dispatcher) tick(ctx context.Context) {
	res, err := d.RunPass(ctx)
	switch {
	case errors.Is(err, ErrPassInProgress):
		d.logger.Debug().Msg("Skipping tick, pass still running")
	case err != nil:
		d.logger.Error().Err(err).Msg("Dispatcher pass failed")
	default:
		d.logger.Info().EmbedObject(res).Msg("Dispatcher pass complete")
	}
}
